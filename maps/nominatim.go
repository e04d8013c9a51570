package maps

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rightfit/rightfit-navigation/config"
	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/logging"
)

// NominatimClient is the OpenStreetMap Nominatim adapter for forward and
// reverse geocoding. Both operations share one limiter because they count
// against the same usage policy.
type NominatimClient struct {
	baseClient
	userAgent string
	limiter   RateLimiter
}

// NewNominatimClient creates a Nominatim client.
func NewNominatimClient(cfg config.NavigationConfig, logger *logging.Logger, tracer *Tracer, limiter RateLimiter) *NominatimClient {
	if limiter == nil {
		limiter = NewIntervalLimiter(cfg.GeocodeRatePerSecond)
	}
	return &NominatimClient{
		baseClient: newBaseClient(ProviderNominatim, cfg.NominatimBaseURL, cfg.GeocodeTimeout, logger, tracer),
		userAgent:  cfg.NominatimUserAgent,
		limiter:    limiter,
	}
}

// NominatimAddress holds the address components Nominatim returns with
// addressdetails=1. Absent components are empty strings.
type NominatimAddress struct {
	HouseNumber string `json:"house_number"`
	Road        string `json:"road"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	Hamlet      string `json:"hamlet"`
	Postcode    string `json:"postcode"`
	Country     string `json:"country"`
}

// Locality returns the most specific settlement name present.
func (a NominatimAddress) Locality() string {
	for _, v := range []string{a.City, a.Town, a.Village, a.Hamlet} {
		if v != "" {
			return v
		}
	}
	return ""
}

// === Search ===

// GeocodeMatch is one forward geocoding candidate.
type GeocodeMatch struct {
	Location    geo.Point
	DisplayName string
	Class       string
	Type        string
	AddressType string
	Address     NominatimAddress
}

// Search resolves free text to at most one candidate. An empty slice means
// no match.
func (c *NominatimClient) Search(ctx context.Context, address string) ([]GeocodeMatch, error) {
	if err := c.limiter.Wait(ctx, ProviderNominatim); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")

	var apiResp []struct {
		Lat         string           `json:"lat"`
		Lon         string           `json:"lon"`
		DisplayName string           `json:"display_name"`
		Class       string           `json:"class"`
		Type        string           `json:"type"`
		AddressType string           `json:"addresstype"`
		Address     NominatimAddress `json:"address"`
	}

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())
	if err := c.getJSON(ctx, "search", reqURL, c.headers(), &apiResp); err != nil {
		return nil, err
	}

	matches := make([]GeocodeMatch, 0, len(apiResp))
	for _, r := range apiResp {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude %q in nominatim response: %w", r.Lat, err)
		}
		lng, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude %q in nominatim response: %w", r.Lon, err)
		}
		matches = append(matches, GeocodeMatch{
			Location:    geo.Point{Lat: lat, Lng: lng},
			DisplayName: r.DisplayName,
			Class:       r.Class,
			Type:        r.Type,
			AddressType: r.AddressType,
			Address:     r.Address,
		})
	}

	c.logger.Debug("geocode search completed", "results", len(matches))
	return matches, nil
}

// === Reverse ===

// ReverseResult is the address found at a coordinate.
type ReverseResult struct {
	DisplayName string
	Address     NominatimAddress
}

// Reverse resolves a coordinate to address components. It is never cached.
func (c *NominatimClient) Reverse(ctx context.Context, p geo.Point) (*ReverseResult, error) {
	if err := c.limiter.Wait(ctx, ProviderNominatim); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(p.Lng, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")

	var apiResp struct {
		DisplayName string           `json:"display_name"`
		Address     NominatimAddress `json:"address"`
		Error       string           `json:"error"`
	}

	reqURL := fmt.Sprintf("%s/reverse?%s", c.baseURL, params.Encode())
	if err := c.getJSON(ctx, "reverse", reqURL, c.headers(), &apiResp); err != nil {
		return nil, err
	}

	if apiResp.Error != "" {
		c.logger.Debug("reverse geocode found no address", "reason", apiResp.Error)
	}

	c.logger.Debug("reverse geocode completed", "lat", p.Lat, "lng", p.Lng, "city", apiResp.Address.Locality())

	return &ReverseResult{
		DisplayName: apiResp.DisplayName,
		Address:     apiResp.Address,
	}, nil
}

// Nominatim's usage policy requires an identifying User-Agent.
func (c *NominatimClient) headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", c.userAgent)
	return h
}
