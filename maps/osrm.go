package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rightfit/rightfit-navigation/config"
	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/logging"
)

// ErrNoRoute is returned when OSRM has no routable path between the points.
var ErrNoRoute = errors.New("osrm: no route found")

// OSRM codes that mean the points cannot be connected.
var osrmNoRouteCodes = map[string]bool{
	"NoRoute":   true,
	"NoSegment": true,
}

// OSRMClient calls an OSRM routing engine.
type OSRMClient struct {
	baseClient
}

// NewOSRMClient creates an OSRM client against cfg.OSRMBaseURL.
func NewOSRMClient(cfg config.NavigationConfig, logger *logging.Logger, tracer *Tracer) *OSRMClient {
	return &OSRMClient{
		baseClient: newBaseClient(ProviderOSRM, cfg.OSRMBaseURL, cfg.RoutingTimeout, logger, tracer),
	}
}

// OSRMManeuver describes the action at the start of a step.
type OSRMManeuver struct {
	Type     string `json:"type"`
	Modifier string `json:"modifier"`
}

// OSRMStep is one step of a route leg.
type OSRMStep struct {
	Distance float64      `json:"distance"`
	Duration float64      `json:"duration"`
	Name     string       `json:"name"`
	Maneuver OSRMManeuver `json:"maneuver"`
}

// OSRMRoute is the first route OSRM returned.
type OSRMRoute struct {
	Distance float64 // meters
	Duration float64 // seconds
	Geometry string  // encoded polyline, precision 5
	Steps    []OSRMStep
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
		Legs     []struct {
			Steps []OSRMStep `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// Route requests a driving route with step instructions and the full
// geometry as an encoded polyline.
func (c *OSRMClient) Route(ctx context.Context, origin, dest geo.Point) (_ *OSRMRoute, err error) {
	ctx, span := c.startSpan(ctx, "route")
	defer func() { span.Finish(err) }()

	params := url.Values{}
	params.Set("steps", "true")
	params.Set("overview", "full")
	params.Set("geometries", "polyline")

	reqURL := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?%s",
		c.baseURL, origin.Lng, origin.Lat, dest.Lng, dest.Lat, params.Encode())

	var apiResp osrmResponse
	if err := c.fetch(ctx, reqURL, nil, &apiResp); err != nil {
		// OSRM answers 400 with a JSON code for unroutable input.
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusBadRequest {
			var body osrmResponse
			if json.Unmarshal([]byte(se.Body), &body) == nil && osrmNoRouteCodes[body.Code] {
				return nil, fmt.Errorf("%w: %s", ErrNoRoute, body.Message)
			}
		}
		return nil, err
	}

	if apiResp.Code != "Ok" || len(apiResp.Routes) == 0 {
		return nil, fmt.Errorf("%w: code %q", ErrNoRoute, apiResp.Code)
	}

	r := apiResp.Routes[0]
	route := &OSRMRoute{
		Distance: r.Distance,
		Duration: r.Duration,
		Geometry: r.Geometry,
	}
	for _, leg := range r.Legs {
		route.Steps = append(route.Steps, leg.Steps...)
	}

	span.SetAttributes(RouteAttributes(route.Distance, route.Duration, len(route.Steps))...)
	c.logger.Debug("route completed",
		"distance_meters", route.Distance,
		"duration_seconds", route.Duration,
		"steps", len(route.Steps))

	return route, nil
}

// Ping checks that the routing engine answers HTTP at all.
func (c *OSRMClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("osrm returned status %d", resp.StatusCode)
	}
	return nil
}
