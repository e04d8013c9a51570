package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rightfit/rightfit-navigation/config"
	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/logging"
	"github.com/rightfit/rightfit-navigation/resilience"
)

const tomtomIncidentFields = "{incidents{type,geometry{type,coordinates},properties{id,iconCategory,magnitudeOfDelay,events{description,code},startTime,endTime,from,to,length,delay}}}"

// TomTomClient fetches traffic incidents and flow readings.
type TomTomClient struct {
	baseClient
	apiKey string
}

// NewTomTomClient creates a TomTom traffic client. breaker may be nil.
func NewTomTomClient(cfg config.NavigationConfig, logger *logging.Logger, tracer *Tracer, breaker *resilience.CircuitBreaker) *TomTomClient {
	c := &TomTomClient{
		baseClient: newBaseClient(ProviderTomTom, cfg.TomTomBaseURL, cfg.TrafficTimeout, logger, tracer),
		apiKey:     cfg.TomTomAPIKey,
	}
	c.breaker = breaker
	return c
}

// Enabled reports whether an API key is configured.
func (c *TomTomClient) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// === Incidents ===

// TomTomIncident is one incident inside the requested bounding box.
type TomTomIncident struct {
	ID               string
	IconCategory     int
	MagnitudeOfDelay int
	Description      string
	From             string
	To               string
	DelaySeconds     int
	LengthMeters     float64
	StartTime        string
	EndTime          string
	Location         *geo.Point
}

// Incidents returns the incidents inside bbox.
func (c *TomTomClient) Incidents(ctx context.Context, bbox geo.BoundingBox) ([]TomTomIncident, error) {
	if !c.Enabled() {
		return nil, ErrProviderDisabled
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("bbox", fmt.Sprintf("%f,%f,%f,%f", bbox.MinLng, bbox.MinLat, bbox.MaxLng, bbox.MaxLat))
	params.Set("fields", tomtomIncidentFields)
	params.Set("language", "en-GB")

	var apiResp struct {
		Incidents []struct {
			Geometry struct {
				Type        string          `json:"type"`
				Coordinates json.RawMessage `json:"coordinates"`
			} `json:"geometry"`
			Properties struct {
				ID               string  `json:"id"`
				IconCategory     int     `json:"iconCategory"`
				MagnitudeOfDelay int     `json:"magnitudeOfDelay"`
				StartTime        string  `json:"startTime"`
				EndTime          string  `json:"endTime"`
				From             string  `json:"from"`
				To               string  `json:"to"`
				Length           float64 `json:"length"`
				Delay            int     `json:"delay"`
				Events           []struct {
					Description string `json:"description"`
					Code        int    `json:"code"`
				} `json:"events"`
			} `json:"properties"`
		} `json:"incidents"`
	}

	reqURL := fmt.Sprintf("%s/traffic/services/5/incidentDetails?%s", c.baseURL, params.Encode())
	if err := c.getJSON(ctx, "incident_details", reqURL, nil, &apiResp); err != nil {
		return nil, err
	}

	incidents := make([]TomTomIncident, 0, len(apiResp.Incidents))
	for _, in := range apiResp.Incidents {
		p := in.Properties
		incident := TomTomIncident{
			ID:               p.ID,
			IconCategory:     p.IconCategory,
			MagnitudeOfDelay: p.MagnitudeOfDelay,
			From:             p.From,
			To:               p.To,
			DelaySeconds:     p.Delay,
			LengthMeters:     p.Length,
			StartTime:        p.StartTime,
			EndTime:          p.EndTime,
			Location:         firstCoordinate(in.Geometry.Type, in.Geometry.Coordinates),
		}
		if len(p.Events) > 0 {
			incident.Description = p.Events[0].Description
		}
		incidents = append(incidents, incident)
	}

	c.logger.Debug("traffic incidents fetched", "count", len(incidents))
	return incidents, nil
}

// firstCoordinate returns the first [lon, lat] pair of a GeoJSON Point or
// LineString geometry.
func firstCoordinate(geometryType string, raw json.RawMessage) *geo.Point {
	switch geometryType {
	case "Point":
		var c []float64
		if json.Unmarshal(raw, &c) == nil && len(c) >= 2 {
			return &geo.Point{Lat: c[1], Lng: c[0]}
		}
	case "LineString":
		var cs [][]float64
		if json.Unmarshal(raw, &cs) == nil && len(cs) > 0 && len(cs[0]) >= 2 {
			return &geo.Point{Lat: cs[0][1], Lng: cs[0][0]}
		}
	}
	return nil
}

// === Flow ===

// TomTomFlow is a flow reading for the road segment nearest a point.
type TomTomFlow struct {
	CurrentSpeed       float64 // km/h
	FreeFlowSpeed      float64 // km/h
	CurrentTravelTime  int     // seconds
	FreeFlowTravelTime int     // seconds
	Confidence         float64
	RoadClosure        bool
}

// Flow returns the flow reading at p.
func (c *TomTomClient) Flow(ctx context.Context, p geo.Point) (*TomTomFlow, error) {
	if !c.Enabled() {
		return nil, ErrProviderDisabled
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("point", fmt.Sprintf("%f,%f", p.Lat, p.Lng))
	params.Set("unit", "KMPH")

	var apiResp struct {
		FlowSegmentData struct {
			CurrentSpeed       float64 `json:"currentSpeed"`
			FreeFlowSpeed      float64 `json:"freeFlowSpeed"`
			CurrentTravelTime  int     `json:"currentTravelTime"`
			FreeFlowTravelTime int     `json:"freeFlowTravelTime"`
			Confidence         float64 `json:"confidence"`
			RoadClosure        bool    `json:"roadClosure"`
		} `json:"flowSegmentData"`
	}

	reqURL := fmt.Sprintf("%s/traffic/services/4/flowSegmentData/absolute/10/json?%s", c.baseURL, params.Encode())
	if err := c.getJSON(ctx, "flow_segment", reqURL, nil, &apiResp); err != nil {
		return nil, err
	}

	f := apiResp.FlowSegmentData
	return &TomTomFlow{
		CurrentSpeed:       f.CurrentSpeed,
		FreeFlowSpeed:      f.FreeFlowSpeed,
		CurrentTravelTime:  f.CurrentTravelTime,
		FreeFlowTravelTime: f.FreeFlowTravelTime,
		Confidence:         f.Confidence,
		RoadClosure:        f.RoadClosure,
	}, nil
}
