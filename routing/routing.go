// Package routing turns OSRM driving routes into turn-by-turn directions.
// Routes are computed per request and never cached.
package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/twpayne/go-polyline"

	apperrors "github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/logging"
	"github.com/rightfit/rightfit-navigation/maps"
)

// Engine computes a driving route between two points.
type Engine interface {
	Route(ctx context.Context, origin, dest geo.Point) (*maps.OSRMRoute, error)
}

// Step is one instruction of a route.
type Step struct {
	Instruction     string  `json:"instruction"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	Maneuver        string  `json:"maneuver,omitempty"`
}

// Route is a driving route with its encoded and decoded geometry.
type Route struct {
	DistanceMeters  float64     `json:"distance_meters"`
	DurationSeconds float64     `json:"duration_seconds"`
	Steps           []Step      `json:"steps"`
	Polyline        string      `json:"polyline,omitempty"`
	Geometry        []geo.Point `json:"-"`
}

// Client computes routes through an Engine.
type Client struct {
	engine Engine
	logger *logging.Logger
}

// NewClient creates a routing client.
func NewClient(engine Engine, logger *logging.Logger) *Client {
	return &Client{
		engine: engine,
		logger: logging.OrDiscard(logger).WithComponent("routing"),
	}
}

// Route returns the driving route from origin to dest. Errors carry
// NO_ROUTE_FOUND, ROUTING_UNAVAILABLE or ROUTING_ERROR.
func (c *Client) Route(ctx context.Context, origin, dest geo.Point) (*Route, error) {
	if !origin.IsValid() || !dest.IsValid() {
		return nil, apperrors.Validation("coordinates out of range")
	}

	raw, err := c.engine.Route(ctx, origin, dest)
	if err != nil {
		return nil, translate(err)
	}

	route := &Route{
		DistanceMeters:  raw.Distance,
		DurationSeconds: raw.Duration,
		Steps:           make([]Step, 0, len(raw.Steps)),
		Polyline:        raw.Geometry,
	}
	for _, s := range raw.Steps {
		route.Steps = append(route.Steps, Step{
			Instruction:     Instruction(s),
			DistanceMeters:  s.Distance,
			DurationSeconds: s.Duration,
			Maneuver:        maneuverName(s.Maneuver),
		})
	}

	if raw.Geometry != "" {
		points, err := DecodePolyline(raw.Geometry)
		if err != nil {
			// The steps are still usable without the geometry.
			c.logger.Warn("failed to decode route geometry", "error", err.Error())
		} else {
			route.Geometry = points
		}
	}

	return route, nil
}

// DecodePolyline decodes a precision-5 encoded polyline into points.
func DecodePolyline(encoded string) ([]geo.Point, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}

	points := make([]geo.Point, 0, len(coords))
	for _, c := range coords {
		points = append(points, geo.Point{Lat: c[0], Lng: c[1]})
	}
	return points, nil
}

// EncodePolyline encodes points as a precision-5 polyline.
func EncodePolyline(points []geo.Point) string {
	coords := make([][]float64, 0, len(points))
	for _, p := range points {
		coords = append(coords, []float64{p.Lat, p.Lng})
	}
	return string(polyline.EncodeCoords(coords))
}

func translate(err error) error {
	switch {
	case errors.Is(err, maps.ErrNoRoute):
		return apperrors.NoRouteFound()
	case maps.IsConnectionRefused(err):
		return apperrors.RoutingUnavailable(err)
	default:
		return apperrors.Routing(err)
	}
}
