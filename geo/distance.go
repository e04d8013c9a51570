// Package geo provides the pure geospatial helpers used by the navigation
// service: great-circle distance, ETA estimation, bounding boxes, plus codes
// and H3 cells.
package geo

import (
	"math"
)

const (
	// EarthRadiusKm is the Earth's mean radius in kilometers.
	EarthRadiusKm = 6371.0
	// MetersPerKm converts kilometers to meters.
	MetersPerKm = 1000.0
	// MilesPerKm converts kilometers to miles.
	MilesPerKm = 0.621371

	// AverageSpeedKmh is the constant speed assumed by EstimateETAMinutes.
	AverageSpeedKmh = 50.0
)

// Point represents a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// NewPoint creates a new Point.
func NewPoint(lat, lng float64) Point {
	return Point{Lat: lat, Lng: lng}
}

// IsValid checks if the point has valid coordinates.
func (p Point) IsValid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceResult is a distance expressed in the units the API reports.
type DistanceResult struct {
	Meters int     `json:"meters"`
	Km     float64 `json:"km"`
	Miles  float64 `json:"miles"`
}

// Distance returns the great-circle distance between two points. Meters are
// rounded to the nearest integer, kilometers and miles to one decimal.
func Distance(a, b Point) DistanceResult {
	km := HaversineDistance(a, b)
	return DistanceResult{
		Meters: int(math.Round(km * MetersPerKm)),
		Km:     roundTo(km, 1),
		Miles:  roundTo(km*MilesPerKm, 1),
	}
}

// EstimateETAMinutes estimates driving minutes for a straight-line distance
// at AverageSpeedKmh.
func EstimateETAMinutes(km float64) int {
	return int(math.Round(km / AverageSpeedKmh * 60))
}

// HaversineDistance calculates the great-circle distance between two points
// using the Haversine formula. Returns distance in kilometers.
func HaversineDistance(p1, p2 Point) float64 {
	lat1 := degreesToRadians(p1.Lat)
	lat2 := degreesToRadians(p2.Lat)
	deltaLat := degreesToRadians(p2.Lat - p1.Lat)
	deltaLng := degreesToRadians(p2.Lng - p1.Lng)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	// Rounding can push a just outside [0, 1] for near-antipodal points.
	a = math.Min(1, math.Max(0, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// MiddlePoint returns the middle element of a coordinate sequence, which is
// where a route is sampled for traffic flow. ok is false for an empty slice.
func MiddlePoint(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	return points[len(points)/2], true
}

// BoundingBox is an axis-aligned box in degrees.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// BoundingBoxFromPoints returns the smallest box containing every point,
// grown by padding degrees on each side. ok is false for an empty slice.
func BoundingBoxFromPoints(points []Point, padding float64) (BoundingBox, bool) {
	if len(points) == 0 {
		return BoundingBox{}, false
	}

	bb := BoundingBox{
		MinLat: points[0].Lat,
		MaxLat: points[0].Lat,
		MinLng: points[0].Lng,
		MaxLng: points[0].Lng,
	}
	for _, p := range points[1:] {
		bb.MinLat = math.Min(bb.MinLat, p.Lat)
		bb.MaxLat = math.Max(bb.MaxLat, p.Lat)
		bb.MinLng = math.Min(bb.MinLng, p.Lng)
		bb.MaxLng = math.Max(bb.MaxLng, p.Lng)
	}

	return bb.Pad(padding), true
}

// Pad grows the box by d degrees on each side.
func (bb BoundingBox) Pad(d float64) BoundingBox {
	return BoundingBox{
		MinLat: bb.MinLat - d,
		MaxLat: bb.MaxLat + d,
		MinLng: bb.MinLng - d,
		MaxLng: bb.MaxLng + d,
	}
}

// Contains checks if a point is within the bounding box.
func (bb BoundingBox) Contains(p Point) bool {
	return p.Lat >= bb.MinLat && p.Lat <= bb.MaxLat &&
		p.Lng >= bb.MinLng && p.Lng <= bb.MaxLng
}

// Center returns the center point of the bounding box.
func (bb BoundingBox) Center() Point {
	return Point{
		Lat: (bb.MinLat + bb.MaxLat) / 2,
		Lng: (bb.MinLng + bb.MaxLng) / 2,
	}
}

func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
