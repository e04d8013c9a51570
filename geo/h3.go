package geo

import (
	"fmt"

	"github.com/uber/h3-go/v4"
)

// H3Resolution is an H3 grid resolution.
// Resolution 8: ~0.74 km² average hexagon area (~0.46 km edge)
// Resolution 9: ~0.11 km² average hexagon area (~0.17 km edge)
type H3Resolution int

const (
	// H3ResolutionNeighborhood groups properties by neighbourhood.
	H3ResolutionNeighborhood H3Resolution = 8
	// H3ResolutionProperty is the resolution stored next to each geocode.
	H3ResolutionProperty H3Resolution = 9
)

// CellForPoint returns the H3 cell containing p as a hex string.
func CellForPoint(p Point, res H3Resolution) string {
	return h3.LatLngToCell(h3.LatLng{Lat: p.Lat, Lng: p.Lng}, int(res)).String()
}

// CellCenter returns the centre of the H3 cell identified by index.
func CellCenter(index string) (Point, error) {
	cell := h3.Cell(h3.IndexFromString(index))
	if !cell.IsValid() {
		return Point{}, fmt.Errorf("invalid H3 cell string: %s", index)
	}
	ll := h3.CellToLatLng(cell)
	return Point{Lat: ll.Lat, Lng: ll.Lng}, nil
}
