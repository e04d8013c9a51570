// Package traffic summarises live incidents and flow along a route. Traffic
// is an optional enrichment: an unconfigured or failing provider yields an
// empty snapshot, never an error.
package traffic

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/logging"
	"github.com/rightfit/rightfit-navigation/maps"
	"github.com/rightfit/rightfit-navigation/optional"
)

// BoundingBoxPadding is the margin in degrees added around a route before
// asking for incidents.
const BoundingBoxPadding = 0.01

// Provider is the live traffic backend.
type Provider interface {
	Incidents(ctx context.Context, bbox geo.BoundingBox) ([]maps.TomTomIncident, error)
	Flow(ctx context.Context, p geo.Point) (*maps.TomTomFlow, error)
}

// Incident is a traffic incident near the route.
type Incident struct {
	ID           string     `json:"id"`
	Category     string     `json:"category"`
	Severity     Level      `json:"severity"`
	Description  string     `json:"description"`
	From         string     `json:"from,omitempty"`
	To           string     `json:"to,omitempty"`
	DelayMinutes int        `json:"delay_minutes"`
	LengthMeters float64    `json:"length_meters"`
	Location     *geo.Point `json:"location,omitempty"`
	StartTime    string     `json:"start_time,omitempty"`
	EndTime      string     `json:"end_time,omitempty"`
}

// Flow summarises traffic conditions on the sampled road segment.
type Flow struct {
	OverallCongestion   Level   `json:"overall_congestion"`
	AverageSpeedKmh     float64 `json:"average_speed_kmh"`
	AverageDelayMinutes int     `json:"average_delay_minutes"`
	TotalIncidents      int     `json:"total_incidents"`
}

// Snapshot is the traffic picture for one route or point.
type Snapshot struct {
	Incidents   []Incident           `json:"incidents"`
	Flow        optional.Value[Flow] `json:"flow"`
	LastUpdated time.Time            `json:"last_updated"`
}

// Aggregator builds traffic snapshots from a Provider.
type Aggregator struct {
	provider Provider
	logger   *logging.Logger
	now      func() time.Time
}

// NewAggregator creates a traffic aggregator. provider may be nil, which
// behaves like an unconfigured provider.
func NewAggregator(provider Provider, logger *logging.Logger) *Aggregator {
	return &Aggregator{
		provider: provider,
		logger:   logging.OrDiscard(logger).WithComponent("traffic"),
		now:      time.Now,
	}
}

// ForRoute returns incidents inside the route's padded bounding box and the
// flow reading at the route's middle coordinate.
func (a *Aggregator) ForRoute(ctx context.Context, points []geo.Point) *Snapshot {
	bbox, ok := geo.BoundingBoxFromPoints(points, BoundingBoxPadding)
	if !ok {
		return a.empty()
	}
	mid, _ := geo.MiddlePoint(points)
	return a.snapshot(ctx, bbox, mid)
}

// ForPoint returns the traffic picture around a single coordinate.
func (a *Aggregator) ForPoint(ctx context.Context, p geo.Point) *Snapshot {
	bbox, _ := geo.BoundingBoxFromPoints([]geo.Point{p}, BoundingBoxPadding)
	return a.snapshot(ctx, bbox, p)
}

func (a *Aggregator) snapshot(ctx context.Context, bbox geo.BoundingBox, sample geo.Point) *Snapshot {
	if a.provider == nil {
		return a.empty()
	}

	var (
		wg        sync.WaitGroup
		incidents []maps.TomTomIncident
		flow      *maps.TomTomFlow
		incErr    error
		flowErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		incidents, incErr = a.provider.Incidents(ctx, bbox)
	}()
	go func() {
		defer wg.Done()
		flow, flowErr = a.provider.Flow(ctx, sample)
	}()
	wg.Wait()

	a.logFailure("incidents", incErr)
	a.logFailure("flow", flowErr)

	snap := a.empty()
	for _, in := range incidents {
		snap.Incidents = append(snap.Incidents, convertIncident(in))
	}

	if flowErr == nil && flow != nil {
		snap.Flow = optional.Some(summarise(flow, snap.Incidents))
	}
	return snap
}

func (a *Aggregator) empty() *Snapshot {
	return &Snapshot{
		Incidents:   []Incident{},
		Flow:        optional.None[Flow](),
		LastUpdated: a.now().UTC(),
	}
}

func (a *Aggregator) logFailure(what string, err error) {
	if err == nil || errors.Is(err, maps.ErrProviderDisabled) {
		return
	}
	a.logger.Warn("traffic fetch failed", "data", what, "error", err.Error())
}

// summarise combines the flow reading with the incident list.
func summarise(f *maps.TomTomFlow, incidents []Incident) Flow {
	delay := 0
	if f.CurrentTravelTime > f.FreeFlowTravelTime {
		delay = int(math.Round(float64(f.CurrentTravelTime-f.FreeFlowTravelTime) / 60))
	}

	return Flow{
		OverallCongestion:   Overall(FlowCongestion(f.CurrentSpeed, f.FreeFlowSpeed, f.RoadClosure), incidents),
		AverageSpeedKmh:     f.CurrentSpeed,
		AverageDelayMinutes: delay,
		TotalIncidents:      len(incidents),
	}
}

func convertIncident(in maps.TomTomIncident) Incident {
	return Incident{
		ID:           in.ID,
		Category:     Category(in.IconCategory),
		Severity:     IncidentSeverity(in.MagnitudeOfDelay),
		Description:  in.Description,
		From:         in.From,
		To:           in.To,
		DelayMinutes: int(math.Round(float64(in.DelaySeconds) / 60)),
		LengthMeters: in.LengthMeters,
		Location:     in.Location,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
	}
}
