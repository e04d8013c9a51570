package geocode

import (
	"context"
	"time"

	apperrors "github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/property"
)

// StaleLister lists a tenant's properties without a trusted geocode.
type StaleLister interface {
	ListStaleProperties(ctx context.Context, tenantID string, ttl time.Duration, now time.Time) ([]property.Property, error)
}

// BackfillResult summarises a backfill run. Failures maps property ID to
// error code.
type BackfillResult struct {
	Resolved int               `json:"resolved"`
	Failed   int               `json:"failed"`
	Failures map[string]string `json:"failures,omitempty"`
}

// Backfill geocodes every stale property of a tenant from its stored
// address. With force set, every property is re-geocoded. A failed property
// is recorded and skipped; only listing errors and cancellation stop the run.
func (s *Service) Backfill(ctx context.Context, lister StaleLister, tenantID string, force bool) (*BackfillResult, error) {
	ttl := s.ttl
	if force {
		ttl = 0
	}

	props, err := lister.ListStaleProperties(ctx, tenantID, ttl, s.now())
	if err != nil {
		return nil, err
	}

	log := s.logger.WithTenantID(tenantID)
	log.Info("backfill started", "properties", len(props), "force", force)

	result := &BackfillResult{Failures: make(map[string]string)}
	for _, p := range props {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := s.Resolve(ctx, tenantID, p.ID, "", true); err != nil {
			result.Failed++
			result.Failures[p.ID] = apperrors.Code(err)
			continue
		}
		result.Resolved++
	}

	log.Info("backfill finished", "resolved", result.Resolved, "failed", result.Failed)
	return result, nil
}
