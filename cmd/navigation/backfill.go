package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rightfit/rightfit-navigation/bootstrap"
	"github.com/rightfit/rightfit-navigation/database"
	"github.com/rightfit/rightfit-navigation/logging"
)

const backfillLockTTL = 30 * time.Minute

var backfillFlags struct {
	tenant string
	force  bool
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Geocode a tenant's properties that have no trusted location",
	Long: `backfill geocodes every property of a tenant whose stored location is
missing or older than the geocode cache TTL. With --force every property is
re-geocoded. Nominatim's rate limit applies, so large tenants take a while.
When Redis is configured only one backfill per tenant runs at a time.`,
	RunE: runBackfill,
}

func init() {
	backfillCmd.Flags().StringVar(&backfillFlags.tenant, "tenant", "", "tenant to backfill (required)")
	backfillCmd.Flags().BoolVar(&backfillFlags.force, "force", false, "re-geocode every property, not only stale ones")
	_ = backfillCmd.MarkFlagRequired("tenant")
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.Initialize(ctx, serviceName)
	if err != nil {
		return err
	}
	defer svc.Close()

	for name, err := range svc.Connections.HealthCheck(ctx) {
		if err != nil {
			return fmt.Errorf("%s unavailable: %w", name, err)
		}
	}

	tenantID := backfillFlags.tenant
	log := svc.Logger.WithTenantID(tenantID)

	if svc.Connections.Redis != nil {
		lock, err := svc.Connections.Redis.AcquireLock(ctx, "backfill:"+tenantID, backfillLockTTL)
		if errors.Is(err, database.ErrLockNotAcquired) {
			return fmt.Errorf("a backfill for tenant %s is already running", tenantID)
		}
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil {
				log.Warn("failed to release backfill lock", "error", err.Error())
			}
		}()

		keepCtx, stopKeep := context.WithCancel(ctx)
		defer stopKeep()
		go keepLock(keepCtx, lock, log)
	}

	res, err := svc.Geocoder.Backfill(ctx, svc.Store, tenantID, backfillFlags.force)
	if res != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return encErr
		}
	}
	return err
}

// keepLock extends the backfill lock until ctx is done.
func keepLock(ctx context.Context, lock *database.Lock, log *logging.Logger) {
	ticker := time.NewTicker(backfillLockTTL / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lock.Extend(ctx, backfillLockTTL); err != nil {
				log.Warn("failed to extend backfill lock", "error", err.Error())
			}
		}
	}
}
