// Package scheduler wires up the cron job that periodically syncs the job
// feed into the catalog.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"jobmate/matching-service/internal/scraper"
)

// Syncer runs one ingestion cycle.
type Syncer interface {
	SyncOnce(ctx context.Context, feedURL string) (scraper.SyncResult, error)
}

// Scheduler wraps robfig/cron and manages the sync loop.
type Scheduler struct {
	cron    *cron.Cron
	syncer  Syncer
	feedURL string
	spec    string // cron spec, e.g. "@every 12h"
	logger  *slog.Logger
}

// New creates a Scheduler that fires every interval.
func New(syncer Syncer, feedURL string, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug)))),
		syncer:  syncer,
		feedURL: feedURL,
		spec:    fmt.Sprintf("@every %s", interval),
		logger:  logger,
	}
}

// Start registers the job and starts the scheduler. Also runs one sync
// immediately so the catalog is populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSync(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("cron started", "spec", s.spec)

	// Run immediately on startup (non-blocking)
	go s.runSync(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler and waits for a running sync.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("cron stopped")
}

// runSync runs one cycle. Failures are logged; the next tick retries.
func (s *Scheduler) runSync(ctx context.Context) {
	res, err := s.syncer.SyncOnce(ctx, s.feedURL)
	if err != nil {
		s.logger.Error("scheduled sync failed", "err", err)
		return
	}
	s.logger.Info("scheduled sync finished",
		"status", res.Status, "processed", res.Processed, "added", res.Added, "run_id", res.RunID)
}
