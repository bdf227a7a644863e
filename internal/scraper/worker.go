package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"jobmate/matching-service/internal/metrics"
	"jobmate/matching-service/internal/model"
	"jobmate/matching-service/internal/storage"
)

// Sync statuses.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	statusError   = "error"
)

// SyncResult summarises one SyncOnce call.
type SyncResult struct {
	Status    string `json:"status"`
	Processed int    `json:"jobsProcessed"`
	Added     int    `json:"newJobs"`
	RunID     string `json:"runId,omitempty"`
}

// Fetcher produces drafts from a feed URL.
type Fetcher interface {
	FetchJobs(ctx context.Context, feedURL string) ([]model.JobDraft, error)
}

// JobWriter is the slice of storage.Store ingestion needs.
type JobWriter interface {
	GetJobByExternalID(ctx context.Context, externalID string) (model.Job, error)
	CreateJob(ctx context.Context, draft model.JobDraft) (model.Job, error)
}

// SyncNotifier is told about every successful sync.
type SyncNotifier interface {
	NotifySynced(ctx context.Context, res SyncResult) error
}

// SyncObserver receives the outcome of every sync that did work.
type SyncObserver func(res SyncResult, err error)

// Syncer runs the ingestion cycle: fetch the feed, then insert every listing
// whose external id is not yet in the catalog. Only one cycle runs at a time
// per Syncer; overlapping calls are skipped.
type Syncer struct {
	fetcher    Fetcher
	store      JobWriter
	defaultURL string
	logger     *slog.Logger

	inFlight atomic.Bool

	mu        sync.RWMutex
	notifier  SyncNotifier
	observers []SyncObserver
}

// NewSyncer constructs a Syncer. defaultURL is used when SyncOnce gets "".
func NewSyncer(fetcher Fetcher, store JobWriter, defaultURL string, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		fetcher:    fetcher,
		store:      store,
		defaultURL: defaultURL,
		logger:     logger.With("component", "syncer"),
	}
}

// SetNotifier installs the post-sync notifier (e.g. the Redis event publisher).
func (s *Syncer) SetNotifier(n SyncNotifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// AddObserver registers fn to be called after every completed or failed sync.
func (s *Syncer) AddObserver(fn SyncObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// SyncOnce runs one ingestion cycle against feedURL (or the default URL).
// A call made while another is running returns {Status: skipped} at once.
// A fetch failure aborts the cycle before any write and is returned wrapped.
func (s *Syncer) SyncOnce(ctx context.Context, feedURL string) (SyncResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Info("sync already running, skipping")
		metrics.RecordSync(StatusSkipped, 0, 0)
		return SyncResult{Status: StatusSkipped}, nil
	}
	defer s.inFlight.Store(false)

	if feedURL == "" {
		feedURL = s.defaultURL
	}
	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID)
	logger.Info("sync started", "url", feedURL)

	start := time.Now()
	drafts, err := s.fetcher.FetchJobs(ctx, feedURL)
	metrics.RecordFeedFetch(time.Since(start))
	if err != nil {
		logger.Error("sync failed", "url", feedURL, "err", err)
		metrics.RecordSync(statusError, 0, 0)
		res := SyncResult{Status: statusError, RunID: runID}
		err = fmt.Errorf("sync %s: %w", feedURL, err)
		s.observe(res, err)
		return res, err
	}
	logger.Info("feed retrieved", "jobs", len(drafts))

	var added, duplicates, failed int
	for _, d := range drafts {
		if err := ctx.Err(); err != nil {
			logger.Warn("sync interrupted", "processed", added+duplicates+failed, "err", err)
			break
		}
		switch inserted, err := s.ingest(ctx, d); {
		case err != nil:
			failed++
			metrics.SyncRowErrors.Inc()
			logger.Warn("job insert failed, continuing", "external_id", d.ExternalID, "err", err)
		case inserted:
			added++
		default:
			duplicates++
		}
	}

	res := SyncResult{Status: StatusOK, Processed: added + duplicates + failed, Added: added, RunID: runID}
	logger.Info("sync complete",
		"processed", res.Processed, "added", added, "duplicates", duplicates, "failed", failed,
		"duration", time.Since(start))
	metrics.RecordSync(StatusOK, res.Processed, res.Added)

	s.mu.RLock()
	notifier := s.notifier
	s.mu.RUnlock()
	if notifier != nil {
		if err := notifier.NotifySynced(ctx, res); err != nil {
			logger.Warn("sync notification failed", "err", err)
		}
	}

	s.observe(res, nil)
	return res, nil
}

// ingest inserts d unless its external id is already known. A lost race on
// the unique key counts as a duplicate.
func (s *Syncer) ingest(ctx context.Context, d model.JobDraft) (bool, error) {
	_, err := s.store.GetJobByExternalID(ctx, d.ExternalID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("lookup: %w", err)
	}

	if _, err := s.store.CreateJob(ctx, d); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("insert: %w", err)
	}
	return true, nil
}

func (s *Syncer) observe(res SyncResult, err error) {
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()
	for _, fn := range observers {
		fn(res, err)
	}
}
