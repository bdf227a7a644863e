package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"jobmate/matching-service/internal/scheduler"
	"jobmate/matching-service/internal/scraper"
)

type countingSyncer struct {
	calls atomic.Int32
	urls  chan string
	err   error
}

func (c *countingSyncer) SyncOnce(_ context.Context, feedURL string) (scraper.SyncResult, error) {
	c.calls.Add(1)
	select {
	case c.urls <- feedURL:
	default:
	}
	if c.err != nil {
		return scraper.SyncResult{}, c.err
	}
	return scraper.SyncResult{Status: scraper.StatusOK}, nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestStartRunsImmediately(t *testing.T) {
	syncer := &countingSyncer{urls: make(chan string, 1)}
	s := scheduler.New(syncer, "http://feed.example/jobs.xml", 12*time.Hour, quietLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	select {
	case url := <-syncer.urls:
		if url != "http://feed.example/jobs.xml" {
			t.Errorf("synced %q", url)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no immediate sync on start")
	}
}

func TestFailedSyncKeepsSchedulerRunning(t *testing.T) {
	syncer := &countingSyncer{urls: make(chan string, 4), err: errors.New("feed down")}
	s := scheduler.New(syncer, "", time.Second, quietLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	deadline := time.After(5 * time.Second)
	for syncer.calls.Load() < 2 {
		select {
		case <-syncer.urls:
		case <-deadline:
			t.Fatalf("expected a tick after a failed sync, got %d calls", syncer.calls.Load())
		}
	}
}
