package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// EventJobsSynced is the Redis channel announcing a completed sync.
const EventJobsSynced = "EVENT_JOBS_SYNCED"

// RedisSyncNotifier publishes EVENT_JOBS_SYNCED after every successful sync.
type RedisSyncNotifier struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisSyncNotifier returns a notifier publishing on rdb.
func NewRedisSyncNotifier(rdb *redis.Client) *RedisSyncNotifier {
	return &RedisSyncNotifier{rdb: rdb, now: time.Now}
}

type jobsSyncedEvent struct {
	Type          string `json:"type"`
	RunID         string `json:"runId"`
	JobsProcessed int    `json:"jobsProcessed"`
	NewJobs       int    `json:"newJobs"`
	At            string `json:"at"`
}

// NotifySynced implements SyncNotifier.
func (n *RedisSyncNotifier) NotifySynced(ctx context.Context, res SyncResult) error {
	event, err := json.Marshal(jobsSyncedEvent{
		Type:          EventJobsSynced,
		RunID:         res.RunID,
		JobsProcessed: res.Processed,
		NewJobs:       res.Added,
		At:            n.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", EventJobsSynced, err)
	}
	if err := n.rdb.Publish(ctx, EventJobsSynced, event).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", EventJobsSynced, err)
	}
	return nil
}
