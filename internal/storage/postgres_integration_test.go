//go:build integration

package storage

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"jobmate/matching-service/internal/db"
	"jobmate/matching-service/internal/model"
)

// Usage:
//   go test -tags integration -run Postgres ./internal/storage/...

func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	skipIfNoDocker(t)
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "jobmate",
			"POSTGRES_PASSWORD": "jobmate",
			"POSTGRES_DB":       "jobmate",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}

	url := fmt.Sprintf("postgres://jobmate:jobmate@%s:%s/jobmate?sslmode=disable", host, port.Port())
	pool, err := db.NewPostgresPool(ctx, url, 4)
	if err != nil {
		t.Fatalf("NewPostgresPool: %v", err)
	}

	s := NewPostgresStore(pool)
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func TestPostgresStore_Integration(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()

	created, err := s.CreateJob(ctx, draft("pg-1"))
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if _, err := s.CreateJob(ctx, draft("pg-1")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	remote := draft("pg-2")
	remote.IsRemote = true
	remote.Location = strPtr("Remote")
	if _, err := s.CreateJob(ctx, remote); err != nil {
		t.Fatalf("CreateJob(remote): %v", err)
	}

	got, err := s.GetJob(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if len(got.Skills) != 2 || !got.Coordinates.Known {
		t.Errorf("unexpected job: %+v", got)
	}

	jobs, err := s.ListJobs(ctx, JobQuery{LocationKeywords: []string{"madrid"}, Order: OrderID, Limit: 10})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ExternalID != "pg-1" {
		t.Errorf("ListJobs = %v", ids(jobs))
	}

	n, err := s.CountJobs(ctx, JobQuery{})
	if err != nil || n != 2 {
		t.Errorf("CountJobs = %d, %v", n, err)
	}

	actor := model.Actor{SessionID: "sess-1"}
	if _, err := s.RecordInteraction(ctx, model.Interaction{Actor: actor, JobID: created.ID, Action: model.ActionSave}); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	liked, err := s.GetLikedJobs(ctx, actor)
	if err != nil || len(liked) != 1 {
		t.Errorf("GetLikedJobs = %v, %v", ids(liked), err)
	}
}
