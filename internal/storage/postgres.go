package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/matching-service/internal/model"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	d    dialect
	now  func() time.Time
}

// NewPostgresStore wraps an already verified pool (see db.NewPostgresPool).
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, d: postgresDialect, now: time.Now}
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// ─── Jobs ────────────────────────────────────────────────────────────────────

// GetJob returns the job with the given id or ErrNotFound.
func (s *PostgresStore) GetJob(ctx context.Context, id int64) (model.Job, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = $1", id)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Job{}, ErrNotFound
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("getJob %d: %w", id, err)
	}
	return j, nil
}

// GetJobByExternalID returns the job with the given external id or ErrNotFound.
func (s *PostgresStore) GetJobByExternalID(ctx context.Context, externalID string) (model.Job, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+jobColumns+" FROM jobs WHERE external_id = $1", externalID)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Job{}, ErrNotFound
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("getJobByExternalID %q: %w", externalID, err)
	}
	return j, nil
}

// CreateJob inserts draft. It returns ErrDuplicate when the external id is
// already present.
func (s *PostgresStore) CreateJob(ctx context.Context, draft model.JobDraft) (model.Job, error) {
	query, args, err := s.d.insertJobSQL(draft, s.now())
	if err != nil {
		return model.Job{}, err
	}
	j, err := scanJob(s.pool.QueryRow(ctx, query+" RETURNING "+jobColumns, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Job{}, ErrDuplicate
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("createJob %q: %w", draft.ExternalID, err)
	}
	return j, nil
}

// ListJobs returns the jobs matching q.
func (s *PostgresStore) ListJobs(ctx context.Context, q JobQuery) ([]model.Job, error) {
	query, args := s.d.listJobsSQL(q)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listJobs query: %w", err)
	}
	return collectJobs(rows)
}

// CountJobs counts the jobs matching q.
func (s *PostgresStore) CountJobs(ctx context.Context, q JobQuery) (int, error) {
	query, args := s.d.countJobsSQL(q)
	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("countJobs: %w", err)
	}
	return n, nil
}

func collectJobs(rows pgx.Rows) ([]model.Job, error) {
	defer rows.Close()
	jobs := make([]model.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ─── Actors ──────────────────────────────────────────────────────────────────

// GetUser returns the user or ErrNotFound.
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	u := model.User{}
	c, err := scanActorCoordinates(s.pool.QueryRow(ctx, s.d.getUserSQL(), id), &u.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("getUser %d: %w", id, err)
	}
	u.Coordinates = c
	return u, nil
}

// GetAnonymousSession returns the session or ErrNotFound.
func (s *PostgresStore) GetAnonymousSession(ctx context.Context, sessionID string) (model.AnonymousSession, error) {
	sess := model.AnonymousSession{}
	c, err := scanActorCoordinates(s.pool.QueryRow(ctx, s.d.getSessionSQL(), sessionID), &sess.SessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.AnonymousSession{}, ErrNotFound
	}
	if err != nil {
		return model.AnonymousSession{}, fmt.Errorf("getAnonymousSession %q: %w", sessionID, err)
	}
	sess.Coordinates = c
	return sess, nil
}

// GetLikedOccupationLabels returns the preferred labels of the occupations
// the user liked.
func (s *PostgresStore) GetLikedOccupationLabels(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, s.d.likedOccupationLabelsSQL(), userID, true)
	if err != nil {
		return nil, fmt.Errorf("likedOccupationLabels query: %w", err)
	}
	defer rows.Close()

	labels := make([]string, 0)
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("likedOccupationLabels scan: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// ─── Interactions ────────────────────────────────────────────────────────────

// GetInteractionsFor returns the actor's interaction log, newest first.
func (s *PostgresStore) GetInteractionsFor(ctx context.Context, actor model.Actor) ([]model.Interaction, error) {
	if actor.IsAnonymous() {
		return []model.Interaction{}, nil
	}
	query, args := s.d.interactionsForSQL(actor)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("interactions query: %w", err)
	}
	defer rows.Close()

	out := make([]model.Interaction, 0)
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("interactions scan: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// RecordInteraction appends in to the interaction log.
func (s *PostgresStore) RecordInteraction(ctx context.Context, in model.Interaction) (model.Interaction, error) {
	if err := validateInteraction(in); err != nil {
		return model.Interaction{}, err
	}
	createdAt := s.now().UTC()
	query, args := s.d.recordInteractionSQL(in, createdAt)
	if err := s.pool.QueryRow(ctx, query+" RETURNING id", args...).Scan(&in.ID); err != nil {
		return model.Interaction{}, fmt.Errorf("recordInteraction: %w", err)
	}
	in.CreatedAt = createdAt
	return in, nil
}

// GetLikedJobs returns the distinct jobs the actor liked or saved.
func (s *PostgresStore) GetLikedJobs(ctx context.Context, actor model.Actor) ([]model.Job, error) {
	if actor.IsAnonymous() {
		return []model.Job{}, nil
	}
	query, args := s.d.likedJobsSQL(actor)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("likedJobs query: %w", err)
	}
	return collectJobs(rows)
}
