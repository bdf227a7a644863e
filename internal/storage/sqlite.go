package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"jobmate/matching-service/internal/model"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	d   dialect
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and applies
// the schema.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single connection serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	s := &SQLiteStore{db: db, d: sqliteDialect, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ─── Jobs ────────────────────────────────────────────────────────────────────

// GetJob returns the job with the given id or ErrNotFound.
func (s *SQLiteStore) GetJob(ctx context.Context, id int64) (model.Job, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Job{}, ErrNotFound
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("getJob %d: %w", id, err)
	}
	return j, nil
}

// GetJobByExternalID returns the job with the given external id or ErrNotFound.
func (s *SQLiteStore) GetJobByExternalID(ctx context.Context, externalID string) (model.Job, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE external_id = ?", externalID)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Job{}, ErrNotFound
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("getJobByExternalID %q: %w", externalID, err)
	}
	return j, nil
}

// CreateJob inserts draft. It returns ErrDuplicate when the external id is
// already present.
func (s *SQLiteStore) CreateJob(ctx context.Context, draft model.JobDraft) (model.Job, error) {
	query, args, err := s.d.insertJobSQL(draft, s.now())
	if err != nil {
		return model.Job{}, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.Job{}, fmt.Errorf("createJob %q: %w", draft.ExternalID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Job{}, ErrDuplicate
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Job{}, fmt.Errorf("createJob %q: last insert id: %w", draft.ExternalID, err)
	}
	return s.GetJob(ctx, id)
}

// ListJobs returns the jobs matching q.
func (s *SQLiteStore) ListJobs(ctx context.Context, q JobQuery) ([]model.Job, error) {
	query, args := s.d.listJobsSQL(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listJobs query: %w", err)
	}
	return collectSQLJobs(rows)
}

// CountJobs counts the jobs matching q.
func (s *SQLiteStore) CountJobs(ctx context.Context, q JobQuery) (int, error) {
	query, args := s.d.countJobsSQL(q)
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("countJobs: %w", err)
	}
	return n, nil
}

func collectSQLJobs(rows *sql.Rows) ([]model.Job, error) {
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
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	u := model.User{}
	c, err := scanActorCoordinates(s.db.QueryRowContext(ctx, s.d.getUserSQL(), id), &u.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("getUser %d: %w", id, err)
	}
	u.Coordinates = c
	return u, nil
}

// GetAnonymousSession returns the session or ErrNotFound.
func (s *SQLiteStore) GetAnonymousSession(ctx context.Context, sessionID string) (model.AnonymousSession, error) {
	sess := model.AnonymousSession{}
	c, err := scanActorCoordinates(s.db.QueryRowContext(ctx, s.d.getSessionSQL(), sessionID), &sess.SessionID)
	if errors.Is(err, sql.ErrNoRows) {
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
func (s *SQLiteStore) GetLikedOccupationLabels(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.d.likedOccupationLabelsSQL(), userID, true)
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
func (s *SQLiteStore) GetInteractionsFor(ctx context.Context, actor model.Actor) ([]model.Interaction, error) {
	if actor.IsAnonymous() {
		return []model.Interaction{}, nil
	}
	query, args := s.d.interactionsForSQL(actor)
	rows, err := s.db.QueryContext(ctx, query, args...)
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
func (s *SQLiteStore) RecordInteraction(ctx context.Context, in model.Interaction) (model.Interaction, error) {
	if err := validateInteraction(in); err != nil {
		return model.Interaction{}, err
	}
	createdAt := s.now().UTC()
	query, args := s.d.recordInteractionSQL(in, createdAt)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.Interaction{}, fmt.Errorf("recordInteraction: %w", err)
	}
	if in.ID, err = res.LastInsertId(); err != nil {
		return model.Interaction{}, fmt.Errorf("recordInteraction: last insert id: %w", err)
	}
	in.CreatedAt = createdAt
	return in, nil
}

// GetLikedJobs returns the distinct jobs the actor liked or saved.
func (s *SQLiteStore) GetLikedJobs(ctx context.Context, actor model.Actor) ([]model.Job, error) {
	if actor.IsAnonymous() {
		return []model.Job{}, nil
	}
	query, args := s.d.likedJobsSQL(actor)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("likedJobs query: %w", err)
	}
	return collectSQLJobs(rows)
}
