// Package storage is the persistence collaborator for jobs, actors and the
// interaction log. Two backends share one SQL shape: PostgresStore (pgx) for
// deployments and SQLiteStore (modernc) for local runs and tests.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"jobmate/matching-service/internal/model"
)

// ─── Errors ──────────────────────────────────────────────────────────────────

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by CreateJob when the external id already exists.
var ErrDuplicate = errors.New("duplicate external id")

// ─── Queries ─────────────────────────────────────────────────────────────────

// Order selects the row ordering of ListJobs.
type Order string

const (
	// OrderRecent sorts newest first (created_at DESC, id DESC).
	OrderRecent Order = "recent"
	// OrderID sorts by ascending id; used for random-window sampling.
	OrderID Order = "id"
)

// JobQuery filters ListJobs and CountJobs. Zero values mean "no filter".
// LocationKeywords match when any keyword is a case-insensitive substring of
// the job location.
type JobQuery struct {
	ExcludeIDs       []int64
	Category         *string
	Remote           *bool
	LocationKeywords []string
	Order            Order
	Offset           int
	Limit            int
}

// Store is the persistence contract used by ingestion, the catalog and the
// recommendation engine.
type Store interface {
	GetJob(ctx context.Context, id int64) (model.Job, error)
	GetJobByExternalID(ctx context.Context, externalID string) (model.Job, error)
	CreateJob(ctx context.Context, draft model.JobDraft) (model.Job, error)
	ListJobs(ctx context.Context, q JobQuery) ([]model.Job, error)
	CountJobs(ctx context.Context, q JobQuery) (int, error)

	GetUser(ctx context.Context, id int64) (model.User, error)
	GetAnonymousSession(ctx context.Context, sessionID string) (model.AnonymousSession, error)
	GetLikedOccupationLabels(ctx context.Context, userID int64) ([]string, error)

	GetInteractionsFor(ctx context.Context, actor model.Actor) ([]model.Interaction, error)
	RecordInteraction(ctx context.Context, in model.Interaction) (model.Interaction, error)
	GetLikedJobs(ctx context.Context, actor model.Actor) ([]model.Job, error)

	Migrate(ctx context.Context) error
	Close() error
}

// ─── Shared SQL ──────────────────────────────────────────────────────────────

// dialect captures the few differences between the two backends.
type dialect struct {
	// placeholder renders the n-th (1-based) bind parameter.
	placeholder func(n int) string
	// jsonCast is appended to JSON bind parameters.
	jsonCast string
}

var (
	postgresDialect = dialect{
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		jsonCast:    "::jsonb",
	}
	sqliteDialect = dialect{
		placeholder: func(int) string { return "?" },
	}
)

const jobColumns = `id, external_id, title, company, location, description, job_type,
	salary, category, skills, latitude, longitude, is_remote, posted_at, created_at, raw_data`

// argList accumulates bind arguments and hands out placeholders.
type argList struct {
	d    dialect
	args []any
}

func (a *argList) add(v any) string {
	a.args = append(a.args, v)
	return a.d.placeholder(len(a.args))
}

// where renders the WHERE clause for q (empty when q has no filters).
func (d dialect) where(q JobQuery, a *argList) string {
	var conds []string

	if len(q.ExcludeIDs) > 0 {
		ph := make([]string, len(q.ExcludeIDs))
		for i, id := range q.ExcludeIDs {
			ph[i] = a.add(id)
		}
		conds = append(conds, "id NOT IN ("+strings.Join(ph, ", ")+")")
	}
	if q.Category != nil {
		conds = append(conds, "category = "+a.add(*q.Category))
	}
	if q.Remote != nil {
		conds = append(conds, "is_remote = "+a.add(*q.Remote))
	}
	if len(q.LocationKeywords) > 0 {
		ors := make([]string, 0, len(q.LocationKeywords))
		for _, kw := range q.LocationKeywords {
			ors = append(ors, "LOWER(location) LIKE "+a.add("%"+strings.ToLower(kw)+"%"))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// listJobsSQL builds the SELECT for ListJobs.
func (d dialect) listJobsSQL(q JobQuery) (string, []any) {
	a := &argList{d: d}
	var b strings.Builder
	b.WriteString("SELECT " + jobColumns + " FROM jobs")
	b.WriteString(d.where(q, a))
	switch q.Order {
	case OrderID:
		b.WriteString(" ORDER BY id ASC")
	default:
		b.WriteString(" ORDER BY created_at DESC, id DESC")
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + a.add(q.Limit))
		b.WriteString(" OFFSET " + a.add(max(q.Offset, 0)))
	}
	return b.String(), a.args
}

// countJobsSQL builds the COUNT for CountJobs. Order and paging are ignored.
func (d dialect) countJobsSQL(q JobQuery) (string, []any) {
	a := &argList{d: d}
	return "SELECT COUNT(*) FROM jobs" + d.where(q, a), a.args
}

// insertJobSQL builds the idempotent insert. A conflicting external id
// inserts nothing.
func (d dialect) insertJobSQL(draft model.JobDraft, createdAt time.Time) (string, []any, error) {
	skills := draft.Skills
	if skills == nil {
		skills = []string{}
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return "", nil, fmt.Errorf("marshal skills: %w", err)
	}

	var raw any
	if len(draft.RawData) > 0 {
		raw = string(draft.RawData)
	}
	var lat, lon any
	if draft.Coordinates.Known {
		lat, lon = draft.Coordinates.Lat, draft.Coordinates.Lon
	}

	a := &argList{d: d}
	values := []string{
		a.add(draft.ExternalID),
		a.add(draft.Title),
		a.add(draft.Company),
		a.add(draft.Location),
		a.add(draft.Description),
		a.add(draft.JobType),
		a.add(draft.Salary),
		a.add(draft.Category),
		a.add(string(skillsJSON)) + d.jsonCast,
		a.add(lat),
		a.add(lon),
		a.add(draft.IsRemote),
		a.add(draft.PostedAt.UTC()),
		a.add(createdAt.UTC()),
		a.add(raw) + d.jsonCast,
	}

	query := `INSERT INTO jobs (external_id, title, company, location, description, job_type,
		salary, category, skills, latitude, longitude, is_remote, posted_at, created_at, raw_data)
		VALUES (` + strings.Join(values, ", ") + `)
		ON CONFLICT (external_id) DO NOTHING`
	return query, a.args, nil
}

// ─── Scanning ────────────────────────────────────────────────────────────────

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (model.Job, error) {
	var (
		j          model.Job
		skillsJSON []byte
		lat, lon   *float64
		raw        []byte
	)
	if err := row.Scan(
		&j.ID, &j.ExternalID, &j.Title, &j.Company, &j.Location, &j.Description,
		&j.JobType, &j.Salary, &j.Category, &skillsJSON, &lat, &lon, &j.IsRemote,
		&j.PostedAt, &j.CreatedAt, &raw,
	); err != nil {
		return model.Job{}, err
	}

	j.Skills = []string{}
	if len(skillsJSON) > 0 {
		if err := json.Unmarshal(skillsJSON, &j.Skills); err != nil {
			return model.Job{}, fmt.Errorf("decode skills of job %d: %w", j.ID, err)
		}
	}
	j.Coordinates = coordinatesOf(lat, lon)
	if len(raw) > 0 {
		j.RawData = json.RawMessage(raw)
	}
	return j, nil
}

func coordinatesOf(lat, lon *float64) model.Coordinates {
	if lat == nil || lon == nil {
		return model.UnknownCoordinates()
	}
	return model.KnownCoordinates(*lat, *lon)
}

// actorColumn returns the column and value identifying actor in the
// interaction log.
func actorColumn(actor model.Actor) (string, any) {
	if actor.IsUser() {
		return "user_id", actor.UserID
	}
	return "session_id", actor.SessionID
}

func positiveActions() []any {
	return []any{string(model.ActionLike), string(model.ActionSave)}
}

// ─── Actor SQL ───────────────────────────────────────────────────────────────

func (d dialect) getUserSQL() string {
	return "SELECT id, latitude, longitude FROM users WHERE id = " + d.placeholder(1)
}

func (d dialect) getSessionSQL() string {
	return "SELECT session_id, latitude, longitude FROM anonymous_sessions WHERE session_id = " + d.placeholder(1)
}

func (d dialect) likedOccupationLabelsSQL() string {
	return `SELECT o.preferred_label
		FROM user_occupations uo
		JOIN occupations o ON o.id = uo.occupation_id
		WHERE uo.user_id = ` + d.placeholder(1) + ` AND uo.liked = ` + d.placeholder(2) + `
		ORDER BY o.id`
}

func (d dialect) interactionsForSQL(actor model.Actor) (string, []any) {
	col, val := actorColumn(actor)
	return `SELECT id, user_id, session_id, job_id, action, sentiment, created_at
		FROM job_interactions
		WHERE ` + col + ` = ` + d.placeholder(1) + `
		ORDER BY created_at DESC, id DESC`, []any{val}
}

func (d dialect) likedJobsSQL(actor model.Actor) (string, []any) {
	col, val := actorColumn(actor)
	a := &argList{d: d, args: []any{}}
	actorPh := a.add(val)
	pos := positiveActions()
	ph := make([]string, len(pos))
	for i, p := range pos {
		ph[i] = a.add(p)
	}
	return `SELECT ` + jobColumns + ` FROM jobs
		WHERE id IN (
			SELECT job_id FROM job_interactions
			WHERE ` + col + ` = ` + actorPh + ` AND action IN (` + strings.Join(ph, ", ") + `)
		)
		ORDER BY id`, a.args
}

func (d dialect) recordInteractionSQL(in model.Interaction, createdAt time.Time) (string, []any) {
	a := &argList{d: d}
	var userID, sessionID, sentiment any
	if in.Actor.IsUser() {
		userID = in.Actor.UserID
	} else {
		sessionID = in.Actor.SessionID
	}
	if in.Sentiment != nil {
		sentiment = string(*in.Sentiment)
	}
	values := []string{
		a.add(userID), a.add(sessionID), a.add(in.JobID),
		a.add(string(in.Action)), a.add(sentiment), a.add(createdAt.UTC()),
	}
	return `INSERT INTO job_interactions (user_id, session_id, job_id, action, sentiment, created_at)
		VALUES (` + strings.Join(values, ", ") + `)`, a.args
}

func scanInteraction(row rowScanner) (model.Interaction, error) {
	var (
		in        model.Interaction
		userID    *int64
		sessionID *string
		action    string
		sentiment *string
	)
	if err := row.Scan(&in.ID, &userID, &sessionID, &in.JobID, &action, &sentiment, &in.CreatedAt); err != nil {
		return model.Interaction{}, err
	}
	if userID != nil {
		in.Actor.UserID = *userID
	}
	if sessionID != nil {
		in.Actor.SessionID = *sessionID
	}
	in.Action = model.Action(action)
	if sentiment != nil {
		s := model.Sentiment(*sentiment)
		in.Sentiment = &s
	}
	return in, nil
}

func scanActorCoordinates(row rowScanner, key any) (model.Coordinates, error) {
	var lat, lon *float64
	if err := row.Scan(key, &lat, &lon); err != nil {
		return model.Coordinates{}, err
	}
	return coordinatesOf(lat, lon), nil
}

// validateInteraction rejects interactions that cannot be attributed.
func validateInteraction(in model.Interaction) error {
	if in.Actor.IsAnonymous() {
		return errors.New("interaction requires a user id or a session id")
	}
	if in.Actor.IsUser() && in.Actor.SessionID != "" {
		return errors.New("interaction must not carry both a user id and a session id")
	}
	if in.JobID <= 0 {
		return fmt.Errorf("invalid job id %d", in.JobID)
	}
	return nil
}
