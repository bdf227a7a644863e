// Package catalog is the read side of the job catalog: filtered, paged
// queries with a deterministic (recent) and a sampled (random) ordering.
// Query failures never reach the caller; they degrade to a plain fetch.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"jobmate/matching-service/internal/geo"
	"jobmate/matching-service/internal/metrics"
	"jobmate/matching-service/internal/model"
	"jobmate/matching-service/internal/storage"
)

const (
	// MaxExcludeIDs is the largest exclusion set pushed down to the query.
	// Larger sets are dropped entirely.
	MaxExcludeIDs = 50
	// PoolSize is the number of jobs kept per cached random pool.
	PoolSize = 100
	// CacheTTL is how long a random pool stays valid.
	CacheTTL = 3 * time.Minute
	// DefaultLimit is used when a page has no positive limit.
	DefaultLimit = 20
)

// Order selects between deterministic and sampled ordering.
type Order string

const (
	OrderRecent Order = "recent"
	OrderRandom Order = "random"
)

// ParseOrder maps a raw query value to an Order. Unknown values mean recent.
func ParseOrder(s string) Order {
	if Order(s) == OrderRandom {
		return OrderRandom
	}
	return OrderRecent
}

// Filter narrows a catalog query. Zero values mean "no filter".
type Filter struct {
	ExcludeIDs []int64
	Category   *string
	Remote     *bool
	// Location is free text; a country key such as "españa" expands to the
	// country's city and region keywords.
	Location string
	Skills   []string
	Order    Order
}

// Page is an offset/limit window.
type Page struct {
	Limit  int
	Offset int
}

// JobReader is the slice of storage.Store the catalog reads from.
type JobReader interface {
	GetJob(ctx context.Context, id int64) (model.Job, error)
	ListJobs(ctx context.Context, q storage.JobQuery) ([]model.Job, error)
	CountJobs(ctx context.Context, q storage.JobQuery) (int, error)
}

// Catalog serves job queries over a JobReader.
type Catalog struct {
	store    JobReader
	cache    PoolCache
	breaker  *gobreaker.CircuitBreaker[[]model.Job]
	logger   *slog.Logger
	randIntN func(n int) int
}

// Option customises a Catalog.
type Option func(*Catalog)

// WithRandom replaces the source of random offsets.
func WithRandom(fn func(n int) int) Option {
	return func(c *Catalog) { c.randIntN = fn }
}

// WithBreaker tunes the circuit breaker on the primary query path: it opens
// after maxFailures consecutive failures and probes again after openFor.
func WithBreaker(maxFailures uint32, openFor time.Duration) Option {
	return func(c *Catalog) { c.breaker = newBreaker(c, maxFailures, openFor) }
}

// New returns a Catalog. A nil cache selects a MemoryPoolCache.
func New(store JobReader, cache PoolCache, logger *slog.Logger, opts ...Option) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = NewMemoryPoolCache(CacheTTL)
	}
	c := &Catalog{
		store:    store,
		cache:    cache,
		logger:   logger.With("component", "catalog"),
		randIntN: rand.IntN,
	}
	c.breaker = newBreaker(c, 5, 30*time.Second)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newBreaker(c *Catalog, maxFailures uint32, openFor time.Duration) *gobreaker.CircuitBreaker[[]model.Job] {
	return gobreaker.NewCircuitBreaker[[]model.Job](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.CatalogBreakerState.Set(float64(to))
		},
	})
}

// GetJob returns a single job by id.
func (c *Catalog) GetJob(ctx context.Context, id int64) (model.Job, error) {
	return c.store.GetJob(ctx, id)
}

// QueryJobs returns the jobs matching f within page. It never fails: errors
// are logged, counted and answered with an unfiltered fetch of page.Limit
// rows, or an empty list if that fails too.
func (c *Catalog) QueryJobs(ctx context.Context, f Filter, page Page) []model.Job {
	limit := page.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := max(page.Offset, 0)

	jobs, err := c.breaker.Execute(func() ([]model.Job, error) {
		return c.query(ctx, f, limit, offset)
	})
	if err != nil {
		reason := "query_error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			reason = "circuit_open"
		}
		c.logger.Warn("catalog query degraded", "reason", reason, "order", f.Order, "err", err)
		metrics.RecordDegradation(reason)
		return c.degraded(ctx, limit)
	}
	return jobs
}

func (c *Catalog) query(ctx context.Context, f Filter, limit, offset int) ([]model.Job, error) {
	q := storage.JobQuery{
		Category:         f.Category,
		Remote:           f.Remote,
		LocationKeywords: LocationKeywords(f.Location),
	}
	if len(f.ExcludeIDs) <= MaxExcludeIDs {
		q.ExcludeIDs = f.ExcludeIDs
	}

	var (
		batch []model.Job
		err   error
	)
	if f.Order == OrderRandom {
		batch, err = c.randomWindow(ctx, f, q, limit, offset)
	} else {
		q.Order = storage.OrderRecent
		q.Offset = offset
		q.Limit = limit
		batch, err = c.store.ListJobs(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	return filterBySkills(batch, f.Skills, limit), nil
}

// randomWindow serves a page from the cached pool for f's shape, refreshing
// the pool from a random window of the table when the cache cannot serve it.
func (c *Catalog) randomWindow(ctx context.Context, f Filter, q storage.JobQuery, limit, offset int) ([]model.Job, error) {
	key := shapeKey(f)

	if pool, ok := c.cache.Get(ctx, key); ok {
		page := window(withoutIDs(pool, f.ExcludeIDs), offset, limit)
		if len(page) >= limit {
			metrics.RecordCacheLookup(true)
			return page, nil
		}
	}
	metrics.RecordCacheLookup(false)

	total, err := c.store.CountJobs(ctx, q)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []model.Job{}, nil
	}

	q.Order = storage.OrderID
	q.Offset = c.randIntN(max(1, total-limit))
	q.Limit = max(limit, PoolSize)
	rows, err := c.store.ListJobs(ctx, q)
	if err != nil {
		return nil, err
	}

	c.cache.Set(ctx, key, rows[:min(len(rows), PoolSize)])
	return rows[:min(len(rows), limit)], nil
}

func (c *Catalog) degraded(ctx context.Context, limit int) []model.Job {
	jobs, err := c.store.ListJobs(ctx, storage.JobQuery{Order: storage.OrderID, Limit: limit})
	if err != nil {
		c.logger.Error("catalog fallback failed", "err", err)
		metrics.RecordDegradation("fallback_error")
		return []model.Job{}
	}
	return jobs
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// LocationKeywords expands a free-text location into LIKE keywords. Country
// keys expand to their keyword table; anything else is matched as-is.
func LocationKeywords(location string) []string {
	l := strings.ToLower(strings.TrimSpace(location))
	if l == "" {
		return nil
	}
	if kws := geo.CountryKeywords(geo.Region(l)); len(kws) > 0 {
		return kws
	}
	return []string{l}
}

// shapeKey identifies the filter shape a random pool was sampled for.
func shapeKey(f Filter) string {
	var b strings.Builder
	b.WriteString("c=")
	if f.Category != nil {
		b.WriteString(*f.Category)
	}
	b.WriteString("|r=")
	if f.Remote != nil {
		b.WriteString(strconv.FormatBool(*f.Remote))
	} else {
		b.WriteString("any")
	}
	b.WriteString("|l=")
	b.WriteString(strings.ToLower(strings.TrimSpace(f.Location)))
	return b.String()
}

func withoutIDs(jobs []model.Job, exclude []int64) []model.Job {
	skip := make(map[int64]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if _, ok := skip[j.ID]; !ok {
			out = append(out, j)
		}
	}
	return out
}

func window(jobs []model.Job, offset, limit int) []model.Job {
	if offset >= len(jobs) {
		return []model.Job{}
	}
	return jobs[offset:min(len(jobs), offset+limit)]
}

// filterBySkills keeps jobs having a skill that contains any requested skill
// (case-insensitive). When fewer than half a page survives, unmatched jobs of
// the same batch backfill up to limit.
func filterBySkills(batch []model.Job, skills []string, limit int) []model.Job {
	if len(skills) == 0 {
		return batch
	}
	wanted := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			wanted = append(wanted, s)
		}
	}
	if len(wanted) == 0 {
		return batch
	}

	matched := make([]model.Job, 0, len(batch))
	var unmatched []model.Job
	for _, j := range batch {
		if hasSkill(j, wanted) {
			matched = append(matched, j)
		} else {
			unmatched = append(unmatched, j)
		}
	}

	if float64(len(matched)) < float64(limit)*0.5 {
		need := max(0, limit-len(matched))
		matched = append(matched, unmatched[:min(need, len(unmatched))]...)
	}
	return matched
}

func hasSkill(j model.Job, wanted []string) bool {
	for _, have := range j.Skills {
		h := strings.ToLower(have)
		for _, w := range wanted {
			if strings.Contains(h, w) {
				return true
			}
		}
	}
	return false
}
