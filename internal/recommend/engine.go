// Package recommend ranks catalog jobs for an actor by affinity, recency and
// geographic fit.
package recommend

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"jobmate/matching-service/internal/catalog"
	"jobmate/matching-service/internal/geo"
	"jobmate/matching-service/internal/metrics"
	"jobmate/matching-service/internal/model"
	"jobmate/matching-service/internal/storage"
)

const (
	// MaxPool caps the candidate pool fetched from the catalog.
	MaxPool = 500
	// PoolFactor is the pool size as a multiple of the page size.
	PoolFactor = 10
	// DefaultLimit is the page size used when none is given.
	DefaultLimit = 20
)

// Scoring weights.
const (
	skillWeight    = 5.0
	categoryWeight = 10.0
	recencyMax     = 5.0
	remoteBonus    = 15.0
	jitterMax      = 2.0

	farPenaltyHome  = 30.0
	farPenaltyOther = 10.0

	homeKeywordBonus = 40.0
	outsideHomeMalus = 20.0
	countryBonus     = 12.0
	regionBonus      = 8.0
)

// distanceTiers maps a maximum distance in km to its bonus. Checked in order.
var distanceTiers = []struct {
	km    float64
	bonus float64
}{
	{25, 30},
	{50, 25},
	{100, 20},
	{200, 15},
}

// ProfileStore is the slice of storage.Store the engine reads actor state from.
type ProfileStore interface {
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetAnonymousSession(ctx context.Context, sessionID string) (model.AnonymousSession, error)
	GetLikedOccupationLabels(ctx context.Context, userID int64) ([]string, error)
	GetLikedJobs(ctx context.Context, actor model.Actor) ([]model.Job, error)
	GetInteractionsFor(ctx context.Context, actor model.Actor) ([]model.Interaction, error)
}

// JobSource supplies candidate pools. *catalog.Catalog satisfies it.
type JobSource interface {
	QueryJobs(ctx context.Context, f catalog.Filter, page catalog.Page) []model.Job
}

// Options is a recommendation request.
type Options struct {
	Limit      int
	Offset     int
	ExcludeIDs []int64
	Order      catalog.Order
}

// Engine produces ranked recommendations.
type Engine struct {
	store   ProfileStore
	jobs    JobSource
	logger  *slog.Logger
	jitter  func() float64
	now     func() time.Time
	country func(lat, lon float64) (geo.Region, bool)
	region  func(lat, lon float64) (geo.Region, bool)
}

// Option customises an Engine.
type Option func(*Engine)

// WithJitter replaces the tie-break source. fn must return values in [0, 1).
func WithJitter(fn func() float64) Option {
	return func(e *Engine) { e.jitter = fn }
}

// WithClock replaces the clock used for the recency bonus.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithClassifiers swaps the coordinate classifiers used to find an actor's
// home country and continent.
func WithClassifiers(countries, regions geo.Classifier) Option {
	return func(e *Engine) {
		e.country = countries.Classify
		e.region = regions.Classify
	}
}

// New returns an Engine reading profiles from store and candidates from jobs.
func New(store ProfileStore, jobs JobSource, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:   store,
		jobs:    jobs,
		logger:  logger.With("component", "recommend"),
		jitter:  rand.Float64,
		now:     time.Now,
		country: geo.CountryOf,
		region:  geo.RegionOf,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// profile is everything known about an actor before scoring.
type profile struct {
	skills     map[string]struct{}
	categories map[string]struct{}
	coords     model.Coordinates
	country    geo.Region
	// inHome is set when country is the designated country, which gets
	// keyword pool filtering, reshaping and the stronger geo tiers.
	inHome bool
	seen   map[int64]struct{}
}

// Recommend returns up to opts.Limit jobs for actor, best first. Anonymous
// actors get the plain catalog result. Jobs the actor already interacted
// with and opts.ExcludeIDs are never returned.
func (e *Engine) Recommend(ctx context.Context, actor model.Actor, opts Options) ([]model.Job, error) {
	start := time.Now()
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := max(opts.Offset, 0)

	if actor.IsAnonymous() {
		defer func() { metrics.RecordRecommend("anonymous", time.Since(start)) }()
		return e.jobs.QueryJobs(ctx, catalog.Filter{
			ExcludeIDs: opts.ExcludeIDs,
			Order:      opts.Order,
		}, catalog.Page{Limit: limit, Offset: offset}), nil
	}

	kind := "session"
	if actor.IsUser() {
		kind = "user"
	}
	defer func() { metrics.RecordRecommend(kind, time.Since(start)) }()

	p, err := e.loadProfile(ctx, actor)
	if err != nil {
		return nil, err
	}

	f := catalog.Filter{ExcludeIDs: opts.ExcludeIDs, Order: opts.Order}
	if p.inHome {
		f.Location = string(geo.DesignatedCountry)
	}
	pool := e.jobs.QueryJobs(ctx, f, catalog.Page{Limit: min(MaxPool, PoolFactor*limit)})

	for _, id := range opts.ExcludeIDs {
		p.seen[id] = struct{}{}
	}
	candidates := make([]model.Job, 0, len(pool))
	for _, j := range pool {
		if _, ok := p.seen[j.ID]; !ok {
			candidates = append(candidates, j)
		}
	}
	if p.inHome {
		candidates = reshape(candidates, geo.DesignatedCountry)
	}

	type scored struct {
		job   model.Job
		score float64
	}
	now := e.now()
	ranked := make([]scored, len(candidates))
	for i, j := range candidates {
		ranked[i] = scored{job: j, score: e.score(j, p, now) + e.jitter()*jitterMax}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int { return cmp.Compare(b.score, a.score) })

	e.logger.Debug("recommendations scored",
		"actor", kind, "pool", len(pool), "candidates", len(candidates), "country", p.country)

	out := make([]model.Job, 0, limit)
	for i := offset; i < len(ranked) && len(out) < limit; i++ {
		out = append(out, ranked[i].job)
	}
	return out, nil
}

func (e *Engine) loadProfile(ctx context.Context, actor model.Actor) (profile, error) {
	p := profile{
		skills:     make(map[string]struct{}),
		categories: make(map[string]struct{}),
		seen:       make(map[int64]struct{}),
	}

	if actor.IsUser() {
		u, err := e.store.GetUser(ctx, actor.UserID)
		switch {
		case err == nil:
			p.coords = u.Coordinates
		case !errors.Is(err, storage.ErrNotFound):
			return p, fmt.Errorf("load user %d: %w", actor.UserID, err)
		}

		labels, err := e.store.GetLikedOccupationLabels(ctx, actor.UserID)
		if err != nil {
			return p, fmt.Errorf("load liked occupations: %w", err)
		}
		for _, label := range labels {
			for _, word := range strings.Fields(label) {
				if utf8.RuneCountInString(word) > 3 {
					p.skills[strings.ToLower(word)] = struct{}{}
				}
			}
		}
		// A user id wins when both are set.
		actor.SessionID = ""
	} else {
		s, err := e.store.GetAnonymousSession(ctx, actor.SessionID)
		switch {
		case err == nil:
			p.coords = s.Coordinates
		case !errors.Is(err, storage.ErrNotFound):
			return p, fmt.Errorf("load session %q: %w", actor.SessionID, err)
		}
	}

	liked, err := e.store.GetLikedJobs(ctx, actor)
	if err != nil {
		return p, fmt.Errorf("load liked jobs: %w", err)
	}
	for _, j := range liked {
		for _, s := range j.Skills {
			p.skills[strings.ToLower(s)] = struct{}{}
		}
		if c := j.CategoryText(); c != "" {
			p.categories[strings.ToLower(c)] = struct{}{}
		}
	}

	interactions, err := e.store.GetInteractionsFor(ctx, actor)
	if err != nil {
		return p, fmt.Errorf("load interactions: %w", err)
	}
	for _, in := range interactions {
		p.seen[in.JobID] = struct{}{}
	}

	if p.coords.Known {
		if c, ok := e.country(p.coords.Lat, p.coords.Lon); ok {
			p.country = c
			p.inHome = c == geo.DesignatedCountry
		}
	}
	return p, nil
}

// reshape orders the pool as in-country on-site jobs, then remote jobs, then
// the rest. Relative order within each group is kept.
func reshape(jobs []model.Job, home geo.Region) []model.Job {
	local := make([]model.Job, 0, len(jobs))
	var remote, rest []model.Job
	for _, j := range jobs {
		switch {
		case j.IsRemote:
			remote = append(remote, j)
		case j.Location != nil && geo.LocationMatchesCountry(*j.Location, home):
			local = append(local, j)
		default:
			rest = append(rest, j)
		}
	}
	return append(append(local, remote...), rest...)
}

func (e *Engine) score(j model.Job, p profile, now time.Time) float64 {
	var s float64

	for _, skill := range j.Skills {
		if _, ok := p.skills[strings.ToLower(skill)]; ok {
			s += skillWeight
		}
	}
	if c := j.CategoryText(); c != "" {
		if _, ok := p.categories[strings.ToLower(c)]; ok {
			s += categoryWeight
		}
	}
	if !j.CreatedAt.IsZero() {
		days := math.Floor(now.Sub(j.CreatedAt).Hours() / 24)
		s += max(0, recencyMax-days/7)
	}

	return s + e.geoScore(j, p)
}

func (e *Engine) geoScore(j model.Job, p profile) float64 {
	if j.IsRemote {
		return remoteBonus
	}
	if !p.coords.Known {
		return 0
	}

	if j.Coordinates.Known {
		d := geo.DistanceKm(p.coords.Lat, p.coords.Lon, j.Coordinates.Lat, j.Coordinates.Lon)
		for _, tier := range distanceTiers {
			if d <= tier.km {
				return tier.bonus
			}
		}
		if p.inHome {
			return -farPenaltyHome
		}
		return -farPenaltyOther
	}

	loc := strings.ToLower(j.LocationText())
	if loc == "" {
		return 0
	}
	if p.inHome {
		if geo.LocationMatchesCountry(loc, geo.DesignatedCountry) {
			return homeKeywordBonus
		}
		return -outsideHomeMalus
	}
	if geo.LocationNamesCountry(loc, p.country) {
		return countryBonus
	}
	if region, ok := e.region(p.coords.Lat, p.coords.Lon); ok && geo.LocationMatchesRegion(loc, region) {
		return regionBonus
	}
	return 0
}
