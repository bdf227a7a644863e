// Package httpapi implements the HTTP surface of the matching service.
//
// Personalised routes identify the caller with an x-user-id or x-session-id
// header forwarded by the Gateway. Neither header means an anonymous caller.
//
// Routes:
//
//	GET  /health                → liveness
//	GET  /metrics               → Prometheus
//	GET  /api/jobs              → filtered catalog page
//	GET  /api/jobs/{id}         → single job
//	GET  /api/recommendations   → ranked jobs for the caller
//	GET  /api/saved-jobs        → jobs the caller liked or saved
//	POST /api/interactions      → record a swipe
//	POST /api/sync-jobs         → run one feed sync now
package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobmate/matching-service/internal/catalog"
	"jobmate/matching-service/internal/metrics"
	"jobmate/matching-service/internal/model"
	"jobmate/matching-service/internal/recommend"
	"jobmate/matching-service/internal/scraper"
	"jobmate/matching-service/internal/storage"
)

// ─── Dependencies ────────────────────────────────────────────────────────────

// JobCatalog serves catalog pages and single jobs.
type JobCatalog interface {
	GetJob(ctx context.Context, id int64) (model.Job, error)
	QueryJobs(ctx context.Context, f catalog.Filter, page catalog.Page) []model.Job
}

// Recommender ranks jobs for an actor.
type Recommender interface {
	Recommend(ctx context.Context, actor model.Actor, opts recommend.Options) ([]model.Job, error)
}

// InteractionStore records swipes and lists an actor's liked jobs.
type InteractionStore interface {
	RecordInteraction(ctx context.Context, in model.Interaction) (model.Interaction, error)
	GetLikedJobs(ctx context.Context, actor model.Actor) ([]model.Job, error)
}

// Syncer runs one feed ingestion cycle on demand.
type Syncer interface {
	SyncOnce(ctx context.Context, feedURL string) (scraper.SyncResult, error)
}

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	catalog      JobCatalog
	recommender  Recommender
	interactions InteractionStore
	syncer       Syncer
	logger       *slog.Logger
	validate     *validator.Validate
	version      string
}

// NewHandler returns a configured Handler.
func NewHandler(c JobCatalog, rec Recommender, interactions InteractionStore, syncer Syncer, logger *slog.Logger, version string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		catalog:      c,
		recommender:  rec,
		interactions: interactions,
		syncer:       syncer,
		logger:       logger.With("component", "httpapi"),
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		version:      version,
	}
}

// Router builds the chi router. rateLimit is requests per minute per client
// IP on /api routes; 0 disables limiting.
func (h *Handler) Router(rateLimit int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(h.instrument)

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if rateLimit > 0 {
			r.Use(httprate.LimitByIP(rateLimit, time.Minute))
		}
		r.Get("/jobs", h.listJobs)
		r.Get("/jobs/{id}", h.getJob)
		r.Get("/recommendations", h.recommendations)
		r.Get("/saved-jobs", h.savedJobs)
		r.Post("/interactions", h.recordInteraction)
		r.Post("/sync-jobs", h.syncJobs)
	})
	return r
}

// ─── Individual handlers ─────────────────────────────────────────────────────

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, map[string]string{
		"status":  "ok",
		"service": "matching-service",
		"version": h.version,
	})
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parsePage(q)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	f, err := parseFilter(q)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	jsonOK(w, toJobResponses(h.catalog.QueryJobs(r.Context(), f, page)))
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, "job id must be a positive integer", http.StatusBadRequest)
		return
	}
	job, err := h.catalog.GetJob(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("get job failed", "id", id, "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, toJobResponse(job))
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromHeaders(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	page, err := parsePage(q)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	exclude, err := parseIDList(q.Get("excludeIds"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	jobs, err := h.recommender.Recommend(r.Context(), actor, recommend.Options{
		Limit:      page.Limit,
		Offset:     page.Offset,
		ExcludeIDs: exclude,
		Order:      catalog.ParseOrder(q.Get("orderBy")),
	})
	if err != nil {
		h.logger.Error("recommend failed", "userId", actor.UserID, "sessionId", actor.SessionID, "err", err)
		jsonError(w, "failed to get recommendations", http.StatusInternalServerError)
		return
	}
	jsonOK(w, toJobResponses(jobs))
}

func (h *Handler) savedJobs(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromHeaders(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if actor.IsAnonymous() {
		jsonError(w, "missing x-user-id or x-session-id header", http.StatusUnauthorized)
		return
	}
	jobs, err := h.interactions.GetLikedJobs(r.Context(), actor)
	if err != nil {
		h.logger.Error("saved jobs failed", "userId", actor.UserID, "sessionId", actor.SessionID, "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, toJobResponses(jobs))
}

type interactionRequest struct {
	JobID     int64  `json:"jobId" validate:"required,gt=0"`
	Action    string `json:"action" validate:"required"`
	Sentiment string `json:"sentiment"`
}

func (h *Handler) recordInteraction(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromHeaders(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if actor.IsAnonymous() {
		jsonError(w, "missing x-user-id or x-session-id header", http.StatusUnauthorized)
		return
	}

	var body interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		jsonError(w, "body must contain a positive jobId and an action", http.StatusBadRequest)
		return
	}
	action, err := model.ParseAction(body.Action)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	in := model.Interaction{Actor: actor, JobID: body.JobID, Action: action}
	if body.Sentiment != "" {
		s, err := model.ParseSentiment(body.Sentiment)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		in.Sentiment = &s
	}

	if _, err := h.catalog.GetJob(r.Context(), in.JobID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			jsonError(w, "job not found", http.StatusNotFound)
			return
		}
		h.logger.Error("interaction job lookup failed", "jobId", in.JobID, "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	saved, err := h.interactions.RecordInteraction(r.Context(), in)
	if err != nil {
		h.logger.Error("record interaction failed", "jobId", in.JobID, "action", in.Action, "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonCreated(w, saved)
}

func (h *Handler) syncJobs(w http.ResponseWriter, r *http.Request) {
	var body struct {
		XMLURL string `json:"xmlUrl" validate:"omitempty,url"`
	}
	// An empty body syncs the configured feed.
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		jsonError(w, "xmlUrl must be a valid URL", http.StatusBadRequest)
		return
	}

	res, err := h.syncer.SyncOnce(r.Context(), body.XMLURL)
	if err != nil {
		h.logger.Error("manual sync failed", "err", err)
		jsonError(w, "failed to sync jobs", http.StatusInternalServerError)
		return
	}
	jsonOK(w, res)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// instrument records request metrics and logs the outcome at debug level.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequest(r.Method, route, status, time.Since(start))
		h.logger.Debug("request", "method", r.Method, "route", route, "status", status,
			"duration", time.Since(start), "requestId", chimiddleware.GetReqID(r.Context()))
	})
}

func jsonOK(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

func jsonCreated(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusCreated, v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
