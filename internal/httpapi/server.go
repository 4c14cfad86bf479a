// Package httpapi serves the read-only dashboard API: tracked candidates,
// recent recommendations, check history, job status and the live alert feed.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"trendbuild/internal/observability"
	"trendbuild/internal/storage"
	"trendbuild/internal/supervisor"
)

// JobReporter exposes a scheduled job's bookkeeping.
type JobReporter interface {
	Status() supervisor.JobStatus
}

// Options configures the API.
type Options struct {
	State           storage.CandidateStateStore
	Recommendations storage.RecommendationStore // optional; history routes answer 503 when nil
	Checks          storage.CheckStore          // optional
	WebSocket       http.Handler                // optional; mounted at /ws
	Jobs            []JobReporter
	Capacity        int
	Logger          *zerolog.Logger
	Now             func() time.Time
}

// API holds the handlers' dependencies.
type API struct {
	state           storage.CandidateStateStore
	recommendations storage.RecommendationStore
	checks          storage.CheckStore
	jobs            []JobReporter
	capacity        int
	logger          zerolog.Logger
	now             func() time.Time
	started         time.Time
}

// New creates the API.
func New(opts Options) *API {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &API{
		state:           opts.State,
		recommendations: opts.Recommendations,
		checks:          opts.Checks,
		jobs:            opts.Jobs,
		capacity:        opts.Capacity,
		logger:          logger.With().Str("component", "httpapi").Logger(),
		now:             now,
		started:         now(),
	}
}

// Router builds the chi router with every route mounted.
func Router(api *API, ws http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(api.requestLogger)

	r.Get("/healthz", api.Health)
	r.Get("/status", api.Status)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/candidates", api.Candidates)
		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/latest", api.LatestRecommendations)
			r.Get("/runs/{runID}", api.RunRecommendations)
		})
		r.Get("/identities/history", api.IdentityHistory)
		r.Get("/identities/checks", api.IdentityChecks)
	})

	if ws != nil {
		r.Handle("/ws", ws)
	}
	return r
}

// NewServer builds an http.Server for addr serving opts.
func NewServer(addr string, opts Options) *http.Server {
	api := New(opts)
	return &http.Server{
		Addr:              addr,
		Handler:           Router(api, opts.WebSocket),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}
