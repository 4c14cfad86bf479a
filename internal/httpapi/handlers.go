package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
	"trendbuild/internal/supervisor"
)

// Health reports liveness.
func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusResponse is the body of /status.
type StatusResponse struct {
	Status string                 `json:"status"`
	Uptime string                 `json:"uptime"`
	Jobs   []supervisor.JobStatus `json:"jobs"`
}

// Status reports uptime and scheduled job bookkeeping.
func (a *API) Status(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Status: "running",
		Uptime: a.now().Sub(a.started).Round(time.Second).String(),
		Jobs:   make([]supervisor.JobStatus, 0, len(a.jobs)),
	}
	for _, j := range a.jobs {
		resp.Jobs = append(resp.Jobs, j.Status())
	}
	respondJSON(w, http.StatusOK, resp)
}

// CandidatesResponse is the body of /api/v1/candidates.
type CandidatesResponse struct {
	LastUpdated *time.Time          `json:"last_updated"`
	Tracked     int                 `json:"tracked"`
	Capacity    int                 `json:"capacity"`
	Candidates  []*domain.Candidate `json:"candidates"`
}

// Candidates returns the tracker's current state.
func (a *API) Candidates(w http.ResponseWriter, r *http.Request) {
	state, err := a.state.Load(r.Context())
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, "failed to load candidates", err)
		return
	}
	candidates := state.Candidates
	if candidates == nil {
		candidates = []*domain.Candidate{}
	}
	respondJSON(w, http.StatusOK, CandidatesResponse{
		LastUpdated: state.LastUpdated,
		Tracked:     len(candidates),
		Capacity:    a.capacity,
		Candidates:  candidates,
	})
}

// RunResponse is one run's recommendations.
type RunResponse struct {
	RunID           string           `json:"run_id"`
	RunDate         string           `json:"run_date"`
	RunAt           time.Time        `json:"run_at"`
	Recommendations []Recommendation `json:"recommendations"`
}

// LatestRecommendations returns the most recent run.
func (a *API) LatestRecommendations(w http.ResponseWriter, r *http.Request) {
	if a.recommendations == nil {
		a.respondError(w, http.StatusServiceUnavailable, "run history not configured", nil)
		return
	}
	run, err := a.recommendations.LatestRun(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		a.respondError(w, http.StatusNotFound, "no runs recorded yet", nil)
		return
	}
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, "failed to load latest run", err)
		return
	}
	a.writeRun(w, r, run.RunID)
}

// RunRecommendations returns one run by ID.
func (a *API) RunRecommendations(w http.ResponseWriter, r *http.Request) {
	if a.recommendations == nil {
		a.respondError(w, http.StatusServiceUnavailable, "run history not configured", nil)
		return
	}
	a.writeRun(w, r, chi.URLParam(r, "runID"))
}

func (a *API) writeRun(w http.ResponseWriter, r *http.Request, runID string) {
	stored, err := a.recommendations.GetByRun(r.Context(), runID)
	if errors.Is(err, storage.ErrNotFound) {
		a.respondError(w, http.StatusNotFound, "run not found", nil)
		return
	}
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, "failed to load run", err)
		return
	}

	resp := RunResponse{RunID: runID, Recommendations: make([]Recommendation, 0, len(stored))}
	if len(stored) > 0 {
		resp.RunDate = stored[0].Run.RunDate
		resp.RunAt = stored[0].Run.RunAt
	}
	for _, s := range stored {
		resp.Recommendations = append(resp.Recommendations, toRecommendation(s))
	}
	respondJSON(w, http.StatusOK, resp)
}

// IdentityHistory returns every stored recommendation for ?url=.
func (a *API) IdentityHistory(w http.ResponseWriter, r *http.Request) {
	if a.recommendations == nil {
		a.respondError(w, http.StatusServiceUnavailable, "run history not configured", nil)
		return
	}
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		a.respondError(w, http.StatusBadRequest, "missing url parameter", nil)
		return
	}
	stored, err := a.recommendations.GetByIdentity(r.Context(), url)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, "failed to load history", err)
		return
	}
	out := make([]Recommendation, 0, len(stored))
	for _, s := range stored {
		out = append(out, toRecommendation(s))
	}
	respondJSON(w, http.StatusOK, out)
}

// CheckResponse is one stored tracker check.
type CheckResponse struct {
	CycleID string        `json:"cycle_id"`
	URL     string        `json:"url"`
	Market  domain.Market `json:"market"`
	domain.Check
}

// IdentityChecks returns tracker check history for ?url=.
func (a *API) IdentityChecks(w http.ResponseWriter, r *http.Request) {
	if a.checks == nil {
		a.respondError(w, http.StatusServiceUnavailable, "check history not configured", nil)
		return
	}
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		a.respondError(w, http.StatusBadRequest, "missing url parameter", nil)
		return
	}
	checks, err := a.checks.GetByIdentity(r.Context(), url)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, "failed to load checks", err)
		return
	}
	out := make([]CheckResponse, 0, len(checks))
	for _, c := range checks {
		out = append(out, CheckResponse{CycleID: c.CycleID, URL: c.URL, Market: c.Market, Check: c.Check})
	}
	respondJSON(w, http.StatusOK, out)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) respondError(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		a.logger.Error().Err(err).Int("status", status).Msg(msg)
	}
	respondJSON(w, status, errorResponse{Error: msg})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
