package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// HTTPServer is the lifecycle subset of *http.Server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPService runs an HTTP server as a supervised service.
type HTTPService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPService wraps server. Shutdown gets at most shutdownTimeout.
func NewHTTPService(server HTTPServer, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (h *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *HTTPService) String() string { return "http-server" }

// ContextServer is anything with a blocking, context-bound Serve loop,
// such as the websocket hub.
type ContextServer interface {
	Serve(ctx context.Context) error
}

// NamedService gives a ContextServer a name for supervisor logs.
type NamedService struct {
	Name   string
	Server ContextServer
}

// Serve implements suture.Service.
func (n NamedService) Serve(ctx context.Context) error { return n.Server.Serve(ctx) }

func (n NamedService) String() string { return n.Name }

// JobFunc is one run of a scheduled job.
type JobFunc func(ctx context.Context) error

// JobStatus is a snapshot of a job's bookkeeping.
type JobStatus struct {
	Name      string        `json:"name"`
	Interval  time.Duration `json:"interval"`
	Running   bool          `json:"running"`
	Runs      int           `json:"runs"`
	Failures  int           `json:"failures"`
	LastRun   time.Time     `json:"last_run,omitempty"`
	LastError string        `json:"last_error,omitempty"`
}

// TickerService runs a job on a fixed interval. A failed run is logged
// and recorded; it does not stop the service.
type TickerService struct {
	name       string
	interval   time.Duration
	runOnStart bool
	job        JobFunc
	logger     zerolog.Logger

	mu     sync.Mutex
	status JobStatus
}

// NewTickerService creates a job service. interval must be positive.
func NewTickerService(name string, interval time.Duration, runOnStart bool, job JobFunc, logger *zerolog.Logger) *TickerService {
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}
	return &TickerService{
		name:       name,
		interval:   interval,
		runOnStart: runOnStart,
		job:        job,
		logger:     log.With().Str("component", "job").Str("job", name).Logger(),
		status:     JobStatus{Name: name, Interval: interval},
	}
}

// Serve implements suture.Service.
func (s *TickerService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("job scheduled")
	if s.runOnStart {
		s.RunOnce(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs the job now, unless a run is already in progress.
func (s *TickerService) RunOnce(ctx context.Context) {
	s.mu.Lock()
	if s.status.Running {
		s.mu.Unlock()
		s.logger.Warn().Msg("job already running, skipping")
		return
	}
	s.status.Running = true
	s.mu.Unlock()

	start := time.Now()
	err := s.job(ctx)

	s.mu.Lock()
	s.status.Running = false
	s.status.Runs++
	s.status.LastRun = start
	s.status.LastError = ""
	if err != nil {
		s.status.Failures++
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("job failed")
		return
	}
	s.logger.Info().Dur("duration", time.Since(start)).Msg("job finished")
}

// Status returns the job's current bookkeeping.
func (s *TickerService) Status() JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *TickerService) String() string { return s.name }
