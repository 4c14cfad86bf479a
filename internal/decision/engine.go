package decision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

// StreakLockName is the RunLocker name guarding the streak cache.
const StreakLockName = "velocity-streaks"

// Input is one classified identity to evaluate.
type Input struct {
	URL        string
	Window     domain.ActionWindow
	Trajectory domain.Trajectory
	AgeHours   float64
	Momentum   float64
	Velocity   float64 // NaN when the velocity could not be parsed
}

// Outcome is the engine's decision for one identity.
type Outcome struct {
	Variants int
	Streak   int
	Stop     bool
	Reason   domain.StopReason
}

// Options configures an Engine.
type Options struct {
	Config  Config
	Streaks storage.StreakStore
	Locker  storage.RunLocker
	Logger  *zerolog.Logger
}

// Engine applies the allocation table and the streak-backed stop rules.
type Engine struct {
	rules   *Rules
	config  Config
	streaks storage.StreakStore
	locker  storage.RunLocker
	logger  zerolog.Logger
}

// NewEngine creates an Engine.
func NewEngine(opts Options) *Engine {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Engine{
		rules:   NewRules(opts.Config),
		config:  opts.Config,
		streaks: opts.Streaks,
		locker:  opts.Locker,
		logger:  logger.With().Str("component", "decision").Logger(),
	}
}

// Session is one run's read-modify-write over the streak cache.
// It holds the streak lock until Commit or Abort.
type Session struct {
	engine   *Engine
	runDate  string
	entries  map[string]domain.StreakEntry
	unlock   func()
	once     sync.Once
	finished bool
}

// Begin locks the streak cache, loads it and drops expired entries in
// memory. The store is not written until Commit, so an aborted session
// leaves it untouched.
// Returns storage.ErrLocked (wrapped) when another run holds the cache.
func (e *Engine) Begin(ctx context.Context, runDate time.Time) (*Session, error) {
	unlock, err := e.locker.TryLock(ctx, StreakLockName)
	if err != nil {
		return nil, fmt.Errorf("lock streak cache: %w", err)
	}

	entries, err := e.streaks.Load(ctx)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("load streak cache: %w", err)
	}
	if entries == nil {
		entries = make(map[string]domain.StreakEntry)
	}

	removed := 0
	if e.config.StreakTTLDays > 0 {
		removed = storage.PruneStreaks(entries, storage.StreakCutoff(runDate, e.config.StreakTTLDays))
	}
	e.logger.Debug().Int("entries", len(entries)).Int("expired", removed).Msg("streak cache loaded")

	return &Session{
		engine:  e,
		runDate: runDate.Format(domain.DateLayout),
		entries: entries,
		unlock:  unlock,
	}, nil
}

// Evaluate decides variants and stop for one identity and records its
// updated streak in memory. Nothing is persisted until Commit.
func (s *Session) Evaluate(in Input) Outcome {
	prev := s.entries[in.URL].Streak
	streak := NextStreak(prev, in.Velocity)
	if in.URL != "" {
		s.entries[in.URL] = domain.StreakEntry{Streak: streak, LastSeen: s.runDate}
	}

	r := s.engine.rules
	stop, reason := r.Stop(in.Window, in.Trajectory, in.AgeHours, streak)
	return Outcome{
		Variants: r.Variants(in.Window, in.Trajectory, in.AgeHours, in.Momentum),
		Streak:   streak,
		Stop:     stop,
		Reason:   reason,
	}
}

// Commit saves every entry once and releases the lock.
func (s *Session) Commit(ctx context.Context) error {
	if s.finished {
		return fmt.Errorf("commit streak cache: session already finished")
	}
	defer s.release()

	if err := s.engine.streaks.Save(ctx, s.entries); err != nil {
		return fmt.Errorf("save streak cache: %w", err)
	}
	s.engine.logger.Debug().Int("entries", len(s.entries)).Str("run_date", s.runDate).Msg("streak cache saved")
	return nil
}

// Abort releases the lock without saving. Safe to call after Commit.
func (s *Session) Abort() {
	s.release()
}

func (s *Session) release() {
	s.once.Do(func() {
		s.finished = true
		s.unlock()
	})
}

// Evaluate runs a whole batch in one session: one load, every input in
// order, one save.
func (e *Engine) Evaluate(ctx context.Context, runDate time.Time, inputs []Input) ([]Outcome, error) {
	session, err := e.Begin(ctx, runDate)
	if err != nil {
		return nil, err
	}
	defer session.Abort()

	outcomes := make([]Outcome, len(inputs))
	for i, in := range inputs {
		outcomes[i] = session.Evaluate(in)
	}

	if err := session.Commit(ctx); err != nil {
		return nil, err
	}
	return outcomes, nil
}
