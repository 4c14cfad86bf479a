package storage

import (
	"context"

	"trendbuild/internal/domain"
)

// SnapshotStore provides access to daily normalized snapshots.
type SnapshotStore interface {
	// SaveSnapshot stores the rows for date (YYYY-MM-DD), replacing any
	// snapshot previously saved for the same date.
	SaveSnapshot(ctx context.Context, date string, rows []domain.SnapshotRow) error

	// GetSnapshot returns the rows for date in insertion order.
	// Returns ErrNotFound if no snapshot exists for that date.
	GetSnapshot(ctx context.Context, date string) ([]domain.SnapshotRow, error)

	// ListDates returns every stored snapshot date, ascending.
	ListDates(ctx context.Context) ([]string, error)
}

// StreakStore provides access to the velocity streak cache.
// The cache has a single writer: callers hold the RunLocker around a
// Prune/Load/Save sequence.
type StreakStore interface {
	// Load returns every entry keyed by identity. Corrupt data loads as empty.
	Load(ctx context.Context) (map[string]domain.StreakEntry, error)

	// Save replaces the full set of entries.
	Save(ctx context.Context, entries map[string]domain.StreakEntry) error

	// Prune removes entries whose last-seen date is before cutoff (YYYY-MM-DD).
	// Entries with an empty or unparsable last-seen date are kept.
	// Returns the number of entries removed.
	Prune(ctx context.Context, cutoff string) (int, error)
}

// CandidateStateStore provides access to the tracker's candidate snapshot.
type CandidateStateStore interface {
	// Load returns the persisted state. Missing or corrupt state loads as an
	// empty CandidateState, never as an error.
	Load(ctx context.Context) (*domain.CandidateState, error)

	// Save replaces the persisted state.
	Save(ctx context.Context, state *domain.CandidateState) error
}

// RecommendationStore is the append-only history of refresh run outputs.
type RecommendationStore interface {
	// InsertBulk adds all recommendations of one run.
	// Returns ErrDuplicateKey if runID was already stored.
	InsertBulk(ctx context.Context, run domain.RunInfo, recs []domain.Recommendation) error

	// GetByRun returns a run's recommendations in their stored order.
	// Returns ErrNotFound if the run does not exist.
	GetByRun(ctx context.Context, runID string) ([]*domain.StoredRecommendation, error)

	// GetByIdentity returns every stored recommendation for url, ordered by run time ASC.
	GetByIdentity(ctx context.Context, url string) ([]*domain.StoredRecommendation, error)

	// LatestRun returns the most recent run. Returns ErrNotFound when empty.
	LatestRun(ctx context.Context) (domain.RunInfo, error)
}

// CheckStore is the append-only history of tracker checks.
type CheckStore interface {
	// InsertBulk adds the checks recorded during one poll cycle.
	InsertBulk(ctx context.Context, checks []*domain.CheckRecord) error

	// GetByIdentity returns every check for url, ordered by timestamp ASC.
	GetByIdentity(ctx context.Context, url string) ([]*domain.CheckRecord, error)
}

// RunLocker serializes read-modify-write runs over shared state.
type RunLocker interface {
	// TryLock acquires the named lock without waiting.
	// Returns ErrLocked if another holder has it.
	TryLock(ctx context.Context, name string) (func(), error)
}
