package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

// StreakStore implements storage.StreakStore using PostgreSQL.
type StreakStore struct {
	pool *Pool
}

// NewStreakStore creates a new StreakStore.
func NewStreakStore(pool *Pool) *StreakStore {
	return &StreakStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StreakStore = (*StreakStore)(nil)

// Load returns every entry keyed by URL.
func (s *StreakStore) Load(ctx context.Context) (entries map[string]domain.StreakEntry, err error) {
	start := time.Now()
	defer func() { observe("load_streaks", start, err) }()

	rows, err := s.pool.Query(ctx, `SELECT url, streak, last_seen FROM velocity_streaks`)
	if err != nil {
		return nil, fmt.Errorf("load streaks: %w", err)
	}
	defer rows.Close()

	entries = make(map[string]domain.StreakEntry)
	for rows.Next() {
		var url string
		var streak int32
		var lastSeen *time.Time
		if err := rows.Scan(&url, &streak, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan streak row: %w", err)
		}
		e := domain.StreakEntry{Streak: int(streak)}
		if lastSeen != nil {
			e.LastSeen = lastSeen.Format(domain.DateLayout)
		}
		entries[url] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate streak rows: %w", err)
	}
	return entries, nil
}

// Save replaces every entry in one transaction.
func (s *StreakStore) Save(ctx context.Context, entries map[string]domain.StreakEntry) (err error) {
	start := time.Now()
	defer func() { observe("save_streaks", start, err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin streak tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `DELETE FROM velocity_streaks`); err != nil {
		return fmt.Errorf("clear streaks: %w", err)
	}

	rows := make([][]any, 0, len(entries))
	for url, e := range entries {
		if url == "" {
			continue
		}
		var lastSeen *time.Time
		if day, perr := parseDate(e.LastSeen); perr == nil {
			lastSeen = &day
		}
		rows = append(rows, []any{url, int32(e.Streak), lastSeen})
	}

	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"velocity_streaks"},
			[]string{"url", "streak", "last_seen"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy streak rows: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit streaks: %w", err)
	}
	return nil
}

// Prune removes entries last seen before cutoff. Rows without a last-seen
// date are kept.
func (s *StreakStore) Prune(ctx context.Context, cutoff string) (removed int, err error) {
	day, err := parseDate(cutoff)
	if err != nil {
		return 0, fmt.Errorf("streak cutoff %q: %w", cutoff, storage.ErrInvalidInput)
	}
	start := time.Now()
	defer func() { observe("prune_streaks", start, err) }()

	tag, err := s.pool.Exec(ctx, `DELETE FROM velocity_streaks WHERE last_seen IS NOT NULL AND last_seen < $1`, day)
	if err != nil {
		return 0, fmt.Errorf("prune streaks: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
