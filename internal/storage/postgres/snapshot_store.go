package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// SaveSnapshot replaces the rows for date in one transaction.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, date string, rows []domain.SnapshotRow) (err error) {
	day, err := parseDate(date)
	if err != nil {
		return fmt.Errorf("snapshot date %q: %w", date, storage.ErrInvalidInput)
	}
	start := time.Now()
	defer func() { observe("save_snapshot", start, err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `DELETE FROM daily_snapshots WHERE snapshot_date = $1`, day); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"daily_snapshots"},
			[]string{
				"snapshot_date", "position", "url", "author", "market",
				"age_hours", "shares_per_hour", "likes_per_hour", "views_per_hour", "momentum_score",
			},
			pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
				r := rows[i]
				return []any{
					day, int32(i), r.URL, r.Author, r.Market.String(),
					r.AgeHours, r.SharesPerHour, r.LikesPerHour, r.ViewsPerHour, r.Momentum,
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy snapshot rows: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the rows for date in insertion order.
// Returns ErrNotFound if no rows exist for that date.
func (s *SnapshotStore) GetSnapshot(ctx context.Context, date string) (result []domain.SnapshotRow, err error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	start := time.Now()
	defer func() { observe("get_snapshot", start, err) }()

	query := `
		SELECT url, author, market, age_hours, shares_per_hour, likes_per_hour, views_per_hour, momentum_score
		FROM daily_snapshots
		WHERE snapshot_date = $1
		ORDER BY position ASC
	`

	rows, err := s.pool.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.SnapshotRow
		var market string
		if err := rows.Scan(&r.URL, &r.Author, &market, &r.AgeHours, &r.SharesPerHour,
			&r.LikesPerHour, &r.ViewsPerHour, &r.Momentum); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		r.Market = domain.Market(market)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}
	return result, nil
}

// ListDates returns every stored snapshot date, ascending.
func (s *SnapshotStore) ListDates(ctx context.Context) (dates []string, err error) {
	start := time.Now()
	defer func() { observe("list_snapshot_dates", start, err) }()

	rows, err := s.pool.Query(ctx, `SELECT DISTINCT snapshot_date FROM daily_snapshots ORDER BY snapshot_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshot dates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan snapshot date: %w", err)
		}
		dates = append(dates, day.Format(domain.DateLayout))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot dates: %w", err)
	}
	return dates, nil
}
