package clickhouse

import (
	"context"
	"fmt"
	"time"

	"trendbuild/internal/domain"
	"trendbuild/internal/idhash"
	"trendbuild/internal/storage"
)

// CheckStore implements storage.CheckStore using ClickHouse.
type CheckStore struct {
	conn *Conn
}

// NewCheckStore creates a new CheckStore.
func NewCheckStore(conn *Conn) *CheckStore {
	return &CheckStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CheckStore = (*CheckStore)(nil)

// InsertBulk appends the checks of one poll cycle.
func (s *CheckStore) InsertBulk(ctx context.Context, checks []*domain.CheckRecord) (err error) {
	for _, c := range checks {
		if c == nil || c.URL == "" {
			return storage.ErrInvalidInput
		}
	}
	if len(checks) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { observe("insert_checks", start, err) }()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO tracker_checks (
			cycle_id, identity_key, url, market, checked_at,
			age_hours, shares_per_hour, views_per_hour, momentum, delta_shares
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range checks {
		err = batch.Append(
			c.CycleID, idhash.IdentityKey(c.URL), c.URL, c.Market.String(), c.Timestamp.UTC(),
			c.AgeHours, c.SharesPerHour, c.ViewsPerHour, c.Momentum, c.DeltaShares,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByIdentity returns every check for url, ordered by timestamp ASC.
func (s *CheckStore) GetByIdentity(ctx context.Context, url string) (result []*domain.CheckRecord, err error) {
	start := time.Now()
	defer func() { observe("get_checks_by_identity", start, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT cycle_id, url, market, checked_at,
			age_hours, shares_per_hour, views_per_hour, momentum, delta_shares
		FROM tracker_checks
		WHERE identity_key = ?
		ORDER BY checked_at ASC
	`, idhash.IdentityKey(url))
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.CheckRecord
		var market string
		err := rows.Scan(
			&c.CycleID, &c.URL, &market, &c.Timestamp,
			&c.AgeHours, &c.SharesPerHour, &c.ViewsPerHour, &c.Momentum, &c.DeltaShares,
		)
		if err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		c.Market = domain.Market(market)
		c.Timestamp = c.Timestamp.UTC()
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checks: %w", err)
	}
	return result, nil
}
