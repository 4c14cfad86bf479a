package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

// snapshotRow is the on-disk form of domain.SnapshotRow.
type snapshotRow struct {
	URL           string  `json:"url"`
	Author        string  `json:"author"`
	Market        string  `json:"market"`
	AgeHours      float64 `json:"age_hours"`
	SharesPerHour float64 `json:"shares_per_hour"`
	LikesPerHour  float64 `json:"likes_per_hour"`
	ViewsPerHour  float64 `json:"views_per_hour"`
	Momentum      float64 `json:"momentum_score"`
}

// SnapshotStore keeps one JSON file per snapshot date.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates a snapshot store under dir.
func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{dir: filepath.Join(dir, snapshotDir)}
}

func (s *SnapshotStore) path(date string) string {
	return filepath.Join(s.dir, date+".json")
}

// SaveSnapshot writes the rows for date, replacing any previous file.
func (s *SnapshotStore) SaveSnapshot(_ context.Context, date string, rows []domain.SnapshotRow) error {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return fmt.Errorf("snapshot date %q: %w", date, storage.ErrInvalidInput)
	}

	out := make([]snapshotRow, len(rows))
	for i, r := range rows {
		out[i] = snapshotRow{
			URL:           r.URL,
			Author:        r.Author,
			Market:        r.Market.String(),
			AgeHours:      r.AgeHours,
			SharesPerHour: r.SharesPerHour,
			LikesPerHour:  r.LikesPerHour,
			ViewsPerHour:  r.ViewsPerHour,
			Momentum:      r.Momentum,
		}
	}
	return writeJSON(s.path(date), out)
}

// GetSnapshot reads the rows for date. Returns ErrNotFound when there is no
// file for date; an unreadable file is reported as an error.
func (s *SnapshotStore) GetSnapshot(_ context.Context, date string) ([]domain.SnapshotRow, error) {
	var in []snapshotRow
	found, err := readJSON(s.path(date), &in)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	rows := make([]domain.SnapshotRow, len(in))
	for i, r := range in {
		rows[i] = domain.SnapshotRow{
			URL:           r.URL,
			Author:        r.Author,
			Market:        domain.Market(r.Market),
			AgeHours:      r.AgeHours,
			SharesPerHour: r.SharesPerHour,
			LikesPerHour:  r.LikesPerHour,
			ViewsPerHour:  r.ViewsPerHour,
			Momentum:      r.Momentum,
		}
	}
	return rows, nil
}

// ListDates returns every snapshot date on disk, ascending.
func (s *SnapshotStore) ListDates(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	var dates []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok {
			continue
		}
		if _, err := time.Parse(domain.DateLayout, name); err != nil {
			continue
		}
		dates = append(dates, name)
	}
	sort.Strings(dates)
	return dates, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
