package file

import (
	"context"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

// streakValue is one cache entry on disk. Older caches stored a bare
// integer streak instead of an object.
type streakValue struct {
	Streak   int    `json:"streak"`
	LastSeen string `json:"last_seen,omitempty"`
}

func (v *streakValue) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = streakValue{Streak: int(n)}
		return nil
	}
	type plain streakValue
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = streakValue(p)
	return nil
}

// StreakStore keeps the velocity streak cache in one JSON object keyed by URL.
type StreakStore struct {
	mu     sync.Mutex
	path   string
	logger zerolog.Logger
}

// NewStreakStore creates a streak store under dir.
func NewStreakStore(dir string, logger *zerolog.Logger) *StreakStore {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &StreakStore{
		path:   filepath.Join(dir, StreakFile),
		logger: l.With().Str("component", "streak_file").Logger(),
	}
}

// Load returns every entry. A missing or corrupt file loads as empty.
func (s *StreakStore) Load(_ context.Context) (map[string]domain.StreakEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(), nil
}

// Save replaces the cache file.
func (s *StreakStore) Save(_ context.Context, entries map[string]domain.StreakEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(entries)
}

// Prune removes expired entries and rewrites the file when anything changed.
func (s *StreakStore) Prune(_ context.Context, cutoff string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	removed := storage.PruneStreaks(entries, cutoff)
	if removed == 0 {
		return 0, nil
	}
	if err := s.save(entries); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *StreakStore) load() map[string]domain.StreakEntry {
	raw := make(map[string]streakValue)
	if _, err := readJSON(s.path, &raw); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("streak cache unreadable, starting empty")
		return make(map[string]domain.StreakEntry)
	}

	entries := make(map[string]domain.StreakEntry, len(raw))
	for url, v := range raw {
		if url == "" {
			continue
		}
		entries[url] = domain.StreakEntry{Streak: v.Streak, LastSeen: v.LastSeen}
	}
	return entries
}

func (s *StreakStore) save(entries map[string]domain.StreakEntry) error {
	raw := make(map[string]streakValue, len(entries))
	for url, e := range entries {
		if url == "" {
			continue
		}
		raw[url] = streakValue{Streak: e.Streak, LastSeen: e.LastSeen}
	}
	return writeJSON(s.path, raw)
}

var _ storage.StreakStore = (*StreakStore)(nil)
