package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	json "github.com/goccy/go-json"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

// CheckStore appends tracker checks to a JSON-lines file.
type CheckStore struct {
	mu   sync.Mutex
	path string
}

// NewCheckStore creates a check store under dir.
func NewCheckStore(dir string) *CheckStore {
	return &CheckStore{path: filepath.Join(dir, ChecksFile)}
}

// InsertBulk appends one line per check.
func (s *CheckStore) InsertBulk(_ context.Context, checks []*domain.CheckRecord) error {
	for _, c := range checks {
		if c == nil || c.URL == "" {
			return storage.ErrInvalidInput
		}
	}
	if len(checks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", s.path, err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, c := range checks {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encode check: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// GetByIdentity returns every check for url, ordered by timestamp ASC.
// Lines that fail to decode are skipped.
func (s *CheckStore) GetByIdentity(_ context.Context, url string) ([]*domain.CheckRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	var result []*domain.CheckRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var c domain.CheckRecord
		if err := json.Unmarshal(scanner.Bytes(), &c); err != nil {
			continue
		}
		if c.URL == url {
			result = append(result, &c)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

var _ storage.CheckStore = (*CheckStore)(nil)
