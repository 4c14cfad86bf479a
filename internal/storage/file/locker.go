package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"trendbuild/internal/storage"
)

// DefaultStaleAfter is how old a lock directory's mtime must be before it is
// treated as left behind by a crashed run. A live holder touches the
// directory every staleAfter/3, so only a dead holder goes stale.
const DefaultStaleAfter = time.Hour

// Locker implements storage.RunLocker with lock directories, which are
// created atomically across processes sharing dir.
type Locker struct {
	dir        string
	staleAfter time.Duration
}

// NewLocker creates a locker under dir. staleAfter <= 0 uses DefaultStaleAfter.
func NewLocker(dir string, staleAfter time.Duration) *Locker {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Locker{dir: dir, staleAfter: staleAfter}
}

// TryLock creates the lock directory for name. Returns ErrLocked if another
// holder has it and it is not stale.
func (l *Locker) TryLock(_ context.Context, name string) (func(), error) {
	if name == "" {
		return nil, storage.ErrInvalidInput
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	path := filepath.Join(l.dir, name+lockDirSuffix)

	err := os.Mkdir(path, 0o755)
	if errors.Is(err, os.ErrExist) {
		info, statErr := os.Stat(path)
		if statErr != nil || time.Since(info.ModTime()) < l.staleAfter {
			return nil, storage.ErrLocked
		}
		if err := os.Remove(path); err != nil {
			return nil, storage.ErrLocked
		}
		err = os.Mkdir(path, 0o755)
		if errors.Is(err, os.ErrExist) {
			return nil, storage.ErrLocked
		}
	}
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}

	stop := make(chan struct{})
	go l.heartbeat(path, stop)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			_ = os.Remove(path)
		})
	}, nil
}

// heartbeat refreshes the lock directory's mtime until stop is closed.
func (l *Locker) heartbeat(path string, stop <-chan struct{}) {
	ticker := time.NewTicker(l.staleAfter / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := time.Now()
			_ = os.Chtimes(path, now, now)
		}
	}
}

var _ storage.RunLocker = (*Locker)(nil)
