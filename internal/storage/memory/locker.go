package memory

import (
	"context"
	"sync"

	"trendbuild/internal/storage"
)

// Locker is an in-process implementation of storage.RunLocker.
// It serializes runs within one process only.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocker creates a new in-process locker.
func NewLocker() *Locker {
	return &Locker{
		locks: make(map[string]*sync.Mutex),
	}
}

// TryLock acquires name without waiting. Returns ErrLocked if it is held.
func (l *Locker) TryLock(_ context.Context, name string) (func(), error) {
	if name == "" {
		return nil, storage.ErrInvalidInput
	}

	l.mu.Lock()
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return nil, storage.ErrLocked
	}

	var once sync.Once
	return func() { once.Do(m.Unlock) }, nil
}

var _ storage.RunLocker = (*Locker)(nil)
