package postgres

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"trendbuild/internal/storage"
)

// Locker implements storage.RunLocker with session-level advisory locks.
// Each held lock pins one pooled connection until it is released.
type Locker struct {
	pool *Pool
}

// NewLocker creates a new advisory-lock locker.
func NewLocker(pool *Pool) *Locker {
	return &Locker{pool: pool}
}

// Compile-time interface check.
var _ storage.RunLocker = (*Locker)(nil)

// lockKey maps a lock name onto the bigint advisory-lock key space.
func lockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("trendbuild:" + name))
	return int64(h.Sum64())
}

// TryLock takes pg_try_advisory_lock for name. Returns ErrLocked if another
// session holds it.
func (l *Locker) TryLock(ctx context.Context, name string) (func(), error) {
	if name == "" {
		return nil, storage.ErrInvalidInput
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}

	key := lockKey(name)
	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("try advisory lock %s: %w", name, err)
	}
	if !ok {
		conn.Release()
		return nil, storage.ErrLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Background context so a cancelled run still releases its lock.
			if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, key); err != nil {
				// Closing the session drops every advisory lock it holds.
				conn.Conn().Close(context.Background())
			}
			conn.Release()
		})
	}, nil
}
