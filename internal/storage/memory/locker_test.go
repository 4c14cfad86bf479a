package memory

import (
	"context"
	"errors"
	"testing"

	"trendbuild/internal/storage"
)

func TestLocker_TryLock(t *testing.T) {
	locker := NewLocker()
	ctx := context.Background()

	unlock, err := locker.TryLock(ctx, "refresh")
	if err != nil {
		t.Fatalf("first TryLock failed: %v", err)
	}

	if _, err := locker.TryLock(ctx, "refresh"); !errors.Is(err, storage.ErrLocked) {
		t.Errorf("Expected ErrLocked while held, got %v", err)
	}

	other, err := locker.TryLock(ctx, "poll")
	if err != nil {
		t.Fatalf("independent lock failed: %v", err)
	}
	other()

	unlock()
	unlock() // second call is a no-op

	again, err := locker.TryLock(ctx, "refresh")
	if err != nil {
		t.Fatalf("TryLock after unlock failed: %v", err)
	}
	again()
}

func TestLocker_ThroughRunLocker(t *testing.T) {
	var locker storage.RunLocker = NewLocker()
	ctx := context.Background()

	unlock, err := locker.TryLock(ctx, "poll")
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if _, err := locker.TryLock(ctx, "poll"); !errors.Is(err, storage.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	unlock()

	if _, err := locker.TryLock(ctx, ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty name, got %v", err)
	}
}
