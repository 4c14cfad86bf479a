package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
	"trendbuild/internal/storage/file"
	"trendbuild/internal/storage/memory"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"memory", Config{Backend: KindMemory}, false},
		{"file without dir", Config{Backend: KindFile}, true},
		{"badger without dir", Config{Backend: KindBadger}, true},
		{"postgres without dsn", Config{Backend: KindPostgres}, true},
		{"unknown", Config{Backend: "redis"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOpen_Memory(t *testing.T) {
	stores, err := Open(context.Background(), Config{Backend: KindMemory}, 0, nil)
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &memory.SnapshotStore{}, stores.Snapshots)
	assert.IsType(t, &memory.RecommendationStore{}, stores.Recommendations)
	assert.IsType(t, &memory.Locker{}, stores.Locker)
}

func TestOpen_File(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	stores, err := Open(ctx, Config{Backend: KindFile, DataDir: dir}, 0, nil)
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &file.StreakStore{}, stores.Streaks)

	entries := map[string]domain.StreakEntry{"https://v/1": {Streak: 1, LastSeen: "2026-03-14"}}
	require.NoError(t, stores.Streaks.Save(ctx, entries))

	_, err = os.Stat(filepath.Join(dir, file.StreakFile))
	assert.NoError(t, err)
}

func TestOpen_Badger(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	stores, err := Open(ctx, Config{Backend: KindBadger, DataDir: dir}, 7*24*time.Hour, nil)
	require.NoError(t, err)

	entries := map[string]domain.StreakEntry{"https://v/1": {Streak: 2, LastSeen: "2026-03-14"}}
	require.NoError(t, stores.Streaks.Save(ctx, entries))

	loaded, err := stores.Streaks.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, loaded)

	unlock, err := stores.Locker.TryLock(ctx, "velocity-streaks")
	require.NoError(t, err)
	_, err = stores.Locker.TryLock(ctx, "velocity-streaks")
	assert.ErrorIs(t, err, storage.ErrLocked)
	unlock()

	require.NoError(t, stores.Close())
	assert.NoError(t, stores.Close())
}
