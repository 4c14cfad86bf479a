package postgres

import (
	"context"
	"io/fs"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"trendbuild/internal/domain"
)

// schemaDir holds the embedded migrations, relative to this package.
const schemaDir = "../migrations/postgres"

// setupTestDB starts a PostgreSQL container with the trendbuild schema
// applied. The container is terminated when the test finishes.
func setupTestDB(t *testing.T) *Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests skipped in -short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("trendbuild"),
		postgres.WithUsername("trendbuild"),
		postgres.WithPassword("trendbuild"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	applySchema(t, pool)
	return pool
}

// applySchema runs the migration files in name order. The migrations
// package cannot be imported here since it depends on this one.
func applySchema(t *testing.T, pool *Pool) {
	t.Helper()

	files, err := fs.Glob(os.DirFS(schemaDir), "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files, "no migrations under %s", schemaDir)
	sort.Strings(files)

	for _, name := range files {
		sql, err := os.ReadFile(schemaDir + "/" + name)
		require.NoError(t, err)
		_, err = pool.Exec(context.Background(), string(sql))
		require.NoError(t, err, "apply %s", name)
	}
}

// seedSnapshot writes rows for date straight into daily_snapshots,
// bypassing SnapshotStore, in the given order.
func seedSnapshot(t *testing.T, pool *Pool, date string, rows ...domain.SnapshotRow) {
	t.Helper()
	day, err := time.Parse(domain.DateLayout, date)
	require.NoError(t, err)
	for i, r := range rows {
		_, err = pool.Exec(context.Background(), `
			INSERT INTO daily_snapshots
				(snapshot_date, position, url, author, market, age_hours,
				 shares_per_hour, likes_per_hour, views_per_hour, momentum_score)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			day, int32(i), r.URL, r.Author, r.Market.String(), r.AgeHours,
			r.SharesPerHour, r.LikesPerHour, r.ViewsPerHour, r.Momentum,
		)
		require.NoError(t, err, "seed snapshot %s row %d", date, i)
	}
}

// seedStreak writes one streak row. An empty lastSeen stores NULL, the
// shape of entries migrated from the legacy cache.
func seedStreak(t *testing.T, pool *Pool, url string, streak int, lastSeen string) {
	t.Helper()
	var seen *time.Time
	if lastSeen != "" {
		day, err := time.Parse(domain.DateLayout, lastSeen)
		require.NoError(t, err)
		seen = &day
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO velocity_streaks (url, streak, last_seen) VALUES ($1, $2, $3)`,
		url, streak, seen,
	)
	require.NoError(t, err, "seed streak %s", url)
}
