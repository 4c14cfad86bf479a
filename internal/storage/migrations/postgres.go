package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/rs/zerolog"

	"trendbuild/internal/storage/postgres"
)

// RunPostgres applies every embedded Postgres migration in lexical order
// and returns how many files ran. Migrations are idempotent.
func RunPostgres(ctx context.Context, pool *postgres.Pool, logger zerolog.Logger) (int, error) {
	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, file)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", file, err)
		}
		applied++
		logger.Info().Str("database", "postgres").Str("file", file).Msg("migration applied")
	}
	return applied, nil
}
