// Package backend opens the storage implementations selected by
// configuration and hands them out behind the storage interfaces.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"trendbuild/internal/storage"
	badgerstore "trendbuild/internal/storage/badger"
	"trendbuild/internal/storage/clickhouse"
	"trendbuild/internal/storage/file"
	"trendbuild/internal/storage/memory"
	"trendbuild/internal/storage/migrations"
	"trendbuild/internal/storage/postgres"
)

// Kind selects where snapshots, streaks, tracker state and locks live.
type Kind string

const (
	KindMemory   Kind = "memory"
	KindFile     Kind = "file"
	KindBadger   Kind = "badger"
	KindPostgres Kind = "postgres"
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the kind is a valid value.
func (k Kind) IsValid() bool {
	switch k {
	case KindMemory, KindFile, KindBadger, KindPostgres:
		return true
	}
	return false
}

// Config holds storage settings.
type Config struct {
	Backend        Kind          `koanf:"backend" validate:"required,oneof=memory file badger postgres"`
	DataDir        string        `koanf:"data_dir"`
	BadgerDir      string        `koanf:"badger_dir"`
	PostgresDSN    string        `koanf:"postgres_dsn"`
	ClickHouseDSN  string        `koanf:"clickhouse_dsn"`
	AutoMigrate    bool          `koanf:"auto_migrate"`
	LockStaleAfter time.Duration `koanf:"lock_stale_after"`
}

// DefaultConfig returns file-backed storage under ./data.
func DefaultConfig() Config {
	return Config{
		Backend:        KindFile,
		DataDir:        "data",
		AutoMigrate:    true,
		LockStaleAfter: file.DefaultStaleAfter,
	}
}

// Validate checks the settings each backend needs.
func (c Config) Validate() error {
	switch c.Backend {
	case KindFile:
		if c.DataDir == "" {
			return fmt.Errorf("storage.data_dir is required for the file backend")
		}
	case KindBadger:
		if c.DataDir == "" {
			return fmt.Errorf("storage.data_dir is required for the badger backend")
		}
	case KindPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
	case KindMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Backend)
	}
	return nil
}

// Stores bundles every store a binary may need.
type Stores struct {
	Snapshots       storage.SnapshotStore
	Streaks         storage.StreakStore
	State           storage.CandidateStateStore
	Recommendations storage.RecommendationStore
	Checks          storage.CheckStore
	Locker          storage.RunLocker

	closers []func() error
}

// Close releases every connection and database handle in reverse open order.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Open builds the stores for cfg. streakTTL bounds badger entry lifetime.
// History goes to ClickHouse when a DSN is set, otherwise it stays with the
// primary backend (memory) or in JSON files under DataDir.
func Open(ctx context.Context, cfg Config, streakTTL time.Duration, logger *zerolog.Logger) (*Stores, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}
	log = log.With().Str("component", "storage").Logger()

	s := &Stores{}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	switch cfg.Backend {
	case KindMemory:
		s.Snapshots = memory.NewSnapshotStore()
		s.Streaks = memory.NewStreakStore()
		s.State = memory.NewCandidateStateStore()
		s.Recommendations = memory.NewRecommendationStore()
		s.Checks = memory.NewCheckStore()
		s.Locker = memory.NewLocker()

	case KindFile, KindBadger:
		s.openFile(cfg, logger)
		if cfg.Backend == KindBadger {
			dir := cfg.BadgerDir
			if dir == "" {
				dir = cfg.DataDir + "/badger"
			}
			db, err := badgerstore.Open(dir)
			if err != nil {
				return nil, err
			}
			s.closers = append(s.closers, db.Close)
			s.Streaks = badgerstore.NewStreakStore(db, streakTTL, logger)
		}

	case KindPostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		s.closers = append(s.closers, func() error { pool.Close(); return nil })
		if cfg.AutoMigrate {
			if _, err := migrations.RunPostgres(ctx, pool, log); err != nil {
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		s.Snapshots = postgres.NewSnapshotStore(pool)
		s.Streaks = postgres.NewStreakStore(pool)
		s.State = postgres.NewCandidateStateStore(pool, logger)
		s.Locker = postgres.NewLocker(pool)
		if cfg.DataDir != "" {
			s.Recommendations = file.NewRecommendationStore(cfg.DataDir)
			s.Checks = file.NewCheckStore(cfg.DataDir)
		} else {
			s.Recommendations = memory.NewRecommendationStore()
			s.Checks = memory.NewCheckStore()
		}
	}

	if cfg.ClickHouseDSN != "" {
		conn, err := openClickHouse(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, conn.Close)
		s.Recommendations = clickhouse.NewRecommendationStore(conn)
		s.Checks = clickhouse.NewCheckStore(conn)
	}

	log.Info().
		Str("backend", cfg.Backend.String()).
		Bool("clickhouse", cfg.ClickHouseDSN != "").
		Msg("storage opened")
	ok = true
	return s, nil
}

func (s *Stores) openFile(cfg Config, logger *zerolog.Logger) {
	s.Snapshots = file.NewSnapshotStore(cfg.DataDir)
	s.Streaks = file.NewStreakStore(cfg.DataDir, logger)
	s.State = file.NewCandidateStateStore(cfg.DataDir, logger)
	s.Recommendations = file.NewRecommendationStore(cfg.DataDir)
	s.Checks = file.NewCheckStore(cfg.DataDir)
	s.Locker = file.NewLocker(cfg.DataDir, cfg.LockStaleAfter)
}

func openClickHouse(ctx context.Context, cfg Config, log zerolog.Logger) (*clickhouse.Conn, error) {
	if cfg.AutoMigrate {
		conn, err := migrations.RunClickHouse(ctx, cfg.ClickHouseDSN, log)
		if err != nil {
			return nil, fmt.Errorf("migrate clickhouse: %w", err)
		}
		return conn, nil
	}
	conn, err := clickhouse.NewConn(ctx, cfg.ClickHouseDSN)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	return conn, nil
}
