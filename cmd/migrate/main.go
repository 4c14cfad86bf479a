// Package main applies the embedded Postgres and ClickHouse migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"trendbuild/internal/config"
	"trendbuild/internal/logging"
	"trendbuild/internal/storage/migrations"
	"trendbuild/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	postgresDSN := flag.String("postgres-dsn", cfg.Storage.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.Storage.ClickHouseDSN, "ClickHouse connection string")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	logger := logging.New(cfg.Log).With().Str("binary", "migrate").Logger()
	if *postgresDSN == "" && *clickhouseDSN == "" {
		fmt.Fprintln(os.Stderr, "nothing to migrate: set -postgres-dsn and/or -clickhouse-dsn")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *postgresDSN != "" {
		pool, err := postgres.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect postgres")
		}
		n, err := migrations.RunPostgres(ctx, pool, logger)
		pool.Close()
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres migrations failed")
		}
		fmt.Printf("Postgres: %d migrations applied\n", n)
	}

	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickHouse(ctx, *clickhouseDSN, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("clickhouse migrations failed")
		}
		_ = conn.Close()
		fmt.Println("ClickHouse: migrations applied")
	}
}
