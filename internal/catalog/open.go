// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dmdm/stoma-go/internal/config"
)

// Open opens and verifies the catalog's database connection. Each
// `stoma` run owns exactly one catalog database, so unlike a
// connection-pool cache keyed by DSN (useful when a process juggles
// several tenants' databases at once), there is nothing to cache here:
// just the single *sql.DB the Walker, Analyser and Indexer stages share
// for the lifetime of the process.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	driverName := cfg.DriverName()

	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	configurePool(db, cfg, driverName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if driverName == "sqlite3" {
		applySQLitePragmas(ctx, db)
	}

	return db, nil
}

// configurePool sizes the connection pool. SQLite has no real
// concurrent-writer story, so Claim's row-level locking (forUpdateSuffix
// below) only holds if every statement funnels through one connection;
// Postgres and MySQL get the configured pool sizes instead.
func configurePool(db *sql.DB, cfg config.DatabaseConfig, driverName string) {
	if driverName == "sqlite3" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(time.Hour)
}

// applySQLitePragmas turns on WAL journaling and a busy timeout so a
// writer doesn't immediately fail with "database is locked" while the
// single shared connection is mid-transaction.
func applySQLitePragmas(ctx context.Context, db *sql.DB) {
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		slog.Warn("enable WAL mode failed", "error", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=10000"); err != nil {
		slog.Warn("set busy_timeout failed", "error", err)
	}
}
