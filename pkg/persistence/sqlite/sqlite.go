// Package sqlite provides embedded SQLite persistence for single-node
// deployments and local development.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/flowgate/pkg/persistence/sqlbase"

	_ "modernc.org/sqlite"
)

// Persistence implements persistence.Persistence on a SQLite database file.
type Persistence struct {
	*sqlbase.Store
}

// NewPersistence opens the database named by databaseURL (sqlite://path or a
// plain path) and runs migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	path := strings.TrimPrefix(databaseURL, "sqlite://")
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is empty")
	}

	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	database.SetMaxOpenConns(1)

	store, err := sqlbase.NewStore(ctx, logger, database, sqlbase.SQLite, migrations())
	if err != nil {
		_ = database.Close()

		return nil, err
	}

	logger.InfoContext(ctx, "SQLite persistence initialized successfully", "path", path)

	return &Persistence{Store: store}, nil
}

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS flows (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				environment TEXT NOT NULL,
				nodes TEXT NOT NULL DEFAULT '[]',
				edges TEXT NOT NULL DEFAULT '[]',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				activated_at TEXT
			);

			CREATE INDEX IF NOT EXISTS idx_flows_status ON flows(status);

			CREATE TABLE IF NOT EXISTS input_schemas (
				ref TEXT PRIMARY KEY,
				body TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);
		`,
	}
}
