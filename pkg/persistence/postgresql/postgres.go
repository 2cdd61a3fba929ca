// Package postgresql provides PostgreSQL persistence for flows and schemas.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/flowgate/pkg/persistence/sqlbase"

	_ "github.com/lib/pq"
)

// Persistence implements persistence.Persistence on PostgreSQL.
type Persistence struct {
	*sqlbase.Store
}

// NewPersistence connects to databaseURL and runs migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	store, err := sqlbase.NewStore(ctx, logger, database, sqlbase.Postgres, migrations())
	if err != nil {
		_ = database.Close()

		return nil, err
	}

	logger.InfoContext(ctx, "PostgreSQL persistence initialized successfully")

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
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				activated_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_flows_status ON flows(status);

			CREATE TABLE IF NOT EXISTS input_schemas (
				ref TEXT PRIMARY KEY,
				body TEXT NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
		`,
	}
}
