package sqlbase

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/flowgate/pkg/persistence"
)

// Store implements persistence.Persistence on an open database handle.
type Store struct {
	db         *sql.DB
	logger     *slog.Logger
	flowRepo   *FlowRepository
	schemaRepo *SchemaRepository
}

// NewStore pings db, brings its schema up to date and returns the store. The
// store owns db from then on.
func NewStore(ctx context.Context, logger *slog.Logger, db *sql.DB, dialect Dialect, migrations map[int]string) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger = logger.With("component", dialect.Name+"_persistence")

	if err := NewMigrationManager(logger, db, dialect, migrations).RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{
		db:         db,
		logger:     logger,
		flowRepo:   NewFlowRepository(db, dialect, logger),
		schemaRepo: NewSchemaRepository(db, dialect, logger),
	}, nil
}

func (s *Store) FlowRepository() persistence.FlowRepository {
	return s.flowRepo
}

func (s *Store) SchemaRepository() persistence.SchemaRepository {
	return s.schemaRepo
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}
