package sqlbase

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/dukex/flowgate/pkg/persistence"
)

// SchemaRepository stores input schemas by reference.
type SchemaRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

func NewSchemaRepository(db *sql.DB, dialect Dialect, logger *slog.Logger) *SchemaRepository {
	return &SchemaRepository{db: db, dialect: dialect, logger: logger}
}

func (r *SchemaRepository) Save(ctx context.Context, ref, text string) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		INSERT INTO input_schemas (ref, body, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (ref) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
	`), ref, text, r.dialect.Time(time.Now()))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to save schema", "ref", ref, "error", err)

		return persistence.NewSchemaError("Save", ref, err)
	}

	return nil
}

func (r *SchemaRepository) GetByRef(ctx context.Context, ref string) (string, error) {
	var body string

	err := r.db.QueryRowContext(ctx, r.dialect.Rebind("SELECT body FROM input_schemas WHERE ref = $1"), ref).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", persistence.NewSchemaError("GetByRef", ref, persistence.ErrSchemaNotFound)
	}

	if err != nil {
		return "", persistence.NewSchemaError("GetByRef", ref, err)
	}

	return body, nil
}

func (r *SchemaRepository) Delete(ctx context.Context, ref string) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind("DELETE FROM input_schemas WHERE ref = $1"), ref); err != nil {
		return persistence.NewSchemaError("Delete", ref, err)
	}

	return nil
}
