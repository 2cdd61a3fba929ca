package sqlbase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowgate/pkg/models"
	"github.com/dukex/flowgate/pkg/persistence"
)

// FlowRepository stores flows with their graph serialized as JSON columns.
type FlowRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

func NewFlowRepository(db *sql.DB, dialect Dialect, logger *slog.Logger) *FlowRepository {
	return &FlowRepository{db: db, dialect: dialect, logger: logger}
}

const selectFlow = `SELECT id, name, description, status, environment, nodes, edges, created_at, updated_at, activated_at FROM flows`

func (r *FlowRepository) Save(ctx context.Context, flow *models.Flow) error {
	nodes, err := json.Marshal(flow.Nodes)
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, fmt.Errorf("failed to serialize nodes: %w", err))
	}

	edges, err := json.Marshal(flow.Edges)
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, fmt.Errorf("failed to serialize edges: %w", err))
	}

	now := time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	query := `
		INSERT INTO flows (id, name, description, status, environment, nodes, edges, created_at, updated_at, activated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			environment = EXCLUDED.environment,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			updated_at = EXCLUDED.updated_at,
			activated_at = EXCLUDED.activated_at
	`

	_, err = r.db.ExecContext(ctx, r.dialect.Rebind(query),
		flow.ID,
		flow.Name,
		flow.Description,
		string(flow.Status),
		string(flow.Environment),
		string(nodes),
		string(edges),
		r.dialect.Time(flow.CreatedAt),
		r.dialect.Time(flow.UpdatedAt),
		r.dialect.NullTime(flow.ActivatedAt),
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to save flow", "flow_id", flow.ID, "error", err)

		return persistence.NewFlowError("Save", flow.ID, err)
	}

	return nil
}

func (r *FlowRepository) GetByID(ctx context.Context, id string) (*models.Flow, error) {
	flow, err := scanFlow(r.db.QueryRowContext(ctx, r.dialect.Rebind(selectFlow+" WHERE id = $1"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewFlowError("GetByID", id, persistence.ErrFlowNotFound)
	}

	if err != nil {
		return nil, persistence.NewFlowError("GetByID", id, err)
	}

	return flow, nil
}

func (r *FlowRepository) List(ctx context.Context, opts persistence.ListFlowsOptions) (*persistence.FlowListResult, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}

	// Sort field and order are checked against an allowlist by Normalize.
	order := "DESC"
	if opts.SortOrder == "asc" {
		order = "ASC"
	}

	where := ""
	args := []any{}

	if opts.Status != nil {
		where = " WHERE status = $1"
		args = append(args, string(*opts.Status))
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, r.dialect.Rebind("SELECT COUNT(*) FROM flows"+where), args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count flows: %w", err)
	}

	query := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		selectFlow, where, opts.SortBy, order, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	defer rows.Close()

	flows := make([]*models.Flow, 0, opts.Limit)

	for rows.Next() {
		flow, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}

		flows = append(flows, flow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flows: %w", err)
	}

	return &persistence.FlowListResult{
		Flows:       flows,
		TotalCount:  total,
		HasNextPage: int64(opts.Offset+len(flows)) < total,
	}, nil
}

func (r *FlowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.dialect.Rebind("DELETE FROM flows WHERE id = $1"), id)
	if err != nil {
		return persistence.NewFlowError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewFlowError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewFlowError("Delete", id, persistence.ErrFlowNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFlow(row scanner) (*models.Flow, error) {
	var (
		flow        models.Flow
		status      string
		environment string
		nodes       []byte
		edges       []byte
		createdAt   Timestamp
		updatedAt   Timestamp
		activatedAt Timestamp
	)

	err := row.Scan(
		&flow.ID,
		&flow.Name,
		&flow.Description,
		&status,
		&environment,
		&nodes,
		&edges,
		&createdAt,
		&updatedAt,
		&activatedAt,
	)
	if err != nil {
		return nil, err
	}

	flow.Status = models.FlowStatus(status)
	flow.Environment = models.Environment(environment)
	flow.CreatedAt = createdAt.Time
	flow.UpdatedAt = updatedAt.Time

	if activatedAt.Valid {
		flow.ActivatedAt = &activatedAt.Time
	}

	if err := json.Unmarshal(nodes, &flow.Nodes); err != nil {
		return nil, fmt.Errorf("failed to deserialize nodes: %w", err)
	}

	if err := json.Unmarshal(edges, &flow.Edges); err != nil {
		return nil, fmt.Errorf("failed to deserialize edges: %w", err)
	}

	return &flow, nil
}
