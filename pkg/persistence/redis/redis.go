// Package redis provides Redis persistence for flows and schemas.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowgate/pkg/models"
	"github.com/dukex/flowgate/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "flowgate"
	flowsKey      = "flows"
	schemaKey     = "schema"
)

// Persistence implements persistence.Persistence on Redis. Flows live in one
// hash keyed by id, schemas in one string key per reference.
type Persistence struct {
	client goredis.UniversalClient
	logger *slog.Logger
	prefix string
}

// NewPersistence parses a redis:// URL, connects and pings the server.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return NewWithClient(client, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, logger *slog.Logger) *Persistence {
	return &Persistence{
		client: client,
		logger: logger.With("component", "redis_persistence"),
		prefix: defaultPrefix,
	}
}

func (p *Persistence) key(parts ...string) string {
	key := p.prefix
	for _, part := range parts {
		key += ":" + part
	}

	return key
}

func (p *Persistence) FlowRepository() persistence.FlowRepository {
	return &flowRepository{p}
}

func (p *Persistence) SchemaRepository() persistence.SchemaRepository {
	return &schemaRepository{p}
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

type flowRepository struct {
	*Persistence
}

func (r *flowRepository) Save(ctx context.Context, flow *models.Flow) error {
	now := time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	body, err := json.Marshal(flow)
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	if err := r.client.HSet(ctx, r.key(flowsKey), flow.ID, body).Err(); err != nil {
		r.logger.ErrorContext(ctx, "Failed to save flow", "flow_id", flow.ID, "error", err)

		return persistence.NewFlowError("Save", flow.ID, err)
	}

	return nil
}

func (r *flowRepository) GetByID(ctx context.Context, id string) (*models.Flow, error) {
	body, err := r.client.HGet(ctx, r.key(flowsKey), id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.NewFlowError("GetByID", id, persistence.ErrFlowNotFound)
	}

	if err != nil {
		return nil, persistence.NewFlowError("GetByID", id, err)
	}

	return decodeFlow(id, body)
}

func (r *flowRepository) List(ctx context.Context, opts persistence.ListFlowsOptions) (*persistence.FlowListResult, error) {
	entries, err := r.client.HGetAll(ctx, r.key(flowsKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	flows := make([]*models.Flow, 0, len(entries))

	for id, body := range entries {
		flow, err := decodeFlow(id, []byte(body))
		if err != nil {
			return nil, err
		}

		flows = append(flows, flow)
	}

	return persistence.Page(flows, opts)
}

func (r *flowRepository) Delete(ctx context.Context, id string) error {
	removed, err := r.client.HDel(ctx, r.key(flowsKey), id).Result()
	if err != nil {
		return persistence.NewFlowError("Delete", id, err)
	}

	if removed == 0 {
		return persistence.NewFlowError("Delete", id, persistence.ErrFlowNotFound)
	}

	return nil
}

func decodeFlow(id string, body []byte) (*models.Flow, error) {
	var flow models.Flow
	if err := json.Unmarshal(body, &flow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow %s: %w", id, err)
	}

	return &flow, nil
}

type schemaRepository struct {
	*Persistence
}

func (r *schemaRepository) Save(ctx context.Context, ref, text string) error {
	if err := r.client.Set(ctx, r.key(schemaKey, ref), text, 0).Err(); err != nil {
		return persistence.NewSchemaError("Save", ref, err)
	}

	return nil
}

func (r *schemaRepository) GetByRef(ctx context.Context, ref string) (string, error) {
	text, err := r.client.Get(ctx, r.key(schemaKey, ref)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", persistence.NewSchemaError("GetByRef", ref, persistence.ErrSchemaNotFound)
	}

	if err != nil {
		return "", persistence.NewSchemaError("GetByRef", ref, err)
	}

	return text, nil
}

func (r *schemaRepository) Delete(ctx context.Context, ref string) error {
	if err := r.client.Del(ctx, r.key(schemaKey, ref)).Err(); err != nil {
		return persistence.NewSchemaError("Delete", ref, err)
	}

	return nil
}
