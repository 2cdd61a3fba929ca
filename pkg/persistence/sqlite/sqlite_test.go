package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/flowgate/pkg/models"
	"github.com/dukex/flowgate/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*Persistence, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "flowgate.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p, err := NewPersistence(context.Background(), logger, "sqlite://"+path)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = p.Close(context.Background())
	})

	return p, path
}

func newFlow(id, name string) *models.Flow {
	return &models.Flow{
		ID:          id,
		Name:        name,
		Status:      models.FlowStatusDraft,
		Environment: models.EnvironmentStage,
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypeStart, Data: &models.StartNodeProps{
				Trigger:     models.TriggerBatch,
				Batch:       &models.BatchConfig{MaxItems: ptr(500), MaxConcurrency: ptr(5)},
				Correlation: &models.CorrelationConfig{Field: "order_id"},
			}},
			{ID: "dlr", Type: models.NodeTypeDLR, Data: &models.AsyncData{Wait: models.NodeTypeDLR}},
		},
		Edges: []*models.Edge{{ID: "e1", Source: "start", Target: "dlr"}},
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestSQLitePersistence_Flows(t *testing.T) {
	p, _ := setupTestDB(t)
	ctx := t.Context()

	require.NoError(t, p.HealthCheck(ctx))

	flows := p.FlowRepository()
	flow := newFlow("flow-1", "Order updates")

	require.NoError(t, flows.Save(ctx, flow))

	loaded, err := flows.GetByID(ctx, "flow-1")
	require.NoError(t, err)
	assert.Equal(t, "Order updates", loaded.Name)
	assert.Equal(t, models.EnvironmentStage, loaded.Environment)
	assert.Equal(t, 500, *loaded.StartNode().StartProps().Batch.MaxItems)
	assert.Equal(t, models.NodeTypeDLR, loaded.Nodes[1].Data.Kind())
	assert.WithinDuration(t, flow.CreatedAt, loaded.CreatedAt, time.Microsecond)
	assert.Nil(t, loaded.ActivatedAt)

	activatedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	flow.Status = models.FlowStatusActive
	flow.ActivatedAt = &activatedAt
	require.NoError(t, flows.Save(ctx, flow))

	loaded, err = flows.GetByID(ctx, "flow-1")
	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusActive, loaded.Status)
	require.NotNil(t, loaded.ActivatedAt)
	assert.True(t, activatedAt.Equal(*loaded.ActivatedAt))

	require.NoError(t, flows.Delete(ctx, "flow-1"))
	assert.True(t, persistence.IsFlowNotFound(flows.Delete(ctx, "flow-1")))

	_, err = flows.GetByID(ctx, "flow-1")
	assert.True(t, persistence.IsFlowNotFound(err))
}

func TestSQLitePersistence_List(t *testing.T) {
	p, _ := setupTestDB(t)
	ctx := t.Context()
	flows := p.FlowRepository()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"Gamma", "Alpha", "Beta"} {
		flow := newFlow(string(rune('a'+i)), name)
		flow.CreatedAt = created.Add(time.Duration(i) * time.Minute)
		if name == "Beta" {
			flow.Status = models.FlowStatusActive
		}

		require.NoError(t, flows.Save(ctx, flow))
	}

	result, err := flows.List(ctx, persistence.ListFlowsOptions{SortBy: "name", SortOrder: "asc", Limit: 2})
	require.NoError(t, err)
	require.Len(t, result.Flows, 2)
	assert.Equal(t, "Alpha", result.Flows[0].Name)
	assert.Equal(t, "Beta", result.Flows[1].Name)
	assert.EqualValues(t, 3, result.TotalCount)
	assert.True(t, result.HasNextPage)

	active := models.FlowStatusActive
	result, err = flows.List(ctx, persistence.ListFlowsOptions{Status: &active})
	require.NoError(t, err)
	require.Len(t, result.Flows, 1)
	assert.Equal(t, "Beta", result.Flows[0].Name)
	assert.False(t, result.HasNextPage)

	result, err = flows.List(ctx, persistence.ListFlowsOptions{SortBy: "created_at", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, result.Flows, 3)
	assert.Equal(t, "Gamma", result.Flows[0].Name)

	_, err = flows.List(ctx, persistence.ListFlowsOptions{SortBy: "status; DROP TABLE flows"})
	assert.True(t, persistence.IsInvalidSortField(err))
}

func TestSQLitePersistence_Schemas(t *testing.T) {
	p, _ := setupTestDB(t)
	ctx := t.Context()
	schemas := p.SchemaRepository()

	require.NoError(t, schemas.Save(ctx, "otp", `{"type":"object"}`))
	require.NoError(t, schemas.Save(ctx, "otp", `{"type":"object","required":[]}`))

	body, err := schemas.GetByRef(ctx, "otp")
	require.NoError(t, err)
	assert.Equal(t, `{"type":"object","required":[]}`, body)

	require.NoError(t, schemas.Delete(ctx, "otp"))

	_, err = schemas.GetByRef(ctx, "otp")
	assert.True(t, persistence.IsSchemaNotFound(err))
}

func TestSQLitePersistence_ReopenKeepsData(t *testing.T) {
	p, path := setupTestDB(t)
	ctx := t.Context()

	require.NoError(t, p.FlowRepository().Save(ctx, newFlow("kept", "Survives restart")))
	require.NoError(t, p.Close(ctx))

	reopened, err := NewPersistence(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), path)
	require.NoError(t, err)

	defer func() { _ = reopened.Close(ctx) }()

	flow, err := reopened.FlowRepository().GetByID(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, "Survives restart", flow.Name)
}

func TestNewPersistence_EmptyPath(t *testing.T) {
	_, err := NewPersistence(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)), "sqlite://")
	require.Error(t, err)
}
