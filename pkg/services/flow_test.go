package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dukex/flowgate/pkg/eventbus"
	"github.com/dukex/flowgate/pkg/events"
	"github.com/dukex/flowgate/pkg/mocks"
	"github.com/dukex/flowgate/pkg/models"
	"github.com/dukex/flowgate/pkg/persistence"
	"github.com/dukex/flowgate/pkg/persistence/file"
	"github.com/dukex/flowgate/pkg/validation"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const recipientsSchema = `{"type":"object","properties":{"recipients":{"type":"array","items":{"type":"string"}}}}`

func newFlowService(t *testing.T, opts ...FlowOption) (*Flow, persistence.Persistence) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())

	return NewFlow(p, opts...), p
}

func createFlow(t *testing.T, service *Flow, env models.Environment) *models.Flow {
	t.Helper()

	flow, err := service.Create(t.Context(), CreateFlowRequest{Name: "Welcome series", Environment: env})
	require.NoError(t, err)

	return flow
}

func eventOfType(eventType events.EventType) any {
	return mock.MatchedBy(func(event eventbus.Event) bool {
		return event.GetType() == eventType
	})
}

func TestFlow_Create(t *testing.T) {
	service, p := newFlowService(t)

	flow, err := service.Create(t.Context(), CreateFlowRequest{Name: "Welcome series", Description: "Onboarding"})
	require.NoError(t, err)

	assert.NotEmpty(t, flow.ID)
	assert.Equal(t, models.FlowStatusDraft, flow.Status)
	assert.Equal(t, models.EnvironmentDev, flow.Environment)
	assert.False(t, flow.CreatedAt.IsZero())
	require.Len(t, flow.Nodes, 1)

	start := flow.StartNode()
	require.NotNil(t, start)
	assert.NotEmpty(t, start.ID)
	assert.Equal(t, models.TriggerManual, start.StartProps().Trigger)

	stored, err := p.FlowRepository().GetByID(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.Equal(t, "Onboarding", stored.Description)
	assert.Equal(t, start.ID, stored.StartNode().ID)
}

func TestFlow_Create_InvalidRequest(t *testing.T) {
	service, _ := newFlowService(t)

	_, err := service.Create(t.Context(), CreateFlowRequest{Name: "ab"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = service.Create(t.Context(), CreateFlowRequest{Name: "Welcome", Environment: "qa"})
	assert.True(t, IsValidationError(err))
}

func TestFlow_FetchByID_NotFound(t *testing.T) {
	service, _ := newFlowService(t)

	flow, err := service.FetchByID(t.Context(), "missing")
	require.ErrorIs(t, err, ErrFlowNotFound)
	assert.Nil(t, flow)
}

func TestFlow_List(t *testing.T) {
	service, _ := newFlowService(t)

	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		_, err := service.Create(t.Context(), CreateFlowRequest{Name: name})
		require.NoError(t, err)
	}

	result, err := service.List(t.Context(), ListFlowsRequest{SortBy: "name", SortOrder: "asc", Limit: 2})
	require.NoError(t, err)
	require.Len(t, result.Flows, 2)
	assert.Equal(t, "Alpha", result.Flows[0].Name)
	assert.Equal(t, "Bravo", result.Flows[1].Name)
	assert.Equal(t, int64(3), result.TotalCount)
	assert.True(t, result.HasNextPage)
	assert.Equal(t, persistence.ListFlowsOptions{Limit: 2, SortBy: "name", SortOrder: "asc"}, result.Options)

	active := models.FlowStatusActive
	result, err = service.List(t.Context(), ListFlowsRequest{Status: &active, Limit: 500, Offset: -3})
	require.NoError(t, err)
	assert.Empty(t, result.Flows)
	assert.Equal(t, persistence.ListFlowsOptions{Limit: 20, Status: &active, SortBy: "created_at", SortOrder: "desc"}, result.Options)

	archived := models.FlowStatus("archived")
	_, err = service.List(t.Context(), ListFlowsRequest{Status: &archived})
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = service.List(t.Context(), ListFlowsRequest{SortBy: "owner"})
	require.ErrorIs(t, err, ErrInvalidSortField)

	_, err = service.List(t.Context(), ListFlowsRequest{SortOrder: "sideways"})
	assert.True(t, IsValidationError(err))
}

func TestFlow_Delete(t *testing.T) {
	service, _ := newFlowService(t)
	flow := createFlow(t, service, models.EnvironmentDev)

	require.NoError(t, service.Delete(t.Context(), flow.ID))

	_, err := service.FetchByID(t.Context(), flow.ID)
	require.ErrorIs(t, err, ErrFlowNotFound)
}

func TestFlow_NodeEditing(t *testing.T) {
	service, _ := newFlowService(t)
	flow := createFlow(t, service, models.EnvironmentDev)
	startID := flow.StartNode().ID

	sms, err := service.AddNode(t.Context(), flow.ID, AddNodeRequest{
		Type:     models.NodeTypeSMS,
		Position: models.Position{X: 100, Y: 40},
		Data:     json.RawMessage(`{"templateId":"otp-1"}`),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sms.ID)

	send, ok := sms.Data.(*models.SendData)
	require.True(t, ok)
	assert.Equal(t, "otp-1", send.TemplateID)

	timer, err := service.AddNode(t.Context(), flow.ID, AddNodeRequest{Type: models.NodeTypeTimer})
	require.NoError(t, err)

	_, err = service.Connect(t.Context(), flow.ID, ConnectRequest{Source: startID, Target: sms.ID})
	require.NoError(t, err)

	_, err = service.Connect(t.Context(), flow.ID, ConnectRequest{Source: sms.ID, Target: timer.ID})
	require.NoError(t, err)

	updated, err := service.RemoveNode(t.Context(), flow.ID, sms.ID)
	require.NoError(t, err)
	assert.Len(t, updated.Nodes, 2)
	assert.Empty(t, updated.Edges)

	stored, err := service.FetchByID(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.NodeByID(sms.ID))
	assert.NotNil(t, stored.NodeByID(timer.ID))
}

func TestFlow_NodeEditingErrors(t *testing.T) {
	service, _ := newFlowService(t)
	flow := createFlow(t, service, models.EnvironmentDev)
	startID := flow.StartNode().ID

	_, err := service.AddNode(t.Context(), flow.ID, AddNodeRequest{Type: models.NodeTypeStart})
	require.ErrorIs(t, err, ErrDuplicateStartNode)
	assert.True(t, IsConflictError(err))

	_, err = service.AddNode(t.Context(), flow.ID, AddNodeRequest{Type: models.NodeTypeEmail, Data: json.RawMessage(`[1]`)})
	assert.True(t, IsValidationError(err))

	_, err = service.RemoveNode(t.Context(), flow.ID, startID)
	require.ErrorIs(t, err, ErrStartNodeNotDeletable)

	_, err = service.RemoveNode(t.Context(), flow.ID, "ghost")
	require.ErrorIs(t, err, ErrNodeNotFound)
	assert.True(t, IsNotFoundError(err))

	_, err = service.Connect(t.Context(), flow.ID, ConnectRequest{Source: startID, Target: "ghost"})
	require.ErrorIs(t, err, ErrEdgeEndpoint)

	_, err = service.AddNode(t.Context(), "missing", AddNodeRequest{Type: models.NodeTypeSMS})
	require.ErrorIs(t, err, ErrFlowNotFound)
}

func TestFlow_UpdateGraph(t *testing.T) {
	service, _ := newFlowService(t)
	flow := createFlow(t, service, models.EnvironmentDev)

	nodes := []*models.Node{
		{ID: "start", Type: models.NodeTypeStart, Data: models.NewStartNodeProps()},
		{ID: "loop", Type: models.NodeTypeIterator},
		{Type: models.NodeTypeWhatsApp},
	}
	edges := []*models.Edge{{Source: "start", Target: "loop"}}

	updated, err := service.UpdateGraph(t.Context(), flow.ID, nodes, edges)
	require.NoError(t, err)
	require.Len(t, updated.Nodes, 3)
	assert.NotEmpty(t, updated.Nodes[2].ID)
	assert.NotNil(t, updated.Nodes[1].Data)
	assert.NotEmpty(t, updated.Edges[0].ID)

	tests := []struct {
		name     string
		nodes    []*models.Node
		edges    []*models.Edge
		expected error
	}{
		{
			name:     "no start node",
			nodes:    []*models.Node{{ID: "sms", Type: models.NodeTypeSMS}},
			expected: ErrStartNodeRequired,
		},
		{
			name: "two start nodes",
			nodes: []*models.Node{
				{ID: "a", Type: models.NodeTypeStart},
				{ID: "b", Type: models.NodeTypeStart},
			},
			expected: ErrStartNodeRequired,
		},
		{
			name: "duplicate node id",
			nodes: []*models.Node{
				{ID: "a", Type: models.NodeTypeStart},
				{ID: "a", Type: models.NodeTypeSMS},
			},
			expected: ErrDuplicateID,
		},
		{
			name:     "dangling edge",
			nodes:    []*models.Node{{ID: "a", Type: models.NodeTypeStart}},
			edges:    []*models.Edge{{Source: "a", Target: "ghost"}},
			expected: ErrEdgeEndpoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.UpdateGraph(t.Context(), flow.ID, tt.nodes, tt.edges)
			require.ErrorIs(t, err, tt.expected)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestFlow_PatchStart_Merges(t *testing.T) {
	service, _ := newFlowService(t)
	flow := createFlow(t, service, models.EnvironmentDev)

	_, issues, err := service.PatchStart(t.Context(), flow.ID, json.RawMessage(`{
		"trigger": "webhook",
		"inputSchemaRef": "orders",
		"correlation": {"field": "order_id"}
	}`))
	require.NoError(t, err)
	assert.Empty(t, issues)

	patched, issues, err := service.PatchStart(t.Context(), flow.ID, json.RawMessage(`{"rateLimit": {"rps": 10, "burst": 5}}`))
	require.NoError(t, err)

	props := patched.StartNode().StartProps()
	assert.Equal(t, models.TriggerWebhook, props.Trigger)
	assert.Equal(t, "orders", props.InputSchemaRef)
	assert.Equal(t, "order_id", props.Correlation.Field)
	assert.Equal(t, 10.0, *props.RateLimit.RPS)

	require.Len(t, issues, 1)
	assert.Equal(t, validation.MessageBurstBelowRPS, issues[0].Message)
	assert.Equal(t, models.SeverityWarning, issues[0].Severity)

	stored, err := service.FetchByID(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, *stored.StartNode().StartProps().RateLimit.Burst)
}

func TestFlow_PatchStart_ProdFindings(t *testing.T) {
	service, _ := newFlowService(t)
	flow := createFlow(t, service, models.EnvironmentProd)

	_, issues, err := service.PatchStart(t.Context(), flow.ID, json.RawMessage(`{
		"trigger": "webhook",
		"inputSchemaRef": "orders",
		"auth": {"kind": "api_key", "secretRef": "plain-key"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, []models.ValidationError{
		{Field: "rateLimit", Message: validation.MessageRateLimitRequired, Severity: models.SeverityError},
		{Field: "auth.secretRef", Message: validation.MessageInlineSecret, Severity: models.SeverityError},
	}, issues)
}

func TestFlow_PatchStart_ClearsValues(t *testing.T) {
	service, _ := newFlowService(t)
	flow := createFlow(t, service, models.EnvironmentDev)

	_, _, err := service.PatchStart(t.Context(), flow.ID, json.RawMessage(`{
		"trigger": "webhook",
		"inputSchemaRef": "orders",
		"auth": {"kind": "api_key", "secretRef": "vault://keys/orders"},
		"idempotency": {"enabled": true, "deriveFrom": ["order_id"]},
		"ports": {"throttled": true, "invalid_input": true}
	}`))
	require.NoError(t, err)

	patched, _, err := service.PatchStart(t.Context(), flow.ID, json.RawMessage(`{
		"inputSchemaRef": "",
		"auth": null,
		"idempotency": {"enabled": false},
		"ports": {"throttled": false}
	}`))
	require.NoError(t, err)

	props := patched.StartNode().StartProps()
	assert.Equal(t, models.TriggerWebhook, props.Trigger)
	assert.Empty(t, props.InputSchemaRef)
	assert.Nil(t, props.Auth)
	assert.False(t, props.Idempotency.Enabled)
	assert.Equal(t, []string{"order_id"}, props.Idempotency.DeriveFrom)
	assert.False(t, props.Ports.Throttled)
	assert.True(t, props.Ports.InvalidInput)

	stored, err := service.FetchByID(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.PortInvalidInput}, stored.StartNode().StartProps().Ports.Enabled())
}

func TestFlow_PatchStart_EmptyTriggerFallsBackToDefault(t *testing.T) {
	service, _ := newFlowService(t)
	flow := createFlow(t, service, models.EnvironmentDev)

	_, _, err := service.PatchStart(t.Context(), flow.ID, json.RawMessage(`{"trigger": "batch"}`))
	require.NoError(t, err)

	patched, _, err := service.PatchStart(t.Context(), flow.ID, json.RawMessage(`{"trigger": ""}`))
	require.NoError(t, err)
	assert.Equal(t, models.TriggerManual, patched.StartNode().StartProps().Trigger)
}

func TestFlow_PatchStart_RejectsMistypedPatch(t *testing.T) {
	service, _ := newFlowService(t)
	flow := createFlow(t, service, models.EnvironmentDev)

	_, _, err := service.PatchStart(t.Context(), flow.ID, json.RawMessage(`{"ports": "on"}`))
	require.ErrorIs(t, err, ErrInvalidRequest)

	patched, _, err := service.PatchStart(t.Context(), flow.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TriggerManual, patched.StartNode().StartProps().Trigger)
}

func TestFlow_PatchStart_RejectsUnknownTrigger(t *testing.T) {
	service, _ := newFlowService(t)
	flow := createFlow(t, service, models.EnvironmentDev)

	_, _, err := service.PatchStart(t.Context(), flow.ID, json.RawMessage(`{"trigger": "carrier_pigeon"}`))
	assert.True(t, IsValidationError(err))

	stored, err := service.FetchByID(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TriggerManual, stored.StartNode().StartProps().Trigger)
}

func TestFlow_Validate_ResolvesSchema(t *testing.T) {
	service, p := newFlowService(t)
	flow := createFlow(t, service, models.EnvironmentDev)

	require.NoError(t, p.SchemaRepository().Save(t.Context(), "audience", recipientsSchema))

	nodes := []*models.Node{
		{ID: "start", Type: models.NodeTypeStart, Data: &models.StartNodeProps{Trigger: models.TriggerManual, InputSchemaRef: "audience"}},
		{ID: "sms", Type: models.NodeTypeSMS},
	}
	_, err := service.UpdateGraph(t.Context(), flow.ID, nodes, []*models.Edge{{Source: "start", Target: "sms"}})
	require.NoError(t, err)

	result, err := service.Validate(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, validation.MessageIteratorRequired, result.Issues[0].Message)

	nodes = append(nodes, &models.Node{ID: "loop", Type: models.NodeTypeIterator})
	_, err = service.UpdateGraph(t.Context(), flow.ID, nodes, []*models.Edge{
		{Source: "start", Target: "loop"},
		{Source: "loop", Target: "sms"},
	})
	require.NoError(t, err)

	result, err = service.Validate(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Issues)
}

func TestFlow_Validate_MissingSchema(t *testing.T) {
	service, _ := newFlowService(t)
	flow := createFlow(t, service, models.EnvironmentDev)

	_, _, err := service.PatchStart(t.Context(), flow.ID, json.RawMessage(`{"inputSchemaRef": "ghost"}`))
	require.NoError(t, err)

	result, err := service.Validate(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, []models.ValidationError{
		{Field: "inputSchemaRef", Message: "Schema 'ghost' not found", Severity: models.SeverityError},
	}, result.Issues)
}

func TestFlow_Validate_SchedulePreview(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC))
	service, p := newFlowService(t, WithClock(clock))
	flow := createFlow(t, service, models.EnvironmentDev)

	require.NoError(t, p.SchemaRepository().Save(t.Context(), "daily", `{"type":"object"}`))

	_, _, err := service.PatchStart(t.Context(), flow.ID, json.RawMessage(`{
		"trigger": "schedule",
		"inputSchemaRef": "daily",
		"schedule": {"cron": "0 9 * * 1-5"}
	}`))
	require.NoError(t, err)

	result, err := service.Validate(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	require.Len(t, result.NextRuns, previewRuns)
	assert.True(t, result.NextRuns[0].Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
	assert.True(t, result.NextRuns[4].Equal(time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)))
}

func TestFlow_Validate_PublishesEvent(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.AnythingOfType("string"), eventOfType(events.FlowValidatedEvent)).Return(nil).Once()

	service, _ := newFlowService(t, WithPublisher(bus))
	flow := createFlow(t, service, models.EnvironmentDev)

	_, err := service.Validate(t.Context(), flow.ID)
	require.NoError(t, err)

	bus.AssertExpectations(t)
}

func TestFlow_ValidateDefinition(t *testing.T) {
	service, p := newFlowService(t)
	require.NoError(t, p.SchemaRepository().Save(t.Context(), "audience", recipientsSchema))

	flow := &models.Flow{
		Environment: models.EnvironmentDev,
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypeStart, Data: &models.StartNodeProps{Trigger: models.TriggerManual, InputSchemaRef: "audience"}},
			{ID: "sms", Type: models.NodeTypeSMS, Data: &models.SendData{Channel: models.NodeTypeSMS}},
		},
		Edges: []*models.Edge{{ID: "e1", Source: "start", Target: "sms"}},
	}

	stored, err := service.ValidateDefinition(t.Context(), flow, "")
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	inline, err := service.ValidateDefinition(t.Context(), flow, `{"type":"object"}`)
	require.NoError(t, err)
	assert.Empty(t, inline)
}

func TestFlow_Activate(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	bus := &mocks.MockEventBus{}

	service, _ := newFlowService(t, WithPublisher(bus), WithClock(clock))
	flow := createFlow(t, service, models.EnvironmentDev)

	bus.On("Publish", mock.Anything, flow.ID, mock.MatchedBy(func(event events.FlowActivated) bool {
		return event.FlowID == flow.ID && event.Trigger == models.TriggerManual && event.Name == "Welcome series"
	})).Return(nil).Once()

	activated, warnings, err := service.Activate(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, models.FlowStatusActive, activated.Status)
	require.NotNil(t, activated.ActivatedAt)
	assert.True(t, activated.ActivatedAt.Equal(clock.Now()))

	_, err = service.AddNode(t.Context(), flow.ID, AddNodeRequest{Type: models.NodeTypeSMS})
	require.ErrorIs(t, err, ErrFlowActive)

	bus.AssertExpectations(t)
}

func TestFlow_Activate_BlockedByErrors(t *testing.T) {
	bus := &mocks.MockEventBus{}

	service, _ := newFlowService(t, WithPublisher(bus))
	flow := createFlow(t, service, models.EnvironmentProd)

	_, _, err := service.PatchStart(t.Context(), flow.ID, json.RawMessage(`{"trigger": "webhook"}`))
	require.NoError(t, err)

	activated, issues, err := service.Activate(t.Context(), flow.ID)
	require.ErrorIs(t, err, ErrFlowInvalid)
	assert.True(t, IsConflictError(err))
	assert.Nil(t, activated)

	var invalid *FlowInvalidError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, issues, invalid.Issues)
	assert.Contains(t, err.Error(), "3 blocking validation errors")

	stored, err := service.FetchByID(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusDraft, stored.Status)

	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestFlow_Activate_KeepsWarnings(t *testing.T) {
	service, _ := newFlowService(t)
	flow := createFlow(t, service, models.EnvironmentDev)

	_, _, err := service.PatchStart(t.Context(), flow.ID, json.RawMessage(`{"idempotency": {"enabled": true}}`))
	require.NoError(t, err)

	activated, warnings, err := service.Activate(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusActive, activated.Status)
	assert.Equal(t, []string{validation.MessageIdempotencyFields}, messagesOf(warnings))
}

func TestFlow_Activate_PublishFailureIsLogged(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	service, _ := newFlowService(t, WithPublisher(bus))
	flow := createFlow(t, service, models.EnvironmentDev)

	activated, _, err := service.Activate(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusActive, activated.Status)
}

func TestFlow_Activate_SaveFailure(t *testing.T) {
	p := mocks.NewMockPersistence()
	flow := &models.Flow{
		ID:          "flow-1",
		Name:        "Welcome",
		Status:      models.FlowStatusDraft,
		Environment: models.EnvironmentDev,
		Nodes:       []*models.Node{{ID: "start", Type: models.NodeTypeStart, Data: models.NewStartNodeProps()}},
	}

	p.Flows.On("GetByID", mock.Anything, "flow-1").Return(flow, nil)
	p.Flows.On("Save", mock.Anything, flow).Return(errors.New("disk full"))

	service := NewFlow(p)

	_, _, err := service.Activate(t.Context(), "flow-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save flow")
	assert.False(t, IsValidationError(err))

	p.Flows.AssertExpectations(t)
}

func TestFlow_Deactivate(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, eventOfType(events.FlowActivatedEvent)).Return(nil).Once()
	bus.On("Publish", mock.Anything, mock.Anything, mock.MatchedBy(func(event events.FlowDeactivated) bool {
		return event.Reason == "campaign over"
	})).Return(nil).Once()

	service, _ := newFlowService(t, WithPublisher(bus))
	flow := createFlow(t, service, models.EnvironmentDev)

	draft, err := service.Deactivate(t.Context(), flow.ID, "noop")
	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusDraft, draft.Status)

	_, _, err = service.Activate(t.Context(), flow.ID)
	require.NoError(t, err)

	inactive, err := service.Deactivate(t.Context(), flow.ID, "campaign over")
	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusInactive, inactive.Status)

	_, err = service.AddNode(t.Context(), flow.ID, AddNodeRequest{Type: models.NodeTypeSMS})
	require.NoError(t, err)

	bus.AssertExpectations(t)
}

func TestFlow_HealthCheck(t *testing.T) {
	service, _ := newFlowService(t)

	message, ok := service.HealthCheck(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)

	p := mocks.NewMockPersistence()
	p.On("HealthCheck", mock.Anything).Return(errors.New("unreachable"))

	message, ok = NewFlow(p).HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Contains(t, message, "unreachable")
}

func messagesOf(issues []models.ValidationError) []string {
	out := make([]string, 0, len(issues))
	for _, found := range issues {
		out = append(out, found.Message)
	}

	return out
}
