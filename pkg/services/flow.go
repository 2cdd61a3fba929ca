package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"dario.cat/mergo"
	"github.com/dukex/flowgate/pkg/eventbus"
	"github.com/dukex/flowgate/pkg/events"
	"github.com/dukex/flowgate/pkg/models"
	"github.com/dukex/flowgate/pkg/otelhelper"
	"github.com/dukex/flowgate/pkg/persistence"
	"github.com/dukex/flowgate/pkg/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrFlowNotFound is returned when a flow is not found.
var ErrFlowNotFound = persistence.ErrFlowNotFound

const (
	schemaNotFound = "Schema '%s' not found"
	previewRuns    = 5
)

// Flow handles flow lifecycle and graph editing.
type Flow struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
	clock       clockwork.Clock
	validate    *validator.Validate
	locks       flowLocks
}

type FlowOption func(*Flow)

// WithPublisher publishes lifecycle events on activation changes and validation runs.
func WithPublisher(publisher eventbus.EventPublisher) FlowOption {
	return func(f *Flow) { f.publisher = publisher }
}

func WithTracer(tracer trace.Tracer) FlowOption {
	return func(f *Flow) { f.tracer = tracer }
}

func WithLogger(logger *slog.Logger) FlowOption {
	return func(f *Flow) { f.logger = logger }
}

func WithClock(clock clockwork.Clock) FlowOption {
	return func(f *Flow) { f.clock = clock }
}

// NewFlow creates a new flow service.
func NewFlow(persistence persistence.Persistence, opts ...FlowOption) *Flow {
	f := &Flow{
		persistence: persistence,
		tracer:      otelhelper.NoopTracer(),
		logger:      slog.Default(),
		clock:       clockwork.NewRealClock(),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}

	for _, opt := range opts {
		opt(f)
	}

	f.logger = f.logger.With("module", "flow_service")

	return f
}

// HealthCheck checks the health of the persistence layer.
func (f *Flow) HealthCheck(ctx context.Context) (string, bool) {
	if f.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := f.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// CreateFlowRequest contains the fields of a new flow.
type CreateFlowRequest struct {
	Name        string
	Description string
	Environment models.Environment
}

// Create stores a new draft flow holding a single manual start node.
func (f *Flow) Create(ctx context.Context, req CreateFlowRequest) (*models.Flow, error) {
	if req.Environment == "" {
		req.Environment = models.EnvironmentDev
	}

	flow := &models.Flow{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Status:      models.FlowStatusDraft,
		Environment: req.Environment,
		Nodes: []*models.Node{{
			ID:   uuid.New().String(),
			Type: models.NodeTypeStart,
			Data: models.NewStartNodeProps(),
		}},
		Edges: []*models.Edge{},
	}

	if err := f.validate.Struct(flow); err != nil {
		return nil, NewValidationError("Create", "INVALID_FLOW", err.Error(), ErrInvalidRequest)
	}

	if err := f.persistence.FlowRepository().Save(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to save flow: %w", err)
	}

	f.logger.InfoContext(ctx, "Flow created", "flow_id", flow.ID, "environment", flow.Environment)

	return flow, nil
}

// FetchByID retrieves a flow by its ID.
func (f *Flow) FetchByID(ctx context.Context, id string) (*models.Flow, error) {
	flow, err := f.persistence.FlowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if flow == nil {
		return nil, ErrFlowNotFound
	}

	return flow, nil
}

// ListFlowsRequest contains options for listing flows.
type ListFlowsRequest struct {
	Limit     int
	Offset    int
	Status    *models.FlowStatus
	SortBy    string
	SortOrder string
}

// FlowPage is one page of flows with the paging options that produced it.
type FlowPage struct {
	*persistence.FlowListResult

	Options persistence.ListFlowsOptions
}

// List retrieves flows with filtering, sorting and pagination.
func (f *Flow) List(ctx context.Context, req ListFlowsRequest) (*FlowPage, error) {
	if req.Status != nil {
		switch *req.Status {
		case models.FlowStatusDraft, models.FlowStatusActive, models.FlowStatusInactive:
		default:
			return nil, NewValidationError("List", "INVALID_STATUS",
				fmt.Sprintf("invalid status '%s'", *req.Status), ErrInvalidStatus)
		}
	}

	if req.SortOrder != "" && req.SortOrder != "asc" && req.SortOrder != "desc" {
		return nil, NewValidationError("List", "INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder), ErrInvalidRequest)
	}

	opts := persistence.ListFlowsOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		Status:    req.Status,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}

	if err := opts.Normalize(); err != nil {
		return nil, NewValidationError("List", "INVALID_SORT_FIELD", err.Error(), ErrInvalidSortField)
	}

	result, err := f.persistence.FlowRepository().List(ctx, opts)
	if err != nil {
		if persistence.IsInvalidSortField(err) {
			return nil, NewValidationError("List", "INVALID_SORT_FIELD", err.Error(), ErrInvalidSortField)
		}

		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	return &FlowPage{FlowListResult: result, Options: opts}, nil
}

// Delete removes a flow.
func (f *Flow) Delete(ctx context.Context, id string) error {
	return f.persistence.FlowRepository().Delete(ctx, id)
}

// UpdateGraph replaces the flow's nodes and edges. Missing ids are generated.
func (f *Flow) UpdateGraph(ctx context.Context, id string, nodes []*models.Node, edges []*models.Edge) (*models.Flow, error) {
	unlock := f.locks.lock(id)
	defer unlock()

	flow, err := f.editable(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := checkGraph(nodes, edges); err != nil {
		return nil, err
	}

	flow.Nodes = nodes
	flow.Edges = edges

	if err := f.save(ctx, flow); err != nil {
		return nil, err
	}

	return flow, nil
}

func checkGraph(nodes []*models.Node, edges []*models.Edge) error {
	starts := 0
	ids := make(map[string]bool, len(nodes))

	for _, node := range nodes {
		if node == nil {
			return NewValidationError("UpdateGraph", "INVALID_NODE", "node cannot be null", ErrInvalidRequest)
		}

		if node.ID == "" {
			node.ID = uuid.New().String()
		}

		if ids[node.ID] {
			return NewValidationError("UpdateGraph", "DUPLICATE_NODE_ID",
				fmt.Sprintf("node id '%s' is used more than once", node.ID), ErrDuplicateID)
		}

		ids[node.ID] = true

		if node.Data == nil {
			node.Data = models.NewNodeData(node.Type)
		}

		if node.Type == models.NodeTypeStart {
			starts++
		}
	}

	if starts != 1 {
		return NewValidationError("UpdateGraph", "START_NODE_REQUIRED",
			fmt.Sprintf("flow has %d start nodes", starts), ErrStartNodeRequired)
	}

	for _, edge := range edges {
		if edge == nil {
			return NewValidationError("UpdateGraph", "INVALID_EDGE", "edge cannot be null", ErrInvalidRequest)
		}

		if edge.ID == "" {
			edge.ID = uuid.New().String()
		}

		if !ids[edge.Source] || !ids[edge.Target] {
			return NewValidationError("UpdateGraph", "EDGE_ENDPOINT",
				fmt.Sprintf("edge %s connects %s to %s", edge.ID, edge.Source, edge.Target), ErrEdgeEndpoint)
		}
	}

	return nil
}

// AddNodeRequest describes a node added to an existing flow.
type AddNodeRequest struct {
	Type     models.NodeType
	Position models.Position
	Data     json.RawMessage
}

// AddNode appends a node. Only one start node is allowed.
func (f *Flow) AddNode(ctx context.Context, flowID string, req AddNodeRequest) (*models.Node, error) {
	unlock := f.locks.lock(flowID)
	defer unlock()

	flow, err := f.editable(ctx, flowID)
	if err != nil {
		return nil, err
	}

	if req.Type == models.NodeTypeStart && flow.StartNode() != nil {
		return nil, ErrDuplicateStartNode
	}

	data, err := models.DecodeNodeData(req.Type, req.Data)
	if err != nil {
		return nil, NewValidationError("AddNode", "INVALID_NODE_DATA", err.Error(), ErrInvalidRequest)
	}

	node := &models.Node{
		ID:       uuid.New().String(),
		Type:     req.Type,
		Position: req.Position,
		Data:     data,
	}

	flow.Nodes = append(flow.Nodes, node)

	if err := f.save(ctx, flow); err != nil {
		return nil, err
	}

	return node, nil
}

// RemoveNode deletes a node and every edge touching it. The start node is kept.
func (f *Flow) RemoveNode(ctx context.Context, flowID, nodeID string) (*models.Flow, error) {
	unlock := f.locks.lock(flowID)
	defer unlock()

	flow, err := f.editable(ctx, flowID)
	if err != nil {
		return nil, err
	}

	node := flow.NodeByID(nodeID)
	if node == nil {
		return nil, ErrNodeNotFound
	}

	if node.Type == models.NodeTypeStart {
		return nil, ErrStartNodeNotDeletable
	}

	nodes := make([]*models.Node, 0, len(flow.Nodes)-1)

	for _, candidate := range flow.Nodes {
		if candidate != node {
			nodes = append(nodes, candidate)
		}
	}

	edges := make([]*models.Edge, 0, len(flow.Edges))

	for _, edge := range flow.Edges {
		if edge.Source != nodeID && edge.Target != nodeID {
			edges = append(edges, edge)
		}
	}

	flow.Nodes = nodes
	flow.Edges = edges

	if err := f.save(ctx, flow); err != nil {
		return nil, err
	}

	return flow, nil
}

// ConnectRequest describes a new edge.
type ConnectRequest struct {
	Source       string
	Target       string
	SourceHandle string
}

// Connect adds an edge between two existing nodes.
func (f *Flow) Connect(ctx context.Context, flowID string, req ConnectRequest) (*models.Edge, error) {
	unlock := f.locks.lock(flowID)
	defer unlock()

	flow, err := f.editable(ctx, flowID)
	if err != nil {
		return nil, err
	}

	if flow.NodeByID(req.Source) == nil || flow.NodeByID(req.Target) == nil {
		return nil, NewValidationError("Connect", "EDGE_ENDPOINT",
			fmt.Sprintf("cannot connect %s to %s", req.Source, req.Target), ErrEdgeEndpoint)
	}

	edge := &models.Edge{
		ID:           uuid.New().String(),
		Source:       req.Source,
		Target:       req.Target,
		SourceHandle: req.SourceHandle,
	}

	flow.Edges = append(flow.Edges, edge)

	if err := f.save(ctx, flow); err != nil {
		return nil, err
	}

	return edge, nil
}

// PatchStart applies a JSON merge of patch onto the start node configuration
// and returns the findings of the configuration panel check. Members absent
// from patch keep their value; explicit false, "" and null clear it. An
// emptied trigger falls back to the default.
func (f *Flow) PatchStart(ctx context.Context, flowID string, patch json.RawMessage) (*models.Flow, []models.ValidationError, error) {
	unlock := f.locks.lock(flowID)
	defer unlock()

	flow, err := f.editable(ctx, flowID)
	if err != nil {
		return nil, nil, err
	}

	start := flow.StartNode()
	if start == nil {
		return nil, nil, ErrStartNodeRequired
	}

	current := start.StartProps()
	if current == nil {
		return nil, nil, ErrNotStartConfig
	}

	props, err := applyStartPatch(current, patch)
	if err != nil {
		return nil, nil, NewValidationError("PatchStart", "INVALID_PATCH", err.Error(), ErrInvalidRequest)
	}

	if err := f.validate.Struct(props); err != nil {
		return nil, nil, NewValidationError("PatchStart", "INVALID_TRIGGER", err.Error(), ErrInvalidRequest)
	}

	start.Data = props

	if err := f.save(ctx, flow); err != nil {
		return nil, nil, err
	}

	return flow, validation.ValidateStartConfig(props, flow.Environment), nil
}

// applyStartPatch decodes patch onto a deep copy of current, so nested
// objects merge member by member and current is left untouched.
func applyStartPatch(current *models.StartNodeProps, patch json.RawMessage) (*models.StartNodeProps, error) {
	encoded, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to copy start configuration: %w", err)
	}

	props := &models.StartNodeProps{}
	if err := json.Unmarshal(encoded, props); err != nil {
		return nil, fmt.Errorf("failed to copy start configuration: %w", err)
	}

	if len(bytes.TrimSpace(patch)) > 0 {
		if err := json.Unmarshal(patch, props); err != nil {
			return nil, fmt.Errorf("invalid start configuration patch: %w", err)
		}
	}

	if err := mergo.Merge(props, models.NewStartNodeProps()); err != nil {
		return nil, fmt.Errorf("failed to apply start defaults: %w", err)
	}

	return props, nil
}

// ValidationResult is the outcome of validating a stored flow.
type ValidationResult struct {
	FlowID   string                   `json:"flow_id"`
	Valid    bool                     `json:"valid"`
	Issues   []models.ValidationError `json:"issues"`
	NextRuns []time.Time              `json:"next_runs,omitempty"`
}

// Validate runs the full flow check against the stored input schema.
func (f *Flow) Validate(ctx context.Context, flowID string) (*ValidationResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "flow.validate", attribute.String(otelhelper.FlowIDKey, flowID))
	defer span.End()

	flow, err := f.FetchByID(ctx, flowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	issues, err := f.check(ctx, flow)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	result := &ValidationResult{
		FlowID: flow.ID,
		Valid:  !models.HasErrors(issues),
		Issues: issues,
	}

	if props := flow.StartNode().StartProps(); props != nil && props.Trigger == models.TriggerSchedule {
		if runs, err := props.Schedule.NextRuns(f.clock.Now(), previewRuns); err == nil {
			result.NextRuns = runs
		}
	}

	otelhelper.SetIssues(span, len(issues), len(models.Errors(issues)))

	f.publish(ctx, flow.ID, events.FlowValidated{
		BaseEvent:   events.NewBaseEvent(events.FlowValidatedEvent, flow.ID),
		Environment: flow.Environment,
		Valid:       result.Valid,
		Issues:      issues,
	})

	return result, nil
}

// ValidateDefinition checks an unsaved flow. inputSchema overrides the stored
// schema named by the start node.
func (f *Flow) ValidateDefinition(ctx context.Context, flow *models.Flow, inputSchema string) ([]models.ValidationError, error) {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "flow.validate_definition",
		attribute.String(otelhelper.FlowEnvironmentKey, string(flow.Environment)))
	defer span.End()

	if inputSchema != "" {
		return validation.ValidateFlow(validation.NewContext(flow, inputSchema)), nil
	}

	issues, err := f.check(ctx, flow)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return issues, err
}

// Activate validates the flow and marks it active. Blocking findings abort
// with a FlowInvalidError; warnings are returned alongside the flow.
func (f *Flow) Activate(ctx context.Context, flowID string) (*models.Flow, []models.ValidationError, error) {
	unlock := f.locks.lock(flowID)
	defer unlock()

	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "flow.activate", attribute.String(otelhelper.FlowIDKey, flowID))
	defer span.End()

	flow, err := f.FetchByID(ctx, flowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.FlowNameKey, flow.Name))

	issues, err := f.check(ctx, flow)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, nil, err
	}

	if models.HasErrors(issues) {
		err := &FlowInvalidError{FlowID: flow.ID, Issues: issues}
		otelhelper.SetIssues(span, len(issues), len(models.Errors(issues)))
		otelhelper.SetError(span, err)
		f.logger.InfoContext(ctx, "Flow activation blocked", "flow_id", flow.ID, "issues", len(issues))

		return nil, issues, err
	}

	now := f.clock.Now().UTC()
	flow.Status = models.FlowStatusActive
	flow.ActivatedAt = &now

	if err := f.persistence.FlowRepository().Save(ctx, flow); err != nil {
		otelhelper.SetError(span, err)

		return nil, nil, fmt.Errorf("failed to save flow: %w", err)
	}

	trigger := models.TriggerManual
	if props := flow.StartNode().StartProps(); props != nil && props.Trigger != "" {
		trigger = props.Trigger
	}

	span.SetAttributes(attribute.String(otelhelper.TriggerTypeKey, string(trigger)))
	f.logger.InfoContext(ctx, "Flow activated", "flow_id", flow.ID, "trigger", trigger)

	f.publish(ctx, flow.ID, events.FlowActivated{
		BaseEvent:   events.NewBaseEvent(events.FlowActivatedEvent, flow.ID),
		Name:        flow.Name,
		Environment: flow.Environment,
		Trigger:     trigger,
		Warnings:    len(issues),
	})

	return flow, issues, nil
}

// Deactivate takes an active flow offline. Inactive flows are left as they are.
func (f *Flow) Deactivate(ctx context.Context, flowID, reason string) (*models.Flow, error) {
	unlock := f.locks.lock(flowID)
	defer unlock()

	flow, err := f.FetchByID(ctx, flowID)
	if err != nil {
		return nil, err
	}

	if flow.Status != models.FlowStatusActive {
		return flow, nil
	}

	flow.Status = models.FlowStatusInactive

	if err := f.persistence.FlowRepository().Save(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to save flow: %w", err)
	}

	f.logger.InfoContext(ctx, "Flow deactivated", "flow_id", flow.ID, "reason", reason)

	f.publish(ctx, flow.ID, events.FlowDeactivated{
		BaseEvent: events.NewBaseEvent(events.FlowDeactivatedEvent, flow.ID),
		Reason:    reason,
	})

	return flow, nil
}

// check resolves the input schema and runs the full flow validation. An
// unresolvable schema reference is reported as a finding.
func (f *Flow) check(ctx context.Context, flow *models.Flow) ([]models.ValidationError, error) {
	props := flow.StartNode().StartProps()
	if props == nil || props.InputSchemaRef == "" {
		return validation.ValidateFlow(validation.NewContext(flow, "")), nil
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.String(otelhelper.SchemaRefKey, props.InputSchemaRef))

	text, err := f.persistence.SchemaRepository().GetByRef(ctx, props.InputSchemaRef)
	if err != nil && !persistence.IsSchemaNotFound(err) {
		return nil, fmt.Errorf("failed to load input schema: %w", err)
	}

	issues := validation.ValidateFlow(validation.NewContext(flow, text))

	if err != nil {
		issues = append(issues, models.ValidationError{
			Field:    "inputSchemaRef",
			Message:  fmt.Sprintf(schemaNotFound, props.InputSchemaRef),
			Severity: models.SeverityError,
		})
	}

	return issues, nil
}

// editable loads a flow that may be modified.
func (f *Flow) editable(ctx context.Context, id string) (*models.Flow, error) {
	flow, err := f.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if flow.Status == models.FlowStatusActive {
		return nil, ErrFlowActive
	}

	return flow, nil
}

func (f *Flow) save(ctx context.Context, flow *models.Flow) error {
	if err := f.persistence.FlowRepository().Save(ctx, flow); err != nil {
		return fmt.Errorf("failed to save flow: %w", err)
	}

	return nil
}

func (f *Flow) publish(ctx context.Context, key string, event eventbus.Event) {
	if f.publisher == nil {
		return
	}

	if err := f.publisher.Publish(ctx, key, event); err != nil {
		f.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "flow_id", key, "error", err)
	}
}
