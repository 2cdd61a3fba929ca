// Package web provides the HTTP request and response types of the flowgate API.
package web

import (
	"encoding/json"
	"time"

	"github.com/dukex/flowgate/pkg/models"
	"github.com/dukex/flowgate/pkg/persistence"
)

// CreateFlowRequest represents the request body for creating a new flow.
type CreateFlowRequest struct {
	Name        string `json:"name"        validate:"required,min=3"`
	Description string `json:"description"`
	Environment string `json:"environment" validate:"omitempty,oneof=dev stage prod"`
}

// UpdateGraphRequest replaces every node and edge of a flow.
type UpdateGraphRequest struct {
	Nodes []*models.Node `json:"nodes" validate:"required"`
	Edges []*models.Edge `json:"edges"`
}

// AddNodeRequest represents the request body for adding a node. Data is
// decoded according to Type.
type AddNodeRequest struct {
	Type     string          `json:"type"     validate:"required"`
	Position models.Position `json:"position"`
	Data     json.RawMessage `json:"data"`
}

// ConnectRequest represents the request body for adding an edge.
type ConnectRequest struct {
	Source       string `json:"source"       validate:"required"`
	Target       string `json:"target"       validate:"required"`
	SourceHandle string `json:"sourceHandle"`
}

type DeactivateRequest struct {
	Reason string `json:"reason"`
}

// ValidateFlowRequest is an unsaved flow checked by POST /validate.
// InputSchema may be a JSON object or a string holding the schema text.
type ValidateFlowRequest struct {
	Nodes       []*models.Node  `json:"nodes"`
	Edges       []*models.Edge  `json:"edges"`
	Environment string          `json:"environment" validate:"omitempty,oneof=dev stage prod"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ValidateFlowResponse lists every finding; Valid is false when any is an error.
type ValidateFlowResponse struct {
	Valid  bool                     `json:"valid"`
	Issues []models.ValidationError `json:"issues"`
}

// SchemaRequest carries a schema either inline or by stored reference.
type SchemaRequest struct {
	Ref    string          `json:"ref"`
	Schema json.RawMessage `json:"schema" validate:"required_without=Ref"`
}

// IdempotencyKeyRequest derives a key from payload, or from a generated sample
// of the schema when payload is absent.
type IdempotencyKeyRequest struct {
	Ref     string          `json:"ref"`
	Schema  json.RawMessage `json:"schema"`
	Payload any             `json:"payload"`
	Fields  []string        `json:"fields"  validate:"required,min=1"`
}

// CheckPayloadRequest validates payload against a schema.
type CheckPayloadRequest struct {
	SchemaRequest

	Payload any `json:"payload" validate:"required"`
}

type SampleResponse struct {
	Sample any `json:"sample"`
}

type IdempotencyKeyResponse struct {
	Key string `json:"key"`
}

type CheckPayloadResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

// StartConfigResponse returns the patched flow with the configuration findings.
type StartConfigResponse struct {
	Flow   *models.Flow             `json:"flow"`
	Issues []models.ValidationError `json:"issues"`
}

// ActivationResponse returns the activated flow and its non-blocking warnings.
type ActivationResponse struct {
	Flow     *models.Flow             `json:"flow"`
	Warnings []models.ValidationError `json:"warnings"`
}

// ListFlowsResponse is one page of flows with the effective paging options.
type ListFlowsResponse struct {
	*persistence.FlowListResult

	Pagination Pagination `json:"pagination"`
	Sorting    Sorting    `json:"sorting"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type Sorting struct {
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Checkers  map[string]string `json:"checkers"`
	Timestamp time.Time         `json:"timestamp"`
}

// schemaText returns the schema source held by raw. A JSON string is
// unquoted; anything else is used verbatim.
func schemaText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	return string(raw)
}
