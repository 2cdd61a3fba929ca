// Package models defines the core domain models for messaging flows.
package models

import "time"

// FlowStatus represents the lifecycle state of a flow.
type FlowStatus string

const (
	FlowStatusDraft    FlowStatus = "draft"    // Editable, not running
	FlowStatusActive   FlowStatus = "active"   // Validated and accepting triggers
	FlowStatusInactive FlowStatus = "inactive" // Previously active, paused
)

// Environment selects which rule set applies to a flow.
type Environment string

const (
	EnvironmentDev   Environment = "dev"
	EnvironmentStage Environment = "stage"
	EnvironmentProd  Environment = "prod"
)

// Flow is a directed graph of nodes and edges describing one messaging campaign.
type Flow struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"                   validate:"required,min=3"`
	Description string      `json:"description"`
	Status      FlowStatus  `json:"status"                 validate:"required,oneof=draft active inactive"`
	Environment Environment `json:"environment"            validate:"required,oneof=dev stage prod"`
	Nodes       []*Node     `json:"nodes"`
	Edges       []*Edge     `json:"edges"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	ActivatedAt *time.Time  `json:"activated_at,omitempty"`
}

// StartNode returns the first node of type start, or nil.
func (f *Flow) StartNode() *Node {
	for _, node := range f.Nodes {
		if node != nil && node.Type == NodeTypeStart {
			return node
		}
	}

	return nil
}

// NodeByID returns the node with the given id, or nil.
func (f *Flow) NodeByID(id string) *Node {
	for _, node := range f.Nodes {
		if node != nil && node.ID == id {
			return node
		}
	}

	return nil
}

// ParseEnvironment maps a string onto a known environment, defaulting to dev.
func ParseEnvironment(value string) Environment {
	switch Environment(value) {
	case EnvironmentStage:
		return EnvironmentStage
	case EnvironmentProd:
		return EnvironmentProd
	default:
		return EnvironmentDev
	}
}
