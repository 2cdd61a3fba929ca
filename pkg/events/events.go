// Package events defines the flow lifecycle notifications published on the event bus.
package events

import (
	"time"

	"github.com/dukex/flowgate/pkg/models"
	"github.com/google/uuid"
)

type EventType string

const Topic = "flowgate.flows"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	FlowActivatedEvent   EventType = "flow.activated"
	FlowDeactivatedEvent EventType = "flow.deactivated"
	FlowValidatedEvent   EventType = "flow.validated"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	FlowID    string         `json:"flow_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, flowID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		FlowID:    flowID,
		Metadata:  make(map[string]any),
	}
}

// FlowActivated is published once a flow passes validation and goes live.
type FlowActivated struct {
	BaseEvent

	Name        string             `json:"name"`
	Environment models.Environment `json:"environment"`
	Trigger     models.TriggerType `json:"trigger"`
	Warnings    int                `json:"warnings"`
}

func (e FlowActivated) GetType() EventType {
	return FlowActivatedEvent
}

type FlowDeactivated struct {
	BaseEvent

	Reason string `json:"reason,omitempty"`
}

func (e FlowDeactivated) GetType() EventType {
	return FlowDeactivatedEvent
}

// FlowValidated carries the outcome of an explicit validation request.
type FlowValidated struct {
	BaseEvent

	Environment models.Environment       `json:"environment"`
	Valid       bool                     `json:"valid"`
	Issues      []models.ValidationError `json:"issues"`
}

func (e FlowValidated) GetType() EventType {
	return FlowValidatedEvent
}

// New returns an empty event value for eventType, ready to be decoded into.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case FlowActivatedEvent:
		return &FlowActivated{}, true
	case FlowDeactivatedEvent:
		return &FlowDeactivated{}, true
	case FlowValidatedEvent:
		return &FlowValidated{}, true
	default:
		return nil, false
	}
}
