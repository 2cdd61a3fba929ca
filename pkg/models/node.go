package models

import (
	"encoding/json"
	"fmt"
	"slices"
)

// NodeType is the tag selecting a node's behaviour and data variant.
type NodeType string

const (
	NodeTypeStart       NodeType = "start"
	NodeTypeSMS         NodeType = "sms"
	NodeTypeWhatsApp    NodeType = "whatsapp"
	NodeTypeEmail       NodeType = "email"
	NodeTypeVoice       NodeType = "voice"
	NodeTypeRCS         NodeType = "rcs"
	NodeTypeIterator    NodeType = "iterator"
	NodeTypeConditional NodeType = "conditional"
	NodeTypeTerminal    NodeType = "terminal"
	NodeTypeTimer       NodeType = "timer"
	NodeTypeWebhook     NodeType = "webhook"
	NodeTypeDLR         NodeType = "dlr"
)

// SendNodeTypes are the channel nodes that dispatch a message.
var SendNodeTypes = []NodeType{NodeTypeSMS, NodeTypeWhatsApp, NodeTypeEmail, NodeTypeVoice, NodeTypeRCS}

// AsyncNodeTypes are the nodes that wait on an external callback.
var AsyncNodeTypes = []NodeType{NodeTypeTimer, NodeTypeWebhook, NodeTypeDLR}

// IsSend reports whether the type is a channel send node.
func (t NodeType) IsSend() bool {
	return slices.Contains(SendNodeTypes, t)
}

// IsAsync reports whether the type waits on an external callback.
func (t NodeType) IsAsync() bool {
	return slices.Contains(AsyncNodeTypes, t)
}

// Position is the canvas location of a node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is the shared envelope of every flow node. Data holds the variant
// matching Type.
type Node struct {
	ID       string   `json:"id"       validate:"required"`
	Type     NodeType `json:"type"     validate:"required"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Edge connects the output of one node to the input of another.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// NodeData is implemented by every node data variant.
type NodeData interface {
	Kind() NodeType
	Iterates() bool
}

// Flags holds the markers shared by every data variant.
type Flags struct {
	IsIterator bool `json:"isIterator,omitempty"`
}

// Iterates reports whether the node fans out over an input array.
func (f Flags) Iterates() bool { return f.IsIterator }

// SendData configures a channel send node.
type SendData struct {
	Flags

	Channel    NodeType          `json:"-"`
	Label      string            `json:"label,omitempty"`
	TemplateID string            `json:"templateId,omitempty"`
	Sender     string            `json:"sender,omitempty"`
	Recipient  string            `json:"recipient,omitempty"`
	Variables  map[string]string `json:"variables,omitempty"`
}

func (d *SendData) Kind() NodeType { return d.Channel }

// IteratorData configures an iterator node.
type IteratorData struct {
	Flags

	Label          string `json:"label,omitempty"`
	ArrayField     string `json:"arrayField,omitempty"`
	MaxConcurrency int    `json:"maxConcurrency,omitempty"`
}

func (d *IteratorData) Kind() NodeType { return NodeTypeIterator }

// Iterators always iterate.
func (d *IteratorData) Iterates() bool { return true }

// ConditionalData configures a branching node.
type ConditionalData struct {
	Flags

	Label      string `json:"label,omitempty"`
	Expression string `json:"expression,omitempty"`
}

func (d *ConditionalData) Kind() NodeType { return NodeTypeConditional }

// AsyncData configures timer, webhook and delivery-receipt nodes.
type AsyncData struct {
	Flags

	Wait     NodeType `json:"-"`
	Label    string   `json:"label,omitempty"`
	Duration string   `json:"duration,omitempty"`
	Path     string   `json:"path,omitempty"`
	Timeout  string   `json:"timeout,omitempty"`
}

func (d *AsyncData) Kind() NodeType { return d.Wait }

// GenericData keeps the raw fields of node types without a dedicated variant.
type GenericData struct {
	Flags

	Type   NodeType       `json:"-"`
	Fields map[string]any `json:"-"`
}

func (d *GenericData) Kind() NodeType { return d.Type }

// MarshalJSON writes the raw fields back, including the iterator flag.
func (d *GenericData) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(d.Fields)+1)
	for key, value := range d.Fields {
		fields[key] = value
	}

	if d.IsIterator {
		fields["isIterator"] = true
	}

	return json.Marshal(fields)
}

// NewNodeData returns an empty data variant for the given node type.
func NewNodeData(nodeType NodeType) NodeData {
	switch {
	case nodeType == NodeTypeStart:
		return NewStartNodeProps()
	case nodeType.IsSend():
		return &SendData{Channel: nodeType}
	case nodeType.IsAsync():
		return &AsyncData{Wait: nodeType}
	case nodeType == NodeTypeIterator:
		return &IteratorData{}
	case nodeType == NodeTypeConditional:
		return &ConditionalData{}
	default:
		return &GenericData{Type: nodeType, Fields: map[string]any{}}
	}
}

// UnmarshalJSON decodes data into the variant selected by type.
func (n *Node) UnmarshalJSON(raw []byte) error {
	var envelope struct {
		ID       string          `json:"id"`
		Type     NodeType        `json:"type"`
		Position Position        `json:"position"`
		Data     json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(raw, &envelope); err != nil {
		return err
	}

	data, err := DecodeNodeData(envelope.Type, envelope.Data)
	if err != nil {
		return fmt.Errorf("invalid data for node %s: %w", envelope.ID, err)
	}

	n.ID = envelope.ID
	n.Type = envelope.Type
	n.Position = envelope.Position
	n.Data = data

	return nil
}

// DecodeNodeData decodes raw into the variant for nodeType. Empty or null raw
// yields the variant's defaults.
func DecodeNodeData(nodeType NodeType, raw json.RawMessage) (NodeData, error) {
	data := NewNodeData(nodeType)

	if len(raw) == 0 || string(raw) == "null" {
		return data, nil
	}

	if err := decodeNodeData(data, raw); err != nil {
		return nil, err
	}

	return data, nil
}

func decodeNodeData(data NodeData, raw json.RawMessage) error {
	generic, ok := data.(*GenericData)
	if !ok {
		return json.Unmarshal(raw, data)
	}

	if err := json.Unmarshal(raw, &generic.Fields); err != nil {
		return err
	}

	if flag, ok := generic.Fields["isIterator"].(bool); ok {
		generic.IsIterator = flag
		delete(generic.Fields, "isIterator")
	}

	return nil
}

// StartProps returns the start node configuration, or nil for other nodes.
func (n *Node) StartProps() *StartNodeProps {
	if n == nil {
		return nil
	}

	props, _ := n.Data.(*StartNodeProps)

	return props
}

// Iterates reports whether the node is an iterator or carries the iterator flag.
func (n *Node) Iterates() bool {
	if n.Type == NodeTypeIterator {
		return true
	}

	return n.Data != nil && n.Data.Iterates()
}
