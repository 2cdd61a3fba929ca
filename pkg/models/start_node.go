package models

// TriggerType selects how a flow execution is started.
type TriggerType string

const (
	TriggerManual   TriggerType = "manual"
	TriggerWebhook  TriggerType = "webhook"
	TriggerSchedule TriggerType = "schedule"
	TriggerBatch    TriggerType = "batch"
	TriggerEventBus TriggerType = "event_bus"
)

// AuthKind selects how inbound webhook calls are authenticated.
type AuthKind string

const (
	AuthNone   AuthKind = "none"
	AuthAPIKey AuthKind = "api_key"
	AuthHMAC   AuthKind = "hmac"
	AuthBearer AuthKind = "bearer"
)

// Optional output ports of the start node.
const (
	PortInvalidInput = "invalid_input"
	PortThrottled    = "throttled"
)

// VaultPrefix is the only secret reference form accepted in production.
const VaultPrefix = "vault://"

// StartNodeProps is the configuration of a flow's entry point.
type StartNodeProps struct {
	Flags

	Trigger        TriggerType        `json:"trigger"                  validate:"required,oneof=manual webhook schedule batch event_bus"`
	InputSchemaRef string             `json:"inputSchemaRef,omitempty"`
	Schedule       *ScheduleConfig    `json:"schedule,omitempty"`
	EventBus       *EventBusConfig    `json:"eventBus,omitempty"`
	Batch          *BatchConfig       `json:"batch,omitempty"`
	RateLimit      *RateLimitConfig   `json:"rateLimit,omitempty"`
	Auth           *AuthConfig        `json:"auth,omitempty"`
	Idempotency    *IdempotencyConfig `json:"idempotency,omitempty"`
	Correlation    *CorrelationConfig `json:"correlation,omitempty"`
	DeadLetter     *DeadLetterConfig  `json:"deadLetter,omitempty"`
	Ports          *PortsConfig       `json:"ports,omitempty"`
}

func (p *StartNodeProps) Kind() NodeType { return NodeTypeStart }

// NewStartNodeProps returns the defaults of a freshly added start node.
func NewStartNodeProps() *StartNodeProps {
	return &StartNodeProps{Trigger: TriggerManual}
}

type ScheduleConfig struct {
	Cron     string `json:"cron,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

type EventBusConfig struct {
	Topic string `json:"topic,omitempty"`
}

type BatchConfig struct {
	MaxItems       *int `json:"maxItems,omitempty"`
	MaxConcurrency *int `json:"maxConcurrency,omitempty"`
}

type RateLimitConfig struct {
	RPS   *float64 `json:"rps,omitempty"`
	Burst *float64 `json:"burst,omitempty"`
}

type AuthConfig struct {
	Kind      AuthKind `json:"kind,omitempty"      validate:"omitempty,oneof=none api_key hmac bearer"`
	SecretRef string   `json:"secretRef,omitempty"`
}

type IdempotencyConfig struct {
	Enabled    bool     `json:"enabled"`
	DeriveFrom []string `json:"deriveFrom,omitempty"`
}

type CorrelationConfig struct {
	Field string `json:"field,omitempty"`
}

type DeadLetterConfig struct {
	Target string `json:"target,omitempty"`
}

// PortsConfig toggles the optional output ports of the start node.
type PortsConfig struct {
	InvalidInput bool `json:"invalid_input,omitempty"`
	Throttled    bool `json:"throttled,omitempty"`
}

// Enabled returns the names of the enabled ports in a fixed order.
func (p *PortsConfig) Enabled() []string {
	if p == nil {
		return nil
	}

	var ports []string

	if p.InvalidInput {
		ports = append(ports, PortInvalidInput)
	}

	if p.Throttled {
		ports = append(ports, PortThrottled)
	}

	return ports
}
