// Package validation checks flow graphs and start-node configuration before a
// flow is saved or activated. Every function is pure and returns findings as
// values; none of them fail.
package validation

import (
	"fmt"
	"strings"

	"github.com/dukex/flowgate/pkg/models"
	"github.com/robfig/cron/v3"
)

const (
	MessageAuthRequired       = "Authentication is required for webhook triggers in production"
	MessageRateLimitRequired  = "Rate limiting is required for webhook triggers"
	MessageInlineSecret       = "Inline secrets not allowed in production. Use vault:// references only."
	MessageInlineSecretAdvice = "Secrets should use vault:// references"
	MessageSecretRequired     = "Secret reference required for authentication"
	MessageBatchMaxItems      = "Max items is required for batch trigger"
	MessageBatchConcurrency   = "Max concurrency is required for batch trigger"
	MessageRPSPositive        = "RPS must be a positive number"
	MessageBurstPositive      = "Burst must be a positive number"
	MessageBurstBelowRPS      = "Burst should be greater than or equal to RPS"
	MessageCronRequired       = "Cron expression is required for schedule trigger"
	MessageTopicRequired      = "Topic is required for event_bus trigger"
	MessageIdempotencyFields  = "Idempotency is enabled but no fields are configured to derive the key from"
	unknownTimezone           = "Unknown timezone '%s'"
)

func issue(field, message string, severity models.Severity) models.ValidationError {
	return models.ValidationError{Field: field, Message: message, Severity: severity}
}

// ValidateStartNode applies the environment-sensitive trigger rules. All
// applicable rules fire.
func ValidateStartNode(props *models.StartNodeProps, env models.Environment) []models.ValidationError {
	issues := []models.ValidationError{}

	if props == nil {
		return issues
	}

	trigger := props.Trigger
	if trigger == "" {
		trigger = models.TriggerManual
	}

	if trigger != models.TriggerManual && props.InputSchemaRef == "" {
		issues = append(issues, issue("inputSchemaRef",
			fmt.Sprintf("Schema is required for %s trigger", trigger), models.SeverityError))
	}

	if env == models.EnvironmentProd && trigger == models.TriggerWebhook {
		if props.Auth == nil || props.Auth.Kind == "" || props.Auth.Kind == models.AuthNone {
			issues = append(issues, issue("auth", MessageAuthRequired, models.SeverityError))
		}

		if props.RateLimit == nil {
			issues = append(issues, issue("rateLimit", MessageRateLimitRequired, models.SeverityError))
		}
	}

	if env == models.EnvironmentProd && props.Auth != nil && isInlineSecret(props.Auth.SecretRef) {
		issues = append(issues, issue("auth.secretRef", MessageInlineSecret, models.SeverityError))
	}

	switch trigger {
	case models.TriggerBatch:
		if props.Batch == nil || props.Batch.MaxItems == nil {
			issues = append(issues, issue("batch.maxItems", MessageBatchMaxItems, models.SeverityError))
		}

		if props.Batch == nil || props.Batch.MaxConcurrency == nil {
			issues = append(issues, issue("batch.maxConcurrency", MessageBatchConcurrency, models.SeverityError))
		}
	case models.TriggerSchedule:
		issues = append(issues, validateSchedule(props.Schedule)...)
	case models.TriggerEventBus:
		if props.EventBus == nil || strings.TrimSpace(props.EventBus.Topic) == "" {
			issues = append(issues, issue("eventBus.topic", MessageTopicRequired, models.SeverityError))
		}
	}

	if props.Idempotency != nil && props.Idempotency.Enabled && len(props.Idempotency.DeriveFrom) == 0 {
		issues = append(issues, issue("idempotency.deriveFrom", MessageIdempotencyFields, models.SeverityWarning))
	}

	return issues
}

func validateSchedule(schedule *models.ScheduleConfig) []models.ValidationError {
	if schedule == nil || strings.TrimSpace(schedule.Cron) == "" {
		return []models.ValidationError{issue("schedule.cron", MessageCronRequired, models.SeverityError)}
	}

	issues := []models.ValidationError{}

	if _, err := cron.ParseStandard(schedule.Cron); err != nil {
		issues = append(issues, issue("schedule.cron",
			fmt.Sprintf("Invalid cron expression: %v", err), models.SeverityError))
	}

	if _, err := schedule.Location(); err != nil {
		issues = append(issues, issue("schedule.timezone",
			fmt.Sprintf(unknownTimezone, schedule.Timezone), models.SeverityError))
	}

	return issues
}

// ValidateRateLimit checks a rate-limit block on its own.
func ValidateRateLimit(rateLimit *models.RateLimitConfig) []models.ValidationError {
	issues := []models.ValidationError{}

	if rateLimit == nil {
		rateLimit = &models.RateLimitConfig{}
	}

	if rateLimit.RPS == nil || *rateLimit.RPS <= 0 {
		issues = append(issues, issue("rateLimit.rps", MessageRPSPositive, models.SeverityError))
	}

	if rateLimit.Burst == nil || *rateLimit.Burst <= 0 {
		issues = append(issues, issue("rateLimit.burst", MessageBurstPositive, models.SeverityError))
	}

	if rateLimit.RPS != nil && rateLimit.Burst != nil && *rateLimit.Burst < *rateLimit.RPS {
		issues = append(issues, issue("rateLimit.burst", MessageBurstBelowRPS, models.SeverityWarning))
	}

	return issues
}

// ValidateAuth checks an auth block on its own. Inline secrets are an error in
// production and a warning elsewhere.
func ValidateAuth(auth *models.AuthConfig, env models.Environment) []models.ValidationError {
	issues := []models.ValidationError{}

	if auth == nil {
		return issues
	}

	if isInlineSecret(auth.SecretRef) {
		if env == models.EnvironmentProd {
			issues = append(issues, issue("auth.secretRef", MessageInlineSecret, models.SeverityError))
		} else {
			issues = append(issues, issue("auth.secretRef", MessageInlineSecretAdvice, models.SeverityWarning))
		}
	}

	if auth.Kind != "" && auth.Kind != models.AuthNone && auth.SecretRef == "" {
		issues = append(issues, issue("auth.secretRef", MessageSecretRequired, models.SeverityError))
	}

	return issues
}

// ValidateStartConfig is the check run by the start-node configuration panel:
// the trigger rules plus the rate-limit and auth checks for the blocks that
// are present.
func ValidateStartConfig(props *models.StartNodeProps, env models.Environment) []models.ValidationError {
	issues := ValidateStartNode(props, env)

	if props == nil {
		return issues
	}

	if props.RateLimit != nil {
		issues = append(issues, ValidateRateLimit(props.RateLimit)...)
	}

	if props.Auth != nil {
		issues = append(issues, ValidateAuth(props.Auth, env)...)
	}

	return dedupe(issues)
}

func dedupe(issues []models.ValidationError) []models.ValidationError {
	type key struct{ field, message string }

	seen := make(map[key]bool, len(issues))
	unique := make([]models.ValidationError, 0, len(issues))

	for _, found := range issues {
		k := key{found.Field, found.Message}
		if seen[k] {
			continue
		}

		seen[k] = true
		unique = append(unique, found)
	}

	return unique
}

func isInlineSecret(secretRef string) bool {
	return secretRef != "" && !strings.HasPrefix(secretRef, models.VaultPrefix)
}
