package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/flowgate/pkg/persistence"
	"github.com/dukex/flowgate/pkg/schema"
	"github.com/jonboulle/clockwork"
)

// Schema stores input schemas and derives samples and payload checks from them.
type Schema struct {
	persistence persistence.Persistence
	generator   *schema.Generator
	logger      *slog.Logger
}

// NewSchema creates a new schema service. A nil clock uses the real clock.
func NewSchema(persistence persistence.Persistence, clock clockwork.Clock) *Schema {
	return &Schema{
		persistence: persistence,
		generator:   schema.NewGenerator(clock),
		logger:      slog.Default().With("module", "schema_service"),
	}
}

// Put stores text under ref. Schemas with errors are refused; the report is
// returned either way.
func (s *Schema) Put(ctx context.Context, ref, text string) (schema.Report, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return schema.Report{}, NewValidationError("Put", "INVALID_REF", "schema reference cannot be empty", ErrInvalidRequest)
	}

	report := schema.ValidateSchema(text)
	if !report.IsValid {
		return report, &SchemaInvalidError{Ref: ref, Report: report}
	}

	if err := s.persistence.SchemaRepository().Save(ctx, ref, text); err != nil {
		return report, fmt.Errorf("failed to save schema: %w", err)
	}

	s.logger.InfoContext(ctx, "Schema stored", "ref", ref, "warnings", len(report.Warnings))

	return report, nil
}

// Get returns the stored schema text.
func (s *Schema) Get(ctx context.Context, ref string) (string, error) {
	return s.persistence.SchemaRepository().GetByRef(ctx, ref)
}

func (s *Schema) Delete(ctx context.Context, ref string) error {
	return s.persistence.SchemaRepository().Delete(ctx, ref)
}

// Sample generates an example payload. An empty ref uses text directly.
func (s *Schema) Sample(ctx context.Context, ref, text string) (any, error) {
	text, err := s.resolve(ctx, ref, text)
	if err != nil {
		return nil, err
	}

	return s.generator.Generate(text), nil
}

// IdempotencyKey derives the key for payload, falling back to a generated
// sample of the schema when payload is nil.
func (s *Schema) IdempotencyKey(ctx context.Context, ref, text string, payload any, fields []string) (string, error) {
	if payload == nil {
		sample, err := s.Sample(ctx, ref, text)
		if err != nil {
			return "", err
		}

		payload = sample
	}

	return schema.GenerateIdempotencyKey(payload, fields), nil
}

// Check validates payload against a schema, returning one message per violation.
func (s *Schema) Check(ctx context.Context, ref, text string, payload any) ([]string, error) {
	text, err := s.resolve(ctx, ref, text)
	if err != nil {
		return nil, err
	}

	if report := schema.ValidateSchema(text); !report.IsValid {
		return nil, &SchemaInvalidError{Ref: ref, Report: report}
	}

	violations, err := schema.ValidatePayload(text, payload)
	if err != nil {
		return nil, NewValidationError("Check", "SCHEMA_UNUSABLE", err.Error(), ErrSchemaInvalid)
	}

	return violations, nil
}

func (s *Schema) resolve(ctx context.Context, ref, text string) (string, error) {
	if ref == "" {
		return text, nil
	}

	return s.Get(ctx, ref)
}
