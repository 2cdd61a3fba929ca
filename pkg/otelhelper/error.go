package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks span as failed and records err with attrs attached. A nil
// err leaves the span untouched.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if err == nil {
		return
	}

	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}

// SetIssues records the size of a validation result and how much of it
// blocks activation.
func SetIssues(span trace.Span, total, blocking int) {
	span.SetAttributes(
		attribute.Int(IssueCountKey, total),
		attribute.Int(BlockingIssueCountKey, blocking),
	)
}
