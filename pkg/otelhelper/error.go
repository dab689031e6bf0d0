package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("execution_failed", trace.WithAttributes(
		attrs...,
	))
}

// SetOK marks the span as successful and records the final execution status.
func SetOK(span trace.Span, status string) {
	span.SetAttributes(attribute.String(StatusKey, status))
	span.SetStatus(codes.Ok, "")
}
