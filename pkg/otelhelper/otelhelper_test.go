package otelhelper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	recorder := tracetest.NewSpanRecorder()

	return recorder, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
}

func TestSetError(t *testing.T) {
	t.Parallel()

	recorder, provider := newRecorder()
	tracer := provider.Tracer("test")

	_, span := StartSpan(context.Background(), tracer, "execute email", ExecutionAttributes("exec-1", "email", 2)...)
	SetError(span, errors.New("smtp unavailable"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	assert.Equal(t, "execute email", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "smtp unavailable", spans[0].Status().Description)
	assert.Contains(t, spans[0].Attributes(), attribute.String(ExecutionIDKey, "exec-1"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int(AttemptKey, 2))

	var names []string
	for _, event := range spans[0].Events() {
		names = append(names, event.Name)
	}

	assert.Contains(t, names, "execution_failed")
}

func TestSetOK(t *testing.T) {
	t.Parallel()

	recorder, provider := newRecorder()

	_, span := StartSpan(context.Background(), provider.Tracer("test"), "execute task")
	SetOK(span, "COMPLETED")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String(StatusKey, "COMPLETED"))
}
