package vision

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracedVLM wraps backend calls in OpenTelemetry spans.
type tracedVLM struct {
	next    CoreVLM
	backend string
	tracer  trace.Tracer
}

// TracingMiddleware creates middleware that emits a span per backend
// call with the backend, model, and payload sizes as attributes.
func TracingMiddleware(backend string) Middleware {
	tracer := otel.Tracer("vision-gateway")
	return func(next CoreVLM) CoreVLM {
		return &tracedVLM{next: next, backend: backend, tracer: tracer}
	}
}

// DoRequest executes the request within a span, recording failures.
func (t *tracedVLM) DoRequest(ctx context.Context, image, prompt string, opts map[string]any) (string, error) {
	ctx, span := t.tracer.Start(ctx, "vlm.describe",
		trace.WithAttributes(
			attribute.String("vlm.backend", t.backend),
			attribute.String("vlm.model", t.next.GetModel()),
			attribute.Int("vlm.image.bytes", len(image)),
			attribute.Int("vlm.prompt.length", len(prompt)),
		),
	)
	defer span.End()

	response, err := t.next.DoRequest(ctx, image, prompt, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("vlm.response.length", len(response)))
	}

	return response, err
}

// GetModel returns the model name from the wrapped implementation.
func (t *tracedVLM) GetModel() string { return t.next.GetModel() }
