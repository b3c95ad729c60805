package providers

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

// tracingClient records one span per provider fetch, nested under the
// verification run's span when one is active.
type tracingClient struct {
	next   ports.ProviderClient
	tracer trace.Tracer
}

// TracingMiddleware creates middleware that traces provider fetches.
func TracingMiddleware() Middleware {
	tracer := otel.Tracer("evidence-provider")
	return func(next ports.ProviderClient) ports.ProviderClient {
		return &tracingClient{next: next, tracer: tracer}
	}
}

// Fetch executes the fetch inside a span carrying the evidence kind and
// the outcome.
func (t *tracingClient) Fetch(ctx context.Context, claim ports.Claim) (ports.RawEvidence, error) {
	ctx, span := t.tracer.Start(ctx, "provider.fetch",
		trace.WithAttributes(
			attribute.String("evidence.kind", string(t.next.Kind())),
			attribute.String("experience.id", claim.ExperienceID),
		))
	defer span.End()

	raw, err := t.next.Fetch(ctx, claim)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return raw, err
	}
	span.SetStatus(codes.Ok, "")
	return raw, nil
}

// Kind reports the wrapped provider's evidence kind.
func (t *tracingClient) Kind() domain.EvidenceKind { return t.next.Kind() }
