// Package collectors contains the per-kind evidence collectors of the
// verification pipeline. Each collector makes exactly one provider call,
// normalizes the raw payload into its evidence input, and delegates to
// the proof generator. Retry policy is deliberately absent: a caller
// wanting another attempt starts a new run.
package collectors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

// baseCollector holds what every collector shares: its provider, the
// proof generator, and the clock.
type baseCollector struct {
	provider  ports.ProviderClient
	generator *domain.Generator
	now       func() time.Time
}

func newBase(kind domain.EvidenceKind, provider ports.ProviderClient) (baseCollector, error) {
	if provider == nil {
		return baseCollector{}, fmt.Errorf("%s collector: provider cannot be nil", kind)
	}
	if provider.Kind() != kind {
		return baseCollector{}, fmt.Errorf("%s collector: provider serves kind %s", kind, provider.Kind())
	}
	return baseCollector{
		provider:  provider,
		generator: domain.NewGenerator(),
		now:       time.Now,
	}, nil
}

// fetch performs the collector's single provider call and maps context
// errors onto the pipeline's provider error taxonomy.
func (b baseCollector) fetch(ctx context.Context, kind domain.EvidenceKind, claim ports.Claim) (ports.RawEvidence, error) {
	raw, err := b.provider.Fetch(ctx, claim)
	if err == nil {
		return raw, nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ports.RawEvidence{}, ports.NewProviderError(kind, "fetch", ports.ErrProviderTimeout)
	case errors.Is(err, context.Canceled):
		return ports.RawEvidence{}, ports.NewProviderError(kind, "fetch", err)
	case errors.Is(err, ports.ErrProviderTimeout), errors.Is(err, ports.ErrProviderUnavailable):
		return ports.RawEvidence{}, ports.NewProviderError(kind, "fetch", err)
	default:
		return ports.RawEvidence{}, ports.NewProviderError(kind, "fetch",
			fmt.Errorf("%w: %v", ports.ErrProviderUnavailable, err))
	}
}

// prove runs the generator and keeps the failure kind intact for the
// orchestrator's stage report.
func (b baseCollector) prove(input domain.EvidenceInput) (domain.Proof, error) {
	proof, err := b.generator.Generate(input, b.now())
	if err != nil {
		return domain.Proof{}, err
	}
	return proof, nil
}

// capturedAt falls back to the collection time when a provider did not
// stamp its payload.
func (b baseCollector) capturedAt(raw ports.RawEvidence) time.Time {
	if raw.CapturedAt.IsZero() {
		return b.now().UTC()
	}
	return raw.CapturedAt
}
