package collectors

import (
	"context"
	"fmt"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

var _ ports.Collector = (*LocationCollector)(nil)

// LocationCollector corroborates a claim with a GPS fix from the
// injected location provider.
type LocationCollector struct {
	baseCollector
}

// NewLocationCollector creates a collector over a location provider.
func NewLocationCollector(provider ports.ProviderClient) (*LocationCollector, error) {
	base, err := newBase(domain.KindLocation, provider)
	if err != nil {
		return nil, err
	}
	return &LocationCollector{baseCollector: base}, nil
}

// Kind implements ports.Collector.
func (c *LocationCollector) Kind() domain.EvidenceKind { return domain.KindLocation }

// Collect fetches one location fix and proves it. A fix without an
// accuracy radius carries no usable quality signal and fails with
// ErrEvidenceIncomplete.
func (c *LocationCollector) Collect(ctx context.Context, claim ports.Claim) (domain.Proof, error) {
	raw, err := c.fetch(ctx, domain.KindLocation, claim)
	if err != nil {
		return domain.Proof{}, err
	}

	if raw.AccuracyMeters <= 0 {
		return domain.Proof{}, domain.NewEvidenceError(domain.KindLocation, "AccuracyMeters",
			fmt.Errorf("%w: fix has no accuracy radius", domain.ErrEvidenceIncomplete))
	}

	input := domain.LocationEvidence{
		Lat:            raw.Lat,
		Lon:            raw.Lon,
		AccuracyMeters: raw.AccuracyMeters,
		CapturedAt:     c.capturedAt(raw),
	}
	return c.prove(input)
}
