package providers

import (
	"context"
	"time"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

// Simulated provider clients return deterministic data after a
// configurable latency, mimicking the external integrations the real
// deployment injects. They exist for demos and tests; none of them
// reaches a network.

// SimulatedLocationClient produces a fixed-quality GPS fix.
type SimulatedLocationClient struct {
	// Latency is slept before answering, honoring ctx cancellation.
	Latency time.Duration

	// Lat, Lon, and AccuracyMeters shape the returned fix.
	Lat, Lon       float64
	AccuracyMeters float64

	// Fail, when set, makes every fetch report an unreachable provider.
	Fail bool
}

var _ ports.ProviderClient = (*SimulatedLocationClient)(nil)

// Kind implements ports.ProviderClient.
func (c *SimulatedLocationClient) Kind() domain.EvidenceKind { return domain.KindLocation }

// Fetch returns the configured fix stamped at fetch time.
func (c *SimulatedLocationClient) Fetch(ctx context.Context, _ ports.Claim) (ports.RawEvidence, error) {
	if err := simulateLatency(ctx, c.Latency); err != nil {
		return ports.RawEvidence{}, err
	}
	if c.Fail {
		return ports.RawEvidence{}, ports.ErrProviderUnavailable
	}

	accuracy := c.AccuracyMeters
	if accuracy == 0 {
		accuracy = 12
	}
	return ports.RawEvidence{
		Lat:            c.Lat,
		Lon:            c.Lon,
		AccuracyMeters: accuracy,
		CapturedAt:     time.Now().UTC(),
	}, nil
}

// SimulatedPaymentClient attests the claimed merchant and amount as a
// settled transaction.
type SimulatedPaymentClient struct {
	Latency time.Duration

	// Merchant overrides the attested merchant; empty echoes the claim.
	Merchant string

	// AttestAmount controls whether the claimed amount is confirmed.
	AttestAmount bool

	Fail bool
}

var _ ports.ProviderClient = (*SimulatedPaymentClient)(nil)

// Kind implements ports.ProviderClient.
func (c *SimulatedPaymentClient) Kind() domain.EvidenceKind { return domain.KindPayment }

// Fetch returns a transaction attestation derived from the claim.
func (c *SimulatedPaymentClient) Fetch(ctx context.Context, claim ports.Claim) (ports.RawEvidence, error) {
	if err := simulateLatency(ctx, c.Latency); err != nil {
		return ports.RawEvidence{}, err
	}
	if c.Fail {
		return ports.RawEvidence{}, ports.ErrProviderUnavailable
	}

	merchant := c.Merchant
	if merchant == "" {
		merchant = claim.Merchant
	}
	return ports.RawEvidence{
		Merchant:       merchant,
		Amount:         claim.Amount,
		AmountAttested: c.AttestAmount,
		CapturedAt:     time.Now().UTC(),
	}, nil
}

// SimulatedSocialClient attests a post with a configurable engagement
// count.
type SimulatedSocialClient struct {
	Latency time.Duration

	Platform   string
	Engagement int

	Fail bool
}

var _ ports.ProviderClient = (*SimulatedSocialClient)(nil)

// Kind implements ports.ProviderClient.
func (c *SimulatedSocialClient) Kind() domain.EvidenceKind { return domain.KindSocial }

// Fetch returns a post attestation referencing the claim's post.
func (c *SimulatedSocialClient) Fetch(ctx context.Context, claim ports.Claim) (ports.RawEvidence, error) {
	if err := simulateLatency(ctx, c.Latency); err != nil {
		return ports.RawEvidence{}, err
	}
	if c.Fail {
		return ports.RawEvidence{}, ports.ErrProviderUnavailable
	}

	platform := c.Platform
	if platform == "" {
		platform = "instagram"
	}
	return ports.RawEvidence{
		Platform:   platform,
		PostRef:    claim.SocialPostRef,
		Engagement: c.Engagement,
		CapturedAt: time.Now().UTC(),
	}, nil
}

// simulateLatency sleeps for d while honoring context cancellation so
// stage timeouts behave exactly as they would against a slow provider.
func simulateLatency(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
