package collectors

import (
	"context"
	"fmt"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

var _ ports.Collector = (*SocialCollector)(nil)

// SocialCollector corroborates a claim with attested social-media
// activity from the injected social provider.
type SocialCollector struct {
	baseCollector
}

// NewSocialCollector creates a collector over a social provider.
func NewSocialCollector(provider ports.ProviderClient) (*SocialCollector, error) {
	base, err := newBase(domain.KindSocial, provider)
	if err != nil {
		return nil, err
	}
	return &SocialCollector{baseCollector: base}, nil
}

// Kind implements ports.Collector.
func (c *SocialCollector) Kind() domain.EvidenceKind { return domain.KindSocial }

// Collect fetches one attested post and proves it. An attestation
// without a post reference fails with ErrEvidenceIncomplete.
func (c *SocialCollector) Collect(ctx context.Context, claim ports.Claim) (domain.Proof, error) {
	raw, err := c.fetch(ctx, domain.KindSocial, claim)
	if err != nil {
		return domain.Proof{}, err
	}

	if raw.PostRef == "" {
		return domain.Proof{}, domain.NewEvidenceError(domain.KindSocial, "PostRef",
			fmt.Errorf("%w: attestation has no post reference", domain.ErrEvidenceIncomplete))
	}

	platform := raw.Platform
	if platform == "" {
		platform = "instagram"
	}

	input := domain.SocialEvidence{
		Platform:          platform,
		PostRef:           raw.PostRef,
		ClaimedEngagement: raw.Engagement,
		CapturedAt:        c.capturedAt(raw),
	}
	return c.prove(input)
}
