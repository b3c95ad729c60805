package collectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

var _ ports.Collector = (*PaymentCollector)(nil)

// PaymentCollector corroborates a claim against the payment provider's
// transaction ledger. The merchant attested by the provider is compared
// against the claimed merchant; the normalized similarity becomes a
// quality signal of the resulting proof.
type PaymentCollector struct {
	baseCollector
	fold cases.Caser
}

// NewPaymentCollector creates a collector over a payment provider.
func NewPaymentCollector(provider ports.ProviderClient) (*PaymentCollector, error) {
	base, err := newBase(domain.KindPayment, provider)
	if err != nil {
		return nil, err
	}
	return &PaymentCollector{baseCollector: base, fold: cases.Fold()}, nil
}

// Kind implements ports.Collector.
func (c *PaymentCollector) Kind() domain.EvidenceKind { return domain.KindPayment }

// Collect fetches one attested transaction and proves it. An attestation
// without a merchant reference fails with ErrEvidenceIncomplete.
func (c *PaymentCollector) Collect(ctx context.Context, claim ports.Claim) (domain.Proof, error) {
	raw, err := c.fetch(ctx, domain.KindPayment, claim)
	if err != nil {
		return domain.Proof{}, err
	}

	if raw.Merchant == "" {
		return domain.Proof{}, domain.NewEvidenceError(domain.KindPayment, "Merchant",
			fmt.Errorf("%w: attestation has no merchant reference", domain.ErrEvidenceIncomplete))
	}

	input := domain.PaymentEvidence{
		MerchantRef:    raw.Merchant,
		ClaimedAmount:  claim.Amount,
		MerchantMatch:  c.merchantSimilarity(claim.Merchant, raw.Merchant),
		AmountAttested: raw.AmountAttested && raw.Amount == claim.Amount,
		CapturedAt:     c.capturedAt(raw),
	}
	return c.prove(input)
}

// merchantSimilarity returns the normalized Levenshtein similarity in
// [0, 1] between the claimed and attested merchant names. Both names are
// NFKC-normalized and case-folded first so "Café Flore" and "CAFE FLORE"
// compare as intended.
func (c *PaymentCollector) merchantSimilarity(claimed, attested string) float64 {
	a := c.normalize(claimed)
	b := c.normalize(attested)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	dist := levenshtein.ComputeDistance(a, b)
	longest := max(len([]rune(a)), len([]rune(b)))
	return 1 - float64(dist)/float64(longest)
}

func (c *PaymentCollector) normalize(s string) string {
	return strings.Join(strings.Fields(c.fold.String(norm.NFKC.String(s))), " ")
}
