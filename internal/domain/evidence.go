// Package domain contains the core types and pure algorithms of the
// experience verification pipeline: evidence inputs, hashed proofs,
// verdict aggregation, the per-run stage machine, and trust scoring.
// Nothing in this package performs I/O.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
)

// EvidenceKind identifies an independent corroboration channel for a claim.
type EvidenceKind string

// Evidence kinds supported by the proof generator. Location, Payment, and
// Social are the three kinds the default pipeline collects; Purchase and
// Event cover receipt and ticket attestations gathered out of band.
const (
	KindLocation EvidenceKind = "location"
	KindPayment  EvidenceKind = "payment"
	KindSocial   EvidenceKind = "social"
	KindPurchase EvidenceKind = "purchase"
	KindEvent    EvidenceKind = "event"
)

// PipelineKinds is the fixed declaration order of the evidence kinds the
// verification pipeline collects concurrently. Verdict proof sequences
// always follow this order regardless of completion order.
var PipelineKinds = [3]EvidenceKind{KindLocation, KindPayment, KindSocial}

// EvidenceInput is one typed piece of raw corroborating evidence for a
// claim. Implementations are immutable value types; an input is created
// per verification attempt and discarded once its Proof is generated.
type EvidenceInput interface {
	// Kind returns the corroboration channel this evidence belongs to.
	Kind() EvidenceKind

	// Quality derives the deterministic confidence value for this input
	// from its own signals (GPS accuracy, attested fields, engagement).
	// The result is always in [0, 1].
	Quality() float64
}

// LocationEvidence is a captured GPS fix near the claimed experience.
type LocationEvidence struct {
	// Lat and Lon are the fix coordinates in decimal degrees.
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" validate:"min=-180,max=180"`

	// AccuracyMeters is the provider-reported horizontal accuracy radius.
	AccuracyMeters float64 `json:"accuracy_meters" validate:"required,gt=0"`

	// CapturedAt records when the fix was taken.
	CapturedAt time.Time `json:"captured_at" validate:"required"`
}

// Kind implements EvidenceInput.
func (LocationEvidence) Kind() EvidenceKind { return KindLocation }

// Quality maps GPS accuracy onto a confidence value. Tighter fixes score
// higher; anything worse than a 100m radius bottoms out at the floor the
// pipeline treats as "evidence gathered but weak".
func (e LocationEvidence) Quality() float64 {
	switch {
	case e.AccuracyMeters <= 10:
		return 1.0
	case e.AccuracyMeters <= 25:
		return 0.95
	case e.AccuracyMeters <= 50:
		return 0.90
	case e.AccuracyMeters <= 100:
		return 0.85
	default:
		return 0.80
	}
}

// PaymentEvidence is a provider-attested transaction matching the claim.
type PaymentEvidence struct {
	// MerchantRef is the merchant identifier attested by the payment
	// provider, already normalized for comparison against the claim.
	MerchantRef string `json:"merchant_ref" validate:"required"`

	// ClaimedAmount is the transaction amount from the user's claim.
	ClaimedAmount float64 `json:"claimed_amount" validate:"min=0"`

	// MerchantMatch is the normalized similarity in [0,1] between the
	// claimed merchant and the attested merchant, computed by the
	// collector before proof generation.
	MerchantMatch float64 `json:"merchant_match" validate:"min=0,max=1"`

	// AmountAttested reports whether the provider confirmed the exact
	// claimed amount.
	AmountAttested bool `json:"amount_attested"`

	// CapturedAt records when the transaction settled.
	CapturedAt time.Time `json:"captured_at" validate:"required"`
}

// Kind implements EvidenceInput.
func (PaymentEvidence) Kind() EvidenceKind { return KindPayment }

// Quality scales the merchant similarity into the [0.8, 1.0] band; an
// exactly attested amount earns the top of the band for its similarity.
func (e PaymentEvidence) Quality() float64 {
	q := 0.8 + 0.15*e.MerchantMatch
	if e.AmountAttested {
		q += 0.05
	}
	if q > 1.0 {
		q = 1.0
	}
	return q
}

// SocialEvidence is attested social-media activity tied to the claim.
type SocialEvidence struct {
	// Platform names the social network that attested the post.
	Platform string `json:"platform" validate:"required"`

	// PostRef is the provider-attested post identifier.
	PostRef string `json:"post_ref" validate:"required"`

	// ClaimedEngagement is the engagement count (likes, reactions) the
	// provider reported for the post.
	ClaimedEngagement int `json:"claimed_engagement" validate:"min=0"`

	// CapturedAt records when the post was published.
	CapturedAt time.Time `json:"captured_at" validate:"required"`
}

// Kind implements EvidenceInput.
func (SocialEvidence) Kind() EvidenceKind { return KindSocial }

// Quality bands engagement counts into [0.8, 1.0]. Engagement is a weak
// but monotone signal that the post is genuine activity rather than a
// throwaway upload.
func (e SocialEvidence) Quality() float64 {
	switch {
	case e.ClaimedEngagement >= 100:
		return 1.0
	case e.ClaimedEngagement >= 25:
		return 0.95
	case e.ClaimedEngagement >= 5:
		return 0.90
	case e.ClaimedEngagement >= 1:
		return 0.85
	default:
		return 0.80
	}
}

// PurchaseEvidence is an e-commerce order attestation.
type PurchaseEvidence struct {
	MerchantRef string    `json:"merchant_ref" validate:"required"`
	ProductRef  string    `json:"product_ref" validate:"required"`
	Amount      float64   `json:"amount" validate:"min=0"`
	OrderID     string    `json:"order_id" validate:"required"`
	CapturedAt  time.Time `json:"captured_at" validate:"required"`
}

// Kind implements EvidenceInput.
func (PurchaseEvidence) Kind() EvidenceKind { return KindPurchase }

// Quality rewards field completeness; an order id plus product reference
// is a strong receipt, a bare merchant reference is a weak one.
func (e PurchaseEvidence) Quality() float64 {
	q := 0.8
	if e.OrderID != "" {
		q += 0.1
	}
	if e.ProductRef != "" {
		q += 0.05
	}
	if e.Amount > 0 {
		q += 0.05
	}
	if q > 1.0 {
		q = 1.0
	}
	return q
}

// EventEvidence is an event-attendance attestation (venue plus ticket).
type EventEvidence struct {
	EventName  string    `json:"event_name" validate:"required"`
	Venue      string    `json:"venue" validate:"required"`
	TicketID   string    `json:"ticket_id" validate:"required"`
	CapturedAt time.Time `json:"captured_at" validate:"required"`
}

// Kind implements EvidenceInput.
func (EventEvidence) Kind() EvidenceKind { return KindEvent }

// Quality rewards a scannable ticket id over a bare venue claim.
func (e EventEvidence) Quality() float64 {
	if e.TicketID != "" && e.Venue != "" {
		return 0.95
	}
	return 0.80
}

// canonicalEnvelope fixes the shape hashed for a proof's data hash. The
// kind is bound into the envelope so identical payloads of different
// kinds never collide.
type canonicalEnvelope struct {
	Kind    EvidenceKind    `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Canonicalize serializes evidence into RFC 8785 canonical JSON. The
// resulting bytes are the exact preimage of the proof's data hash, so
// the same logical input always canonicalizes to the same bytes.
func Canonicalize(input EvidenceInput) ([]byte, error) {
	if input == nil {
		return nil, fmt.Errorf("canonicalize: %w", ErrMalformedEvidence)
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("canonicalize %s: %w: %v", input.Kind(), ErrMalformedEvidence, err)
	}

	raw, err := json.Marshal(canonicalEnvelope{Kind: input.Kind(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("canonicalize %s: %w: %v", input.Kind(), ErrMalformedEvidence, err)
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize %s: %w: %v", input.Kind(), ErrMalformedEvidence, err)
	}
	return canonical, nil
}
