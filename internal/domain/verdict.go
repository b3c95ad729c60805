package domain

import (
	"time"
)

// Verification thresholds applied during aggregation.
const (
	// MinValidProofs is the minimum number of evidence kinds that must
	// produce a valid proof before a claim can verify.
	MinValidProofs = 2

	// MinOverallConfidence is the exclusive lower bound the mean
	// confidence of valid proofs must clear for a claim to verify.
	MinOverallConfidence = 0.70
)

// Verdict is the terminal, aggregated outcome of one verification run
// over all evidence kinds. A verdict is created once per run and never
// revised; re-verifying a claim produces a new Verdict.
type Verdict struct {
	// ID uniquely identifies this verdict (a UUID).
	ID string `json:"id"`

	// ExperienceID identifies the claim this verdict decides.
	ExperienceID string `json:"experience_id"`

	// UserID identifies the claimant, for trust-score attribution.
	UserID string `json:"user_id"`

	// Proofs holds one entry per evidence kind attempted, always in the
	// fixed PipelineKinds order regardless of completion order. A nil
	// entry means that kind produced no proof.
	Proofs []*Proof `json:"proofs"`

	// OverallConfidence is the arithmetic mean of confidences among
	// valid proofs only. Invalid and missing proofs are excluded from
	// the denominator, never scored as zero.
	OverallConfidence float64 `json:"overall_confidence"`

	// Verified reports whether the claim met the aggregation invariant.
	Verified bool `json:"verified"`

	// DecidedAt records when the verdict was produced.
	DecidedAt time.Time `json:"decided_at"`
}

// ValidProofs returns the verdict's valid proofs in declaration order.
func (v Verdict) ValidProofs() []*Proof {
	valid := make([]*Proof, 0, len(v.Proofs))
	for _, p := range v.Proofs {
		if p != nil && p.Valid {
			valid = append(valid, p)
		}
	}
	return valid
}

// Aggregator combines the proofs gathered by one verification run into
// an overall confidence and a verified decision. Implementations must be
// pure: same proofs in, same decision out.
type Aggregator interface {
	// Aggregate consumes the run's proofs, ordered by PipelineKinds with
	// nil entries for kinds that produced nothing, and returns the
	// overall confidence together with the verified decision.
	Aggregate(proofs []*Proof) (overall float64, verified bool)
}

// MeanAggregator is the default aggregation policy: the overall
// confidence is the arithmetic mean over valid proofs, and a claim
// verifies when at least MinValidProofs kinds produced a valid proof and
// the mean clears MinOverallConfidence.
type MeanAggregator struct{}

var _ Aggregator = MeanAggregator{}

// Aggregate implements Aggregator.
func (MeanAggregator) Aggregate(proofs []*Proof) (float64, bool) {
	var sum float64
	var valid int
	for _, p := range proofs {
		if p == nil || !p.Valid {
			continue
		}
		sum += p.Confidence
		valid++
	}
	if valid == 0 {
		return 0, false
	}

	mean := sum / float64(valid)
	return mean, valid >= MinValidProofs && mean > MinOverallConfidence
}
