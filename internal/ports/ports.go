// Package ports defines the interfaces that connect the verification
// core to the surrounding layers: evidence providers, the ledger, the
// trust-history store, progress observers, and metrics.
// These interfaces enable dependency inversion and make the pipeline
// testable without any real provider integration.
package ports

import (
	"context"
	"time"

	"github.com/truthstream/verity/internal/domain"
)

// Claim is the user-submitted description of a real-world experience
// that the pipeline verifies. It is read-only input for every collector
// within a run.
type Claim struct {
	// ExperienceID identifies the claimed experience.
	ExperienceID string

	// UserID identifies the claimant.
	UserID string

	// Merchant is the claimed merchant or venue name.
	Merchant string

	// Amount is the claimed spend, zero when not applicable.
	Amount float64

	// SocialPostRef optionally references a social post about the
	// experience.
	SocialPostRef string

	// OccurredAt is when the experience is claimed to have happened.
	OccurredAt time.Time
}

// RawEvidence is a provider's untyped response to an evidence fetch.
// Collectors normalize it into the matching domain.EvidenceInput; fields
// irrelevant to a given kind stay zero.
type RawEvidence struct {
	// Location fix.
	Lat, Lon       float64
	AccuracyMeters float64

	// Payment attestation.
	Merchant       string
	Amount         float64
	AmountAttested bool

	// Social attestation.
	Platform   string
	PostRef    string
	Engagement int

	// CapturedAt is when the provider captured the underlying data.
	CapturedAt time.Time
}

// ProviderClient fetches raw evidence for one evidence kind. The three
// implementations injected by the caller are a location fix source, a
// payment-ledger lookup, and a social-API lookup. A fetch makes exactly
// one external call; retry policy, if any, lives outside the pipeline.
type ProviderClient interface {
	// Fetch retrieves raw evidence for the claim. Implementations must
	// respect context cancellation and deadlines, and should fail with
	// ErrProviderUnavailable or ErrProviderTimeout as appropriate.
	Fetch(ctx context.Context, claim Claim) (RawEvidence, error)

	// Kind reports which evidence kind this provider serves.
	Kind() domain.EvidenceKind
}

// Collector gathers one kind of evidence for a claim and turns it into
// a hashed proof. Collectors are stateless and safe for concurrent use;
// each Collect performs at most one provider call and never retries.
type Collector interface {
	// Kind reports which evidence kind this collector gathers.
	Kind() domain.EvidenceKind

	// Collect fetches, normalizes, and proves one piece of evidence.
	// Failures propagate unchanged: provider errors keep their kind and
	// malformed data surfaces domain.ErrMalformedEvidence or
	// domain.ErrEvidenceIncomplete.
	Collect(ctx context.Context, claim Claim) (domain.Proof, error)
}

// LedgerRecorder durably records a verdict and its proofs. The
// orchestrator calls Record exactly once per successful verdict; any
// idempotency across re-submissions is the recorder's own concern.
type LedgerRecorder interface {
	// Record persists the verdict and returns a durable record id.
	Record(ctx context.Context, verdict domain.Verdict) (string, error)
}

// ProgressSink observes stage transitions of a verification run in the
// order they actually happen. Implementations must never block the
// orchestrator: a slow consumer drops or buffers on its own side.
type ProgressSink interface {
	// OnStageTransition is a fire-and-forget notification. Errors are
	// not returned because the pipeline's outcome must not depend on an
	// observer.
	OnStageTransition(transition domain.StageTransition)
}

// HistoryStore reads and updates a user's trust history. It is the
// storage collaborator's surface: the pipeline only ever reads history
// snapshots and writes back recomputed scores.
type HistoryStore interface {
	// History returns the user's verification outcomes, oldest first.
	History(ctx context.Context, userID string) (domain.TrustHistory, error)

	// Append adds the outcome of a durably recorded verdict.
	Append(ctx context.Context, userID string, entry domain.TrustEntry) error

	// SetScore persists the latest computed trust score for the user.
	SetScore(ctx context.Context, userID string, score int) error
}

// MetricsCollector records operational metrics for the pipeline.
// Implementations integrate with Prometheus or any comparable backend.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
