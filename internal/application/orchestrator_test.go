package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

// fakeCollector returns a canned proof or error, optionally waiting for
// a gate channel first so tests can force a deterministic completion
// order.
type fakeCollector struct {
	kind  domain.EvidenceKind
	proof domain.Proof
	err   error

	// waitFor, when set, blocks Collect until the channel closes.
	waitFor <-chan struct{}

	// blockOnCtx makes Collect wait for ctx to end and fail with the
	// context error, mimicking a hung provider.
	blockOnCtx bool
}

func (f *fakeCollector) Kind() domain.EvidenceKind { return f.kind }

func (f *fakeCollector) Collect(ctx context.Context, _ ports.Claim) (domain.Proof, error) {
	if f.blockOnCtx {
		<-ctx.Done()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.Proof{}, ports.NewProviderError(f.kind, "fetch", ports.ErrProviderTimeout)
		}
		return domain.Proof{}, ports.NewProviderError(f.kind, "fetch", ctx.Err())
	}
	if f.waitFor != nil {
		select {
		case <-f.waitFor:
		case <-ctx.Done():
			return domain.Proof{}, ports.NewProviderError(f.kind, "fetch", ctx.Err())
		}
	}
	if f.err != nil {
		return domain.Proof{}, f.err
	}
	return f.proof, nil
}

func goodProof(kind domain.EvidenceKind, confidence float64) domain.Proof {
	return domain.Proof{
		Kind:        kind,
		DataHash:    domain.Hash256("data-" + string(kind)),
		ProofHash:   domain.Hash256("proof-" + string(kind)),
		Confidence:  confidence,
		GeneratedAt: time.Now().UTC(),
		Valid:       true,
	}
}

// recordingSink captures every transition it observes, in order.
type recordingSink struct {
	mu          sync.Mutex
	transitions []domain.StageTransition
}

func (s *recordingSink) OnStageTransition(tr domain.StageTransition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions = append(s.transitions, tr)
}

func (s *recordingSink) all() []domain.StageTransition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.StageTransition, len(s.transitions))
	copy(out, s.transitions)
	return out
}

func (s *recordingSink) terminalOrder() []domain.Stage {
	var order []domain.Stage
	for _, tr := range s.all() {
		if tr.To.Terminal() {
			order = append(order, tr.Stage)
		}
	}
	return order
}

// fakeLedger records verdicts in memory and can be told to fail.
type fakeLedger struct {
	mu       sync.Mutex
	recorded []domain.Verdict
	failWith error
}

func (l *fakeLedger) Record(_ context.Context, verdict domain.Verdict) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return "", l.failWith
	}
	l.recorded = append(l.recorded, verdict)
	return fmt.Sprintf("record-%d", len(l.recorded)), nil
}

func (l *fakeLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recorded)
}

func defaultCollectors() []ports.Collector {
	return []ports.Collector{
		&fakeCollector{kind: domain.KindLocation, proof: goodProof(domain.KindLocation, 0.9)},
		&fakeCollector{kind: domain.KindPayment, proof: goodProof(domain.KindPayment, 0.85)},
		&fakeCollector{kind: domain.KindSocial, proof: goodProof(domain.KindSocial, 0.92)},
	}
}

func testClaim() ports.Claim {
	return ports.Claim{
		ExperienceID: "exp-1",
		UserID:       "user-1",
		Merchant:     "Cafe Flore",
		Amount:       42.5,
		OccurredAt:   time.Now(),
	}
}

func TestNewOrchestratorValidation(t *testing.T) {
	ledger := &fakeLedger{}

	t.Run("nil ledger", func(t *testing.T) {
		_, err := NewOrchestrator(DefaultConfig(), defaultCollectors(), nil)
		require.Error(t, err)
	})

	t.Run("missing collector", func(t *testing.T) {
		_, err := NewOrchestrator(DefaultConfig(), defaultCollectors()[:2], ledger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing collector")
	})

	t.Run("duplicate collector", func(t *testing.T) {
		collectors := append(defaultCollectors(),
			&fakeCollector{kind: domain.KindLocation})
		_, err := NewOrchestrator(DefaultConfig(), collectors, ledger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate collector")
	})

	t.Run("foreign collector kind", func(t *testing.T) {
		collectors := append(defaultCollectors(),
			&fakeCollector{kind: domain.KindPurchase})
		_, err := NewOrchestrator(DefaultConfig(), collectors, ledger)
		require.Error(t, err)
	})
}

func TestVerifyAllStagesSucceed(t *testing.T) {
	ledger := &fakeLedger{}
	sink := &recordingSink{}
	orch, err := NewOrchestrator(DefaultConfig(), defaultCollectors(), ledger,
		WithProgressSink(sink))
	require.NoError(t, err)

	result, err := orch.Verify(context.Background(), testClaim())
	require.NoError(t, err)

	assert.True(t, result.Verdict.Verified)
	assert.InDelta(t, (0.9+0.85+0.92)/3, result.Verdict.OverallConfidence, 1e-9)
	assert.NotEmpty(t, result.Verdict.ID)
	assert.Equal(t, "record-1", result.RecordID)
	assert.Equal(t, 1, ledger.count())

	for _, stage := range domain.Stages {
		assert.Equal(t, domain.StageCompleted, result.Stages[stage], "stage %s", stage)
	}

	// Proofs come back in declaration order.
	require.Len(t, result.Verdict.Proofs, 3)
	for i, kind := range domain.PipelineKinds {
		require.NotNil(t, result.Verdict.Proofs[i])
		assert.Equal(t, kind, result.Verdict.Proofs[i].Kind)
	}
}

func TestVerifyPaymentTimeoutStillVerifies(t *testing.T) {
	// Location and social complete with 0.9 and 0.88; payment hangs
	// until its stage deadline. The run must still verify at 0.89 and
	// report the payment stage failed with a provider timeout.
	cfg := DefaultConfig()
	cfg.StageTimeoutOverrides = map[string]int{string(domain.StagePayment): 1}

	collectors := []ports.Collector{
		&fakeCollector{kind: domain.KindLocation, proof: goodProof(domain.KindLocation, 0.9)},
		&fakeCollector{kind: domain.KindPayment, blockOnCtx: true},
		&fakeCollector{kind: domain.KindSocial, proof: goodProof(domain.KindSocial, 0.88)},
	}

	ledger := &fakeLedger{}
	sink := &recordingSink{}
	orch, err := NewOrchestrator(cfg, collectors, ledger, WithProgressSink(sink))
	require.NoError(t, err)

	result, err := orch.Verify(context.Background(), testClaim())
	require.NoError(t, err)

	assert.True(t, result.Verdict.Verified)
	assert.InDelta(t, 0.89, result.Verdict.OverallConfidence, 1e-9)
	assert.Equal(t, domain.StageFailed, result.Stages[domain.StagePayment])
	assert.Nil(t, result.Verdict.Proofs[1], "payment produced no proof")

	var paymentFailure domain.StageTransition
	for _, tr := range sink.all() {
		if tr.Stage == domain.StagePayment && tr.To == domain.StageFailed {
			paymentFailure = tr
		}
	}
	require.NotNil(t, paymentFailure.Err)
	assert.ErrorIs(t, paymentFailure.Err, ports.ErrProviderTimeout)
}

func TestVerifySingleProofDoesNotVerify(t *testing.T) {
	collectors := []ports.Collector{
		&fakeCollector{kind: domain.KindLocation, proof: goodProof(domain.KindLocation, 0.95)},
		&fakeCollector{
			kind: domain.KindPayment,
			err:  ports.NewProviderError(domain.KindPayment, "fetch", ports.ErrProviderUnavailable),
		},
		&fakeCollector{
			kind: domain.KindSocial,
			err:  ports.NewProviderError(domain.KindSocial, "fetch", ports.ErrProviderUnavailable),
		},
	}

	ledger := &fakeLedger{}
	orch, err := NewOrchestrator(DefaultConfig(), collectors, ledger)
	require.NoError(t, err)

	result, err := orch.Verify(context.Background(), testClaim())
	require.NoError(t, err, "an unverified run is not an error")

	assert.False(t, result.Verdict.Verified,
		"one valid proof never verifies, however confident")
	assert.InDelta(t, 0.95, result.Verdict.OverallConfidence, 1e-9)
	assert.Equal(t, 0, ledger.count(), "unverified verdicts are not recorded")
	assert.Equal(t, domain.StagePending, result.Stages[domain.StageLedgerRecord])

	// The partial verdict still shows which evidence kinds failed.
	assert.NotNil(t, result.Verdict.Proofs[0])
	assert.Nil(t, result.Verdict.Proofs[1])
	assert.Nil(t, result.Verdict.Proofs[2])
}

// gatingSink closes a channel once a stage reaches a terminal state, so
// a test can hold the next collector back until the orchestrator has
// observed the previous completion.
type gatingSink struct {
	recordingSink
	gates map[domain.Stage]chan struct{}
}

func (s *gatingSink) OnStageTransition(tr domain.StageTransition) {
	s.recordingSink.OnStageTransition(tr)
	if gate, ok := s.gates[tr.Stage]; ok && tr.To.Terminal() {
		close(gate)
	}
}

func TestVerifyProgressInCompletionOrder(t *testing.T) {
	// Force the completion order social -> location -> payment, the
	// reverse of declaration order for the latter two.
	socialObserved := make(chan struct{})
	locationObserved := make(chan struct{})

	collectors := []ports.Collector{
		&fakeCollector{
			kind:    domain.KindLocation,
			proof:   goodProof(domain.KindLocation, 0.9),
			waitFor: socialObserved,
		},
		&fakeCollector{
			kind:    domain.KindPayment,
			proof:   goodProof(domain.KindPayment, 0.85),
			waitFor: locationObserved,
		},
		&fakeCollector{
			kind:  domain.KindSocial,
			proof: goodProof(domain.KindSocial, 0.92),
		},
	}

	ledger := &fakeLedger{}
	sink := &gatingSink{gates: map[domain.Stage]chan struct{}{
		domain.StageSocial:   socialObserved,
		domain.StageLocation: locationObserved,
	}}
	orch, err := NewOrchestrator(DefaultConfig(), collectors, ledger, WithProgressSink(sink))
	require.NoError(t, err)

	result, err := orch.Verify(context.Background(), testClaim())
	require.NoError(t, err)
	assert.True(t, result.Verdict.Verified)

	assert.Equal(t,
		[]domain.Stage{domain.StageSocial, domain.StageLocation, domain.StagePayment, domain.StageLedgerRecord},
		sink.terminalOrder(),
		"events follow actual completion order, not declaration order")

	// The verdict's proofs still follow declaration order.
	for i, kind := range domain.PipelineKinds {
		assert.Equal(t, kind, result.Verdict.Proofs[i].Kind)
	}
}

func TestVerifyLedgerFailureKeepsVerdict(t *testing.T) {
	ledger := &fakeLedger{failWith: ports.ErrLedgerUnavailable}
	sink := &recordingSink{}
	orch, err := NewOrchestrator(DefaultConfig(), defaultCollectors(), ledger,
		WithProgressSink(sink))
	require.NoError(t, err)

	result, err := orch.Verify(context.Background(), testClaim())
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrLedgerRecording)

	// Verification success is never downgraded by a ledger outage.
	assert.True(t, result.Verdict.Verified)
	assert.NotEmpty(t, result.Verdict.ID)
	assert.Empty(t, result.RecordID)
	assert.Equal(t, domain.StageFailed, result.Stages[domain.StageLedgerRecord])
}

func TestVerifyCancelledRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StageTimeoutSeconds = 1

	collectors := []ports.Collector{
		&fakeCollector{kind: domain.KindLocation, blockOnCtx: true},
		&fakeCollector{kind: domain.KindPayment, blockOnCtx: true},
		&fakeCollector{kind: domain.KindSocial, blockOnCtx: true},
	}

	ledger := &fakeLedger{}
	sink := &recordingSink{}
	orch, err := NewOrchestrator(cfg, collectors, ledger, WithProgressSink(sink))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result, err := orch.Verify(ctx, testClaim())
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrRunCancelled)

	assert.Empty(t, result.Verdict.ID, "a cancelled run produces no verdict")
	assert.Equal(t, 0, ledger.count())
	for _, stage := range domain.Stages {
		assert.Equal(t, domain.StageFailed, result.Stages[stage], "stage %s", stage)
	}

	for _, tr := range sink.all() {
		if tr.To == domain.StageFailed {
			assert.ErrorIs(t, tr.Err, ports.ErrRunCancelled)
		}
	}
}

func TestVerifyDeterministicIDsAndClock(t *testing.T) {
	decidedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{}
	orch, err := NewOrchestrator(DefaultConfig(), defaultCollectors(), ledger,
		WithClock(func() time.Time { return decidedAt }),
		WithIDGenerator(func() string { return "verdict-fixed" }),
	)
	require.NoError(t, err)

	result, err := orch.Verify(context.Background(), testClaim())
	require.NoError(t, err)
	assert.Equal(t, "verdict-fixed", result.Verdict.ID)
	assert.Equal(t, decidedAt, result.Verdict.DecidedAt)
}

func TestVerifyRunsAreIsolated(t *testing.T) {
	// Concurrent runs for different claims share no state: every run
	// gets its own verdict, proofs, and stage machine.
	ledger := &fakeLedger{}
	orch, err := NewOrchestrator(DefaultConfig(), defaultCollectors(), ledger)
	require.NoError(t, err)

	const runs = 8
	var wg sync.WaitGroup
	ids := make([]string, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claim := testClaim()
			claim.ExperienceID = fmt.Sprintf("exp-%d", i)
			result, err := orch.Verify(context.Background(), claim)
			assert.NoError(t, err)
			assert.True(t, result.Verdict.Verified)
			ids[i] = result.Verdict.ID
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, runs)
	for _, id := range ids {
		require.NotEmpty(t, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, runs, "every run minted its own verdict")
	assert.Equal(t, runs, ledger.count())
}
