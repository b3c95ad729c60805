package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

// Orchestrator drives one verification run to completion: it starts the
// three evidence collectors concurrently, reports stage transitions in
// the order they actually happen, aggregates the gathered proofs into a
// verdict, and records verified verdicts on the ledger.
// The orchestrator is stateless across runs and safe for concurrent use;
// each run owns its own stage machine and proof set.
type Orchestrator struct {
	config     Config
	collectors map[domain.EvidenceKind]ports.Collector
	ledger     ports.LedgerRecorder
	aggregator domain.Aggregator
	sink       ports.ProgressSink
	metrics    ports.MetricsCollector
	tracer     trace.Tracer
	now        func() time.Time
	newID      func() string
}

// Option configures optional orchestrator collaborators.
type Option func(*Orchestrator)

// WithProgressSink attaches a stage-transition observer. The sink must
// not block; the orchestrator calls it synchronously on its own path.
func WithProgressSink(sink ports.ProgressSink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(o *Orchestrator) { o.metrics = metrics }
}

// WithAggregator replaces the default mean-of-valid aggregation policy.
func WithAggregator(agg domain.Aggregator) Option {
	return func(o *Orchestrator) { o.aggregator = agg }
}

// WithClock replaces the wall clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator replaces the verdict id generator, for deterministic
// tests.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

// NewOrchestrator creates an orchestrator over exactly the three
// pipeline evidence collectors and a ledger recorder. It returns an
// error when a pipeline kind has no collector, a collector is duplicated
// or foreign to the pipeline, or the ledger is nil.
func NewOrchestrator(
	config Config,
	collectors []ports.Collector,
	ledger ports.LedgerRecorder,
	opts ...Option,
) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, fmt.Errorf("orchestrator: ledger recorder cannot be nil")
	}

	byKind := make(map[domain.EvidenceKind]ports.Collector, len(collectors))
	for _, c := range collectors {
		if c == nil {
			return nil, fmt.Errorf("orchestrator: collector cannot be nil")
		}
		if _, exists := byKind[c.Kind()]; exists {
			return nil, fmt.Errorf("orchestrator: duplicate collector for kind %s", c.Kind())
		}
		byKind[c.Kind()] = c
	}
	for _, kind := range domain.PipelineKinds {
		if _, ok := byKind[kind]; !ok {
			return nil, fmt.Errorf("orchestrator: missing collector for kind %s", kind)
		}
	}
	if len(byKind) != len(domain.PipelineKinds) {
		return nil, fmt.Errorf("orchestrator: %d collectors provided, pipeline takes %d",
			len(byKind), len(domain.PipelineKinds))
	}

	o := &Orchestrator{
		config:     config,
		collectors: byKind,
		ledger:     ledger,
		aggregator: domain.MeanAggregator{},
		tracer:     otel.Tracer("verification-orchestrator"),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// RunResult is the outcome of one verification run. The verdict is
// present whenever the run was not cancelled, including runs that ended
// unverified or whose ledger recording failed.
type RunResult struct {
	// Verdict is the aggregated outcome of the run.
	Verdict domain.Verdict

	// RecordID is the ledger's durable record id, empty unless the
	// verdict verified and recording succeeded.
	RecordID string

	// Stages holds the final state of every stage.
	Stages map[domain.Stage]domain.StageState
}

// stageResult carries one collector's outcome back to the join point.
type stageResult struct {
	kind  domain.EvidenceKind
	proof domain.Proof
	err   error
}

// Verify runs the full pipeline for one claim. The three evidence
// stages execute concurrently, each bounded by its configured timeout;
// a stage failure is contained to that stage and partial evidence still
// aggregates. Cancelling ctx aborts the run as a whole: dispatched
// provider calls run to completion but their results are discarded, all
// non-terminal stages fail with ErrRunCancelled, and no verdict is
// produced. A verified verdict that fails to record surfaces
// ErrLedgerRecording alongside the computed verdict.
func (o *Orchestrator) Verify(ctx context.Context, claim ports.Claim) (RunResult, error) {
	ctx, span := o.tracer.Start(ctx, "verification.run",
		trace.WithAttributes(
			attribute.String("experience.id", claim.ExperienceID),
			attribute.String("user.id", claim.UserID),
		))
	defer span.End()

	run := domain.NewRunState()
	started := make(map[domain.Stage]time.Time, len(domain.Stages))

	// Collector goroutines outlive a cancelled run on purpose: results
	// are discarded at the join, not by tearing down in-flight provider
	// calls. The buffered channel lets stragglers finish and exit.
	results := make(chan stageResult, len(domain.PipelineKinds))
	detached := context.WithoutCancel(ctx)

	var g errgroup.Group
	for _, kind := range domain.PipelineKinds {
		stage := domain.EvidenceStage(kind)
		o.transition(run, stage, domain.StageRunning, started, nil, nil)

		collector := o.collectors[kind]
		timeout := o.config.TimeoutFor(stage)
		g.Go(func() error {
			stageCtx, cancel := context.WithTimeout(detached, timeout)
			defer cancel()

			proof, err := collector.Collect(stageCtx, claim)
			results <- stageResult{kind: kind, proof: proof, err: err}
			return nil
		})
	}

	proofs := make(map[domain.EvidenceKind]*domain.Proof, len(domain.PipelineKinds))
	for pending := len(domain.PipelineKinds); pending > 0; {
		select {
		case <-ctx.Done():
			return o.cancelRun(ctx, run, started)
		case res := <-results:
			pending--
			stage := domain.EvidenceStage(res.kind)
			if res.err != nil {
				o.transition(run, stage, domain.StageFailed, started, nil, res.err)
				continue
			}
			proof := res.proof
			proofs[res.kind] = &proof
			o.transition(run, stage, domain.StageCompleted, started, &proof, nil)
		}
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return o.cancelRun(ctx, run, started)
	}

	// Join point: every evidence stage is terminal, aggregate.
	ordered := make([]*domain.Proof, len(domain.PipelineKinds))
	for i, kind := range domain.PipelineKinds {
		ordered[i] = proofs[kind]
	}
	overall, verified := o.aggregator.Aggregate(ordered)

	verdict := domain.Verdict{
		ID:                o.newID(),
		ExperienceID:      claim.ExperienceID,
		UserID:            claim.UserID,
		Proofs:            ordered,
		OverallConfidence: overall,
		Verified:          verified,
		DecidedAt:         o.now().UTC(),
	}

	span.SetAttributes(
		attribute.Bool("verdict.verified", verified),
		attribute.Float64("verdict.confidence", overall),
	)
	o.countRun(verified)

	result := RunResult{Verdict: verdict, Stages: o.finalStates(run)}
	if !verified {
		return result, nil
	}

	recordID, err := o.recordVerdict(ctx, run, started, verdict)
	result.Stages = o.finalStates(run)
	if err != nil {
		// The verdict stands; only its persistence failed.
		return result, err
	}
	result.RecordID = recordID
	return result, nil
}

// recordVerdict drives the ledger stage for a verified verdict.
func (o *Orchestrator) recordVerdict(
	ctx context.Context,
	run *domain.RunState,
	started map[domain.Stage]time.Time,
	verdict domain.Verdict,
) (string, error) {
	o.transition(run, domain.StageLedgerRecord, domain.StageRunning, started, nil, nil)

	ledgerCtx, cancel := context.WithTimeout(ctx, o.config.TimeoutFor(domain.StageLedgerRecord))
	defer cancel()

	recordID, err := o.ledger.Record(ledgerCtx, verdict)
	if err != nil {
		wrapped := ports.NewLedgerError(verdict.ID, fmt.Errorf("%w: %v", ports.ErrLedgerRecording, err))
		o.transition(run, domain.StageLedgerRecord, domain.StageFailed, started, nil, wrapped)
		return "", wrapped
	}

	o.transition(run, domain.StageLedgerRecord, domain.StageCompleted, started, nil, nil)
	return recordID, nil
}

// cancelRun fails every non-terminal stage with ErrRunCancelled and
// reports the aborted run. No verdict is produced.
func (o *Orchestrator) cancelRun(
	ctx context.Context,
	run *domain.RunState,
	started map[domain.Stage]time.Time,
) (RunResult, error) {
	for _, stage := range run.NonTerminal() {
		o.transition(run, stage, domain.StageFailed, started, nil, ports.ErrRunCancelled)
	}
	o.countRun(false)
	return RunResult{Stages: o.finalStates(run)},
		fmt.Errorf("verification run: %w: %v", ports.ErrRunCancelled, context.Cause(ctx))
}

// transition applies one stage state change, notifies the progress sink
// in actual completion order, and records stage metrics. Transitions are
// serialized on the run's own goroutine, so the run state needs no lock.
func (o *Orchestrator) transition(
	run *domain.RunState,
	stage domain.Stage,
	to domain.StageState,
	started map[domain.Stage]time.Time,
	proof *domain.Proof,
	stageErr error,
) {
	at := o.now().UTC()
	tr, err := run.Transition(stage, to, at)
	if err != nil {
		// The transition table is fixed and the orchestrator only asks
		// for legal moves; a rejection here is a programming error.
		panic(err)
	}
	tr.Proof = proof
	tr.Err = stageErr

	switch to {
	case domain.StageRunning:
		started[stage] = at
	case domain.StageCompleted, domain.StageFailed:
		if o.metrics != nil {
			if startedAt, ok := started[stage]; ok {
				o.metrics.RecordLatency("verification_stage", at.Sub(startedAt),
					map[string]string{"stage": string(stage), "status": string(to)})
			}
			if proof != nil {
				o.metrics.RecordHistogram("proof_confidence", proof.Confidence,
					map[string]string{"kind": string(proof.Kind)})
			}
		}
	}

	if o.sink != nil {
		o.sink.OnStageTransition(tr)
	}
}

func (o *Orchestrator) countRun(verified bool) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordCounter("verification_runs_total", 1,
		map[string]string{"verified": fmt.Sprintf("%t", verified)})
}

func (o *Orchestrator) finalStates(run *domain.RunState) map[domain.Stage]domain.StageState {
	states := make(map[domain.Stage]domain.StageState, len(domain.Stages))
	for _, stage := range domain.Stages {
		states[stage] = run.State(stage)
	}
	return states
}
