package domain

import (
	"time"
)

// Stage is one unit of work in the verification run's state machine:
// one evidence kind, or the final ledger-recording step.
type Stage string

// The four stages of a verification run, in declaration order.
const (
	StageLocation     Stage = "location"
	StagePayment      Stage = "payment"
	StageSocial       Stage = "social"
	StageLedgerRecord Stage = "ledger_record"
)

// Stages lists every stage of a run in declaration order.
var Stages = [4]Stage{StageLocation, StagePayment, StageSocial, StageLedgerRecord}

// EvidenceStage maps an evidence kind onto its pipeline stage.
func EvidenceStage(kind EvidenceKind) Stage {
	switch kind {
	case KindLocation:
		return StageLocation
	case KindPayment:
		return StagePayment
	case KindSocial:
		return StageSocial
	default:
		return Stage(kind)
	}
}

// StageState is the lifecycle state of a single stage within one run.
type StageState string

// Stage lifecycle states. Completed and Failed are terminal.
const (
	StagePending   StageState = "pending"
	StageRunning   StageState = "running"
	StageCompleted StageState = "completed"
	StageFailed    StageState = "failed"
)

// Terminal reports whether the state is a terminal state.
func (s StageState) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// legalTransitions encodes the only state changes a stage may make.
var legalTransitions = map[StageState][]StageState{
	StagePending: {StageRunning, StageFailed},
	StageRunning: {StageCompleted, StageFailed},
}

// StageTransition is one observed state change of a stage. Completed
// transitions carry the stage's proof; failed transitions carry the
// error that ended the stage.
type StageTransition struct {
	Stage Stage
	From  StageState
	To    StageState

	// Proof is set only on transitions to Completed for evidence stages.
	Proof *Proof

	// Err is set only on transitions to Failed.
	Err error

	// At records when the transition happened.
	At time.Time
}

// RunState tracks the per-stage states of a single verification run.
// The three evidence stages start Running simultaneously; LedgerRecord
// stays Pending until every evidence stage is terminal. RunState is not
// safe for concurrent use; the orchestrator serializes access to it.
type RunState struct {
	states map[Stage]StageState
}

// NewRunState creates a run state with all four stages Pending.
func NewRunState() *RunState {
	states := make(map[Stage]StageState, len(Stages))
	for _, stage := range Stages {
		states[stage] = StagePending
	}
	return &RunState{states: states}
}

// State returns the current state of the given stage.
func (r *RunState) State(stage Stage) StageState { return r.states[stage] }

// Transition moves a stage to the requested state, enforcing the legal
// transition table, and returns the observed transition. Moving a stage
// out of a terminal state fails with ErrInvalidTransition.
func (r *RunState) Transition(stage Stage, to StageState, at time.Time) (StageTransition, error) {
	from := r.states[stage]
	allowed := false
	for _, next := range legalTransitions[from] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return StageTransition{}, &TransitionError{Stage: stage, From: from, To: to}
	}

	r.states[stage] = to
	return StageTransition{Stage: stage, From: from, To: to, At: at}, nil
}

// EvidenceTerminal reports whether all three evidence stages have
// reached a terminal state, which is the join point before aggregation.
func (r *RunState) EvidenceTerminal() bool {
	for _, kind := range PipelineKinds {
		if !r.states[EvidenceStage(kind)].Terminal() {
			return false
		}
	}
	return true
}

// NonTerminal returns the stages that have not reached a terminal state,
// in declaration order. Used when a cancelled run fails out the rest of
// its stages.
func (r *RunState) NonTerminal() []Stage {
	var out []Stage
	for _, stage := range Stages {
		if !r.states[stage].Terminal() {
			out = append(out, stage)
		}
	}
	return out
}
