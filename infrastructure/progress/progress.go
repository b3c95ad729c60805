// Package progress contains ProgressSink implementations. Sinks observe
// stage transitions in the order they actually happen; every sink here
// hands the transition off to its own goroutine so the orchestrator
// never waits on a slow consumer.
package progress

import (
	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

// DefaultBuffer is the transition buffer size used when a sink is
// constructed with a non-positive buffer.
const DefaultBuffer = 64

var _ ports.ProgressSink = (*AsyncSink)(nil)

// AsyncSink decouples the orchestrator from any downstream consumer
// with a buffered channel. When the buffer is full the transition is
// dropped rather than blocking the run; progress reporting is
// best-effort by contract.
type AsyncSink struct {
	ch   chan domain.StageTransition
	done chan struct{}
}

// NewAsyncSink starts a sink that feeds each transition to deliver on a
// dedicated goroutine. Close the sink to stop the goroutine once the
// channel drains.
func NewAsyncSink(buffer int, deliver func(domain.StageTransition)) *AsyncSink {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &AsyncSink{
		ch:   make(chan domain.StageTransition, buffer),
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		for tr := range s.ch {
			deliver(tr)
		}
	}()
	return s
}

// OnStageTransition implements ports.ProgressSink without blocking.
func (s *AsyncSink) OnStageTransition(tr domain.StageTransition) {
	select {
	case s.ch <- tr:
	default:
		// Buffer full: drop. The run must not wait on observers.
	}
}

// Close stops accepting transitions and waits for buffered ones to be
// delivered.
func (s *AsyncSink) Close() {
	close(s.ch)
	<-s.done
}

// transitionEvent is the serialized form of a stage transition shared by
// the structured-log and Kafka sinks.
type transitionEvent struct {
	Stage      domain.Stage      `json:"stage"`
	From       domain.StageState `json:"from"`
	To         domain.StageState `json:"to"`
	Error      string            `json:"error,omitempty"`
	Confidence *float64          `json:"confidence,omitempty"`
	At         string            `json:"at"`
}

func newTransitionEvent(tr domain.StageTransition) transitionEvent {
	event := transitionEvent{
		Stage: tr.Stage,
		From:  tr.From,
		To:    tr.To,
		At:    tr.At.UTC().Format("2006-01-02T15:04:05.000000000Z"),
	}
	if tr.Err != nil {
		event.Error = tr.Err.Error()
	}
	if tr.Proof != nil {
		confidence := tr.Proof.Confidence
		event.Confidence = &confidence
	}
	return event
}
