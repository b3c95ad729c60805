package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/truthstream/verity/internal/domain"
)

// KafkaSink publishes stage transitions to a Kafka topic so downstream
// consumers (activity feeds, audit trails) can follow verification
// progress. Publishing is fire-and-forget: produce errors are logged,
// never surfaced to the run.
type KafkaSink struct {
	*AsyncSink
	client *kgo.Client
}

// NewKafkaSink creates a sink producing to topic on the given brokers.
// The transition key is the stage name so per-stage ordering holds
// within a partition.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("progress: kafka sink needs at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("progress: kafka sink needs a topic")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("progress: creating kafka client: %w", err)
	}

	sink := &KafkaSink{client: client}
	sink.AsyncSink = NewAsyncSink(DefaultBuffer, func(tr domain.StageTransition) {
		payload, err := json.Marshal(newTransitionEvent(tr))
		if err != nil {
			logger.Warn("encoding stage transition", slog.String("error", err.Error()))
			return
		}
		record := &kgo.Record{Key: []byte(tr.Stage), Value: payload}
		client.Produce(context.Background(), record, func(_ *kgo.Record, err error) {
			if err != nil {
				logger.Warn("publishing stage transition",
					slog.String("stage", string(tr.Stage)),
					slog.String("error", err.Error()))
			}
		})
	})
	return sink, nil
}

// Close flushes buffered transitions and shuts the producer down.
func (s *KafkaSink) Close() {
	s.AsyncSink.Close()
	s.client.Flush(context.Background())
	s.client.Close()
}
