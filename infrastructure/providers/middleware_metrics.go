package providers

import (
	"context"
	"time"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

// metricsClient records fetch latency and outcome counters through the
// injected collector.
type metricsClient struct {
	next    ports.ProviderClient
	metrics ports.MetricsCollector
}

// MetricsMiddleware creates middleware that instruments provider fetches.
func MetricsMiddleware(metrics ports.MetricsCollector) Middleware {
	return func(next ports.ProviderClient) ports.ProviderClient {
		return &metricsClient{next: next, metrics: metrics}
	}
}

// Fetch delegates and records latency plus a success/failure counter.
func (m *metricsClient) Fetch(ctx context.Context, claim ports.Claim) (ports.RawEvidence, error) {
	start := time.Now()
	raw, err := m.next.Fetch(ctx, claim)

	labels := map[string]string{"kind": string(m.next.Kind())}
	m.metrics.RecordLatency("provider_fetch", time.Since(start), labels)

	status := "ok"
	if err != nil {
		status = "error"
	}
	m.metrics.RecordCounter("provider_fetches_total", 1,
		map[string]string{"kind": string(m.next.Kind()), "status": status})

	return raw, err
}

// Kind reports the wrapped provider's evidence kind.
func (m *metricsClient) Kind() domain.EvidenceKind { return m.next.Kind() }
