package providers

import (
	"context"
	"time"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

// timeoutClient bounds every fetch with its own timeout, independent of
// the orchestrator's stage timeout. It keeps a misbehaving provider from
// consuming the whole stage budget.
type timeoutClient struct {
	next    ports.ProviderClient
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that enforces a per-fetch timeout.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next ports.ProviderClient) ports.ProviderClient {
		return &timeoutClient{next: next, timeout: timeout}
	}
}

// Fetch executes the fetch with a timeout context.
func (t *timeoutClient) Fetch(ctx context.Context, claim ports.Claim) (ports.RawEvidence, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Fetch(ctx, claim)
}

// Kind reports the wrapped provider's evidence kind.
func (t *timeoutClient) Kind() domain.EvidenceKind { return t.next.Kind() }
