package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

// rateLimitedClient throttles fetches with a token bucket so bursts of
// verification runs cannot hammer an external provider past its quota.
type rateLimitedClient struct {
	next    ports.ProviderClient
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that limits fetches to rps
// requests per second with the given burst size.
func RateLimitMiddleware(rps float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next ports.ProviderClient) ports.ProviderClient {
		return &rateLimitedClient{next: next, limiter: limiter}
	}
}

// Fetch waits for a token before delegating. A context that expires
// while waiting surfaces as a provider timeout for the stage report.
func (r *rateLimitedClient) Fetch(ctx context.Context, claim ports.Claim) (ports.RawEvidence, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ports.RawEvidence{}, ports.NewProviderError(r.next.Kind(), "rate_limit",
			fmt.Errorf("%w: %v", ports.ErrProviderTimeout, err))
	}
	return r.next.Fetch(ctx, claim)
}

// Kind reports the wrapped provider's evidence kind.
func (r *rateLimitedClient) Kind() domain.EvidenceKind { return r.next.Kind() }
