// Package providers contains evidence provider clients and the
// middleware that wraps them: per-call timeouts, rate limiting, metrics,
// and tracing. Real deployments inject their own clients; the simulated
// clients here stand in for the external location, payment, and social
// integrations.
package providers

import (
	"github.com/truthstream/verity/internal/ports"
)

// Middleware wraps a ProviderClient with additional behavior.
type Middleware func(ports.ProviderClient) ports.ProviderClient

// Chain applies middlewares so the first one listed is the outermost.
func Chain(client ports.ProviderClient, middlewares ...Middleware) ports.ProviderClient {
	for i := len(middlewares) - 1; i >= 0; i-- {
		client = middlewares[i](client)
	}
	return client
}
