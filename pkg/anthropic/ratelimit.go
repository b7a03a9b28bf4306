package anthropic

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// rateLimitedClient wraps a Client with a request-rate limiter so portfolio
// report fan-out stays inside the account's rate limit.
type rateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

// NewRateLimited wraps client so at most requestsPerMinute CreateMessage
// calls start per minute. A non-positive rate returns the client unchanged.
func NewRateLimited(client Client, requestsPerMinute int) Client {
	if requestsPerMinute <= 0 {
		return client
	}
	return &rateLimitedClient{
		inner:   client,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
	}
}

func (c *rateLimitedClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "anthropic: rate limit wait")
	}
	return c.inner.CreateMessage(ctx, req)
}
