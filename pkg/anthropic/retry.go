package anthropic

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

const (
	retryAttempts       = 3
	retryInitialBackoff = 500 * time.Millisecond
	retryMaxBackoff     = 30 * time.Second
	retryMultiplier     = 2.0
	retryJitterFraction = 0.25
)

// retryingClient retries failed CreateMessage calls with exponential backoff
// and jitter. Context cancellation stops retries immediately.
type retryingClient struct {
	inner Client
}

// NewRetrying wraps client with retry-on-failure semantics for transient API
// errors.
func NewRetrying(client Client) Client {
	return &retryingClient{inner: client}
}

func (c *retryingClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		resp, err := c.inner.CreateMessage(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, lastErr
		}
		if attempt >= retryAttempts-1 {
			break
		}

		zap.L().Warn("anthropic: create message failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)

		timer := time.NewTimer(retryBackoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, lastErr
		case <-timer.C:
		}
	}
	return nil, lastErr
}

// retryBackoff computes the delay before the given retry with ±25% jitter.
func retryBackoff(attempt int) time.Duration {
	delay := float64(retryInitialBackoff) * math.Pow(retryMultiplier, float64(attempt))
	if delay > float64(retryMaxBackoff) {
		delay = float64(retryMaxBackoff)
	}

	jitterRange := delay * retryJitterFraction
	delay += (rand.Float64()*2 - 1) * jitterRange
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
