package anthropic

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyClient fails a fixed number of times before succeeding.
type flakyClient struct {
	failures int
	calls    int
}

func (f *flakyClient) CreateMessage(_ context.Context, _ MessageRequest) (*MessageResponse, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, eris.New("anthropic: overloaded")
	}
	return &MessageResponse{ID: "msg-1"}, nil
}

func TestNewRetrying_SucceedsAfterTransientFailures(t *testing.T) {
	inner := &flakyClient{failures: 2}
	client := NewRetrying(inner)

	resp, err := client.CreateMessage(context.Background(), MessageRequest{})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", resp.ID)
	assert.Equal(t, 3, inner.calls)
}

func TestNewRetrying_ExhaustsAttempts(t *testing.T) {
	inner := &flakyClient{failures: 10}
	client := NewRetrying(inner)

	_, err := client.CreateMessage(context.Background(), MessageRequest{})
	require.Error(t, err)
	assert.Equal(t, retryAttempts, inner.calls)
}

func TestNewRetrying_StopsOnCancelledContext(t *testing.T) {
	inner := &flakyClient{failures: 10}
	client := NewRetrying(inner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.CreateMessage(ctx, MessageRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls, "no retries after cancellation")
}

func TestRetryBackoff_GrowsAndStaysBounded(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		d := retryBackoff(attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		// Cap plus maximum jitter.
		assert.LessOrEqual(t, d, retryMaxBackoff+time.Duration(float64(retryMaxBackoff)*retryJitterFraction))
	}
}
