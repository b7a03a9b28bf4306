package anthropic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		name  string
		usage TokenUsage
		model string
		want  float64
	}{
		{
			name:  "sonnet input and output",
			usage: TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000},
			model: "claude-sonnet-4-5-20250929",
			want:  18.00,
		},
		{
			name:  "haiku with cache read",
			usage: TokenUsage{InputTokens: 500_000, CacheReadInputTokens: 1_000_000},
			model: "claude-haiku-4-5-20251001",
			want:  0.40 + 0.08,
		},
		{
			name:  "cache write surcharge",
			usage: TokenUsage{CacheCreationInputTokens: 1_000_000},
			model: "claude-sonnet-4-5-20250929",
			want:  3.75,
		},
		{
			name:  "unknown model",
			usage: TokenUsage{InputTokens: 1_000_000},
			model: "gpt-4",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.usage.EstimateCost(tt.model), 1e-9)
		})
	}
}

func TestBuildCachedSystemBlocks(t *testing.T) {
	blocks := BuildCachedSystemBlocks("analysis prompt")
	require.Len(t, blocks, 1)
	assert.Equal(t, "analysis prompt", blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "part one "},
		{Type: "tool_use", Text: "ignored"},
		{Type: "text", Text: "part two"},
	}}
	assert.Equal(t, "part one part two", resp.Text())
}

type countingClient struct {
	calls int
}

func (c *countingClient) CreateMessage(_ context.Context, _ MessageRequest) (*MessageResponse, error) {
	c.calls++
	return &MessageResponse{}, nil
}

func TestNewRateLimited(t *testing.T) {
	t.Run("zero rate passes through unchanged", func(t *testing.T) {
		inner := &countingClient{}
		assert.Same(t, Client(inner), NewRateLimited(inner, 0))
	})

	t.Run("delegates to inner client", func(t *testing.T) {
		inner := &countingClient{}
		limited := NewRateLimited(inner, 600)

		_, err := limited.CreateMessage(context.Background(), MessageRequest{})
		require.NoError(t, err)
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("cancelled context stops the wait", func(t *testing.T) {
		inner := &countingClient{}
		limited := NewRateLimited(inner, 1)

		ctx, cancel := context.WithCancel(context.Background())
		_, err := limited.CreateMessage(ctx, MessageRequest{}) // consumes the single burst token
		require.NoError(t, err)

		cancel()
		_, err = limited.CreateMessage(ctx, MessageRequest{})
		require.Error(t, err)
		assert.Equal(t, 1, inner.calls)
	})
}

func TestToSDKMessages(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
}
