package chatapi

import (
	"context"
	"errors"

	"github.com/relaykit/agentmcp/agent"
)

// ChatCompleter is the surface *Client implements; agentloop depends on
// this rather than the concrete type so a retrying decorator is a drop-in
// replacement.
type ChatCompleter interface {
	Chat(ctx context.Context, messages []agent.Message, tools []agent.ToolDefinition, decoding *DecodingConfig) (agent.Message, error)
}

var _ ChatCompleter = (*Client)(nil)

// RetryConfig controls WithRetry's attempt count and retry predicate. The
// chat client itself never retries (spec §4.7); this decorator is the
// higher layer the spec leaves unspecified.
type RetryConfig struct {
	MaxAttempts int
	ShouldRetry func(error) bool
}

// WithRetry wraps next with deterministic, error-only retries. The default
// predicate (ShouldRetry == nil) retries only 5xx UpstreamErrors, never a
// transport error, a validation failure, or a context cancellation.
func WithRetry(next ChatCompleter, cfg RetryConfig) ChatCompleter {
	if next == nil {
		return nil
	}
	return &retryingClient{next: next, cfg: cfg}
}

type retryingClient struct {
	next ChatCompleter
	cfg  RetryConfig
}

func (r *retryingClient) Chat(ctx context.Context, messages []agent.Message, tools []agent.ToolDefinition, decoding *DecodingConfig) (agent.Message, error) {
	if err := ctx.Err(); err != nil {
		return agent.Message{}, err
	}

	attempts := normalizedAttempts(r.cfg.MaxAttempts)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		msg, err := r.next.Chat(ctx, messages, tools, decoding)
		if err == nil {
			return msg, nil
		}
		lastErr = err
		if attempt == attempts || !shouldRetryChat(ctx, r.cfg, err) {
			break
		}
	}
	return agent.Message{}, lastErr
}

func normalizedAttempts(maxAttempts int) int {
	if maxAttempts < 1 {
		return 1
	}
	return maxAttempts
}

func shouldRetryChat(ctx context.Context, cfg RetryConfig, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if cfg.ShouldRetry != nil {
		return cfg.ShouldRetry(err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.StatusCode >= 500
	}
	return false
}
