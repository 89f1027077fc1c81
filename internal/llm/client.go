package llm

import (
	"context"
	"errors"
)

// ErrNoStream reports a provider without incremental delivery; callers fall
// back to the one-shot path.
var ErrNoStream = errors.New("provider does not support streaming")

// Client is an interface for invoking chat models.
// This allows mocking in tests without making real API calls.
type Client interface {
	Invoke(ctx context.Context, request Request) (*Response, error)
}

// StreamClient is implemented by providers that support incremental
// delivery. The callback receives the entire accumulated content so far on
// every increment, not a delta; the call returns once the stream ends.
type StreamClient interface {
	Client
	Stream(ctx context.Context, request Request, onSnapshot func(accumulated string)) error
}
