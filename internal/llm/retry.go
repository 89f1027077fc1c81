package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// RetryClient wraps a Client with exponential backoff on transport failures.
// The evaluation pipeline itself never retries; this wrapper is applied only
// when the model config opts in.
type RetryClient struct {
	inner      Client
	maxElapsed time.Duration
	logger     *zerolog.Logger
}

func NewRetryClient(inner Client, maxElapsed time.Duration, logger *zerolog.Logger) *RetryClient {
	if maxElapsed == 0 {
		maxElapsed = 30 * time.Second
	}
	return &RetryClient{inner: inner, maxElapsed: maxElapsed, logger: logger}
}

func (c *RetryClient) Invoke(ctx context.Context, request Request) (*Response, error) {
	var resp *Response

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.maxElapsed

	operation := func() error {
		var err error
		resp, err = c.inner.Invoke(ctx, request)
		if err != nil {
			c.logger.Warn().Err(err).Msg("model invocation failed, retrying")
		}
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

// Stream delegates without retry: a broken stream must be re-triggered by
// the operator, not silently restarted mid-render.
func (c *RetryClient) Stream(ctx context.Context, request Request, onSnapshot func(string)) error {
	if s, ok := c.inner.(StreamClient); ok {
		return s.Stream(ctx, request, onSnapshot)
	}
	return ErrNoStream
}
