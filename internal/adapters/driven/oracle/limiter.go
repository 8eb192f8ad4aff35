package oracle

import (
	"context"
	"errors"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
	"github.com/custodia-labs/licita-cli/internal/logger"
)

// Ensure LimitedClient implements the interface.
var _ driven.OracleClient = (*LimitedClient)(nil)

// RetryBaseDelay is the first backoff after a temporary failure.
// It doubles on each attempt.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 3

// temporary is implemented by errors that may clear on retry.
type temporary interface {
	Temporary() bool
}

// LimitedClient paces calls to an oracle client and retries rate-limit
// and server errors with exponential backoff.
type LimitedClient struct {
	inner      driven.OracleClient
	bucket     *rate.Limiter
	maxRetries int
}

// NewLimitedClient wraps inner. A non-positive perMinute disables pacing.
func NewLimitedClient(inner driven.OracleClient, perMinute int) *LimitedClient {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &LimitedClient{
		inner:      inner,
		bucket:     rate.NewLimiter(limit, 1),
		maxRetries: defaultMaxRetries,
	}
}

// Chat waits for a token, then calls the inner client.
func (l *LimitedClient) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * RetryBaseDelay
			logger.Debug("oracle retry %d/%d in %v: %v", attempt, l.maxRetries, backoff, lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
		if err := l.bucket.Wait(ctx); err != nil {
			return "", err
		}

		reply, err := l.inner.Chat(ctx, messages, opts)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		var t temporary
		if !errors.As(err, &t) || !t.Temporary() {
			return "", err
		}
	}
	return "", lastErr
}

// ModelName returns the inner model name.
func (l *LimitedClient) ModelName() string { return l.inner.ModelName() }

// Ping is not rate limited.
func (l *LimitedClient) Ping(ctx context.Context) error { return l.inner.Ping(ctx) }

// Close closes the inner client.
func (l *LimitedClient) Close() error { return l.inner.Close() }
