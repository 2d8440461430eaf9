package genai

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/angelmondragon/genmedia-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
)

type backoffPolicy struct {
	b        backoff.BackOff
	attempts uint
}

func newBackoffPolicy(cfg config.GenAIConfig) backoffPolicy {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.RetryBaseDelay
	b.MaxInterval = cfg.RetryMaxDelay
	b.Multiplier = 2
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoffPolicy{b: b, attempts: uint(attempts)}
}

// withRetry runs fn until it succeeds, fails permanently, or the attempt
// budget is spent. Exhausted transient failures come back as TRANSIENT_REMOTE.
func withRetry[T any](ctx context.Context, c *Client, operation string, fn func() (T, error)) (T, error) {
	policy := c.newPolicy()
	attempt := 0
	result, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		out, err := fn()
		if err == nil {
			return out, nil
		}
		if !isTransient(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	},
		backoff.WithBackOff(policy.b),
		backoff.WithMaxTries(policy.attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			if c.onRetry != nil {
				c.onRetry(operation)
			}
			if c.logg != nil {
				logCtx := c.logg.WithFields(ctx, map[string]any{
					"operation": operation,
					"attempt":   attempt,
					"next_in":   next.String(),
				})
				c.logg.Warn(logCtx, "retrying vertex call: "+err.Error())
			}
		}),
	)
	if err == nil {
		return result, nil
	}
	if isTransient(err) {
		return result, pkgerrors.Wrap(pkgerrors.CodeTransientRemote, err, operation+" failed after retries")
	}
	return result, err
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
