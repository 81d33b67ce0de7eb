// internal/interaction/retry.go
package interaction

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
)

// Error text fragments that no amount of retrying will fix. chromedp reports a
// selector rejected by DOM.querySelector as a cdproto.Error with the message
// "DOM Error while querying".
var permanentMarkers = []string{
	"dom error while querying",
	"is not a valid selector",
	"invalid selector",
	"syntaxerror",
	"target closed",
	"invalid context",
}

// retryableError marks an error as worth another attempt regardless of its text.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// isTransient reports whether err is worth another attempt.
func isTransient(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	var r *retryableError
	if errors.As(err, &r) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, chromedp.ErrInvalidTarget) || errors.Is(err, chromedp.ErrInvalidContext) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range permanentMarkers {
		if strings.Contains(msg, marker) {
			return false
		}
	}
	return true
}

// retry runs op until it succeeds, fails permanently, the policy is exhausted
// or ctx ends. It returns the number of attempts made and the last error from op.
func (h *Helper) retry(ctx context.Context, policy schemas.RetryPolicy, action, selector string, op func(ctx context.Context) error) (int, error) {
	policy = policy.Normalize()

	var b backoff.BackOff = backoff.NewConstantBackOff(policy.Delay)
	b = backoff.WithMaxRetries(b, uint64(policy.MaxAttempts-1))
	b = backoff.WithContext(b, ctx)

	attempts := 0
	var lastErr error
	err := backoff.RetryNotify(func() error {
		attempts++
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !isTransient(ctx, lastErr) {
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}, b, func(err error, wait time.Duration) {
		h.logger.Debug("Retrying action.",
			zap.String("action", action),
			zap.String("selector", selector),
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", policy.MaxAttempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	if err == nil {
		return attempts, nil
	}
	// RetryNotify reports ctx.Err() once the context ends; keep the underlying cause.
	if lastErr != nil {
		return attempts, lastErr
	}
	return attempts, err
}
