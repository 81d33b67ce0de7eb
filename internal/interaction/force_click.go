// internal/interaction/force_click.go
package interaction

import (
	"context"
	"errors"
	"time"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
)

// ForceClickWithRetry clicks selector through the DOM (force_click.js) for
// elements a pointer click cannot reach. It makes at most attempts tries with
// delay between them and succeeds on the first try that lands. Every script
// level failure is retried; only context cancellation stops early.
func (h *Helper) ForceClickWithRetry(ctx context.Context, selector string, attempts int, delay time.Duration) (result schemas.ActionResult) {
	start := time.Now()
	defer h.finish(&result, "force_click", selector, start)

	policy := schemas.RetryPolicy{MaxAttempts: attempts, Delay: delay}
	if err := policy.Validate(); err != nil {
		return schemas.Failure(selector, "invalid force click policy: %v", err)
	}

	made, err := h.retry(ctx, policy, "force_click", selector, func(ctx context.Context) error {
		scriptCtx, cancel := context.WithTimeout(ctx, h.cfg.ScriptTimeout)
		defer cancel()

		script := callScript(scriptForceClick, forceClickJS, selector)
		if err := h.exec.RunActions(scriptCtx, script); err != nil {
			return retryable(err)
		}
		var outcome scriptOutcome
		if err := script.decode(&outcome); err != nil {
			return retryable(err)
		}
		if !outcome.OK {
			return retryable(errors.New(outcome.Reason))
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			result = schemas.Failure(selector, "force click canceled after %d attempts: %v", made, ctx.Err())
		} else {
			result = schemas.Failure(selector, "force click failed after %d attempts: %v", made, err)
		}
		result.Attempts = made
		return result
	}

	result = schemas.Success(selector)
	result.Attempts = made
	return result
}
