// internal/interaction/click.go
package interaction

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
)

// ClickElement waits for selector to be visible and enabled, then clicks it.
// Before the mouse click, the element under the click point is checked so a
// covered element fails as intercepted instead of clicking whatever is on top.
// Transient failures such as a detached node or an intercepted click are
// retried per the click retry policy within the click timeout.
func (h *Helper) ClickElement(ctx context.Context, selector string) (result schemas.ActionResult) {
	start := time.Now()
	defer h.finish(&result, "click", selector, start)

	opCtx, cancel := context.WithTimeout(ctx, h.cfg.ClickTimeout)
	defer cancel()

	attempts, err := h.retry(opCtx, h.cfg.ClickRetry, "click", selector, func(ctx context.Context) error {
		hit := callScript(scriptHitTest, hitTestJS, selector)
		if err := h.exec.RunActions(ctx,
			chromedp.WaitVisible(selector, chromedp.ByQuery),
			chromedp.WaitEnabled(selector, chromedp.ByQuery),
			chromedp.ScrollIntoView(selector, chromedp.ByQuery),
			hit,
		); err != nil {
			return err
		}
		if err := checkHit(hit); err != nil {
			return err
		}
		return h.exec.RunActions(ctx, chromedp.Click(selector, chromedp.ByQuery))
	})
	if err != nil {
		result = schemas.Failure(selector, "%s", describeError(ctx, opCtx, "click", h.cfg.ClickTimeout, err))
		result.Attempts = attempts
		return result
	}

	result = schemas.Success(selector)
	result.Attempts = attempts
	return result
}

// ClickOrForce tries a standard click and falls back to ForceClickWithRetry,
// using the force-click retry policy, when the standard click fails.
func (h *Helper) ClickOrForce(ctx context.Context, selector string) (result schemas.ActionResult) {
	start := time.Now()
	defer h.finish(&result, "click_or_force", selector, start)

	standard := h.ClickElement(ctx, selector)
	if standard.OK() {
		return standard
	}
	if ctx.Err() != nil {
		return standard
	}

	policy := h.cfg.ForceClickRetry.Normalize()
	forced := h.ForceClickWithRetry(ctx, selector, policy.MaxAttempts, policy.Delay)
	forced.Attempts += standard.Attempts
	if forced.OK() {
		forced.Message = "standard click failed, force click succeeded: " + standard.Message
		return forced
	}
	forced.Message = "standard click: " + standard.Message + "; force click: " + forced.Message
	return forced
}

// checkHit turns a failed hit test into an error. Anything other than an
// invalid selector may clear up on a later attempt.
func checkHit(hit *scriptAction) error {
	var outcome scriptOutcome
	if err := hit.decode(&outcome); err != nil {
		return err
	}
	if outcome.OK {
		return nil
	}
	err := errors.New(outcome.Reason)
	if strings.HasPrefix(outcome.Reason, "invalid selector") {
		return err
	}
	return retryable(err)
}
