// internal/interaction/fill.go
package interaction

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
)

// FillInput waits for the input to be visible, clears it and types value.
func (h *Helper) FillInput(ctx context.Context, selector, value string) (result schemas.ActionResult) {
	start := time.Now()
	defer h.finish(&result, "fill", selector, start)

	opCtx, cancel := context.WithTimeout(ctx, h.cfg.FillTimeout)
	defer cancel()

	attempts, err := h.retry(opCtx, h.cfg.FillRetry, "fill", selector, func(ctx context.Context) error {
		clearScript := callScript(scriptClearInput, clearInputJS, selector)
		if err := h.exec.RunActions(ctx,
			chromedp.WaitVisible(selector, chromedp.ByQuery),
			chromedp.ScrollIntoView(selector, chromedp.ByQuery),
			clearScript,
		); err != nil {
			return err
		}

		var outcome scriptOutcome
		if err := clearScript.decode(&outcome); err != nil {
			return err
		}
		if !outcome.OK {
			return errors.New(outcome.Reason)
		}

		if value == "" {
			return nil
		}
		return h.exec.RunActions(ctx, chromedp.SendKeys(selector, value, chromedp.ByQuery))
	})
	if err != nil {
		result = schemas.Failure(selector, "%s", describeError(ctx, opCtx, "fill", h.cfg.FillTimeout, err))
		result.Attempts = attempts
		return result
	}

	result = schemas.Success(selector)
	result.Attempts = attempts
	return result
}
