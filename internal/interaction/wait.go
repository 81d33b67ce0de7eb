// internal/interaction/wait.go
package interaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
)

// WaitForElement polls until selector is present and visible. It succeeds as
// soon as the condition holds and fails once timeout elapses. A non-positive
// timeout uses the configured default.
func (h *Helper) WaitForElement(ctx context.Context, selector string, timeout time.Duration) (result schemas.ActionResult) {
	start := time.Now()
	defer h.finish(&result, "wait", selector, start)

	if timeout <= 0 {
		timeout = h.cfg.DefaultWaitTimeout
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var last elementState
	polls, err := h.poll(opCtx, func(ctx context.Context) (bool, error) {
		state, err := h.readElement(ctx, selector)
		if err != nil {
			if state.Invalid {
				last = state
			}
			return false, err
		}
		last = state
		return state.Visible, nil
	})
	if err != nil {
		msg := describeError(ctx, opCtx, "wait", timeout, err)
		switch {
		case last.Invalid:
		case !last.Found:
			msg += ": element not found"
		case !last.Visible:
			msg += ": element present but not visible"
		}
		result = schemas.Failure(selector, "%s", msg)
		result.Attempts = polls
		return result
	}

	result = schemas.Success(selector)
	result.Attempts = polls
	return result
}

// readElement evaluates element_state.js for selector.
func (h *Helper) readElement(ctx context.Context, selector string) (elementState, error) {
	script := callScript(scriptElementState, elementStateJS, selector)
	if err := h.exec.RunActions(ctx, script); err != nil {
		return elementState{}, err
	}
	var state elementState
	if err := script.decode(&state); err != nil {
		return elementState{}, err
	}
	if state.Invalid {
		return state, errors.New(state.Error)
	}
	return state, nil
}

// poll calls check every PollInterval until it reports done, returns a
// non-transient error, or ctx ends. Each check is bounded by ScriptTimeout.
// It returns the number of checks made.
func (h *Helper) poll(ctx context.Context, check func(ctx context.Context) (bool, error)) (int, error) {
	limiter := rate.NewLimiter(rate.Every(h.cfg.PollInterval), 1)
	polls := 0
	for {
		if err := limiter.Wait(ctx); err != nil {
			// Wait fails early when the next tick lies past the deadline; the
			// condition is still reported as timing out at the deadline.
			<-ctx.Done()
			return polls, ctx.Err()
		}

		polls++
		checkCtx, cancel := context.WithTimeout(ctx, h.cfg.ScriptTimeout)
		done, err := check(checkCtx)
		cancel()

		if err == nil && done {
			return polls, nil
		}
		if err != nil && ctx.Err() == nil && !errors.Is(err, context.DeadlineExceeded) && !isTransient(ctx, err) {
			return polls, fmt.Errorf("giving up after %d checks: %w", polls, err)
		}
	}
}
