// internal/interaction/helper.go
//
// Package interaction drives a single browser tab through resilient element
// interactions. Every operation returns a schemas.ActionResult instead of an
// error: automation failures, timeouts and panics in the automation layer are
// all folded into a failure result so call sites assert on Status uniformly.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
	"github.com/xkilldash9x/vfit-e2e/internal/config"
)

// Executor runs chromedp actions against one tab. browser.Session implements it.
type Executor interface {
	RunActions(ctx context.Context, actions ...chromedp.Action) error
}

// Helper performs resilient interactions against the tab behind an Executor.
// It holds no per-call state and is safe for sequential use by one test.
type Helper struct {
	exec   Executor
	cfg    config.InteractionConfig
	logger *zap.Logger
}

// New creates a Helper. All timeouts and retry policies come from cfg.
func New(exec Executor, cfg config.InteractionConfig, logger *zap.Logger) *Helper {
	return &Helper{
		exec:   exec,
		cfg:    cfg,
		logger: logger.Named("interaction"),
	}
}

// Config returns the interaction settings the helper was built with.
func (h *Helper) Config() config.InteractionConfig {
	return h.cfg
}

// finish is deferred by every public operation. It converts a panic into a
// failure, stamps the duration and logs the outcome.
func (h *Helper) finish(result *schemas.ActionResult, action, selector string, start time.Time) {
	if r := recover(); r != nil {
		*result = schemas.Failure(selector, "%s panicked: %v", action, r)
		h.logger.Error("Recovered panic during interaction.",
			zap.String("action", action), zap.String("selector", selector), zap.Any("panic", r))
	}
	if result.Status == "" {
		*result = schemas.Failure(selector, "%s produced no result", action)
	}
	if result.Selector == "" {
		result.Selector = selector
	}
	result.Duration = time.Since(start)

	fields := []zap.Field{
		zap.String("action", action),
		zap.String("selector", result.Selector),
		zap.String("status", result.Status.String()),
		zap.Int("attempts", result.Attempts),
		zap.Duration("duration", result.Duration),
	}
	if result.OK() {
		h.logger.Debug("Interaction succeeded.", fields...)
		return
	}
	h.logger.Warn("Interaction did not succeed.", append(fields, zap.String("message", result.Message))...)
}

// describeError renders err for a failure message, naming the timeout when the
// operation budget (opCtx) ran out rather than the caller's own context.
func describeError(ctx, opCtx context.Context, action string, timeout time.Duration, err error) string {
	switch {
	case ctx.Err() != nil:
		return fmt.Sprintf("%s canceled: %v", action, ctx.Err())
	case errors.Is(opCtx.Err(), context.DeadlineExceeded):
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return fmt.Sprintf("%s timed out after %v: %v", action, timeout, err)
		}
		return fmt.Sprintf("%s timed out after %v", action, timeout)
	case err != nil:
		return fmt.Sprintf("%s failed: %v", action, err)
	default:
		return action + " failed"
	}
}
