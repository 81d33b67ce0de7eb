// internal/interaction/fill_test.go
package interaction

import (
	"context"
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
)

func TestFillInput(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	t.Run("ClearsThenTypes", func(t *testing.T) {
		fake := &fakeExecutor{handler: func(_ context.Context, _ int, actions []chromedp.Action) error {
			if scriptName(actions) == scriptClearInput {
				return respond(actions, scriptOutcome{OK: true})
			}
			return nil
		}}
		h := newTestHelper(t, fake)

		result := h.FillInput(context.Background(), "#challenge-name", "Step Sprint")

		requireResult(t, schemas.ActionResult{Status: schemas.StatusSuccess, Selector: "#challenge-name", Attempts: 1}, result)
		calls := fake.Calls()
		require.Len(t, calls, 2, "prepare and clear, then type")
		assert.Equal(t, []string{scriptClearInput}, calls[0].scripts)
		assert.Empty(t, calls[1].scripts)
	})

	t.Run("EmptyValueOnlyClears", func(t *testing.T) {
		fake := &fakeExecutor{handler: func(_ context.Context, _ int, actions []chromedp.Action) error {
			return respond(actions, scriptOutcome{OK: true})
		}}
		h := newTestHelper(t, fake)

		result := h.FillInput(context.Background(), "#notes", "")

		assert.True(t, result.OK())
		assert.Len(t, fake.Calls(), 1)
	})

	t.Run("ReadOnlyInputFailsAfterRetries", func(t *testing.T) {
		fake := &fakeExecutor{handler: func(_ context.Context, _ int, actions []chromedp.Action) error {
			return respond(actions, scriptOutcome{OK: false, Reason: "element is disabled or read-only"})
		}}
		h := newTestHelper(t, fake)

		result := h.FillInput(context.Background(), "#locked", "x")

		assert.Equal(t, schemas.StatusFailure, result.Status)
		assert.Equal(t, h.cfg.FillRetry.MaxAttempts, result.Attempts)
		assert.Contains(t, result.Message, "read-only")
		requireGaps(t, fake.Calls(), h.cfg.FillRetry.Delay)
	})

	t.Run("NeverVisibleTimesOut", func(t *testing.T) {
		fake := &fakeExecutor{handler: func(ctx context.Context, _ int, _ []chromedp.Action) error {
			<-ctx.Done()
			return ctx.Err()
		}}
		h := newTestHelper(t, fake)

		result := h.FillInput(context.Background(), "#missing", "x")

		assert.Equal(t, schemas.StatusFailure, result.Status)
		assert.Contains(t, result.Message, "fill timed out")
	})

	t.Run("MissingScriptResultIsFailure", func(t *testing.T) {
		fake := &fakeExecutor{}
		h := newTestHelper(t, fake)

		result := h.FillInput(context.Background(), "#name", "x")

		assert.Equal(t, schemas.StatusFailure, result.Status)
		assert.Contains(t, result.Message, "returned no result")
	})
}
