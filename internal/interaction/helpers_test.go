// internal/interaction/helpers_test.go
package interaction

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
	"github.com/xkilldash9x/vfit-e2e/internal/config"
)

// fakeCall records one RunActions invocation.
type fakeCall struct {
	at      time.Time
	scripts []string
	actions int
}

// fakeExecutor stands in for a browser tab. Scripts are answered by handler;
// every other chromedp action is accepted without being run. Hit tests the
// handler leaves unanswered report the element as unobstructed.
type fakeExecutor struct {
	mu      sync.Mutex
	calls   []fakeCall
	handler func(ctx context.Context, call int, actions []chromedp.Action) error
}

func (f *fakeExecutor) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	f.mu.Lock()
	n := len(f.calls)
	call := fakeCall{at: time.Now(), actions: len(actions)}
	for _, a := range actions {
		if s, ok := a.(*scriptAction); ok {
			call.scripts = append(call.scripts, s.name)
		}
	}
	f.calls = append(f.calls, call)
	handler := f.handler
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if handler != nil {
		if err := handler(ctx, n, actions); err != nil {
			return err
		}
	}
	for _, a := range actions {
		if s, ok := a.(*scriptAction); ok && s.name == scriptHitTest && s.raw == nil {
			s.raw = []byte(`{"ok":true,"reason":""}`)
		}
	}
	return nil
}

func (f *fakeExecutor) Calls() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// respond stores v as the JSON result of the first script among actions.
func respond(actions []chromedp.Action, v interface{}) error {
	for _, a := range actions {
		if s, ok := a.(*scriptAction); ok {
			raw, err := json.Marshal(v)
			if err != nil {
				return err
			}
			s.raw = raw
			return nil
		}
	}
	return nil
}

// scriptName returns the name of the first script among actions, or "".
func scriptName(actions []chromedp.Action) string {
	for _, a := range actions {
		if s, ok := a.(*scriptAction); ok {
			return s.name
		}
	}
	return ""
}

func testInteractionConfig() config.InteractionConfig {
	return config.InteractionConfig{
		ClickTimeout:       500 * time.Millisecond,
		FillTimeout:        500 * time.Millisecond,
		UploadTimeout:      500 * time.Millisecond,
		AssertTimeout:      300 * time.Millisecond,
		DefaultWaitTimeout: 300 * time.Millisecond,
		ScriptTimeout:      100 * time.Millisecond,
		PollInterval:       10 * time.Millisecond,
		ClickRetry:         schemas.RetryPolicy{MaxAttempts: 3, Delay: 20 * time.Millisecond},
		FillRetry:          schemas.RetryPolicy{MaxAttempts: 2, Delay: 20 * time.Millisecond},
		ForceClickRetry:    schemas.RetryPolicy{MaxAttempts: 4, Delay: 20 * time.Millisecond},
	}
}

func newTestHelper(t *testing.T, fake *fakeExecutor) *Helper {
	t.Helper()
	return New(fake, testInteractionConfig(), zaptest.NewLogger(t))
}

// ignoreDuration compares results without their wall-clock duration.
var ignoreDuration = cmpopts.IgnoreFields(schemas.ActionResult{}, "Duration")

func requireResult(t *testing.T, want, got schemas.ActionResult) {
	t.Helper()
	if diff := cmp.Diff(want, got, ignoreDuration); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
}

// requireGaps asserts consecutive calls are at least min apart.
func requireGaps(t *testing.T, calls []fakeCall, min time.Duration) {
	t.Helper()
	for i := 1; i < len(calls); i++ {
		gap := calls[i].at.Sub(calls[i-1].at)
		require.GreaterOrEqual(t, gap, min, "gap between call %d and %d", i-1, i)
	}
}
