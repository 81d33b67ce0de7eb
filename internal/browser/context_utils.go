// internal/browser/context_utils.go
package browser

import (
	"context"
	"time"
)

// CombineContext returns a context derived from primary (so it keeps the CDP
// target values chromedp stores there) that is also canceled when secondary is done.
// Primary is the tab's lifetime context; secondary carries the operation deadline.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)

	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}

// valueOnlyContext inherits values but not cancellation or deadline.
type valueOnlyContext struct{ context.Context }

func (valueOnlyContext) Deadline() (time.Time, bool) { return time.Time{}, false }
func (valueOnlyContext) Done() <-chan struct{}       { return nil }
func (valueOnlyContext) Err() error                  { return nil }

// Detach returns a context carrying ctx's values that is never canceled with it.
// Used for teardown work (final screenshots, closing tabs) after a test context expired.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
