// internal/browser/context_utils_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineContext(t *testing.T) {
	type ctxKey string
	const key ctxKey = "tab"
	const value = "main"

	t.Run("InheritsValuesFromPrimary", func(t *testing.T) {
		primary := context.WithValue(context.Background(), key, value)

		combined, cancel := CombineContext(primary, context.Background())
		defer cancel()

		assert.Equal(t, value, combined.Value(key))
		assert.Nil(t, combined.Err())
	})

	t.Run("CancelledByPrimary", func(t *testing.T) {
		primary, cancelPrimary := context.WithCancel(context.Background())
		combined, cancel := CombineContext(primary, context.Background())
		defer cancel()

		cancelPrimary()

		assert.Eventually(t, func() bool { return combined.Err() != nil },
			100*time.Millisecond, 10*time.Millisecond)
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})

	t.Run("CancelledBySecondary", func(t *testing.T) {
		secondary, cancelSecondary := context.WithCancel(context.Background())
		combined, cancel := CombineContext(context.Background(), secondary)
		defer cancel()

		cancelSecondary()

		assert.Eventually(t, func() bool { return combined.Err() != nil },
			100*time.Millisecond, 10*time.Millisecond)
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})

	t.Run("SecondaryDeadlineCancels", func(t *testing.T) {
		secondary, cancelSecondary := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancelSecondary()

		combined, cancel := CombineContext(context.Background(), secondary)
		defer cancel()

		<-combined.Done()
		// The combined context is canceled, not expired, when the secondary times out.
		assert.ErrorIs(t, combined.Err(), context.Canceled)
		assert.ErrorIs(t, secondary.Err(), context.DeadlineExceeded)
	})

	t.Run("ExplicitCancellation", func(t *testing.T) {
		combined, cancel := CombineContext(context.Background(), context.Background())
		cancel()
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})
}

func TestDetach(t *testing.T) {
	type ctxKey string
	const key ctxKey = "run"

	t.Run("InheritsValues", func(t *testing.T) {
		parent := context.WithValue(context.Background(), key, "abc")
		assert.Equal(t, "abc", Detach(parent).Value(key))
	})

	t.Run("IgnoresParentCancellation", func(t *testing.T) {
		parent, cancel := context.WithCancel(context.Background())
		detached := Detach(parent)
		cancel()

		assert.ErrorIs(t, parent.Err(), context.Canceled)
		assert.Nil(t, detached.Err())
		assert.Nil(t, detached.Done())
	})

	t.Run("IgnoresParentDeadline", func(t *testing.T) {
		parent, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		detached := Detach(parent)
		<-parent.Done()

		deadline, ok := detached.Deadline()
		require.False(t, ok)
		assert.True(t, deadline.IsZero())
		assert.Nil(t, detached.Err())
	})

	t.Run("DerivedTimeoutStillApplies", func(t *testing.T) {
		parent, cancelParent := context.WithCancel(context.Background())
		derived, cancel := context.WithTimeout(Detach(parent), 30*time.Millisecond)
		defer cancel()
		cancelParent()

		<-derived.Done()
		assert.ErrorIs(t, derived.Err(), context.DeadlineExceeded)
	})
}
