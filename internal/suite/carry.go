// internal/suite/carry.go
package suite

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotCarried is returned by Get when no earlier test stored the key.
var ErrNotCarried = errors.New("value not carried forward")

// Carry passes values between the serial tests of a group, for example the
// name of a challenge created in one test and reviewed in the next. Tests
// share a Carry by threading it explicitly; there is no package-level state.
type Carry struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewCarry returns an empty store.
func NewCarry() *Carry {
	return &Carry{values: make(map[string]any)}
}

// Put stores v under key, replacing any earlier value.
func (c *Carry) Put(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = v
}

// Has reports whether key was stored.
func (c *Carry) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.values[key]
	return ok
}

// Keys returns the stored keys in sorted order.
func (c *Carry) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under key as a T.
func Get[T any](c *Carry, key string) (T, error) {
	var zero T
	c.mu.RLock()
	v, ok := c.values[key]
	c.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrNotCarried, key)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("carried value %q is %T, not %T", key, v, zero)
	}
	return typed, nil
}
