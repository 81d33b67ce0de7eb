// internal/suite/cleanup.go
package suite

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// cleanupStack runs registered teardown steps in reverse order of registration.
type cleanupStack struct {
	mu    sync.Mutex
	steps []cleanupStep
}

type cleanupStep struct {
	name string
	fn   func(context.Context) error
}

func (s *cleanupStack) push(name string, fn func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, cleanupStep{name: name, fn: fn})
}

// run pops and executes every step. A failing step does not stop the rest.
func (s *cleanupStack) run(ctx context.Context) error {
	s.mu.Lock()
	steps := s.steps
	s.steps = nil
	s.mu.Unlock()

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		if err := steps[i].fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("cleanup %s: %w", steps[i].name, err))
		}
	}
	return errors.Join(errs...)
}
