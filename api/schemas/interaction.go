package schemas

import (
	"fmt"
	"time"
)

// -- Interaction Result Schemas --

// Status is the outcome code carried by every ActionResult.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusFailure      Status = "failure"
	StatusSizeExceeded Status = "size_exceeded"
)

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// ActionResult is the uniform record returned by every interaction helper call.
// Status is always set. Message and ActualText are only populated when they carry
// something the caller can assert on.
type ActionResult struct {
	Status     Status        `json:"status"`
	Message    string        `json:"message,omitempty"`
	ActualText string        `json:"actualText,omitempty"`
	Selector   string        `json:"selector,omitempty"`
	Attempts   int           `json:"attempts,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// OK reports whether the result is a success.
func (r ActionResult) OK() bool { return r.Status == StatusSuccess }

// String renders the result for test failure output.
func (r ActionResult) String() string {
	s := fmt.Sprintf("%s [%s]", r.Status, r.Selector)
	if r.Message != "" {
		s += ": " + r.Message
	}
	if r.ActualText != "" {
		s += fmt.Sprintf(" (actual: %q)", r.ActualText)
	}
	return s
}

// Success builds a successful result for the selector.
func Success(selector string) ActionResult {
	return ActionResult{Status: StatusSuccess, Selector: selector}
}

// Failure builds a failed result carrying the message.
func Failure(selector, format string, args ...interface{}) ActionResult {
	return ActionResult{Status: StatusFailure, Selector: selector, Message: fmt.Sprintf(format, args...)}
}

// RetryPolicy bounds a single action's attempt loop. Nothing is retained between calls.
type RetryPolicy struct {
	MaxAttempts int           `json:"maxAttempts" mapstructure:"max_attempts" yaml:"max_attempts"`
	Delay       time.Duration `json:"delay" mapstructure:"delay" yaml:"delay"`
}

// Validate enforces MaxAttempts >= 1 and Delay >= 0.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %v", p.Delay)
	}
	return nil
}

// Normalize clamps out-of-range fields so the policy is always usable.
func (p RetryPolicy) Normalize() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}
