// internal/interaction/assert.go
package interaction

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
)

// regexPrefix marks an AssertLink expectation as a regular expression.
const regexPrefix = "re:"

// AssertText compares the visible text of selector with expected, ignoring
// leading and trailing whitespace on both sides. The comparison is retried
// until it holds or the assert timeout elapses. The last observed text is
// returned untrimmed in ActualText whether or not it matched.
func (h *Helper) AssertText(ctx context.Context, selector, expected string) (result schemas.ActionResult) {
	start := time.Now()
	defer h.finish(&result, "assert_text", selector, start)

	opCtx, cancel := context.WithTimeout(ctx, h.cfg.AssertTimeout)
	defer cancel()

	want := strings.TrimSpace(expected)
	var last elementState
	polls, err := h.poll(opCtx, func(ctx context.Context) (bool, error) {
		state, err := h.readElement(ctx, selector)
		if err != nil {
			return false, err
		}
		last = state
		return state.Found && strings.TrimSpace(state.Text) == want, nil
	})

	actual := last.Text
	if err != nil {
		if !last.Found {
			result = schemas.Failure(selector, "%s: element not found", describeError(ctx, opCtx, "assert text", h.cfg.AssertTimeout, err))
		} else {
			result = schemas.Failure(selector, "expected text %q, got %q", want, actual)
		}
		result.ActualText = actual
		result.Attempts = polls
		return result
	}

	result = schemas.Success(selector)
	result.ActualText = actual
	result.Attempts = polls
	return result
}

// AssertLink compares the page URL with expected. A "re:" prefix makes the
// rest a regular expression; a pattern containing "*" is a glob where "*"
// matches any run of characters; anything else must match exactly. The
// observed URL is returned in ActualText.
func (h *Helper) AssertLink(ctx context.Context, expected string) (result schemas.ActionResult) {
	start := time.Now()
	defer h.finish(&result, "assert_link", "", start)

	match, err := compileURLMatcher(expected)
	if err != nil {
		return schemas.Failure("", "%v", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, h.cfg.AssertTimeout)
	defer cancel()

	var actual string
	polls, err := h.poll(opCtx, func(ctx context.Context) (bool, error) {
		script := newScript(scriptLocation, locationJS)
		if err := h.exec.RunActions(ctx, script); err != nil {
			return false, err
		}
		var href string
		if err := script.decode(&href); err != nil {
			return false, err
		}
		actual = href
		return match(href), nil
	})

	if err != nil {
		if actual == "" {
			result = schemas.Failure("", "%s", describeError(ctx, opCtx, "assert link", h.cfg.AssertTimeout, err))
		} else {
			result = schemas.Failure("", "expected url %q, got %q", expected, actual)
		}
		result.ActualText = actual
		result.Attempts = polls
		return result
	}

	result = schemas.Success("")
	result.ActualText = actual
	result.Attempts = polls
	return result
}

// compileURLMatcher turns an AssertLink expectation into a predicate.
func compileURLMatcher(expected string) (func(string) bool, error) {
	switch {
	case strings.HasPrefix(expected, regexPrefix):
		re, err := regexp.Compile(strings.TrimPrefix(expected, regexPrefix))
		if err != nil {
			return nil, fmt.Errorf("invalid url pattern %q: %w", expected, err)
		}
		return re.MatchString, nil
	case strings.Contains(expected, "*"):
		pattern := "^" + strings.ReplaceAll(regexp.QuoteMeta(expected), `\*`, ".*") + "$"
		re := regexp.MustCompile(pattern)
		return re.MatchString, nil
	case expected == "":
		return nil, fmt.Errorf("expected url must not be empty")
	default:
		return func(actual string) bool { return actual == expected }, nil
	}
}
