// internal/interaction/script.go
package interaction

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
)

// Each embedded file is a single function expression taking the selector.

//go:embed js/force_click.js
var forceClickJS string

//go:embed js/element_state.js
var elementStateJS string

//go:embed js/clear_input.js
var clearInputJS string

//go:embed js/hit_test.js
var hitTestJS string

const locationJS = `window.location.href`

// Names identify scripts in logs and let tests answer them.
const (
	scriptForceClick   = "force_click"
	scriptElementState = "element_state"
	scriptClearInput   = "clear_input"
	scriptLocation     = "location"
	scriptHitTest      = "hit_test"
)

// elementState mirrors the object returned by element_state.js.
type elementState struct {
	Found   bool   `json:"found"`
	Invalid bool   `json:"invalid"`
	Error   string `json:"error"`
	Visible bool   `json:"visible"`
	Enabled bool   `json:"enabled"`
	Text    string `json:"text"`
}

// scriptOutcome mirrors the {ok, reason} object returned by the action scripts.
type scriptOutcome struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason"`
}

// scriptAction evaluates a script in the page and keeps the raw JSON result.
// It is a chromedp.Action so it runs through the same Executor as every other action.
type scriptAction struct {
	name string
	expr string
	raw  []byte
}

var _ chromedp.Action = (*scriptAction)(nil)

func newScript(name, expr string) *scriptAction {
	return &scriptAction{name: name, expr: expr}
}

// callScript builds an invocation of an embedded function expression.
func callScript(name, fn string, args ...interface{}) *scriptAction {
	encoded := make([]string, len(args))
	for i, arg := range args {
		encoded[i] = jsonEncode(arg)
	}
	return newScript(name, fmt.Sprintf("(%s)(%s)", strings.TrimSpace(fn), strings.Join(encoded, ", ")))
}

// Do implements chromedp.Action.
func (a *scriptAction) Do(ctx context.Context) error {
	return chromedp.Evaluate(a.expr, &a.raw, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
	}).Do(ctx)
}

// decode unmarshals the evaluation result into v.
func (a *scriptAction) decode(v interface{}) error {
	if len(a.raw) == 0 {
		return fmt.Errorf("script %s returned no result", a.name)
	}
	if err := json.Unmarshal(a.raw, v); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", a.name, err)
	}
	return nil
}

// jsonEncode safely encodes a value for JS injection.
func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}
