// File: cmd/probe.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
	"github.com/xkilldash9x/vfit-e2e/internal/browser"
	"github.com/xkilldash9x/vfit-e2e/internal/interaction"
	"github.com/xkilldash9x/vfit-e2e/internal/observability"
)

// errProbeFailed makes the process exit non-zero without printing usage.
var errProbeFailed = errors.New("probe failed")

// actionRunner is the subset of interaction.Helper the probe drives.
type actionRunner interface {
	WaitForElement(ctx context.Context, selector string, timeout time.Duration) schemas.ActionResult
	FillInput(ctx context.Context, selector, value string) schemas.ActionResult
	FileUpload(ctx context.Context, selector, filePath string) schemas.ActionResult
	FileUploadWithLimit(ctx context.Context, selector, filePath string, maxKB float64) schemas.ActionResult
	ClickElement(ctx context.Context, selector string) schemas.ActionResult
	ForceClickWithRetry(ctx context.Context, selector string, attempts int, delay time.Duration) schemas.ActionResult
	AssertText(ctx context.Context, selector, expected string) schemas.ActionResult
	AssertLink(ctx context.Context, expected string) schemas.ActionResult
}

var _ actionRunner = (*interaction.Helper)(nil)

type probeOptions struct {
	waits       []string
	fills       []string
	uploads     []string
	clicks      []string
	forces      []string
	texts       []string
	link        string
	waitTimeout time.Duration
	uploadMaxKB float64
	limitUpload bool
	failFast    bool
	screenshot  string
	fullPage    bool
}

// probeStep is one executed action in the JSON report.
type probeStep struct {
	Action string               `json:"action"`
	Target string               `json:"target,omitempty"`
	Value  string               `json:"value,omitempty"`
	Result schemas.ActionResult `json:"result"`
}

type probeReport struct {
	RunID      string      `json:"runId"`
	URL        string      `json:"url"`
	Passed     int         `json:"passed"`
	Failed     int         `json:"failed"`
	Steps      []probeStep `json:"steps"`
	Screenshot string      `json:"screenshot,omitempty"`
}

type plannedStep struct {
	action string
	target string
	value  string
	run    func(ctx context.Context, r actionRunner) schemas.ActionResult
}

func newProbeCmd() *cobra.Command {
	opts := probeOptions{}

	cmd := &cobra.Command{
		Use:   "probe <url>",
		Short: "Open a page and run interaction helper actions against it",
		Long: `Opens <url> in a fresh tab and runs the requested actions in this order:
waits, fills, uploads, clicks, force clicks, text assertions, link assertion.
Each action prints its result as JSON. The command exits non-zero when any
action does not succeed.

Selector/value pairs use "=" as the separator; an "=" inside [...] belongs
to the selector, so --fill 'input[name=email]=a@b.test' works.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.limitUpload = cmd.Flags().Changed("upload-max-kb")
			return runProbe(cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&opts.waits, "wait", nil, "selector to wait for (repeatable)")
	flags.StringArrayVar(&opts.fills, "fill", nil, "selector=value to fill (repeatable)")
	flags.StringArrayVar(&opts.uploads, "upload", nil, "selector=path of a file to upload (repeatable)")
	flags.StringArrayVar(&opts.clicks, "click", nil, "selector to click (repeatable)")
	flags.StringArrayVar(&opts.forces, "force", nil, "selector to force-click through JS (repeatable)")
	flags.StringArrayVar(&opts.texts, "text", nil, "selector=expected text (repeatable)")
	flags.StringVar(&opts.link, "link", "", "expected URL after the actions; prefix re: for a regex, * for a glob")
	flags.DurationVar(&opts.waitTimeout, "wait-timeout", 0, "timeout for each --wait (default interaction.default_wait_timeout)")
	flags.Float64Var(&opts.uploadMaxKB, "upload-max-kb", 0, "reject uploads larger than this many KB")
	flags.BoolVar(&opts.failFast, "fail-fast", false, "stop at the first failed action")
	flags.StringVar(&opts.screenshot, "screenshot", "", "write a PNG screenshot here after the actions")
	flags.BoolVar(&opts.fullPage, "full-page", false, "capture the whole page instead of the viewport")
	return cmd
}

func runProbe(cmd *cobra.Command, target string, opts probeOptions) error {
	ctx := cmd.Context()
	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}

	ic := cfg.Interaction()
	plan, err := buildPlan(opts, ic.ForceClickRetry)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	logger := observability.GetLogger().Named("probe").With(zap.String("run_id", runID))

	mgr, err := browser.NewManager(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := mgr.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Browser shutdown reported errors.", zap.Error(err))
		}
	}()

	session, err := mgr.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to open tab: %w", err)
	}
	if err := session.Navigate(ctx, target); err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}

	helper := interaction.New(session, ic, logger)
	report := probeReport{RunID: runID, URL: target}
	report.Steps = executePlan(ctx, helper, plan, opts.failFast)
	for _, s := range report.Steps {
		if s.Result.OK() {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	if opts.screenshot != "" {
		png, err := session.Screenshot(ctx, opts.fullPage)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.screenshot, png, 0o644); err != nil {
			return fmt.Errorf("failed to write screenshot: %w", err)
		}
		report.Screenshot = opts.screenshot
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode probe report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if report.Failed > 0 {
		return fmt.Errorf("%w: %d of %d actions did not succeed", errProbeFailed, report.Failed, len(report.Steps))
	}
	return nil
}

// buildPlan turns the flags into an ordered list of actions.
func buildPlan(opts probeOptions, forceRetry schemas.RetryPolicy) ([]plannedStep, error) {
	var plan []plannedStep

	for _, sel := range opts.waits {
		plan = append(plan, plannedStep{action: "wait", target: sel, run: func(ctx context.Context, r actionRunner) schemas.ActionResult {
			return r.WaitForElement(ctx, sel, opts.waitTimeout)
		}})
	}
	for _, pair := range opts.fills {
		sel, value, err := splitAssignment(pair)
		if err != nil {
			return nil, fmt.Errorf("--fill %q: %w", pair, err)
		}
		plan = append(plan, plannedStep{action: "fill", target: sel, value: value, run: func(ctx context.Context, r actionRunner) schemas.ActionResult {
			return r.FillInput(ctx, sel, value)
		}})
	}
	for _, pair := range opts.uploads {
		sel, path, err := splitAssignment(pair)
		if err != nil {
			return nil, fmt.Errorf("--upload %q: %w", pair, err)
		}
		plan = append(plan, plannedStep{action: "upload", target: sel, value: path, run: func(ctx context.Context, r actionRunner) schemas.ActionResult {
			if opts.limitUpload {
				return r.FileUploadWithLimit(ctx, sel, path, opts.uploadMaxKB)
			}
			return r.FileUpload(ctx, sel, path)
		}})
	}
	for _, sel := range opts.clicks {
		plan = append(plan, plannedStep{action: "click", target: sel, run: func(ctx context.Context, r actionRunner) schemas.ActionResult {
			return r.ClickElement(ctx, sel)
		}})
	}
	for _, sel := range opts.forces {
		plan = append(plan, plannedStep{action: "force_click", target: sel, run: func(ctx context.Context, r actionRunner) schemas.ActionResult {
			return r.ForceClickWithRetry(ctx, sel, forceRetry.MaxAttempts, forceRetry.Delay)
		}})
	}
	for _, pair := range opts.texts {
		sel, expected, err := splitAssignment(pair)
		if err != nil {
			return nil, fmt.Errorf("--text %q: %w", pair, err)
		}
		plan = append(plan, plannedStep{action: "assert_text", target: sel, value: expected, run: func(ctx context.Context, r actionRunner) schemas.ActionResult {
			return r.AssertText(ctx, sel, expected)
		}})
	}
	if opts.link != "" {
		plan = append(plan, plannedStep{action: "assert_link", value: opts.link, run: func(ctx context.Context, r actionRunner) schemas.ActionResult {
			return r.AssertLink(ctx, opts.link)
		}})
	}

	if len(plan) == 0 {
		return nil, errors.New("nothing to probe: pass at least one of --wait, --fill, --upload, --click, --force, --text, --link")
	}
	return plan, nil
}

// executePlan runs every step, or up to the first failure when failFast is set.
func executePlan(ctx context.Context, r actionRunner, plan []plannedStep, failFast bool) []probeStep {
	steps := make([]probeStep, 0, len(plan))
	for _, p := range plan {
		if ctx.Err() != nil {
			break
		}
		result := p.run(ctx, r)
		steps = append(steps, probeStep{Action: p.action, Target: p.target, Value: p.value, Result: result})
		if failFast && !result.OK() {
			break
		}
	}
	return steps
}

// splitAssignment splits "selector=value" at the first "=" outside brackets,
// quotes and parentheses.
func splitAssignment(s string) (string, string, error) {
	depth := 0
	var quote rune
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			if depth > 0 {
				depth--
			}
		case r == '=' && depth == 0:
			sel := strings.TrimSpace(s[:i])
			if sel == "" {
				return "", "", errors.New("missing selector before '='")
			}
			return sel, s[i+1:], nil
		}
	}
	return "", "", errors.New("expected selector=value")
}
