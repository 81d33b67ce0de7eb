// File: cmd/probe_test.go
package cmd

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
	"github.com/xkilldash9x/vfit-e2e/internal/testing/browsertest"
)

func TestSplitAssignment(t *testing.T) {
	tests := []struct {
		in        string
		wantSel   string
		wantValue string
		wantErr   bool
	}{
		{in: "#name=Step Sprint", wantSel: "#name", wantValue: "Step Sprint"},
		{in: "input[name=email]=admin@vantagefit.test", wantSel: "input[name=email]", wantValue: "admin@vantagefit.test"},
		{in: `input[value="a=b"]=x`, wantSel: `input[value="a=b"]`, wantValue: "x"},
		{in: "li:not([data-x=y])=z", wantSel: "li:not([data-x=y])", wantValue: "z"},
		{in: "#total=", wantSel: "#total", wantValue: ""},
		{in: "#q=a=b", wantSel: "#q", wantValue: "a=b"},
		{in: "#no-separator", wantErr: true},
		{in: "=value", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			sel, value, err := splitAssignment(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantSel, sel)
			assert.Equal(t, tc.wantValue, value)
		})
	}
}

// call records one helper invocation.
type call struct {
	Method string
	Args   []string
}

type fakeRunner struct {
	calls []call
	fail  map[string]bool
}

func (f *fakeRunner) record(method string, args ...string) schemas.ActionResult {
	f.calls = append(f.calls, call{Method: method, Args: args})
	if f.fail[method] {
		return schemas.Failure(args[0], "%s failed", method)
	}
	return schemas.Success(args[0])
}

func (f *fakeRunner) WaitForElement(_ context.Context, sel string, timeout time.Duration) schemas.ActionResult {
	return f.record("wait", sel, timeout.String())
}
func (f *fakeRunner) FillInput(_ context.Context, sel, value string) schemas.ActionResult {
	return f.record("fill", sel, value)
}
func (f *fakeRunner) FileUpload(_ context.Context, sel, path string) schemas.ActionResult {
	return f.record("upload", sel, path)
}
func (f *fakeRunner) FileUploadWithLimit(_ context.Context, sel, path string, maxKB float64) schemas.ActionResult {
	return f.record("upload_limit", sel, path, strconv.FormatFloat(maxKB, 'g', -1, 64))
}
func (f *fakeRunner) ClickElement(_ context.Context, sel string) schemas.ActionResult {
	return f.record("click", sel)
}
func (f *fakeRunner) ForceClickWithRetry(_ context.Context, sel string, attempts int, delay time.Duration) schemas.ActionResult {
	return f.record("force", sel, strconv.Itoa(attempts), delay.String())
}
func (f *fakeRunner) AssertText(_ context.Context, sel, expected string) schemas.ActionResult {
	return f.record("text", sel, expected)
}
func (f *fakeRunner) AssertLink(_ context.Context, expected string) schemas.ActionResult {
	return f.record("link", expected)
}

func TestBuildPlan_Order(t *testing.T) {
	opts := probeOptions{
		texts:       []string{"#status=Saved"},
		clicks:      []string{"#save"},
		fills:       []string{"#name=Step Sprint"},
		waits:       []string{"#form"},
		forces:      []string{".dropdown"},
		uploads:     []string{"#banner=/tmp/banner.png"},
		link:        "re:/review$",
		waitTimeout: 2 * time.Second,
	}
	plan, err := buildPlan(opts, schemas.RetryPolicy{MaxAttempts: 3, Delay: time.Second})
	require.NoError(t, err)

	runner := &fakeRunner{}
	steps := executePlan(context.Background(), runner, plan, false)

	want := []call{
		{Method: "wait", Args: []string{"#form", "2s"}},
		{Method: "fill", Args: []string{"#name", "Step Sprint"}},
		{Method: "upload", Args: []string{"#banner", "/tmp/banner.png"}},
		{Method: "click", Args: []string{"#save"}},
		{Method: "force", Args: []string{".dropdown", "3", "1s"}},
		{Method: "text", Args: []string{"#status", "Saved"}},
		{Method: "link", Args: []string{"re:/review$"}},
	}
	if diff := cmp.Diff(want, runner.calls); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, steps, 7)
	assert.Equal(t, "assert_text", steps[5].Action)
	assert.Equal(t, "Saved", steps[5].Value)
}

func TestBuildPlan_UploadLimit(t *testing.T) {
	opts := probeOptions{uploads: []string{"#banner=banner.png"}, uploadMaxKB: 0, limitUpload: true}
	plan, err := buildPlan(opts, schemas.RetryPolicy{MaxAttempts: 1})
	require.NoError(t, err)

	runner := &fakeRunner{}
	executePlan(context.Background(), runner, plan, false)
	assert.Equal(t, []call{{Method: "upload_limit", Args: []string{"#banner", "banner.png", "0"}}}, runner.calls,
		"an explicit zero limit is still a limit")
}

func TestBuildPlan_Errors(t *testing.T) {
	_, err := buildPlan(probeOptions{}, schemas.RetryPolicy{})
	assert.ErrorContains(t, err, "nothing to probe")

	_, err = buildPlan(probeOptions{fills: []string{"#name"}}, schemas.RetryPolicy{})
	assert.ErrorContains(t, err, "--fill")

	_, err = buildPlan(probeOptions{texts: []string{"=x"}}, schemas.RetryPolicy{})
	assert.ErrorContains(t, err, "--text")
}

func TestExecutePlan(t *testing.T) {
	opts := probeOptions{clicks: []string{"#a"}, texts: []string{"#b=x"}, link: "https://example.com/"}
	plan, err := buildPlan(opts, schemas.RetryPolicy{MaxAttempts: 1})
	require.NoError(t, err)

	t.Run("ContinuesPastFailures", func(t *testing.T) {
		runner := &fakeRunner{fail: map[string]bool{"click": true}}
		steps := executePlan(context.Background(), runner, plan, false)
		require.Len(t, steps, 3)
		assert.Equal(t, schemas.StatusFailure, steps[0].Result.Status)
		assert.True(t, steps[2].Result.OK())
	})

	t.Run("FailFast", func(t *testing.T) {
		runner := &fakeRunner{fail: map[string]bool{"click": true}}
		steps := executePlan(context.Background(), runner, plan, true)
		assert.Len(t, steps, 1)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Empty(t, executePlan(ctx, &fakeRunner{}, plan, false))
	})
}

const probePage = `<!DOCTYPE html>
<html><body>
  <input id="name">
  <button id="save" type="button"
    onclick="document.getElementById('status').innerText = 'Saved ' + document.getElementById('name').value">Save</button>
  <p id="status"></p>
</body></html>`

func TestProbeCmd_Browser(t *testing.T) {
	chrome := browsertest.RequireChrome(t)
	server := browsertest.NewServer(t, browsertest.HTML(probePage))
	shot := filepath.Join(t.TempDir(), "probe.png")

	t.Run("AllActionsSucceed", func(t *testing.T) {
		out, err := executeCommand(t, NewRootCommand(),
			"--chrome", chrome, "--log-level", "error",
			"probe", server.URL,
			"--fill", "#name=Step Sprint",
			"--click", "#save",
			"--text", "#status=Saved Step Sprint",
			"--screenshot", shot,
		)
		require.NoError(t, err, out)

		var report probeReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.Equal(t, 3, report.Passed)
		assert.Zero(t, report.Failed)
		assert.FileExists(t, shot)
	})

	t.Run("FailureExitsNonZero", func(t *testing.T) {
		out, err := executeCommand(t, NewRootCommand(),
			"--chrome", chrome, "--log-level", "error",
			"probe", server.URL,
			"--text", "#status=Published",
		)
		require.ErrorIs(t, err, errProbeFailed)

		var report probeReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		require.Len(t, report.Steps, 1)
		assert.Equal(t, schemas.StatusFailure, report.Steps[0].Result.Status)
	})
}
