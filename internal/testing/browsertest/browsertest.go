// internal/testing/browsertest/browsertest.go
package browsertest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vfit-e2e/internal/browser"
	"github.com/xkilldash9x/vfit-e2e/internal/config"
	"github.com/xkilldash9x/vfit-e2e/internal/observability"
)

// ChromePathEnv overrides browser discovery for integration tests.
const ChromePathEnv = "VFIT_CHROME_PATH"

// LogFileEnv names a file that collects the JSON logs of every browser test.
const LogFileEnv = "VFIT_TEST_LOG_FILE"

var chromeCandidates = []string{
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// FindChrome returns the path of a usable Chrome/Chromium binary.
func FindChrome() (string, bool) {
	if p := os.Getenv(ChromePathEnv); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	for _, name := range chromeCandidates {
		if p, err := exec.LookPath(name); err == nil {
			return p, true
		}
	}
	return "", false
}

// RequireChrome skips t in -short mode or when no browser is installed.
func RequireChrome(t testing.TB) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	path, ok := FindChrome()
	if !ok {
		t.Skip("no Chrome/Chromium binary found; set " + ChromePathEnv + " to run browser tests")
	}
	return path
}

// Config returns the default configuration tuned for fast tests.
func Config(t testing.TB) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.SetBrowserHeadless(true)
	cfg.SetBrowserIgnoreTLSErrors(true)
	cfg.SetNetworkPostLoadWait(100 * time.Millisecond)
	cfg.SetNetworkNavigationTimeout(20 * time.Second)
	cfg.SetSuiteArtifactsDir(t.TempDir())

	cfg.InteractionCfg.ClickTimeout = 3 * time.Second
	cfg.InteractionCfg.FillTimeout = 3 * time.Second
	cfg.InteractionCfg.AssertTimeout = 3 * time.Second
	cfg.InteractionCfg.PollInterval = 50 * time.Millisecond
	cfg.InteractionCfg.ClickRetry.Delay = 100 * time.Millisecond
	cfg.InteractionCfg.FillRetry.Delay = 100 * time.Millisecond
	cfg.InteractionCfg.ForceClickRetry.Delay = 100 * time.Millisecond
	return cfg
}

// Logger returns a debug-level test logger, also writing to the file named by
// LogFileEnv when it is set.
func Logger(t testing.TB) *zap.Logger {
	return observability.NewTestLogger(t, config.LoggerConfig{
		Level:       "debug",
		ServiceName: "vfit",
		LogFile:     os.Getenv(LogFileEnv),
		MaxSize:     50,
		MaxBackups:  3,
	})
}

// NewManager launches a browser for t and shuts it down on cleanup.
// It skips t when no browser is available.
func NewManager(t testing.TB, cfg *config.Config) *browser.Manager {
	t.Helper()
	path := RequireChrome(t)
	if cfg.BrowserCfg.ExecPath == "" {
		cfg.BrowserCfg.ExecPath = path
	}

	mgr, err := browser.NewManager(context.Background(), cfg, Logger(t))
	require.NoError(t, err, "failed to launch browser")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := mgr.Shutdown(ctx); err != nil {
			t.Logf("Error during browser manager shutdown: %v", err)
		}
	})
	return mgr
}

// NewSession opens a tab that is closed on cleanup.
func NewSession(t testing.TB, mgr *browser.Manager) *browser.Session {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := mgr.NewSession(ctx)
	require.NoError(t, err, "failed to open tab")

	t.Cleanup(func() {
		_ = session.Close(context.Background())
	})
	return session
}

// NewServer starts an httptest server closed on cleanup.
func NewServer(t testing.TB, handler http.Handler) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// HTML serves a fixed page body.
func HTML(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	})
}
