// internal/suite/suite.go

// Package suite owns the browser state of one end-to-end test: the browser
// process, the main tab, any tabs the test adopts after they are opened by a
// click, and teardown. Everything a journey needs is reached through the
// Context handed to it; nothing is kept in package variables.
package suite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/vfit-e2e/internal/browser"
	"github.com/xkilldash9x/vfit-e2e/internal/config"
	"github.com/xkilldash9x/vfit-e2e/internal/fixtures"
	"github.com/xkilldash9x/vfit-e2e/internal/interaction"
	"github.com/xkilldash9x/vfit-e2e/internal/pageobject"
)

// MainTab is the registry name of the tab every Context starts with.
const MainTab = "main"

const (
	setupTimeout    = 60 * time.Second
	teardownTimeout = 30 * time.Second
)

// ErrTabExists is returned when a tab name is already registered.
var ErrTabExists = errors.New("tab name already registered")

// ErrNoCatalog is returned by Page when the context was built without a selector catalog.
var ErrNoCatalog = errors.New("no selector catalog configured")

// Context is the explicit per-test state.
type Context struct {
	t      testing.TB
	runID  string
	cfg    *config.Config
	logger *zap.Logger

	manager      *browser.Manager
	catalog      *pageobject.Catalog
	params       *fixtures.Parameters
	carry        *Carry
	artifactsDir string

	mu      sync.Mutex
	tabs    map[string]*browser.Session
	helpers map[string]*interaction.Helper

	cleanup cleanupStack
}

// Option customizes New.
type Option func(*options)

type options struct {
	cfg     *config.Config
	logger  *zap.Logger
	manager *browser.Manager
	catalog *pageobject.Catalog
	params  *fixtures.Parameters
	carry   *Carry
}

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger. The default writes through t.Log.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithManager shares an already running browser. The context opens its own
// tab in it and leaves the browser running on teardown.
func WithManager(mgr *browser.Manager) Option {
	return func(o *options) { o.manager = mgr }
}

// WithCatalog sets the selector catalog, overriding suite.catalog_path.
func WithCatalog(catalog *pageobject.Catalog) Option {
	return func(o *options) { o.catalog = catalog }
}

// WithFixtures sets the test parameters, overriding suite.fixtures_path.
func WithFixtures(params *fixtures.Parameters) Option {
	return func(o *options) { o.params = params }
}

// WithCarry threads a carry-forward store from an earlier test in the group.
func WithCarry(carry *Carry) Option {
	return func(o *options) { o.carry = carry }
}

// New builds the context for t. It launches a browser unless one is shared
// through WithManager, opens the main tab, and registers teardown with
// t.Cleanup. Teardown steps run last-registered first.
func New(t testing.TB, opts ...Option) (*Context, error) {
	t.Helper()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		o.cfg = config.NewDefaultConfig()
	}
	if o.logger == nil {
		o.logger = zaptest.NewLogger(t)
	}
	if o.carry == nil {
		o.carry = NewCarry()
	}

	runID := uuid.New().String()
	c := &Context{
		t:       t,
		runID:   runID,
		cfg:     o.cfg,
		logger:  o.logger.Named("suite").With(zap.String("test", t.Name()), zap.String("run_id", runID)),
		carry:   o.carry,
		catalog: o.catalog,
		params:  o.params,
		tabs:    make(map[string]*browser.Session),
		helpers: make(map[string]*interaction.Helper),
	}
	c.artifactsDir = filepath.Join(o.cfg.Suite().ArtifactsDir, sanitizeName(t.Name())+"-"+runID[:8])

	if err := c.loadInputs(); err != nil {
		return nil, err
	}

	// Registered before any resource exists so partial setups are torn down too.
	t.Cleanup(c.teardown)

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	c.manager = o.manager
	if c.manager == nil {
		mgr, err := browser.NewManager(ctx, c.cfg, c.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
		c.manager = mgr
		c.Defer("browser", mgr.Shutdown)
	}

	main, err := c.manager.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open main tab: %w", err)
	}
	c.register(MainTab, main)

	c.logger.Debug("Test context ready.", zap.String("artifacts_dir", c.artifactsDir))
	return c, nil
}

func (c *Context) loadInputs() error {
	suiteCfg := c.cfg.Suite()
	if c.catalog == nil && suiteCfg.CatalogPath != "" {
		catalog, err := pageobject.LoadCatalog(suiteCfg.CatalogPath)
		if err != nil {
			return err
		}
		c.catalog = catalog
	}
	if c.params == nil && suiteCfg.FixturesPath != "" {
		params, err := fixtures.Load(suiteCfg.FixturesPath)
		if err != nil {
			return err
		}
		c.params = params
	}
	return nil
}

// register tracks a tab under name and schedules it for closing.
func (c *Context) register(name string, session *browser.Session) {
	c.mu.Lock()
	c.tabs[name] = session
	c.helpers[name] = interaction.New(session, c.cfg.Interaction(), c.logger.With(zap.String("tab", name)))
	c.mu.Unlock()

	c.Defer("close tab "+name, session.Close)
}

// teardown captures failure artifacts, then unwinds the cleanup stack.
func (c *Context) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	if c.t.Failed() && c.cfg.Suite().ScreenshotOnFailure && len(c.TabNames()) > 0 {
		if dir, err := c.CaptureArtifacts(ctx, "failure"); err != nil {
			c.t.Logf("failed to capture failure artifacts: %v", err)
		} else {
			c.t.Logf("failure artifacts written to %s", dir)
		}
	}

	if err := c.cleanup.run(ctx); err != nil {
		c.t.Logf("teardown: %v", err)
	}
}

// Defer registers fn to run at teardown. Steps run in reverse order of
// registration, after failure artifacts are captured.
func (c *Context) Defer(name string, fn func(context.Context) error) {
	c.cleanup.push(name, fn)
}

// RunID identifies this test run in logs and artifact paths.
func (c *Context) RunID() string { return c.runID }

// Config returns the active configuration.
func (c *Context) Config() *config.Config { return c.cfg }

// Logger returns the context logger.
func (c *Context) Logger() *zap.Logger { return c.logger }

// Manager returns the browser manager.
func (c *Context) Manager() *browser.Manager { return c.manager }

// Carry returns the carry-forward store.
func (c *Context) Carry() *Carry { return c.carry }

// Fixtures returns the loaded test parameters, or nil.
func (c *Context) Fixtures() *fixtures.Parameters { return c.params }

// ArtifactsDir is where failure artifacts of this test are written.
func (c *Context) ArtifactsDir() string { return c.artifactsDir }

// Main returns the main tab.
func (c *Context) Main() *browser.Session {
	s, _ := c.Tab(MainTab)
	return s
}

// Helper returns the interaction helper bound to the main tab.
func (c *Context) Helper() *interaction.Helper {
	h, _ := c.HelperFor(MainTab)
	return h
}

// Tab returns a registered tab by name.
func (c *Context) Tab(name string) (*browser.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.tabs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", browser.ErrTabNotFound, name)
	}
	return s, nil
}

// HelperFor returns the interaction helper bound to the named tab.
func (c *Context) HelperFor(name string) (*interaction.Helper, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.helpers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", browser.ErrTabNotFound, name)
	}
	return h, nil
}

// TabNames lists the registered tabs in sorted order.
func (c *Context) TabNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.tabs))
	for name := range c.tabs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AdoptNewTab runs trigger in the main tab and registers the tab it opens
// under name.
func (c *Context) AdoptNewTab(ctx context.Context, name string, trigger func(context.Context) error) (*browser.Session, error) {
	return c.AdoptNewTabFrom(ctx, MainTab, name, trigger)
}

// AdoptNewTabFrom is AdoptNewTab with an explicit opener tab.
func (c *Context) AdoptNewTabFrom(ctx context.Context, opener, name string, trigger func(context.Context) error) (*browser.Session, error) {
	if _, err := c.Tab(name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrTabExists, name)
	}
	openerSession, err := c.Tab(opener)
	if err != nil {
		return nil, err
	}

	session, err := c.manager.WaitForNewTab(ctx, openerSession, trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to adopt tab %q: %w", name, err)
	}
	c.register(name, session)
	c.logger.Debug("Registered adopted tab.", zap.String("tab", name), zap.String("opener", opener))
	return session, nil
}

// Page binds a catalog page to the main tab.
func (c *Context) Page(name string) (*pageobject.BasePage, error) {
	return c.PageOn(MainTab, name)
}

// PageOn binds a catalog page to the named tab.
func (c *Context) PageOn(tab, name string) (*pageobject.BasePage, error) {
	if c.catalog == nil {
		return nil, ErrNoCatalog
	}
	session, err := c.Tab(tab)
	if err != nil {
		return nil, err
	}
	helper, err := c.HelperFor(tab)
	if err != nil {
		return nil, err
	}
	return pageobject.NewBasePage(c.catalog, name, helper, session, c.cfg.Suite().BaseURL)
}
