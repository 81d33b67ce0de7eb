// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vfit-e2e/internal/config"
)

// stabilizeTimeout bounds the DOM-ready and network-idle wait after a navigation.
const stabilizeTimeout = 30 * time.Second

// Artifacts is the diagnostic state captured from a tab when a test fails.
type Artifacts struct {
	URL         string         `json:"url"`
	DOM         string         `json:"dom"`
	ConsoleLogs []ConsoleEntry `json:"consoleLogs"`
}

// Session is one browser tab.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    config.Interface

	harvester *Harvester
	onClose   func()

	mu       sync.Mutex
	isClosed bool
}

// newSession wraps a chromedp tab context. The caller owns cancel until the
// session is returned; after that Close releases it.
func newSession(ctx context.Context, cancel context.CancelFunc, cfg config.Interface, logger *zap.Logger) *Session {
	id := uuid.New().String()
	log := logger.With(zap.String("session_id", id))
	return &Session{
		id:        id,
		ctx:       ctx,
		cancel:    cancel,
		logger:    log,
		cfg:       cfg,
		harvester: NewHarvester(ctx, log),
	}
}

// initialize attaches to the target and starts the event harvester.
func (s *Session) initialize(ctx context.Context) error {
	// An empty Run creates (or attaches to) the target. It must run on the tab
	// context itself; the target's lifetime follows the context of the first Run.
	errCh := make(chan error, 1)
	go func() { errCh <- chromedp.Run(s.ctx) }()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to attach to tab: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("timed out attaching to tab: %w", ctx.Err())
	}
	if err := s.harvester.Start(ctx); err != nil {
		return err
	}
	return nil
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// GetContext returns the tab's lifetime context.
func (s *Session) GetContext() context.Context {
	return s.ctx
}

// RunActions executes chromedp actions bounded by both the tab lifetime and ctx.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and waits for the page to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.Network().NavigationTimeout)
	defer cancel()

	s.logger.Debug("Navigating.", zap.String("url", url))
	if err := s.RunActions(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return s.stabilize(ctx, s.cfg.Network().PostLoadWait)
}

// WaitNetworkIdle blocks until the tab has had no in-flight requests for quietPeriod.
func (s *Session) WaitNetworkIdle(ctx context.Context, quietPeriod time.Duration) error {
	return s.harvester.WaitNetworkIdle(ctx, quietPeriod)
}

// stabilize waits for the page state to settle (DOM ready and network idle).
func (s *Session) stabilize(ctx context.Context, quietPeriod time.Duration) error {
	stabCtx, cancel := context.WithTimeout(ctx, stabilizeTimeout)
	defer cancel()

	if err := s.RunActions(stabCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Debug("WaitReady failed during stabilization.", zap.Error(err))
	}

	if err := s.harvester.WaitNetworkIdle(stabCtx, quietPeriod); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Debug("Network idle wait failed during stabilization.", zap.Error(err))
	}
	return nil
}

// CurrentURL returns location.href of the tab.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.RunActions(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read current url: %w", err)
	}
	return url, nil
}

// Screenshot captures the viewport, or the whole page when fullPage is set, as PNG.
func (s *Session) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	var buf []byte
	action := chromedp.CaptureScreenshot(&buf)
	if fullPage {
		action = chromedp.FullScreenshot(&buf, 90)
	}
	if err := s.RunActions(ctx, action); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// ConsoleLogs returns the console messages seen on the tab so far.
func (s *Session) ConsoleLogs() []ConsoleEntry {
	return s.harvester.ConsoleLogs()
}

// CollectArtifacts gathers the URL, DOM and console logs of the tab.
// Partial capture is not an error; whatever could be read is returned.
func (s *Session) CollectArtifacts(ctx context.Context) *Artifacts {
	artifacts := &Artifacts{ConsoleLogs: s.harvester.ConsoleLogs()}

	err := s.RunActions(ctx,
		chromedp.Location(&artifacts.URL),
		chromedp.OuterHTML("html", &artifacts.DOM, chromedp.ByQuery),
	)
	if err != nil && ctx.Err() == nil {
		s.logger.Warn("Could not fully collect browser artifacts.", zap.Error(err))
	}
	return artifacts
}

// Close terminates the tab. Safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")

	s.harvester.Stop()

	// Canceling a chromedp tab context closes the tab.
	if s.cancel != nil {
		s.cancel()
	}

	if s.onClose != nil {
		s.onClose()
	}

	return nil
}

// IsClosed reports whether Close has been called.
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isClosed
}
