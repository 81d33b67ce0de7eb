// internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/vfit-e2e/internal/config"
)

// ErrTabNotFound is returned when an expected tab never appeared or is not registered.
var ErrTabNotFound = errors.New("browser tab not found")

// ErrManagerClosed is returned by operations on a manager after Shutdown.
var ErrManagerClosed = errors.New("browser manager is shut down")

const sessionInitTimeout = 30 * time.Second

// Manager owns the browser process and the tabs opened in it.
type Manager struct {
	logger *zap.Logger
	cfg    config.Interface

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	sessions map[string]*Session
	mu       sync.RWMutex
	closed   bool
}

// NewManager launches a browser process. The browser lives until Shutdown,
// independent of ctx cancellation; ctx only carries values.
func NewManager(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		logger:   logger.Named("browser_manager"),
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}

	m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(Detach(ctx), DefaultAllocatorOptions(cfg.Browser())...)

	ctxOpts := []chromedp.ContextOption{chromedp.WithErrorf(m.logger.Sugar().Debugf)}
	if cfg.Browser().Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(m.logger.Sugar().Debugf))
	}
	m.browserCtx, m.browserCancel = chromedp.NewContext(m.allocCtx, ctxOpts...)

	// The first Run starts the process; it must use the browser context itself,
	// a derived timeout context would kill the process when it expires.
	if err := chromedp.Run(m.browserCtx); err != nil {
		m.browserCancel()
		m.allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	m.logger.Info("Browser launched.", zap.Bool("headless", cfg.Browser().Headless))
	return m, nil
}

// NewSession opens a new tab.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	if m.isClosed() {
		return nil, ErrManagerClosed
	}

	tabCtx, tabCancel := chromedp.NewContext(m.browserCtx)
	session := newSession(tabCtx, tabCancel, m.cfg, m.logger)

	if err := m.register(ctx, session); err != nil {
		return nil, err
	}
	m.logger.Debug("New session created.", zap.String("session_id", session.ID()))
	return session, nil
}

// WaitForNewTab runs trigger on behalf of opener and returns the tab it opened
// (for example a link with target="_blank"). The listener is installed before
// trigger runs so a fast popup is not missed.
func (m *Manager) WaitForNewTab(ctx context.Context, opener *Session, trigger func(context.Context) error) (*Session, error) {
	if m.isClosed() {
		return nil, ErrManagerClosed
	}

	openerTarget := chromedp.FromContext(opener.GetContext())
	if openerTarget == nil || openerTarget.Target == nil {
		return nil, fmt.Errorf("opener session %s has no attached target", opener.ID())
	}
	openerID := openerTarget.Target.TargetID

	waitCtx, cancel := CombineContext(opener.GetContext(), ctx)
	defer cancel()

	ch := chromedp.WaitNewTarget(waitCtx, func(info *target.Info) bool {
		return info.Type == "page" && info.OpenerID == openerID
	})

	if err := trigger(ctx); err != nil {
		return nil, fmt.Errorf("new tab trigger failed: %w", err)
	}

	var id target.ID
	select {
	case tid, ok := <-ch:
		if !ok || tid == "" {
			return nil, fmt.Errorf("%w: no tab opened by session %s", ErrTabNotFound, opener.ID())
		}
		id = tid
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrTabNotFound, ctx.Err())
	}

	tabCtx, tabCancel := chromedp.NewContext(m.browserCtx, chromedp.WithTargetID(id))
	session := newSession(tabCtx, tabCancel, m.cfg, m.logger)
	if err := m.register(ctx, session); err != nil {
		return nil, err
	}

	// The popup may still be loading; give it the same settle time as a navigation.
	if err := session.stabilize(ctx, m.cfg.Network().PostLoadWait); err != nil {
		m.logger.Debug("New tab did not settle.", zap.Error(err))
	}

	m.logger.Debug("Adopted new tab.", zap.String("session_id", session.ID()), zap.String("target_id", string(id)))
	return session, nil
}

// register initializes the session and tracks it until it closes.
func (m *Manager) register(ctx context.Context, session *Session) error {
	initCtx, cancel := context.WithTimeout(ctx, sessionInitTimeout)
	defer cancel()

	if err := session.initialize(initCtx); err != nil {
		_ = session.Close(Detach(ctx))
		return fmt.Errorf("failed to initialize session: %w", err)
	}

	session.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, session.ID())
		m.logger.Debug("Session removed from manager.", zap.String("session_id", session.ID()))
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()
	return nil
}

// Sessions returns the open sessions.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// Shutdown closes all sessions concurrently, then the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.logger.Info("Shutting down browser manager.")

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range m.Sessions() {
		s := s
		g.Go(func() error {
			if err := s.Close(gctx); err != nil {
				return fmt.Errorf("failed to close session %s: %w", s.ID(), err)
			}
			return nil
		})
	}
	sessionErr := g.Wait()
	if sessionErr != nil {
		m.logger.Warn("Error during session close in shutdown.", zap.Error(sessionErr))
	}

	// Cancel waits for the browser to exit.
	var shutdownErr error
	if err := chromedp.Cancel(m.browserCtx); err != nil && !errors.Is(err, context.Canceled) {
		shutdownErr = fmt.Errorf("failed to close browser: %w", err)
	}
	m.browserCancel()
	m.allocCancel()

	m.logger.Info("Browser manager shutdown complete.")
	return errors.Join(sessionErr, shutdownErr)
}
