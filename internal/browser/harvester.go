// internal/browser/harvester.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// maxConsoleEntries caps the console buffer kept per tab.
const maxConsoleEntries = 500

// ConsoleEntry is one console message or uncaught exception seen on the page.
type ConsoleEntry struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Harvester listens to a tab's CDP events. It tracks in-flight requests so
// navigation can wait for network idle, and buffers console output so a failed
// test can dump it next to its screenshot.
type Harvester struct {
	logger *zap.Logger

	sessionCtx     context.Context
	listenerCtx    context.Context
	cancelListener context.CancelFunc

	lock        sync.RWMutex
	inflight    map[network.RequestID]struct{}
	lastChange  time.Time
	consoleLogs []ConsoleEntry

	isStarted bool
}

// NewHarvester creates a harvester bound to the tab context sessionCtx.
func NewHarvester(sessionCtx context.Context, logger *zap.Logger) *Harvester {
	return &Harvester{
		sessionCtx: sessionCtx,
		logger:     logger.Named("harvester"),
		inflight:   make(map[network.RequestID]struct{}),
		lastChange: time.Now(),
	}
}

// Start enables the network and runtime domains and begins listening.
func (h *Harvester) Start(ctx context.Context) error {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.isStarted {
		return nil
	}

	h.listenerCtx, h.cancelListener = context.WithCancel(h.sessionCtx)
	chromedp.ListenTarget(h.listenerCtx, h.handleEvent)

	runCtx, cancel := CombineContext(h.sessionCtx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, network.Enable(), runtime.Enable()); err != nil {
		h.cancelListener()
		return fmt.Errorf("failed to enable CDP domains: %w", err)
	}

	h.isStarted = true
	h.logger.Debug("Harvester started.")
	return nil
}

// Stop detaches the listener. Buffered console entries remain readable.
func (h *Harvester) Stop() {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.cancelListener != nil {
		h.cancelListener()
	}
	h.isStarted = false
}

func (h *Harvester) handleEvent(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		h.trackRequest(e.RequestID, true)
	case *network.EventLoadingFinished:
		h.trackRequest(e.RequestID, false)
	case *network.EventLoadingFailed:
		h.trackRequest(e.RequestID, false)
	case *runtime.EventConsoleAPICalled:
		h.recordConsole(string(e.Type), consoleArgsText(e.Args))
	case *runtime.EventExceptionThrown:
		text := "uncaught exception"
		if e.ExceptionDetails != nil {
			text = e.ExceptionDetails.Text
			if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
				text = e.ExceptionDetails.Exception.Description
			}
		}
		h.recordConsole("exception", text)
	}
}

func (h *Harvester) trackRequest(id network.RequestID, started bool) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if started {
		h.inflight[id] = struct{}{}
	} else {
		delete(h.inflight, id)
	}
	h.lastChange = time.Now()
}

func (h *Harvester) recordConsole(kind, text string) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if len(h.consoleLogs) >= maxConsoleEntries {
		h.consoleLogs = h.consoleLogs[1:]
	}
	h.consoleLogs = append(h.consoleLogs, ConsoleEntry{Type: kind, Text: text, Timestamp: time.Now()})
}

func consoleArgsText(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		switch {
		case len(arg.Value) > 0:
			parts = append(parts, strings.Trim(string(arg.Value), `"`))
		case arg.Description != "":
			parts = append(parts, arg.Description)
		default:
			parts = append(parts, string(arg.Type))
		}
	}
	return strings.Join(parts, " ")
}

// InflightCount returns the number of requests that have started but not finished.
func (h *Harvester) InflightCount() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.inflight)
}

// ConsoleLogs returns a copy of the buffered console entries.
func (h *Harvester) ConsoleLogs() []ConsoleEntry {
	h.lock.RLock()
	defer h.lock.RUnlock()
	out := make([]ConsoleEntry, len(h.consoleLogs))
	copy(out, h.consoleLogs)
	return out
}

// WaitNetworkIdle blocks until no request has been in flight for quietPeriod.
func (h *Harvester) WaitNetworkIdle(ctx context.Context, quietPeriod time.Duration) error {
	if quietPeriod <= 0 {
		return nil
	}
	tick := quietPeriod / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		h.lock.RLock()
		inflight := len(h.inflight)
		quietFor := time.Since(h.lastChange)
		h.lock.RUnlock()

		if inflight == 0 && quietFor >= quietPeriod {
			return nil
		}

		select {
		case <-ctx.Done():
			h.logger.Debug("WaitNetworkIdle aborted.", zap.Int("inflight_requests", inflight), zap.Error(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
