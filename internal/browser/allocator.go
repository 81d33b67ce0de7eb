// internal/browser/allocator.go
package browser

import (
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/vfit-e2e/internal/config"
)

const (
	defaultViewportWidth  = 1920
	defaultViewportHeight = 1080
)

// DefaultAllocatorOptions builds the exec allocator options for a browser launch.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	// DefaultExecAllocatorOptions is headless; only override when a window is wanted.
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	if cfg.DisableCache {
		opts = append(opts,
			chromedp.Flag("disk-cache-size", "0"),
			chromedp.Flag("media-cache-size", "0"),
			chromedp.Flag("disable-cache", true),
		)
	}

	if cfg.IgnoreTLSErrors {
		opts = append(opts,
			chromedp.Flag("ignore-certificate-errors", true),
			chromedp.Flag("allow-insecure-localhost", true),
		)
	}

	width, height := defaultViewportWidth, defaultViewportHeight
	if w, ok := cfg.Viewport["width"]; ok && w > 0 {
		width = w
	}
	if h, ok := cfg.Viewport["height"]; ok && h > 0 {
		height = h
	}
	opts = append(opts, chromedp.WindowSize(width, height))

	// Custom args arrive as "--name=value" or "--name".
	for _, arg := range cfg.Args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	return opts
}
