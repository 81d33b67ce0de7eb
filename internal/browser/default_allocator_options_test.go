// internal/browser/default_allocator_options_test.go
package browser

import (
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/vfit-e2e/internal/config"
)

func TestDefaultAllocatorOptions(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		opts := DefaultAllocatorOptions(config.BrowserConfig{Headless: true})
		assert.Len(t, opts, len(chromedp.DefaultExecAllocatorOptions)+1, "only the window size is appended")
	})

	t.Run("HeadlessDisabled", func(t *testing.T) {
		opts := DefaultAllocatorOptions(config.BrowserConfig{Headless: false})
		assert.Len(t, opts, len(chromedp.DefaultExecAllocatorOptions)+2)
	})

	t.Run("CacheDisabled", func(t *testing.T) {
		opts := DefaultAllocatorOptions(config.BrowserConfig{Headless: true, DisableCache: true})
		assert.Len(t, opts, len(chromedp.DefaultExecAllocatorOptions)+4)
	})

	t.Run("IgnoreTLSErrors", func(t *testing.T) {
		opts := DefaultAllocatorOptions(config.BrowserConfig{Headless: true, IgnoreTLSErrors: true})
		assert.Len(t, opts, len(chromedp.DefaultExecAllocatorOptions)+3)
	})

	t.Run("WithCustomArgs", func(t *testing.T) {
		opts := DefaultAllocatorOptions(config.BrowserConfig{
			Headless: true,
			Args:     []string{"--lang=en-GB", "--mute-audio", "--"},
		})
		// The bare "--" is dropped.
		assert.Len(t, opts, len(chromedp.DefaultExecAllocatorOptions)+3)
	})

	t.Run("WithExecPath", func(t *testing.T) {
		opts := DefaultAllocatorOptions(config.BrowserConfig{Headless: true, ExecPath: "/usr/bin/chromium"})
		assert.Len(t, opts, len(chromedp.DefaultExecAllocatorOptions)+2)
	})

	t.Run("OptionsAreNotShared", func(t *testing.T) {
		a := DefaultAllocatorOptions(config.BrowserConfig{Headless: true, Args: []string{"--a"}})
		b := DefaultAllocatorOptions(config.BrowserConfig{Headless: true})
		assert.NotEqual(t, len(a), len(b))
		assert.Len(t, chromedp.DefaultExecAllocatorOptions, len(b)-1, "package defaults must not be mutated")
	})
}
