// internal/suite/artifacts.go
package suite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeName turns a test or tab name into a single path element.
func sanitizeName(name string) string {
	s := unsafePathChars.ReplaceAllString(name, "_")
	s = strings.Trim(s, "_.")
	if s == "" {
		return "unnamed"
	}
	return s
}

// CaptureArtifacts writes a full-page screenshot and the URL, DOM and console
// log of every open tab to a directory named after label, and returns it.
// It is called automatically when a test fails and screenshots are enabled.
func (c *Context) CaptureArtifacts(ctx context.Context, label string) (string, error) {
	dir := filepath.Join(c.artifactsDir, sanitizeName(label))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	var failed []string
	for _, name := range c.TabNames() {
		session, err := c.Tab(name)
		if err != nil || session.IsClosed() {
			continue
		}
		base := filepath.Join(dir, sanitizeName(name))

		if png, err := session.Screenshot(ctx, true); err != nil {
			c.logger.Warn("Could not capture screenshot.", zap.String("tab", name), zap.Error(err))
			failed = append(failed, name)
		} else if err := os.WriteFile(base+".png", png, 0o644); err != nil {
			return dir, fmt.Errorf("failed to write screenshot for tab %s: %w", name, err)
		}

		artifacts := session.CollectArtifacts(ctx)
		data, err := json.MarshalIndent(artifacts, "", "  ")
		if err != nil {
			return dir, fmt.Errorf("failed to encode artifacts for tab %s: %w", name, err)
		}
		if err := os.WriteFile(base+".json", data, 0o644); err != nil {
			return dir, fmt.Errorf("failed to write artifacts for tab %s: %w", name, err)
		}
	}

	c.logger.Info("Captured failure artifacts.", zap.String("dir", dir), zap.Strings("screenshot_failures", failed))
	return dir, nil
}
