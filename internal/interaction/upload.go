// internal/interaction/upload.go
package interaction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
)

// bytesPerKB is the divisor used for upload size limits.
const bytesPerKB = 1024

// resolveUpload expands ~ and makes filePath absolute, then stats it.
func resolveUpload(filePath string) (string, os.FileInfo, error) {
	expanded, err := homedir.Expand(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("could not expand path %q: %w", filePath, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", nil, fmt.Errorf("could not resolve path %q: %w", filePath, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", nil, fmt.Errorf("upload file unavailable: %w", err)
	}
	if info.IsDir() {
		return "", nil, fmt.Errorf("upload path %s is a directory", abs)
	}
	return abs, info, nil
}

// FileUpload sets the files of the file input at selector to filePath.
func (h *Helper) FileUpload(ctx context.Context, selector, filePath string) (result schemas.ActionResult) {
	start := time.Now()
	defer h.finish(&result, "upload", selector, start)

	abs, _, err := resolveUpload(filePath)
	if err != nil {
		return schemas.Failure(selector, "%v", err)
	}
	return h.upload(ctx, selector, abs)
}

// FileUploadWithLimit rejects files larger than maxKB before touching the
// browser, returning StatusSizeExceeded. Otherwise it behaves like FileUpload.
func (h *Helper) FileUploadWithLimit(ctx context.Context, selector, filePath string, maxKB float64) (result schemas.ActionResult) {
	start := time.Now()
	defer h.finish(&result, "upload", selector, start)

	if maxKB < 0 {
		return schemas.Failure(selector, "size limit must not be negative, got %v KB", maxKB)
	}

	abs, info, err := resolveUpload(filePath)
	if err != nil {
		return schemas.Failure(selector, "%v", err)
	}

	sizeKB := float64(info.Size()) / bytesPerKB
	if sizeKB > maxKB {
		return schemas.ActionResult{
			Status:   schemas.StatusSizeExceeded,
			Selector: selector,
			Message:  fmt.Sprintf("file %s is %.2f KB, limit is %v KB", filepath.Base(abs), sizeKB, maxKB),
		}
	}
	return h.upload(ctx, selector, abs)
}

func (h *Helper) upload(ctx context.Context, selector, abs string) schemas.ActionResult {
	opCtx, cancel := context.WithTimeout(ctx, h.cfg.UploadTimeout)
	defer cancel()

	err := h.exec.RunActions(opCtx,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.SetUploadFiles(selector, []string{abs}, chromedp.ByQuery),
	)
	if err != nil {
		result := schemas.Failure(selector, "%s", describeError(ctx, opCtx, "upload", h.cfg.UploadTimeout, err))
		result.Attempts = 1
		return result
	}
	result := schemas.Success(selector)
	result.Attempts = 1
	return result
}
