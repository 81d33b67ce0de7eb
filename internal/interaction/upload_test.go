// internal/interaction/upload_test.go
package interaction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
)

func writeSizedFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, make([]byte, size), 0o600))
	return p
}

func TestFileUploadWithLimit(t *testing.T) {
	dir := t.TempDir()
	twoKB := writeSizedFile(t, dir, "banner.png", 2048)
	justOver := writeSizedFile(t, dir, "banner-large.png", 2049)

	tests := []struct {
		name       string
		path       string
		limitKB    float64
		wantStatus schemas.Status
		wantCalls  int
	}{
		{"UnderLimit", twoKB, 5, schemas.StatusSuccess, 1},
		{"ExactlyAtLimit", twoKB, 2, schemas.StatusSuccess, 1},
		{"FractionallyOver", justOver, 2, schemas.StatusSizeExceeded, 0},
		{"WellOver", twoKB, 1, schemas.StatusSizeExceeded, 0},
		{"ZeroLimit", twoKB, 0, schemas.StatusSizeExceeded, 0},
		{"NegativeLimit", twoKB, -1, schemas.StatusFailure, 0},
		{"MissingFile", filepath.Join(dir, "nope.png"), 5, schemas.StatusFailure, 0},
		{"Directory", dir, 5, schemas.StatusFailure, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeExecutor{}
			h := newTestHelper(t, fake)

			result := h.FileUploadWithLimit(context.Background(), "input[type=file]", tc.path, tc.limitKB)

			assert.Equal(t, tc.wantStatus, result.Status, result.String())
			assert.Len(t, fake.Calls(), tc.wantCalls, "size policy is checked before any browser call")
			if tc.wantStatus == schemas.StatusSizeExceeded {
				assert.Contains(t, result.Message, "limit is")
			}
		})
	}
}

func TestFileUpload(t *testing.T) {
	t.Run("ExpandsHomeDirectory", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		homedir.DisableCache = true
		t.Cleanup(func() { homedir.DisableCache = false })
		writeSizedFile(t, home, "avatar.jpg", 10)

		fake := &fakeExecutor{}
		h := newTestHelper(t, fake)

		result := h.FileUpload(context.Background(), "#avatar", "~/avatar.jpg")

		requireResult(t, schemas.ActionResult{Status: schemas.StatusSuccess, Selector: "#avatar", Attempts: 1}, result)
		require.Len(t, fake.Calls(), 1)
		assert.Equal(t, 2, fake.Calls()[0].actions, "wait ready, set files")
	})

	t.Run("BrowserErrorIsFailure", func(t *testing.T) {
		file := writeSizedFile(t, t.TempDir(), "doc.pdf", 10)
		fake := &fakeExecutor{handler: func(context.Context, int, []chromedp.Action) error {
			return errors.New("node is not a file input element")
		}}
		h := newTestHelper(t, fake)

		result := h.FileUpload(context.Background(), "#not-a-file-input", file)

		assert.Equal(t, schemas.StatusFailure, result.Status)
		assert.Contains(t, result.Message, "not a file input")
	})

	t.Run("MissingFileNeverTouchesBrowser", func(t *testing.T) {
		fake := &fakeExecutor{}
		h := newTestHelper(t, fake)

		result := h.FileUpload(context.Background(), "#avatar", filepath.Join(t.TempDir(), "missing.jpg"))

		assert.Equal(t, schemas.StatusFailure, result.Status)
		assert.Contains(t, result.Message, "upload file unavailable")
		assert.Empty(t, fake.Calls())
	})
}
