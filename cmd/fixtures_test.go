// File: cmd/fixtures_test.go
package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validFixture = `{
  "credentials": {"admin": {"email": "admin@vantagefit.test", "password": "secret"}},
  "challenge": {"name": "Spring Step Sprint", "startDate": "2026-03-02", "endDate": "2026-03-29"},
  "uploads": {"banner": {"path": "uploads/banner.png", "maxKB": 1}}
}`

func TestFixturesValidateCmd(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "uploads/banner.png", "png")
		path := writeFile(t, dir, "challenge.json", validFixture)

		out, err := executeCommand(t, NewRootCommand(), "fixtures", "validate", path)
		require.NoError(t, err, out)
		assert.Contains(t, out, "ok   "+path)
		assert.Contains(t, out, `challenge "Spring Step Sprint" 2026-03-02..2026-03-29`)
		assert.Contains(t, out, "1 credentials, 1 uploads, 0 values")
	})

	t.Run("MissingUploadFile", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "challenge.json", validFixture)

		out, err := executeCommand(t, NewRootCommand(), "fixtures", "validate", path)
		require.Error(t, err)
		assert.Contains(t, out, "FAIL "+path)
		assert.Contains(t, out, `upload "banner"`)

		out, err = executeCommand(t, NewRootCommand(), "fixtures", "validate", "--skip-files", path)
		require.NoError(t, err, out)
	})

	t.Run("UploadOverItsLimit", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "uploads/banner.png", string(make([]byte, 2048)))
		path := writeFile(t, dir, "challenge.json", validFixture)

		out, err := executeCommand(t, NewRootCommand(), "fixtures", "validate", path)
		require.Error(t, err)
		assert.Contains(t, out, "exceeds its own 1 KB limit")
	})

	t.Run("ReportsEveryFile", func(t *testing.T) {
		dir := t.TempDir()
		good := writeFile(t, dir, "good.json", `{"values": {"k": "v"}}`)
		bad := writeFile(t, dir, "bad.json", `{"challenge": {"name": "x", "startDate": "03/02/2026"}}`)

		out, err := executeCommand(t, NewRootCommand(), "fixtures", "validate", good, bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 fixture files are invalid")
		assert.Contains(t, out, "ok   "+good)
		assert.Contains(t, out, "FAIL "+bad)
	})
}

func TestCatalogValidateCmd(t *testing.T) {
	path := writeFile(t, t.TempDir(), "catalog.yaml", `
pages:
  review:
    url: /admin/challenges/review
    elements:
      title: h1
      submit: "button[type=submit]"
`)
	out, err := executeCommand(t, NewRootCommand(), "catalog", "validate", path)
	require.NoError(t, err)
	assert.Equal(t, "review: submit, title\n", out)

	bad := writeFile(t, t.TempDir(), "catalog.yaml", "pages: {}\n")
	_, err = executeCommand(t, NewRootCommand(), "catalog", "validate", bad)
	assert.Error(t, err)
}
