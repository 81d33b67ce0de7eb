// internal/suite/cleanup_test.go
package suite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupStack(t *testing.T) {
	var order []string
	var s cleanupStack
	for _, name := range []string{"browser", "main", "report"} {
		s.push(name, func(context.Context) error {
			order = append(order, name)
			if name == "main" {
				return errors.New("tab already gone")
			}
			return nil
		})
	}

	err := s.run(context.Background())

	assert.Equal(t, []string{"report", "main", "browser"}, order, "last registered runs first")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cleanup main: tab already gone")

	order = nil
	require.NoError(t, s.run(context.Background()))
	assert.Empty(t, order, "steps run once")
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"TestReview/AdminApproves": "TestReview_AdminApproves",
		"main":                     "main",
		"../../etc":                "etc",
		"  ":                       "unnamed",
		"report tab #2":            "report_tab_2",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeName(in), in)
	}
}
