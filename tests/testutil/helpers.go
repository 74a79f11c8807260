package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RepoRoot returns the repository root for tests two levels below it.
func RepoRoot(t testing.TB) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// AssertGolden compares actual against tests/integration/testdata/golden/<name>.
// A missing golden file is written instead so it can be committed; delete
// it and re-run to regenerate after an intentional change.
func AssertGolden(t testing.TB, name string, actual []byte) {
	t.Helper()
	goldenDir := filepath.Join(RepoRoot(t), "tests", "integration", "testdata", "golden")
	goldenPath := filepath.Join(goldenDir, name)
	if _, err := os.Stat(goldenPath); os.IsNotExist(err) {
		require.NoError(t, os.MkdirAll(goldenDir, 0o755))
		require.NoError(t, os.WriteFile(goldenPath, actual, 0o644))
		t.Logf("golden file written: %s (commit it)", goldenPath)
		return
	}
	expected, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t, string(expected), string(actual),
		"golden mismatch for %s -- delete it and re-run to regenerate", name)
}
