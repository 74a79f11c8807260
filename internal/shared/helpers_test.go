package shared

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestIsSafeEntryName(t *testing.T) {
	tests := map[string]bool{
		"androidx/databinding/ViewDataBinding.class": true,
		"META-INF/MANIFEST.MF":                       true,
		"a/b/":                                       true,
		"":                                           false,
		"/etc/passwd":                                false,
		"../escape.class":                            false,
		"a/../../escape.class":                       false,
		"a\\b.class":                                 false,
		"C:/windows.class":                           false,
	}
	for name, want := range tests {
		if diff := cmp.Diff(want, IsSafeEntryName(name)); diff != "" {
			t.Fatalf("%q: unexpected result (-want +got):\n%s", name, diff)
		}
	}
}

func TestDigestIsStable(t *testing.T) {
	first := Digest([]byte("class"))
	if diff := cmp.Diff(64, len(first)); diff != "" {
		t.Fatalf("unexpected digest length (-want +got):\n%s", diff)
	}
	require.Equal(t, first, Digest([]byte("class")))
	require.NotEqual(t, first, Digest([]byte("other")))
}

func TestCanonicalPathResolvesSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "classes")
	require.NoError(t, os.MkdirAll(target, 0o755))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	require.True(t, SamePath(target, link))
	require.Equal(t, CanonicalPath(target), CanonicalPath(filepath.Join(dir, "classes", ".")))

	missing := filepath.Join(dir, "missing", "out")
	require.True(t, filepath.IsAbs(CanonicalPath(missing)))
}
