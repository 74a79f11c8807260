package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"databinding-compat/internal/adapters"
	"databinding-compat/internal/types"
	"databinding-compat/tests/testutil"
)

func newTestSynchronizer() ChangeSynchronizer {
	return NewChangeSynchronizer(adapters.NewFileMirrorAdapter())
}

func TestSyncFullCopyClearsOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	testutil.WriteFile(t, filepath.Join(in, "a", "A.class"), []byte("a"))
	testutil.WriteFile(t, filepath.Join(in, "B.class"), []byte("b"))
	testutil.WriteFile(t, filepath.Join(out, "stale", "S.class"), []byte("stale"))

	unit := types.TransformUnit{Input: in, Output: out, Format: types.FormatDirectory, Changes: types.FullCopy()}
	summary, err := newTestSynchronizer().Sync(t.Context(), []types.TransformUnit{unit})
	require.NoError(t, err)
	if diff := cmp.Diff(types.SyncSummary{Units: 1, Copied: 1}, summary); diff != "" {
		t.Fatalf("unexpected summary (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(listTree(t, in), listTree(t, out)); diff != "" {
		t.Fatalf("output is not a copy of input (-want +got):\n%s", diff)
	}
}

func TestSyncFullCopyWithMissingInputLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	testutil.WriteFile(t, filepath.Join(out, "S.class"), []byte("stale"))

	unit := types.TransformUnit{Input: filepath.Join(dir, "absent"), Output: out, Format: types.FormatDirectory, Changes: types.FullCopy()}
	_, err := newTestSynchronizer().Sync(t.Context(), []types.TransformUnit{unit})
	require.NoError(t, err)
	_, err = os.Stat(out)
	require.True(t, os.IsNotExist(err))
}

func TestSyncIncrementalAppliesFileStatuses(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	testutil.WriteFile(t, filepath.Join(in, "Changed.class"), []byte("changed v2"))
	testutil.WriteFile(t, filepath.Join(in, "pkg", "Added.class"), []byte("added"))
	testutil.WriteFile(t, filepath.Join(in, "Unchanged.class"), []byte("unchanged v2"))
	testutil.WriteFile(t, filepath.Join(in, "Unknown.class"), []byte("unknown v2"))
	testutil.WriteFile(t, filepath.Join(out, "Changed.class"), []byte("changed v1"))
	testutil.WriteFile(t, filepath.Join(out, "Unchanged.class"), []byte("unchanged v1"))
	testutil.WriteFile(t, filepath.Join(out, "Removed.class"), []byte("removed"))
	testutil.WriteFile(t, filepath.Join(out, "Gone.class"), []byte("gone"))
	testutil.WriteFile(t, filepath.Join(out, "Untracked.class"), []byte("untracked"))

	unit := types.TransformUnit{
		Input:  in,
		Output: out,
		Format: types.FormatDirectory,
		Changes: types.Changes{
			HasFileStatuses: true,
			Files: map[string]types.Status{
				filepath.Join(in, "Changed.class"):      types.StatusChanged,
				filepath.Join(in, "pkg", "Added.class"): types.StatusAdded,
				filepath.Join(in, "Unchanged.class"):    types.StatusUnchanged,
				filepath.Join(in, "Removed.class"):      types.StatusRemoved,
				filepath.Join(in, "Unknown.class"):      types.StatusUnknown,
				filepath.Join(in, "Gone.class"):         types.StatusUnknown,
				filepath.Join(in, "pkg"):                types.StatusAdded,
			},
		},
	}
	summary, err := newTestSynchronizer().Sync(t.Context(), []types.TransformUnit{unit})
	require.NoError(t, err)
	if diff := cmp.Diff(types.SyncSummary{Units: 1, Copied: 3, Removed: 2, Skipped: 1}, summary); diff != "" {
		t.Fatalf("unexpected summary (-want +got):\n%s", diff)
	}

	want := map[string]string{
		"Changed.class":   "changed v2",
		"Unchanged.class": "unchanged v1",
		"Unknown.class":   "unknown v2",
		"Untracked.class": "untracked",
		"pkg/Added.class": "added",
	}
	if diff := cmp.Diff(want, listTree(t, out)); diff != "" {
		t.Fatalf("unexpected output tree (-want +got):\n%s", diff)
	}
}

func TestSyncIncrementalCreatesOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(in, 0o755))

	unit := types.TransformUnit{Input: in, Output: out, Format: types.FormatDirectory, Changes: types.Changes{HasFileStatuses: true, Files: map[string]types.Status{}}}
	_, err := newTestSynchronizer().Sync(t.Context(), []types.TransformUnit{unit})
	require.NoError(t, err)
	info, err := os.Stat(out)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestSyncRejectsFilesOutsideInput(t *testing.T) {
	dir := t.TempDir()
	unit := types.TransformUnit{
		Input:  filepath.Join(dir, "in"),
		Output: filepath.Join(dir, "out"),
		Format: types.FormatDirectory,
		Changes: types.Changes{
			HasFileStatuses: true,
			Files:           map[string]types.Status{filepath.Join(dir, "elsewhere", "A.class"): types.StatusAdded},
		},
	}
	_, err := newTestSynchronizer().Sync(t.Context(), []types.TransformUnit{unit})
	require.Error(t, err)
	require.Contains(t, err.Error(), "outside unit input")
}

func TestSyncArchiveUsesAggregateStatus(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "lib.jar")
	testutil.WriteFile(t, in, []byte("jar v2"))

	tests := []struct {
		status types.Status
		prior  string
		want   string
	}{
		{types.StatusAdded, "", "jar v2"},
		{types.StatusChanged, "jar v1", "jar v2"},
		{types.StatusUnchanged, "jar v1", "jar v1"},
		{types.StatusUnknown, "jar v1", "jar v2"},
		{types.StatusRemoved, "jar v1", ""},
	}
	for _, tt := range tests {
		out := filepath.Join(t.TempDir(), "out.jar")
		if tt.prior != "" {
			testutil.WriteFile(t, out, []byte(tt.prior))
		}
		unit := types.TransformUnit{Input: in, Output: out, Format: types.FormatArchive, Changes: types.Changes{Status: tt.status}}
		_, err := newTestSynchronizer().Sync(t.Context(), []types.TransformUnit{unit})
		require.NoError(t, err, tt.status)

		data, err := os.ReadFile(out)
		if tt.want == "" {
			require.True(t, os.IsNotExist(err), "%s: output must be removed", tt.status)
			continue
		}
		require.NoError(t, err)
		if diff := cmp.Diff(tt.want, string(data)); diff != "" {
			t.Fatalf("%s: unexpected output (-want +got):\n%s", tt.status, diff)
		}
	}
}

func TestSyncUnknownArchiveWithMissingInputRemovesOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.jar")
	testutil.WriteFile(t, out, []byte("jar v1"))

	unit := types.TransformUnit{Input: filepath.Join(dir, "absent.jar"), Output: out, Format: types.FormatArchive, Changes: types.Changes{Status: types.StatusUnknown}}
	summary, err := newTestSynchronizer().Sync(t.Context(), []types.TransformUnit{unit})
	require.NoError(t, err)
	if diff := cmp.Diff(1, summary.Removed); diff != "" {
		t.Fatalf("unexpected removed count (-want +got):\n%s", diff)
	}
}

// listTree maps slash-separated relative paths to file contents.
func listTree(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(relative)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}
