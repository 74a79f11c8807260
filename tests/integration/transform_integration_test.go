package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"databinding-compat/internal/app"
	"databinding-compat/internal/policies"
	"databinding-compat/internal/types"
	"databinding-compat/tests/testutil"
)

var (
	bindingPath = filepath.FromSlash(policies.AndroidXViewDataBinding.FilePath())
	otherPath   = filepath.Join("sample", "Other.class")
)

var delegatingDrawable = []string{
	"android/view/View.getContext ()Landroid/content/Context;",
	"androidx/appcompat/content/res/AppCompatResources.getDrawable (Landroid/content/Context;I)Landroid/graphics/drawable/Drawable;",
}

// newWorkspace lays out in/classes with the binding base class and one
// unrelated class, and deps/appcompat.jar holding the gate when withGate.
func newWorkspace(t *testing.T, withGate bool) string {
	t.Helper()
	dir := t.TempDir()
	classes := filepath.Join(dir, "in", "classes")
	testutil.WriteClass(t, classes, policies.AndroidXViewDataBinding.InternalName,
		testutil.BindingClass(t, policies.AndroidXViewDataBinding.InternalName))
	testutil.WriteClass(t, classes, "sample/Other", testutil.PlainClass(t, "sample/Other"))
	if withGate {
		writeGateArchive(t, filepath.Join(dir, "deps", "appcompat.jar"))
	}
	return dir
}

func writeGateArchive(t *testing.T, path string) {
	t.Helper()
	testutil.WriteArchive(t, path, []testutil.ArchiveEntry{
		{Name: testutil.ManifestPath, Data: testutil.Manifest(), Method: zip.Deflate},
		{
			Name:   policies.AndroidXAppCompatResources.FilePath(),
			Data:   testutil.PlainClass(t, policies.AndroidXAppCompatResources.InternalName),
			Method: zip.Deflate,
		},
	})
}

func writeManifest(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	testutil.WriteFile(t, path, []byte(body))
	return path
}

func transform(t *testing.T, manifest string) app.TransformResult {
	t.Helper()
	result, err := app.NewService().Transform(t.Context(), app.TransformRequest{ManifestPath: manifest})
	require.NoError(t, err)
	return result
}

const directoryManifest = `
incremental: false
units:
  - input: in/classes
    output: out/classes
referenced:
  - input: deps/appcompat.jar
`

func TestTransformPatchesDirectoryUnit(t *testing.T) {
	dir := newWorkspace(t, true)
	manifest := writeManifest(t, dir, "transform.yaml", directoryManifest)

	first := transform(t, manifest)
	require.Equal(t, types.PatchOutcomePatched, first.Patch.Outcome)
	assert.Equal(t, types.FormatDirectory, first.Patch.Format)
	assert.Equal(t, []string{testutil.DrawableGetter, testutil.ColorStateListGetter}, first.Patch.Methods)

	out := filepath.Join(dir, "out", "classes")
	patched := testutil.ReadFile(t, filepath.Join(out, bindingPath))
	assert.Equal(t, delegatingDrawable, testutil.MethodCalls(t, patched, testutil.DrawableGetter, testutil.DrawableDescriptor))
	assert.Equal(t, testutil.PlainClass(t, "sample/Other"), testutil.ReadFile(t, filepath.Join(out, otherPath)))
	assert.Equal(t,
		testutil.BindingClass(t, policies.AndroidXViewDataBinding.InternalName),
		testutil.ReadFile(t, filepath.Join(dir, "in", "classes", bindingPath)),
		"input must never be modified")

	second := transform(t, manifest)
	require.Equal(t, types.PatchOutcomePatched, second.Patch.Outcome)
	assert.Equal(t, first.Patch.PatchedDigest, second.Patch.PatchedDigest)
	assert.Equal(t, patched, testutil.ReadFile(t, filepath.Join(out, bindingPath)))
}

func TestTransformWithoutGateOnlyMirrors(t *testing.T) {
	dir := newWorkspace(t, false)
	manifest := writeManifest(t, dir, "transform.yaml", `
incremental: false
units:
  - input: in/classes
    output: out/classes
`)

	result := transform(t, manifest)
	assert.Equal(t, types.PatchOutcomeGateAbsent, result.Patch.Outcome)
	assert.Equal(t, types.SyncSummary{Units: 1, Copied: 1}, result.Sync)
	assert.Equal(t,
		testutil.ReadFile(t, filepath.Join(dir, "in", "classes", bindingPath)),
		testutil.ReadFile(t, filepath.Join(dir, "out", "classes", bindingPath)))
}

func TestTransformLeavesBootClasspathTargetAlone(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteClass(t, filepath.Join(dir, "in", "classes"), "sample/Other", testutil.PlainClass(t, "sample/Other"))
	writeGateArchive(t, filepath.Join(dir, "deps", "appcompat.jar"))
	sdk := filepath.Join(dir, "sdk", "android.jar")
	testutil.WriteArchive(t, sdk, []testutil.ArchiveEntry{
		{
			Name:   policies.AndroidXViewDataBinding.FilePath(),
			Data:   testutil.BindingClass(t, policies.AndroidXViewDataBinding.InternalName),
			Method: zip.Deflate,
		},
	})
	manifest := writeManifest(t, dir, "transform.yaml", `
incremental: false
boot_classpath: [sdk/android.jar]
units:
  - input: in/classes
    output: out/classes
referenced:
  - input: deps/appcompat.jar
`)

	result := transform(t, manifest)
	assert.Equal(t, types.PatchOutcomeTargetNotOwned, result.Patch.Outcome)
	assert.Equal(t, policies.AndroidXViewDataBinding, result.Patch.Target)
	_, err := os.Stat(filepath.Join(dir, "out", "classes", bindingPath))
	assert.True(t, os.IsNotExist(err), "a class outside every unit must not be written")
	assert.Equal(t, testutil.PlainClass(t, "sample/Other"), testutil.ReadFile(t, filepath.Join(dir, "out", "classes", otherPath)))
}

func TestTransformSplicesArchiveUnit(t *testing.T) {
	dir := t.TempDir()
	writeGateArchive(t, filepath.Join(dir, "deps", "appcompat.jar"))
	testutil.WriteArchive(t, filepath.Join(dir, "in", "databinding.jar"), []testutil.ArchiveEntry{
		{Name: testutil.ManifestPath, Data: testutil.Manifest(), Method: zip.Deflate},
		{Name: "androidx/databinding/DataBindingUtil.class", Data: testutil.PlainClass(t, "androidx/databinding/DataBindingUtil"), Method: zip.Store},
		{Name: policies.AndroidXViewDataBinding.FilePath(), Data: testutil.BindingClass(t, policies.AndroidXViewDataBinding.InternalName), Method: zip.Deflate},
		{Name: "androidx/databinding/library/R.txt", Data: []byte("int id root 0x7f010001\n"), Method: zip.Deflate},
	})
	manifest := writeManifest(t, dir, "transform.yaml", `
units:
  - input: in/databinding.jar
    output: out/databinding.jar
    changes:
      status: added
referenced:
  - input: deps/appcompat.jar
`)

	result := transform(t, manifest)
	require.Equal(t, types.PatchOutcomePatched, result.Patch.Outcome)
	assert.Equal(t, types.FormatArchive, result.Patch.Format)

	before := testutil.ReadArchive(t, filepath.Join(dir, "in", "databinding.jar"))
	after := testutil.ReadArchive(t, filepath.Join(dir, "out", "databinding.jar"))
	require.Len(t, after, len(before))
	names := make([]string, 0, len(after))
	for _, entry := range after {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{
		testutil.ManifestPath,
		"androidx/databinding/DataBindingUtil.class",
		"androidx/databinding/library/R.txt",
		policies.AndroidXViewDataBinding.FilePath(),
	}, names)
	for i, original := range []testutil.ArchiveEntry{before[0], before[1], before[3]} {
		assert.Equal(t, original.Method, after[i].Method, original.Name)
		assert.Equal(t, original.Raw, after[i].Raw, "entry %s must keep its stored bytes", original.Name)
	}
	assert.Equal(t, "fixture", testutil.ArchiveComment(t, filepath.Join(dir, "out", "databinding.jar")))
	assert.Equal(t, delegatingDrawable, testutil.MethodCalls(t, after[3].Data, testutil.DrawableGetter, testutil.DrawableDescriptor))
}

func TestTransformIncrementalRemovesDeletedClass(t *testing.T) {
	dir := newWorkspace(t, true)
	transform(t, writeManifest(t, dir, "full.yaml", directoryManifest))
	out := filepath.Join(dir, "out", "classes")
	require.FileExists(t, filepath.Join(out, otherPath))

	require.NoError(t, os.Remove(filepath.Join(dir, "in", "classes", otherPath)))
	manifest := writeManifest(t, dir, "incremental.yaml", `
incremental: true
units:
  - input: in/classes
    output: out/classes
    changes:
      files:
        in/classes/sample/Other.class: removed
        in/classes/androidx/databinding/ViewDataBinding.class: unchanged
referenced:
  - input: deps/appcompat.jar
`)

	result := transform(t, manifest)
	assert.Equal(t, types.SyncSummary{Units: 1, Removed: 1, Skipped: 1}, result.Sync)
	assert.NoFileExists(t, filepath.Join(out, otherPath))
	require.Equal(t, types.PatchOutcomePatched, result.Patch.Outcome)
	patched := testutil.ReadFile(t, filepath.Join(out, bindingPath))
	assert.Equal(t, delegatingDrawable, testutil.MethodCalls(t, patched, testutil.DrawableGetter, testutil.DrawableDescriptor))
}

func TestVerifyReportsPatchedOutput(t *testing.T) {
	dir := newWorkspace(t, true)
	transform(t, writeManifest(t, dir, "transform.yaml", directoryManifest))

	result, err := app.NewService().Verify(t.Context(), app.VerifyRequest{
		Classpath: []string{filepath.Join(dir, "out", "classes"), filepath.Join(dir, "deps", "appcompat.jar")},
	})
	require.NoError(t, err)
	assert.True(t, result.Patched)
	assert.Equal(t, []types.MethodCheck{
		{Method: testutil.DrawableGetter, Present: true, Delegates: true},
		{Method: testutil.ColorStateListGetter, Present: true, Delegates: true},
	}, result.Methods)
}
