package integration

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"databinding-compat/internal/app"
	"databinding-compat/tests/testutil"
)

// TestGoldenPatchedMethods renders the method table and call sites of the
// patched binding class and compares it against a committed golden file.
func TestGoldenPatchedMethods(t *testing.T) {
	dir := newWorkspace(t, true)
	transform(t, writeManifest(t, dir, "transform.yaml", directoryManifest))

	out := filepath.Join(dir, "out", "classes")
	inspected, err := app.NewService().Inspect(t.Context(), app.InspectRequest{
		Classpath: []string{out},
		Class:     "androidx.databinding.ViewDataBinding",
	})
	require.NoError(t, err)
	data := testutil.ReadFile(t, filepath.Join(out, bindingPath))

	var b strings.Builder
	fmt.Fprintf(&b, "class %s %d.%d\n", inspected.Class.InternalName, inspected.MajorVersion, inspected.MinorVersion)
	for _, method := range inspected.Methods {
		if !method.HasCode {
			fmt.Fprintf(&b, "0x%04x %s%s\n", method.Access, method.Name, method.Descriptor)
			continue
		}
		fmt.Fprintf(&b, "0x%04x %s%s stack=%d locals=%d code=%d\n",
			method.Access, method.Name, method.Descriptor, method.MaxStack, method.MaxLocals, method.CodeLength)
		for _, call := range testutil.MethodCalls(t, data, method.Name, method.Descriptor) {
			fmt.Fprintf(&b, "  %s\n", call)
		}
	}
	testutil.AssertGolden(t, "patched-methods.txt", []byte(b.String()))
}
