package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"databinding-compat/internal/classfile"
	"databinding-compat/internal/policies"
	"databinding-compat/internal/types"
	"databinding-compat/tests/testutil"
)

var androidxTarget = types.ClassTarget{
	Target: policies.AndroidXViewDataBinding,
	Gate:   policies.AndroidXAppCompatResources,
}

func newTestRewriter() MethodBodyRewriter {
	return NewMethodBodyRewriter(policies.ResourceGetterMethods())
}

func TestRewriteDelegatesResourceGetters(t *testing.T) {
	original := testutil.BindingClass(t, androidxTarget.Target.InternalName)

	result, err := newTestRewriter().Rewrite(t.Context(), original, androidxTarget)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"getDrawableFromResource", "getColorStateListFromResource"}, result.Replaced); diff != "" {
		t.Fatalf("unexpected replaced methods (-want +got):\n%s", diff)
	}

	drawable := testutil.MethodCalls(t, result.Data, testutil.DrawableGetter, testutil.DrawableDescriptor)
	want := []string{
		"android/view/View.getContext ()Landroid/content/Context;",
		"androidx/appcompat/content/res/AppCompatResources.getDrawable (Landroid/content/Context;I)Landroid/graphics/drawable/Drawable;",
	}
	if diff := cmp.Diff(want, drawable); diff != "" {
		t.Fatalf("unexpected drawable body (-want +got):\n%s", diff)
	}
	colors := testutil.MethodCalls(t, result.Data, testutil.ColorStateListGetter, testutil.ColorStateListDescriptor)
	want = []string{
		"android/view/View.getContext ()Landroid/content/Context;",
		"androidx/appcompat/content/res/AppCompatResources.getColorStateList (Landroid/content/Context;I)Landroid/content/res/ColorStateList;",
	}
	if diff := cmp.Diff(want, colors); diff != "" {
		t.Fatalf("unexpected color state list body (-want +got):\n%s", diff)
	}
}

func TestRewriteRecomputesCodeMetadata(t *testing.T) {
	original := testutil.BindingClass(t, androidxTarget.Target.InternalName)
	result, err := newTestRewriter().Rewrite(t.Context(), original, androidxTarget)
	require.NoError(t, err)

	class, err := classfile.Decode(result.Data)
	require.NoError(t, err)
	index, err := class.FindMethod(testutil.DrawableGetter, testutil.DrawableDescriptor)
	require.NoError(t, err)
	method := class.Methods[index]
	position, err := class.CodeAttribute(method)
	require.NoError(t, err)
	code, err := classfile.ParseCode(method.Attributes[position].Info)
	require.NoError(t, err)

	if diff := cmp.Diff(uint16(2), code.MaxStack); diff != "" {
		t.Fatalf("unexpected max stack (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(uint16(2), code.MaxLocals); diff != "" {
		t.Fatalf("unexpected max locals (-want +got):\n%s", diff)
	}
	if len(code.Attributes) != 0 {
		t.Fatalf("stale line numbers and frames must be dropped, got %d attributes", len(code.Attributes))
	}
}

func TestRewriteLeavesOverloadsAndOtherMembers(t *testing.T) {
	original := testutil.BindingClass(t, androidxTarget.Target.InternalName)
	before, err := classfile.Decode(original)
	require.NoError(t, err)

	result, err := newTestRewriter().Rewrite(t.Context(), original, androidxTarget)
	require.NoError(t, err)
	after, err := classfile.Decode(result.Data)
	require.NoError(t, err)

	if diff := cmp.Diff(len(before.Methods), len(after.Methods)); diff != "" {
		t.Fatalf("method count changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before.Fields, after.Fields); diff != "" {
		t.Fatalf("fields changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before.Attributes, after.Attributes); diff != "" {
		t.Fatalf("class attributes changed (-want +got):\n%s", diff)
	}
	overload, err := before.FindMethod(testutil.DrawableGetter, "(I)Landroid/graphics/drawable/Drawable;")
	require.NoError(t, err)
	if diff := cmp.Diff(before.Methods[overload], after.Methods[overload]); diff != "" {
		t.Fatalf("overload must be untouched (-want +got):\n%s", diff)
	}
}

func TestRewriteIsIdempotent(t *testing.T) {
	original := testutil.BindingClass(t, androidxTarget.Target.InternalName)
	rewriter := newTestRewriter()

	once, err := rewriter.Rewrite(t.Context(), original, androidxTarget)
	require.NoError(t, err)
	twice, err := rewriter.Rewrite(t.Context(), once.Data, androidxTarget)
	require.NoError(t, err)
	if diff := cmp.Diff(once.Data, twice.Data); diff != "" {
		t.Fatalf("second rewrite changed the class (-want +got):\n%s", diff)
	}
}

func TestRewriteWithoutMatchesReturnsInput(t *testing.T) {
	target := types.ClassTarget{
		Target: types.ObjectTypeByInternalName("sample/Plain"),
		Gate:   policies.AndroidXAppCompatResources,
	}
	original := testutil.PlainClass(t, target.Target.InternalName)

	result, err := newTestRewriter().Rewrite(t.Context(), original, target)
	require.NoError(t, err)
	if diff := cmp.Diff(original, result.Data); diff != "" {
		t.Fatalf("unmatched class must pass through (-want +got):\n%s", diff)
	}
	if len(result.Replaced) != 0 {
		t.Fatalf("no method should be reported as replaced: %v", result.Replaced)
	}
}

func TestRewriteRejectsMismatchedClass(t *testing.T) {
	original := testutil.BindingClass(t, policies.SupportViewDataBinding.InternalName)
	_, err := newTestRewriter().Rewrite(t.Context(), original, androidxTarget)
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))

	_, err = newTestRewriter().Rewrite(t.Context(), []byte{0xCA, 0xFE}, androidxTarget)
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestDelegatesReportsPatchState(t *testing.T) {
	original := testutil.BindingClass(t, androidxTarget.Target.InternalName)
	rewriter := newTestRewriter()

	checks, err := rewriter.Delegates(t.Context(), original, androidxTarget)
	require.NoError(t, err)
	want := []types.MethodCheck{
		{Method: "getDrawableFromResource", Present: true},
		{Method: "getColorStateListFromResource", Present: true},
	}
	if diff := cmp.Diff(want, checks); diff != "" {
		t.Fatalf("unexpected checks before patch (-want +got):\n%s", diff)
	}

	patched, err := rewriter.Rewrite(t.Context(), original, androidxTarget)
	require.NoError(t, err)
	checks, err = rewriter.Delegates(t.Context(), patched.Data, androidxTarget)
	require.NoError(t, err)
	want = []types.MethodCheck{
		{Method: "getDrawableFromResource", Present: true, Delegates: true},
		{Method: "getColorStateListFromResource", Present: true, Delegates: true},
	}
	if diff := cmp.Diff(want, checks); diff != "" {
		t.Fatalf("unexpected checks after patch (-want +got):\n%s", diff)
	}

	supportGate := types.ClassTarget{Target: androidxTarget.Target, Gate: policies.SupportAppCompatResources}
	checks, err = rewriter.Delegates(t.Context(), patched.Data, supportGate)
	require.NoError(t, err)
	if checks[0].Delegates {
		t.Fatalf("body delegating to another gate must not count")
	}
}
