package policies

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"databinding-compat/internal/types"
)

const (
	PolicyDefault  = "default"
	PolicyAndroidX = "androidx"
	PolicySupport  = "support"
)

var (
	AndroidXAppCompatResources = types.ObjectTypeByInternalName("androidx/appcompat/content/res/AppCompatResources")
	AndroidXViewDataBinding    = types.ObjectTypeByInternalName("androidx/databinding/ViewDataBinding")
	SupportAppCompatResources  = types.ObjectTypeByInternalName("android/support/v7/content/res/AppCompatResources")
	SupportViewDataBinding     = types.ObjectTypeByInternalName("android/databinding/ViewDataBinding")
	View                       = types.ObjectTypeByInternalName("android/view/View")
)

var viewGetContext = types.MethodRef{
	Owner:      View.InternalName,
	Name:       "getContext",
	Descriptor: "()Landroid/content/Context;",
}

// PatchPolicy lists the (target, gate) candidates in the order they are
// tried and the methods rewritten in whichever target matches first.
type PatchPolicy struct {
	Name       string
	Candidates []types.ClassTarget
	Methods    []types.PatchedMethodSpec
}

func DefaultPolicy() PatchPolicy {
	return PatchPolicy{
		Name: PolicyDefault,
		Candidates: []types.ClassTarget{
			{Target: AndroidXViewDataBinding, Gate: AndroidXAppCompatResources},
			{Target: SupportViewDataBinding, Gate: SupportAppCompatResources},
		},
		Methods: ResourceGetterMethods(),
	}
}

// ResourceGetterMethods are the two ViewDataBinding helpers that resolve
// drawables and color state lists through the deprecated framework APIs.
func ResourceGetterMethods() []types.PatchedMethodSpec {
	return []types.PatchedMethodSpec{
		{
			Name:       "getDrawableFromResource",
			Descriptor: "(Landroid/view/View;I)Landroid/graphics/drawable/Drawable;",
			Accessor:   viewGetContext,
			Resolver: types.MethodRef{
				Name:       "getDrawable",
				Descriptor: "(Landroid/content/Context;I)Landroid/graphics/drawable/Drawable;",
			},
		},
		{
			Name:       "getColorStateListFromResource",
			Descriptor: "(Landroid/view/View;I)Landroid/content/res/ColorStateList;",
			Accessor:   viewGetContext,
			Resolver: types.MethodRef{
				Name:       "getColorStateList",
				Descriptor: "(Landroid/content/Context;I)Landroid/content/res/ColorStateList;",
			},
		},
	}
}

func PolicyByName(name string) (PatchPolicy, error) {
	policy := DefaultPolicy()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyDefault:
		return policy, nil
	case PolicyAndroidX:
		policy.Name = PolicyAndroidX
		policy.Candidates = policy.Candidates[:1]
		return policy, nil
	case PolicySupport:
		policy.Name = PolicySupport
		policy.Candidates = policy.Candidates[1:]
		return policy, nil
	default:
		return PatchPolicy{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown patch policy: %s", name))
	}
}
