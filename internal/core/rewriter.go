package core

import (
	"bytes"
	"context"
	"fmt"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"databinding-compat/internal/classfile"
	"databinding-compat/internal/types"
)

// MethodBodyRewriter replaces the bodies of the configured methods with a
// delegation to a static resolver on the gate class.
type MethodBodyRewriter struct {
	Methods []types.PatchedMethodSpec
}

func NewMethodBodyRewriter(methods []types.PatchedMethodSpec) MethodBodyRewriter {
	return MethodBodyRewriter{Methods: methods}
}

// Rewrite returns the class with every matching method body replaced. When
// no method matches, the input bytes are returned as is.
func (r MethodBodyRewriter) Rewrite(ctx context.Context, data []byte, target types.ClassTarget) (types.RewriteResult, error) {
	assert.NotEmpty(ctx, target.Target.InternalName, "target class must be set")
	assert.NotEmpty(ctx, target.Gate.InternalName, "gate class must be set")

	class, err := decodeTarget(data, target.Target)
	if err != nil {
		return types.RewriteResult{}, err
	}

	var replaced []string
	for _, spec := range r.Methods {
		index, err := class.FindMethod(spec.Name, spec.Descriptor)
		if err != nil {
			return types.RewriteResult{}, malformedClass(target.Target, err)
		}
		if index < 0 {
			continue
		}
		method := &class.Methods[index]
		if method.Access&(classfile.AccAbstract|classfile.AccNative) != 0 {
			log.Ctx(ctx).Debug().Str("class", target.Target.ClassName()).Str("method", spec.Name).Msg("method has no body, skipping")
			continue
		}
		position, err := class.CodeAttribute(*method)
		if err != nil {
			return types.RewriteResult{}, malformedClass(target.Target, err)
		}
		if position < 0 {
			continue
		}
		code, err := delegationBody(class.Pool, method.Access, spec, target.Gate)
		if err != nil {
			return types.RewriteResult{}, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("failed to synthesize %s%s in %s", spec.Name, spec.Descriptor, target.Target)).
				WithCause(err)
		}
		method.Attributes[position].Info = code.Encode()
		replaced = append(replaced, spec.Name)
		log.Ctx(ctx).Debug().
			Str("class", target.Target.ClassName()).
			Str("method", spec.Name+spec.Descriptor).
			Uint16("max_stack", code.MaxStack).
			Uint16("max_locals", code.MaxLocals).
			Msg("method body replaced")
	}
	if len(replaced) == 0 {
		return types.RewriteResult{Data: data}, nil
	}
	return types.RewriteResult{Data: class.Encode(), Replaced: replaced}, nil
}

// Delegates checks each configured method of the class against the body
// Rewrite would produce for the given gate. The class is not modified.
func (r MethodBodyRewriter) Delegates(ctx context.Context, data []byte, target types.ClassTarget) ([]types.MethodCheck, error) {
	assert.NotEmpty(ctx, target.Gate.InternalName, "gate class must be set")

	class, err := decodeTarget(data, target.Target)
	if err != nil {
		return nil, err
	}
	checks := make([]types.MethodCheck, 0, len(r.Methods))
	for _, spec := range r.Methods {
		check := types.MethodCheck{Method: spec.Name}
		index, err := class.FindMethod(spec.Name, spec.Descriptor)
		if err != nil {
			return nil, malformedClass(target.Target, err)
		}
		if index < 0 {
			checks = append(checks, check)
			continue
		}
		check.Present = true
		method := class.Methods[index]
		position, err := class.CodeAttribute(method)
		if err != nil {
			return nil, malformedClass(target.Target, err)
		}
		if position >= 0 {
			existing, err := classfile.ParseCode(method.Attributes[position].Info)
			if err != nil {
				return nil, malformedClass(target.Target, err)
			}
			expected, err := delegationBody(class.Pool.Clone(), method.Access, spec, target.Gate)
			if err != nil {
				return nil, malformedClass(target.Target, err)
			}
			check.Delegates = bytes.Equal(existing.Bytecode, expected.Bytecode)
		}
		checks = append(checks, check)
	}
	return checks, nil
}

// delegationBody emits resolver(accessor(arg0), arg1) and returns its result.
func delegationBody(pool *classfile.ConstantPool, access uint16, spec types.PatchedMethodSpec, gate types.ObjectType) (*classfile.Code, error) {
	asm, err := classfile.NewAssembler(pool, access, spec.Descriptor)
	if err != nil {
		return nil, err
	}
	asm.LoadArg(0)
	asm.InvokeVirtual(spec.Accessor.Owner, spec.Accessor.Name, spec.Accessor.Descriptor)
	asm.LoadArg(1)
	asm.InvokeStatic(gate.InternalName, spec.Resolver.Name, spec.Resolver.Descriptor)
	asm.ReturnValue()
	return asm.Finish()
}

func decodeTarget(data []byte, target types.ObjectType) (*classfile.Class, error) {
	class, err := classfile.Decode(data)
	if err != nil {
		return nil, malformedClass(target, err)
	}
	name, err := class.Name()
	if err != nil {
		return nil, malformedClass(target, err)
	}
	if name != target.InternalName {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("class bytes define %s, expected %s", name, target.InternalName))
	}
	return class, nil
}

func malformedClass(target types.ObjectType, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("malformed class file for %s", target)).
		WithCause(err)
}
