// Package testutil provides shared test helpers used across integration
// and unit test packages: class file fixtures and archive builders.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"databinding-compat/internal/classfile"
)

const (
	DrawableGetter           = "getDrawableFromResource"
	DrawableDescriptor       = "(Landroid/view/View;I)Landroid/graphics/drawable/Drawable;"
	ColorStateListGetter     = "getColorStateListFromResource"
	ColorStateListDescriptor = "(Landroid/view/View;I)Landroid/content/res/ColorStateList;"
	drawableOverloadDescr    = "(I)Landroid/graphics/drawable/Drawable;"
)

// BindingClass builds a class shaped like ViewDataBinding: the two
// resource getters resolve through View.getResources(), there is an
// overload that must never match, an abstract method, a field and a
// SourceFile attribute.
func BindingClass(t testing.TB, internalName string) []byte {
	t.Helper()
	class, err := classfile.NewClass(52, classfile.AccPublic|classfile.AccSuper|classfile.AccAbstract, internalName, "java/lang/Object")
	require.NoError(t, err)
	require.NoError(t, class.AddField(classfile.AccPrivate, "mRoot", "Landroid/view/View;"))

	addResourcesGetter(t, class, DrawableGetter, DrawableDescriptor, "android/content/res/Resources", "getDrawable", "(I)Landroid/graphics/drawable/Drawable;")
	addResourcesGetter(t, class, ColorStateListGetter, ColorStateListDescriptor, "android/content/res/Resources", "getColorStateList", "(I)Landroid/content/res/ColorStateList;")

	asm, err := classfile.NewAssembler(class.Pool, classfile.AccProtected|classfile.AccStatic, drawableOverloadDescr)
	require.NoError(t, err)
	asm.PushNull()
	asm.ReturnValue()
	code, err := asm.Finish()
	require.NoError(t, err)
	require.NoError(t, class.AddMethod(classfile.AccProtected|classfile.AccStatic, DrawableGetter, drawableOverloadDescr, code))

	require.NoError(t, class.AddMethod(classfile.AccProtected|classfile.AccAbstract, "executeBindings", "()V", nil))

	sourceFile, err := class.Pool.AddUtf8("SourceFile")
	require.NoError(t, err)
	sourceName, err := class.Pool.AddUtf8("ViewDataBinding.java")
	require.NoError(t, err)
	class.Attributes = append(class.Attributes, classfile.Attribute{
		NameIndex: sourceFile,
		Info:      []byte{byte(sourceName >> 8), byte(sourceName)},
	})
	return class.Encode()
}

func addResourcesGetter(t testing.TB, class *classfile.Class, name, descriptor, owner, resolver, resolverDescriptor string) {
	t.Helper()
	asm, err := classfile.NewAssembler(class.Pool, classfile.AccProtected|classfile.AccStatic, descriptor)
	require.NoError(t, err)
	asm.LoadArg(0)
	asm.InvokeVirtual("android/view/View", "getResources", "()Landroid/content/res/Resources;")
	asm.LoadArg(1)
	asm.InvokeVirtual(owner, resolver, resolverDescriptor)
	asm.ReturnValue()
	code, err := asm.Finish()
	require.NoError(t, err)

	lineNumbers, err := class.Pool.AddUtf8("LineNumberTable")
	require.NoError(t, err)
	stackMap, err := class.Pool.AddUtf8(classfile.AttributeStackMapTable)
	require.NoError(t, err)
	code.Attributes = append(code.Attributes,
		classfile.Attribute{NameIndex: lineNumbers, Info: []byte{0, 1, 0, 0, 0, 12}},
		classfile.Attribute{NameIndex: stackMap, Info: []byte{0, 0}},
	)
	require.NoError(t, class.AddMethod(classfile.AccProtected|classfile.AccStatic, name, descriptor, code))
}

// PlainClass builds a class with a single no-op static method.
func PlainClass(t testing.TB, internalName string) []byte {
	t.Helper()
	class, err := classfile.NewClass(52, classfile.AccPublic|classfile.AccSuper, internalName, "java/lang/Object")
	require.NoError(t, err)
	asm, err := classfile.NewAssembler(class.Pool, classfile.AccPublic|classfile.AccStatic, "()V")
	require.NoError(t, err)
	asm.ReturnValue()
	code, err := asm.Finish()
	require.NoError(t, err)
	require.NoError(t, class.AddMethod(classfile.AccPublic|classfile.AccStatic, "noop", "()V", code))
	return class.Encode()
}

// WriteClass stores data under root at the path derived from internalName
// and returns that path.
func WriteClass(t testing.TB, root, internalName string, data []byte) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(internalName)+".class")
	WriteFile(t, path, data)
	return path
}

func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func ReadFile(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// MethodCalls decodes the class and lists the invocations in the body of
// the named method as "owner.name descriptor". Only the opcodes produced by
// these fixtures and by the rewriter are understood.
func MethodCalls(t testing.TB, data []byte, name, descriptor string) []string {
	t.Helper()
	class, err := classfile.Decode(data)
	require.NoError(t, err)
	index, err := class.FindMethod(name, descriptor)
	require.NoError(t, err)
	require.GreaterOrEqual(t, index, 0, "method %s%s not found", name, descriptor)
	method := class.Methods[index]
	position, err := class.CodeAttribute(method)
	require.NoError(t, err)
	require.GreaterOrEqual(t, position, 0, "method %s%s has no code", name, descriptor)
	code, err := classfile.ParseCode(method.Attributes[position].Info)
	require.NoError(t, err)

	var calls []string
	for pc := 0; pc < len(code.Bytecode); {
		opcode := code.Bytecode[pc]
		switch {
		case opcode == 0xb6 || opcode == 0xb8:
			ref := uint16(code.Bytecode[pc+1])<<8 | uint16(code.Bytecode[pc+2])
			owner, member, memberDescriptor, err := class.Pool.MemberRef(ref)
			require.NoError(t, err)
			calls = append(calls, owner+"."+member+" "+memberDescriptor)
			pc += 3
		case opcode == 0x01 || (opcode >= 0x1a && opcode <= 0x2d) || (opcode >= 0xac && opcode <= 0xb1):
			pc++
		case opcode >= 0x15 && opcode <= 0x19:
			pc += 2
		default:
			t.Fatalf("unexpected opcode 0x%02x at %d in %s", opcode, pc, name)
		}
	}
	return calls
}
