package types

import "strings"

const ClassFileExtension = ".class"

// ObjectType identifies a class by its internal name, e.g.
// "androidx/databinding/ViewDataBinding".
type ObjectType struct {
	InternalName string
}

func ObjectTypeByInternalName(name string) ObjectType {
	return ObjectType{InternalName: name}
}

// ClassName returns the dotted binary name.
func (t ObjectType) ClassName() string {
	return strings.ReplaceAll(t.InternalName, "/", ".")
}

// FilePath is the slash-separated path of the class inside a container.
func (t ObjectType) FilePath() string {
	return t.InternalName + ClassFileExtension
}

func (t ObjectType) String() string {
	return t.ClassName()
}

type MethodRef struct {
	Owner      string
	Name       string
	Descriptor string
}

// ClassTarget pairs the class to patch with the gate class whose presence
// makes the patch necessary. The patched bodies call into the gate.
type ClassTarget struct {
	Target ObjectType
	Gate   ObjectType
}

// PatchedMethodSpec names a method whose body is replaced by
// Resolver(Accessor(arg0), arg1), with Resolver invoked statically on the
// gate class.
type PatchedMethodSpec struct {
	Name       string
	Descriptor string
	Accessor   MethodRef
	Resolver   MethodRef
}

func (s PatchedMethodSpec) Key() string {
	return s.Name + s.Descriptor
}

type PatchOutcome string

const (
	PatchOutcomePatched        PatchOutcome = "patched"
	PatchOutcomeGateAbsent     PatchOutcome = "gate-absent"
	PatchOutcomeTargetAbsent   PatchOutcome = "target-absent"
	PatchOutcomeTargetNotOwned PatchOutcome = "target-not-owned"
)

type RewriteResult struct {
	Data     []byte
	Replaced []string
}

type PatchResult struct {
	Outcome        PatchOutcome
	Target         ObjectType
	Gate           ObjectType
	SourceFile     string
	Output         string
	Format         Format
	Methods        []string
	OriginalDigest string
	PatchedDigest  string
}

func (r PatchResult) Patched() bool {
	return r.Outcome == PatchOutcomePatched
}

// MethodCheck reports whether a patchable method exists in a class and
// whether its body already delegates to the gate.
type MethodCheck struct {
	Method    string
	Present   bool
	Delegates bool
}
