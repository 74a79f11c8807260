package app

import "databinding-compat/internal/types"

type TransformRequest struct {
	ManifestPath  string
	BootClasspath []string
	Policy        string
	ReportDir     string
}

type TransformResult struct {
	Units int
	Sync  types.SyncSummary
	Patch types.PatchResult
}

type InspectRequest struct {
	Classpath []string
	Class     string
}

type InspectMethod struct {
	Access     uint16
	Name       string
	Descriptor string
	HasCode    bool
	MaxStack   uint16
	MaxLocals  uint16
	CodeLength int
}

type InspectResult struct {
	Class        types.ObjectType
	SourceFile   string
	MajorVersion uint16
	MinorVersion uint16
	Digest       string
	Methods      []InspectMethod
}

type VerifyRequest struct {
	Classpath []string
	Policy    string
}

type VerifyResult struct {
	Target     types.ObjectType
	Gate       types.ObjectType
	GateFound  bool
	SourceFile string
	Digest     string
	Methods    []types.MethodCheck
	Patched    bool
}
