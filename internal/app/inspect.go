package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"databinding-compat/internal/classfile"
	"databinding-compat/internal/ports"
	"databinding-compat/internal/shared"
	"databinding-compat/internal/types"
)

// Inspect lists the methods of a class found on the classpath.
func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	class, err := ParseClassName(req.Class)
	if err != nil {
		return InspectResult{}, err
	}
	index, err := s.openIndex(req.Classpath)
	if err != nil {
		return InspectResult{}, err
	}
	defer index.Close()

	file, found, err := index.FindContainingFile(ctx, class)
	if err != nil {
		return InspectResult{}, err
	}
	if !found {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("class %s not found on classpath", class))
	}
	data, err := index.ReadRawBytes(ctx, class)
	if err != nil {
		return InspectResult{}, err
	}
	decoded, err := classfile.Decode(data)
	if err != nil {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("malformed class file for %s", class)).
			WithCause(err)
	}

	result := InspectResult{
		Class:        class,
		SourceFile:   file,
		MajorVersion: decoded.MajorVersion,
		MinorVersion: decoded.MinorVersion,
		Digest:       shared.Digest(data),
	}
	for _, method := range decoded.Methods {
		summary, err := summarizeMethod(decoded, method)
		if err != nil {
			return InspectResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("malformed method in %s", class)).
				WithCause(err)
		}
		result.Methods = append(result.Methods, summary)
	}
	return result, nil
}

func summarizeMethod(class *classfile.Class, method classfile.Member) (InspectMethod, error) {
	name, err := class.MemberName(method)
	if err != nil {
		return InspectMethod{}, err
	}
	descriptor, err := class.MemberDescriptor(method)
	if err != nil {
		return InspectMethod{}, err
	}
	summary := InspectMethod{Access: method.Access, Name: name, Descriptor: descriptor}
	position, err := class.CodeAttribute(method)
	if err != nil {
		return InspectMethod{}, err
	}
	if position < 0 {
		return summary, nil
	}
	code, err := classfile.ParseCode(method.Attributes[position].Info)
	if err != nil {
		return InspectMethod{}, err
	}
	summary.HasCode = true
	summary.MaxStack = code.MaxStack
	summary.MaxLocals = code.MaxLocals
	summary.CodeLength = len(code.Bytecode)
	return summary, nil
}

// ParseClassName accepts a dotted binary name, an internal name or a class
// file path.
func ParseClassName(value string) (types.ObjectType, error) {
	name := strings.TrimSpace(value)
	name = strings.TrimSuffix(name, types.ClassFileExtension)
	name = strings.ReplaceAll(name, ".", "/")
	if name == "" || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") || strings.Contains(name, "//") {
		return types.ObjectType{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid class name %q", value))
	}
	return types.ObjectTypeByInternalName(name), nil
}

func (s Service) openIndex(classpath []string) (ports.ArtifactIndexPort, error) {
	entries := cleanEntries(classpath)
	if len(entries) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("classpath is required")
	}
	return s.NewIndex(entries, s.IndexCacheSize)
}
