package classfile

import (
	"fmt"
	"strings"
)

// FieldType is a single field descriptor such as "I", "J" or
// "Landroid/view/View;".
type FieldType string

// Slots is the number of local variable or operand stack slots the type
// occupies.
func (t FieldType) Slots() int {
	switch t {
	case "V":
		return 0
	case "J", "D":
		return 2
	default:
		return 1
	}
}

func (t FieldType) IsReference() bool {
	return strings.HasPrefix(string(t), "L") || strings.HasPrefix(string(t), "[")
}

type MethodDescriptor struct {
	Params []FieldType
	Return FieldType
}

// ParamSlots is the total slot size of the parameters, excluding the
// receiver.
func (d MethodDescriptor) ParamSlots() int {
	total := 0
	for _, param := range d.Params {
		total += param.Slots()
	}
	return total
}

func ParseMethodDescriptor(descriptor string) (MethodDescriptor, error) {
	if !strings.HasPrefix(descriptor, "(") {
		return MethodDescriptor{}, fmt.Errorf("method descriptor %q does not start with '('", descriptor)
	}
	var parsed MethodDescriptor
	rest := descriptor[1:]
	for {
		if rest == "" {
			return MethodDescriptor{}, fmt.Errorf("method descriptor %q is missing ')'", descriptor)
		}
		if rest[0] == ')' {
			rest = rest[1:]
			break
		}
		field, tail, err := nextFieldType(rest)
		if err != nil {
			return MethodDescriptor{}, fmt.Errorf("method descriptor %q: %w", descriptor, err)
		}
		if field == "V" {
			return MethodDescriptor{}, fmt.Errorf("method descriptor %q has a void parameter", descriptor)
		}
		parsed.Params = append(parsed.Params, field)
		rest = tail
	}
	ret, tail, err := nextFieldType(rest)
	if err != nil {
		return MethodDescriptor{}, fmt.Errorf("method descriptor %q: %w", descriptor, err)
	}
	if tail != "" {
		return MethodDescriptor{}, fmt.Errorf("method descriptor %q has trailing characters", descriptor)
	}
	parsed.Return = ret
	return parsed, nil
}

func nextFieldType(value string) (FieldType, string, error) {
	if value == "" {
		return "", "", fmt.Errorf("unexpected end of descriptor")
	}
	switch value[0] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 'V':
		return FieldType(value[:1]), value[1:], nil
	case 'L':
		end := strings.IndexByte(value, ';')
		if end < 2 {
			return "", "", fmt.Errorf("unterminated class type in %q", value)
		}
		return FieldType(value[:end+1]), value[end+1:], nil
	case '[':
		dims := 0
		for dims < len(value) && value[dims] == '[' {
			dims++
		}
		element, tail, err := nextFieldType(value[dims:])
		if err != nil {
			return "", "", err
		}
		if element == "V" {
			return "", "", fmt.Errorf("array of void in %q", value)
		}
		return FieldType(value[:dims]) + element, tail, nil
	default:
		return "", "", fmt.Errorf("unexpected character %q", value[0])
	}
}
