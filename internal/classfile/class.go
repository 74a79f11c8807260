package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const Magic uint32 = 0xCAFEBABE

const (
	AccPublic    uint16 = 0x0001
	AccPrivate   uint16 = 0x0002
	AccProtected uint16 = 0x0004
	AccStatic    uint16 = 0x0008
	AccFinal     uint16 = 0x0010
	AccSuper     uint16 = 0x0020
	AccNative    uint16 = 0x0100
	AccAbstract  uint16 = 0x0400
)

const (
	AttributeCode          = "Code"
	AttributeStackMapTable = "StackMapTable"
)

var ErrTruncated = errors.New("class file is truncated")

type Attribute struct {
	NameIndex uint16
	Info      []byte
}

// Member is a field_info or method_info structure.
type Member struct {
	Access          uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

type Class struct {
	MinorVersion uint16
	MajorVersion uint16
	Pool         *ConstantPool
	Access       uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Member
	Methods      []Member
	Attributes   []Attribute
}

// NewClass starts an empty class, mostly useful for building fixtures.
func NewClass(major uint16, access uint16, name, super string) (*Class, error) {
	pool := newConstantPool()
	this, err := pool.AddClass(name)
	if err != nil {
		return nil, err
	}
	class := &Class{MajorVersion: major, Pool: pool, Access: access, ThisClass: this}
	if super != "" {
		if class.SuperClass, err = pool.AddClass(super); err != nil {
			return nil, err
		}
	}
	return class, nil
}

func (c *Class) Name() (string, error) {
	return c.Pool.ClassName(c.ThisClass)
}

func (c *Class) MemberName(m Member) (string, error) {
	return c.Pool.Utf8(m.NameIndex)
}

func (c *Class) MemberDescriptor(m Member) (string, error) {
	return c.Pool.Utf8(m.DescriptorIndex)
}

// FindMethod returns the index of the method with exactly this name and
// descriptor, or -1.
func (c *Class) FindMethod(name, descriptor string) (int, error) {
	for i, method := range c.Methods {
		methodName, err := c.MemberName(method)
		if err != nil {
			return -1, err
		}
		methodDescriptor, err := c.MemberDescriptor(method)
		if err != nil {
			return -1, err
		}
		if methodName == name && methodDescriptor == descriptor {
			return i, nil
		}
	}
	return -1, nil
}

// AddMethod appends a method. A nil code leaves the method without a Code
// attribute, as for abstract or native methods.
func (c *Class) AddMethod(access uint16, name, descriptor string, code *Code) error {
	nameIndex, err := c.Pool.AddUtf8(name)
	if err != nil {
		return err
	}
	descriptorIndex, err := c.Pool.AddUtf8(descriptor)
	if err != nil {
		return err
	}
	method := Member{Access: access, NameIndex: nameIndex, DescriptorIndex: descriptorIndex}
	if code != nil {
		codeName, err := c.Pool.AddUtf8(AttributeCode)
		if err != nil {
			return err
		}
		method.Attributes = append(method.Attributes, Attribute{NameIndex: codeName, Info: code.Encode()})
	}
	c.Methods = append(c.Methods, method)
	return nil
}

// AddField appends a field without attributes.
func (c *Class) AddField(access uint16, name, descriptor string) error {
	nameIndex, err := c.Pool.AddUtf8(name)
	if err != nil {
		return err
	}
	descriptorIndex, err := c.Pool.AddUtf8(descriptor)
	if err != nil {
		return err
	}
	c.Fields = append(c.Fields, Member{Access: access, NameIndex: nameIndex, DescriptorIndex: descriptorIndex})
	return nil
}

// CodeAttribute returns the position of the member's Code attribute, or -1.
func (c *Class) CodeAttribute(m Member) (int, error) {
	for i, attribute := range m.Attributes {
		name, err := c.Pool.Utf8(attribute.NameIndex)
		if err != nil {
			return -1, err
		}
		if name == AttributeCode {
			return i, nil
		}
	}
	return -1, nil
}

func Decode(data []byte) (*Class, error) {
	d := &decoder{data: data}
	if magic := d.u4(); d.err == nil && magic != Magic {
		return nil, fmt.Errorf("bad magic 0x%08X", magic)
	}
	class := &Class{Pool: &ConstantPool{}}
	class.MinorVersion = d.u2()
	class.MajorVersion = d.u2()
	if d.err != nil {
		return nil, d.err
	}
	if err := class.Pool.decode(d); err != nil {
		return nil, err
	}
	class.Access = d.u2()
	class.ThisClass = d.u2()
	class.SuperClass = d.u2()
	interfaces := int(d.u2())
	for i := 0; i < interfaces && d.err == nil; i++ {
		class.Interfaces = append(class.Interfaces, d.u2())
	}
	class.Fields = d.members()
	class.Methods = d.members()
	class.Attributes = d.attributes()
	if d.err != nil {
		return nil, d.err
	}
	if d.off != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after class structure", len(data)-d.off)
	}
	if _, err := class.Name(); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	return class, nil
}

func (c *Class) Encode() []byte {
	buf := binary.BigEndian.AppendUint32(nil, Magic)
	buf = binary.BigEndian.AppendUint16(buf, c.MinorVersion)
	buf = binary.BigEndian.AppendUint16(buf, c.MajorVersion)
	buf = c.Pool.encode(buf)
	buf = binary.BigEndian.AppendUint16(buf, c.Access)
	buf = binary.BigEndian.AppendUint16(buf, c.ThisClass)
	buf = binary.BigEndian.AppendUint16(buf, c.SuperClass)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(c.Interfaces)))
	for _, iface := range c.Interfaces {
		buf = binary.BigEndian.AppendUint16(buf, iface)
	}
	buf = encodeMembers(buf, c.Fields)
	buf = encodeMembers(buf, c.Methods)
	return encodeAttributes(buf, c.Attributes)
}

func encodeMembers(buf []byte, members []Member) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(members)))
	for _, member := range members {
		buf = binary.BigEndian.AppendUint16(buf, member.Access)
		buf = binary.BigEndian.AppendUint16(buf, member.NameIndex)
		buf = binary.BigEndian.AppendUint16(buf, member.DescriptorIndex)
		buf = encodeAttributes(buf, member.Attributes)
	}
	return buf
}

func encodeAttributes(buf []byte, attributes []Attribute) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(attributes)))
	for _, attribute := range attributes {
		buf = binary.BigEndian.AppendUint16(buf, attribute.NameIndex)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(attribute.Info)))
		buf = append(buf, attribute.Info...)
	}
	return buf
}

// decoder reads big-endian values and latches the first truncation error;
// every read after that returns zero values.
type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.data)-d.off < n {
		d.err = ErrTruncated
		return nil
	}
	chunk := d.data[d.off : d.off+n]
	d.off += n
	return chunk
}

func (d *decoder) u1() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u2() uint16 {
	if b := d.take(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (d *decoder) u4() uint32 {
	if b := d.take(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

// bytes copies so that decoded structures never alias the input buffer.
func (d *decoder) bytes(n int) []byte {
	b := d.take(n)
	if b == nil {
		if d.err == nil {
			return []byte{}
		}
		return nil
	}
	return append([]byte{}, b...)
}

func (d *decoder) attributes() []Attribute {
	count := int(d.u2())
	var attributes []Attribute
	for i := 0; i < count && d.err == nil; i++ {
		name := d.u2()
		length := d.u4()
		if d.err == nil && uint64(length) > uint64(len(d.data)-d.off) {
			d.err = ErrTruncated
			break
		}
		attributes = append(attributes, Attribute{NameIndex: name, Info: d.bytes(int(length))})
	}
	return attributes
}

func (d *decoder) members() []Member {
	count := int(d.u2())
	var members []Member
	for i := 0; i < count && d.err == nil; i++ {
		member := Member{Access: d.u2(), NameIndex: d.u2(), DescriptorIndex: d.u2()}
		member.Attributes = d.attributes()
		members = append(members, member)
	}
	return members
}
