package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

type Tag uint8

const (
	TagNone               Tag = 0
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

const maxPoolCount = 0xFFFF

// payloadSize is the fixed payload length following the tag byte. Utf8 is
// variable length and handled separately.
func payloadSize(tag Tag) (int, bool) {
	switch tag {
	case TagClass, TagString, TagMethodType, TagModule, TagPackage:
		return 2, true
	case TagMethodHandle:
		return 3, true
	case TagInteger, TagFloat, TagFieldref, TagMethodref, TagInterfaceMethodref,
		TagNameAndType, TagDynamic, TagInvokeDynamic:
		return 4, true
	case TagLong, TagDouble:
		return 8, true
	default:
		return 0, false
	}
}

// Constant is one pool entry. Info holds the bytes after the tag; for Utf8
// entries the length prefix is dropped. The slot after a Long or Double is
// represented by a TagNone constant.
type Constant struct {
	Tag  Tag
	Info []byte
}

func (c Constant) wide() bool {
	return c.Tag == TagLong || c.Tag == TagDouble
}

type ConstantPool struct {
	// entries[0] is unused; the class file format indexes the pool from 1.
	entries []Constant
}

func newConstantPool() *ConstantPool {
	return &ConstantPool{entries: []Constant{{}}}
}

// Count is the constant_pool_count value written to the class file.
func (p *ConstantPool) Count() int {
	return len(p.entries)
}

func (p *ConstantPool) Get(index uint16) (Constant, error) {
	if index == 0 || int(index) >= len(p.entries) {
		return Constant{}, fmt.Errorf("constant pool index %d out of range", index)
	}
	entry := p.entries[index]
	if entry.Tag == TagNone {
		return Constant{}, fmt.Errorf("constant pool index %d is not usable", index)
	}
	return entry, nil
}

func (p *ConstantPool) Utf8(index uint16) (string, error) {
	entry, err := p.Get(index)
	if err != nil {
		return "", err
	}
	if entry.Tag != TagUtf8 {
		return "", fmt.Errorf("constant pool index %d is tag %d, want Utf8", index, entry.Tag)
	}
	return string(entry.Info), nil
}

func (p *ConstantPool) ClassName(index uint16) (string, error) {
	entry, err := p.Get(index)
	if err != nil {
		return "", err
	}
	if entry.Tag != TagClass {
		return "", fmt.Errorf("constant pool index %d is tag %d, want Class", index, entry.Tag)
	}
	return p.Utf8(binary.BigEndian.Uint16(entry.Info))
}

// MemberRef resolves a Fieldref, Methodref or InterfaceMethodref entry into
// its owner, name and descriptor.
func (p *ConstantPool) MemberRef(index uint16) (owner, name, descriptor string, err error) {
	entry, err := p.Get(index)
	if err != nil {
		return "", "", "", err
	}
	switch entry.Tag {
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
	default:
		return "", "", "", fmt.Errorf("constant pool index %d is tag %d, want a member reference", index, entry.Tag)
	}
	owner, err = p.ClassName(binary.BigEndian.Uint16(entry.Info[0:2]))
	if err != nil {
		return "", "", "", err
	}
	nameAndType, err := p.Get(binary.BigEndian.Uint16(entry.Info[2:4]))
	if err != nil {
		return "", "", "", err
	}
	if nameAndType.Tag != TagNameAndType {
		return "", "", "", fmt.Errorf("member reference %d does not point at NameAndType", index)
	}
	if name, err = p.Utf8(binary.BigEndian.Uint16(nameAndType.Info[0:2])); err != nil {
		return "", "", "", err
	}
	if descriptor, err = p.Utf8(binary.BigEndian.Uint16(nameAndType.Info[2:4])); err != nil {
		return "", "", "", err
	}
	return owner, name, descriptor, nil
}

func (p *ConstantPool) Clone() *ConstantPool {
	entries := make([]Constant, len(p.entries))
	for i, entry := range p.entries {
		entries[i] = Constant{Tag: entry.Tag, Info: append([]byte(nil), entry.Info...)}
	}
	return &ConstantPool{entries: entries}
}

func (p *ConstantPool) AddUtf8(value string) (uint16, error) {
	if len(value) > 0xFFFF {
		return 0, fmt.Errorf("utf8 constant of %d bytes exceeds the class file limit", len(value))
	}
	return p.add(TagUtf8, []byte(value))
}

func (p *ConstantPool) AddClass(internalName string) (uint16, error) {
	name, err := p.AddUtf8(internalName)
	if err != nil {
		return 0, err
	}
	return p.add(TagClass, binary.BigEndian.AppendUint16(nil, name))
}

func (p *ConstantPool) AddNameAndType(name, descriptor string) (uint16, error) {
	nameIndex, err := p.AddUtf8(name)
	if err != nil {
		return 0, err
	}
	descriptorIndex, err := p.AddUtf8(descriptor)
	if err != nil {
		return 0, err
	}
	info := binary.BigEndian.AppendUint16(nil, nameIndex)
	info = binary.BigEndian.AppendUint16(info, descriptorIndex)
	return p.add(TagNameAndType, info)
}

func (p *ConstantPool) AddMethodref(owner, name, descriptor string) (uint16, error) {
	class, err := p.AddClass(owner)
	if err != nil {
		return 0, err
	}
	nameAndType, err := p.AddNameAndType(name, descriptor)
	if err != nil {
		return 0, err
	}
	info := binary.BigEndian.AppendUint16(nil, class)
	info = binary.BigEndian.AppendUint16(info, nameAndType)
	return p.add(TagMethodref, info)
}

// add returns the index of an identical existing entry, appending one only
// when none exists.
func (p *ConstantPool) add(tag Tag, info []byte) (uint16, error) {
	for i := 1; i < len(p.entries); i++ {
		entry := p.entries[i]
		if entry.Tag == tag && bytes.Equal(entry.Info, info) {
			return uint16(i), nil
		}
	}
	entry := Constant{Tag: tag, Info: info}
	needed := 1
	if entry.wide() {
		needed = 2
	}
	if len(p.entries)+needed > maxPoolCount {
		return 0, fmt.Errorf("constant pool is full (%d entries)", len(p.entries))
	}
	index := uint16(len(p.entries))
	p.entries = append(p.entries, entry)
	if entry.wide() {
		p.entries = append(p.entries, Constant{})
	}
	return index, nil
}

func (p *ConstantPool) AddLong(value int64) (uint16, error) {
	return p.add(TagLong, binary.BigEndian.AppendUint64(nil, uint64(value)))
}

func (p *ConstantPool) decode(d *decoder) error {
	count := int(d.u2())
	if d.err != nil {
		return d.err
	}
	if count == 0 {
		return fmt.Errorf("constant pool count is zero")
	}
	p.entries = make([]Constant, 1, count)
	for len(p.entries) < count {
		tag := Tag(d.u1())
		var info []byte
		if tag == TagUtf8 {
			info = d.bytes(int(d.u2()))
		} else {
			size, ok := payloadSize(tag)
			if !ok {
				if d.err != nil {
					return d.err
				}
				return fmt.Errorf("unknown constant pool tag %d at index %d", tag, len(p.entries))
			}
			info = d.bytes(size)
		}
		if d.err != nil {
			return d.err
		}
		entry := Constant{Tag: tag, Info: info}
		p.entries = append(p.entries, entry)
		if entry.wide() {
			if len(p.entries) >= count {
				return fmt.Errorf("wide constant at index %d overflows the pool", len(p.entries)-1)
			}
			p.entries = append(p.entries, Constant{})
		}
	}
	return nil
}

func (p *ConstantPool) encode(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(p.entries)))
	for _, entry := range p.entries[1:] {
		if entry.Tag == TagNone {
			continue
		}
		buf = append(buf, byte(entry.Tag))
		if entry.Tag == TagUtf8 {
			buf = binary.BigEndian.AppendUint16(buf, uint16(len(entry.Info)))
		}
		buf = append(buf, entry.Info...)
	}
	return buf
}
