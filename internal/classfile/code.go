package classfile

import (
	"encoding/binary"
	"fmt"
)

type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

// Code is the decoded body of a Code attribute. Nested attributes such as
// LineNumberTable or StackMapTable stay raw.
type Code struct {
	MaxStack       uint16
	MaxLocals      uint16
	Bytecode       []byte
	ExceptionTable []ExceptionHandler
	Attributes     []Attribute
}

func ParseCode(info []byte) (*Code, error) {
	d := &decoder{data: info}
	code := &Code{MaxStack: d.u2(), MaxLocals: d.u2()}
	length := d.u4()
	if d.err == nil && uint64(length) > uint64(len(info)-d.off) {
		return nil, ErrTruncated
	}
	code.Bytecode = d.bytes(int(length))
	handlers := int(d.u2())
	for i := 0; i < handlers && d.err == nil; i++ {
		code.ExceptionTable = append(code.ExceptionTable, ExceptionHandler{
			StartPC:   d.u2(),
			EndPC:     d.u2(),
			HandlerPC: d.u2(),
			CatchType: d.u2(),
		})
	}
	code.Attributes = d.attributes()
	if d.err != nil {
		return nil, d.err
	}
	if d.off != len(info) {
		return nil, fmt.Errorf("%d trailing bytes in Code attribute", len(info)-d.off)
	}
	return code, nil
}

func (c *Code) Encode() []byte {
	buf := binary.BigEndian.AppendUint16(nil, c.MaxStack)
	buf = binary.BigEndian.AppendUint16(buf, c.MaxLocals)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Bytecode)))
	buf = append(buf, c.Bytecode...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(c.ExceptionTable)))
	for _, handler := range c.ExceptionTable {
		buf = binary.BigEndian.AppendUint16(buf, handler.StartPC)
		buf = binary.BigEndian.AppendUint16(buf, handler.EndPC)
		buf = binary.BigEndian.AppendUint16(buf, handler.HandlerPC)
		buf = binary.BigEndian.AppendUint16(buf, handler.CatchType)
	}
	return encodeAttributes(buf, c.Attributes)
}
