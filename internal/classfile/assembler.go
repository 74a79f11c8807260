package classfile

import (
	"encoding/binary"
	"fmt"
)

const (
	opAconstNull    byte = 0x01
	opIload         byte = 0x15
	opLload         byte = 0x16
	opFload         byte = 0x17
	opDload         byte = 0x18
	opAload         byte = 0x19
	opIload0        byte = 0x1a
	opLload0        byte = 0x1e
	opFload0        byte = 0x22
	opDload0        byte = 0x26
	opAload0        byte = 0x2a
	opIreturn       byte = 0xac
	opLreturn       byte = 0xad
	opFreturn       byte = 0xae
	opDreturn       byte = 0xaf
	opAreturn       byte = 0xb0
	opReturn        byte = 0xb1
	opInvokevirtual byte = 0xb6
	opInvokestatic  byte = 0xb8
	opWide          byte = 0xc4
)

// Assembler emits a straight-line method body against a class's constant
// pool while tracking operand stack depth. MaxStack and MaxLocals are
// derived from the emitted instructions and the method descriptor, never
// taken from a previous body. The emitted bodies never branch, so the
// verifier needs no StackMapTable entries for them.
type Assembler struct {
	pool       *ConstantPool
	descriptor MethodDescriptor
	argLocals  []int
	maxLocals  int
	code       []byte
	stack      int
	maxStack   int
	returned   bool
	err        error
}

func NewAssembler(pool *ConstantPool, access uint16, descriptor string) (*Assembler, error) {
	parsed, err := ParseMethodDescriptor(descriptor)
	if err != nil {
		return nil, err
	}
	local := 0
	if access&AccStatic == 0 {
		local = 1
	}
	argLocals := make([]int, len(parsed.Params))
	for i, param := range parsed.Params {
		argLocals[i] = local
		local += param.Slots()
	}
	if local > 0xFFFF {
		return nil, fmt.Errorf("method %s needs %d local slots", descriptor, local)
	}
	return &Assembler{
		pool:       pool,
		descriptor: parsed,
		argLocals:  argLocals,
		maxLocals:  local,
	}, nil
}

// LoadArg pushes the i-th declared parameter, skipping the receiver slot of
// instance methods.
func (a *Assembler) LoadArg(i int) {
	if a.err != nil {
		return
	}
	if i < 0 || i >= len(a.argLocals) {
		a.err = fmt.Errorf("argument %d out of range (method has %d)", i, len(a.argLocals))
		return
	}
	param := a.descriptor.Params[i]
	a.emitLoad(loadOpcodes(param), a.argLocals[i])
	a.push(param.Slots())
}

func (a *Assembler) PushNull() {
	if a.err != nil {
		return
	}
	a.code = append(a.code, opAconstNull)
	a.push(1)
}

func (a *Assembler) InvokeVirtual(owner, name, descriptor string) {
	a.invoke(opInvokevirtual, owner, name, descriptor, true)
}

func (a *Assembler) InvokeStatic(owner, name, descriptor string) {
	a.invoke(opInvokestatic, owner, name, descriptor, false)
}

// ReturnValue emits the return instruction matching the method's return
// type.
func (a *Assembler) ReturnValue() {
	if a.err != nil {
		return
	}
	ret := a.descriptor.Return
	a.pop(ret.Slots())
	a.code = append(a.code, returnOpcode(ret))
	a.returned = true
}

func (a *Assembler) Finish() (*Code, error) {
	if a.err != nil {
		return nil, a.err
	}
	if !a.returned {
		return nil, fmt.Errorf("method body does not end with a return")
	}
	if len(a.code) > 0xFFFF {
		return nil, fmt.Errorf("method body of %d bytes exceeds the class file limit", len(a.code))
	}
	return &Code{
		MaxStack:  uint16(a.maxStack),
		MaxLocals: uint16(a.maxLocals),
		Bytecode:  append([]byte(nil), a.code...),
	}, nil
}

func (a *Assembler) invoke(opcode byte, owner, name, descriptor string, receiver bool) {
	if a.err != nil {
		return
	}
	parsed, err := ParseMethodDescriptor(descriptor)
	if err != nil {
		a.err = err
		return
	}
	index, err := a.pool.AddMethodref(owner, name, descriptor)
	if err != nil {
		a.err = err
		return
	}
	a.code = append(a.code, opcode)
	a.code = binary.BigEndian.AppendUint16(a.code, index)
	consumed := parsed.ParamSlots()
	if receiver {
		consumed++
	}
	a.pop(consumed)
	a.push(parsed.Return.Slots())
}

func (a *Assembler) emitLoad(opcodes loadOpcodeSet, local int) {
	switch {
	case local <= 3:
		a.code = append(a.code, opcodes.short+byte(local))
	case local <= 0xFF:
		a.code = append(a.code, opcodes.long, byte(local))
	default:
		a.code = append(a.code, opWide, opcodes.long)
		a.code = binary.BigEndian.AppendUint16(a.code, uint16(local))
	}
}

func (a *Assembler) push(slots int) {
	if a.err != nil {
		return
	}
	if a.returned {
		a.err = fmt.Errorf("instruction after return")
		return
	}
	a.stack += slots
	if a.stack > a.maxStack {
		a.maxStack = a.stack
	}
}

func (a *Assembler) pop(slots int) {
	if a.err != nil {
		return
	}
	if a.stack < slots {
		a.err = fmt.Errorf("operand stack underflow: need %d, have %d", slots, a.stack)
		return
	}
	a.stack -= slots
}

type loadOpcodeSet struct {
	long  byte
	short byte
}

func loadOpcodes(t FieldType) loadOpcodeSet {
	switch t {
	case "J":
		return loadOpcodeSet{long: opLload, short: opLload0}
	case "F":
		return loadOpcodeSet{long: opFload, short: opFload0}
	case "D":
		return loadOpcodeSet{long: opDload, short: opDload0}
	case "I", "Z", "B", "C", "S":
		return loadOpcodeSet{long: opIload, short: opIload0}
	default:
		return loadOpcodeSet{long: opAload, short: opAload0}
	}
}

func returnOpcode(t FieldType) byte {
	switch t {
	case "V":
		return opReturn
	case "J":
		return opLreturn
	case "F":
		return opFreturn
	case "D":
		return opDreturn
	case "I", "Z", "B", "C", "S":
		return opIreturn
	default:
		return opAreturn
	}
}
