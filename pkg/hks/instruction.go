package hks

import (
	"fmt"
	"strings"
)

// Field masks of an instruction word.
const (
	maskOp = 0xFE000000
	maskA  = 0x000000FF
	maskB  = 0x01FE0000
	maskC  = 0x0001FF00
	maskBx = 0x01FFFF00

	// BiasSBx is subtracted from Bx to obtain the signed offset in AsBx mode.
	BiasSBx = 0xFFFF

	// ConstBit marks a register-or-constant C field as a constant index.
	ConstBit = 0x100
)

// Word is a raw 32-bit instruction.
type Word uint32

func (w Word) Op() Opcode { return Opcode((w & maskOp) >> 25) }
func (w Word) A() int     { return int(w & maskA) }
func (w Word) B() int     { return int((w & maskB) >> 17) }
func (w Word) C() int     { return int((w & maskC) >> 8) }
func (w Word) Bx() int    { return int((w & maskBx) >> 8) }
func (w Word) SBx() int   { return w.Bx() - BiasSBx }

// EncodeABC packs an ABC-mode word. Fields are truncated to their widths.
func EncodeABC(op Opcode, a, b, c int) Word {
	return Word(uint32(op)<<25&maskOp |
		uint32(b)<<17&maskB |
		uint32(c)<<8&maskC |
		uint32(a)&maskA)
}

// EncodeABx packs an ABx-mode word.
func EncodeABx(op Opcode, a, bx int) Word {
	return Word(uint32(op)<<25&maskOp |
		uint32(bx)<<8&maskBx |
		uint32(a)&maskA)
}

// EncodeAsBx packs an AsBx-mode word from a signed offset.
func EncodeAsBx(op Opcode, a, sbx int) Word {
	return EncodeABx(op, a, sbx+BiasSBx)
}

// Role is what an operand value refers to.
type Role byte

const (
	RoleNumber Role = iota
	RoleRegister
	RoleConstant
)

func (r Role) String() string {
	switch r {
	case RoleNumber:
		return "NUMBER"
	case RoleRegister:
		return "REGISTER"
	case RoleConstant:
		return "CONSTANT"
	}
	return fmt.Sprintf("Role(%d)", byte(r))
}

// Operand is one decoded argument of an instruction.
type Operand struct {
	Role  Role `cbor:"1,keyasint"`
	Value int  `cbor:"2,keyasint"`
}

// String formats the operand the way the listing prints it.
func (o Operand) String() string {
	switch o.Role {
	case RoleRegister:
		return fmt.Sprintf("R(%d)", o.Value)
	case RoleConstant:
		return fmt.Sprintf("K(%d)", o.Value)
	}
	return fmt.Sprintf("%d", o.Value)
}

// Instruction is a decoded instruction word.
type Instruction struct {
	Address  int       `cbor:"1,keyasint"`
	Op       Opcode    `cbor:"2,keyasint"`
	Raw      Word      `cbor:"3,keyasint"`
	Operands []Operand `cbor:"4,keyasint"`
}

// Arg returns the i'th operand value, or 0 if there is no such operand.
func (in *Instruction) Arg(i int) int {
	if i < 0 || i >= len(in.Operands) {
		return 0
	}
	return in.Operands[i].Value
}

func (in *Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(in.Op.String())
	for i, o := range in.Operands {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(o.String())
	}
	return sb.String()
}

// DecodeInstruction splits a word into operands using the opcode table.
// An unknown opcode yields ErrUnknownOpcode.
func DecodeInstruction(addr int, w Word) (Instruction, error) {
	op := w.Op()
	info, ok := opcodeInfoTable[op]
	if !ok {
		return Instruction{}, fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, byte(op))
	}

	in := Instruction{Address: addr, Op: op, Raw: w}

	switch info.A {
	case ArgNumber:
		in.Operands = append(in.Operands, Operand{RoleNumber, w.A()})
	case ArgReg:
		in.Operands = append(in.Operands, Operand{RoleRegister, w.A()})
	}

	switch info.Mode {
	case ModeABC:
		switch info.B {
		case ArgNumber:
			in.Operands = append(in.Operands, Operand{RoleNumber, w.B()})
		case ArgReg:
			in.Operands = append(in.Operands, Operand{RoleRegister, w.B()})
		case ArgConst:
			in.Operands = append(in.Operands, Operand{RoleConstant, w.B()})
		}
		switch info.C {
		case ArgNumber:
			in.Operands = append(in.Operands, Operand{RoleNumber, w.C()})
		case ArgReg:
			in.Operands = append(in.Operands, Operand{RoleRegister, w.C()})
		case ArgConst:
			in.Operands = append(in.Operands, Operand{RoleConstant, w.C()})
		case ArgRegOrConst:
			in.Operands = append(in.Operands, RK(w.C()))
		}
	case ModeABx:
		switch info.B {
		case ArgNumber, ArgOffset:
			in.Operands = append(in.Operands, Operand{RoleNumber, w.Bx()})
		case ArgConst:
			in.Operands = append(in.Operands, Operand{RoleConstant, w.Bx()})
		}
	case ModeAsBx:
		in.Operands = append(in.Operands, Operand{RoleNumber, w.SBx()})
	}

	return in, nil
}

// RK resolves a raw register-or-constant field.
func RK(c int) Operand {
	if c >= ConstBit {
		return Operand{RoleConstant, c & 0xFF}
	}
	return Operand{RoleRegister, c}
}
