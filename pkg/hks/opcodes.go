package hks

import "fmt"

// Opcode identifies a VM instruction. Values are the 7-bit opcode field.
type Opcode byte

const (
	// ========================================================================
	// Field, call and compare (0x00-0x09)
	// ========================================================================

	OpGetField  Opcode = 0x00 // R(A) = R(B).K(C)
	OpTest      Opcode = 0x01 // if R(A) <=> C then skip
	OpCallI     Opcode = 0x02 // interpreted call
	OpCallC     Opcode = 0x03 // C function call
	OpEq        Opcode = 0x04 // if (R(B) == RK(C)) ~= A then skip
	OpEqBK      Opcode = 0x05 // if (K(B) == R(C)) ~= A then skip
	OpGetGlobal Opcode = 0x06 // R(A) = G[K(Bx)]
	OpMove      Opcode = 0x07 // R(A) = R(B)
	OpSelf      Opcode = 0x08 // R(A+1) = R(B); R(A) = R(B)[RK(C)]
	OpReturn    Opcode = 0x09 // return R(A), ..., R(A+B-2)

	// ========================================================================
	// Tables (0x0A-0x15)
	// ========================================================================

	OpGetTableS   Opcode = 0x0A
	OpGetTableN   Opcode = 0x0B
	OpGetTable    Opcode = 0x0C // R(A) = R(B)[RK(C)]
	OpLoadBool    Opcode = 0x0D // R(A) = B; if C then skip
	OpTForLoop    Opcode = 0x0E
	OpSetField    Opcode = 0x0F // R(A).K(B) = RK(C)
	OpSetTableS   Opcode = 0x10
	OpSetTableSBK Opcode = 0x11
	OpSetTableN   Opcode = 0x12
	OpSetTableNBK Opcode = 0x13
	OpSetTable    Opcode = 0x14 // R(A)[R(B)] = RK(C)
	OpSetTableBK  Opcode = 0x15 // R(A)[K(B)] = RK(C)

	// ========================================================================
	// Calls, loads and jumps (0x16-0x1E)
	// ========================================================================

	OpTailCallI Opcode = 0x16
	OpTailCallC Opcode = 0x17
	OpTailCallM Opcode = 0x18
	OpLoadK     Opcode = 0x19 // R(A) = K(Bx)
	OpLoadNil   Opcode = 0x1A // R(A), ..., R(B) = nil
	OpSetGlobal Opcode = 0x1B // G[K(Bx)] = R(A)
	OpJmp       Opcode = 0x1C // pc += sBx
	OpCallM     Opcode = 0x1D
	OpCall      Opcode = 0x1E

	// ========================================================================
	// Intrinsics (0x1F-0x24)
	// ========================================================================

	OpIntrinsicIndex           Opcode = 0x1F
	OpIntrinsicNewIndex        Opcode = 0x20
	OpIntrinsicSelf            Opcode = 0x21
	OpIntrinsicIndexLiteral    Opcode = 0x22
	OpIntrinsicNewIndexLiteral Opcode = 0x23
	OpIntrinsicSelfLiteral     Opcode = 0x24

	// ========================================================================
	// Upvalues (0x25-0x27)
	// ========================================================================

	OpTailCall Opcode = 0x25
	OpGetUpval Opcode = 0x26 // R(A) = U(B)
	OpSetUpval Opcode = 0x27 // U(B) = R(A)

	// ========================================================================
	// Arithmetic (0x28-0x33)
	// ========================================================================

	OpAdd   Opcode = 0x28
	OpAddBK Opcode = 0x29
	OpSub   Opcode = 0x2A
	OpSubBK Opcode = 0x2B
	OpMul   Opcode = 0x2C
	OpMulBK Opcode = 0x2D
	OpDiv   Opcode = 0x2E
	OpDivBK Opcode = 0x2F
	OpMod   Opcode = 0x30
	OpModBK Opcode = 0x31
	OpPow   Opcode = 0x32
	OpPowBK Opcode = 0x33

	// ========================================================================
	// Unary, compare and loops (0x34-0x3F)
	// ========================================================================

	OpNewTable Opcode = 0x34
	OpUnm      Opcode = 0x35
	OpNot      Opcode = 0x36
	OpLen      Opcode = 0x37
	OpLt       Opcode = 0x38
	OpLtBK     Opcode = 0x39
	OpLe       Opcode = 0x3A
	OpLeBK     Opcode = 0x3B
	OpConcat   Opcode = 0x3C // R(A) = R(B) .. ... .. R(C)
	OpTestSet  Opcode = 0x3D
	OpForPrep  Opcode = 0x3E
	OpForLoop  Opcode = 0x3F

	// ========================================================================
	// Closures and register-1 variants (0x40-0x4C)
	// ========================================================================

	OpSetList     Opcode = 0x40
	OpClose       Opcode = 0x41
	OpClosure     Opcode = 0x42 // R(A) = closure(P[Bx])
	OpVararg      Opcode = 0x43
	OpTailCallIR1 Opcode = 0x44
	OpCallIR1     Opcode = 0x45
	OpSetUpvalR1  Opcode = 0x46
	OpTestR1      Opcode = 0x47
	OpNotR1       Opcode = 0x48
	OpGetFieldR1  Opcode = 0x49
	OpSetFieldR1  Opcode = 0x4A
	OpNewStruct   Opcode = 0x4B
	OpData        Opcode = 0x4C

	// ========================================================================
	// Structs and typed slots (0x4D-0x5D)
	// ========================================================================

	OpSetSlotN     Opcode = 0x4D
	OpSetSlotI     Opcode = 0x4E
	OpSetSlot      Opcode = 0x4F
	OpSetSlotS     Opcode = 0x50
	OpSetSlotMT    Opcode = 0x51
	OpCheckType    Opcode = 0x52
	OpCheckTypes   Opcode = 0x53
	OpGetSlot      Opcode = 0x54
	OpGetSlotMT    Opcode = 0x55
	OpSelfSlot     Opcode = 0x56
	OpSelfSlotMT   Opcode = 0x57
	OpGetFieldMM   Opcode = 0x58
	OpCheckTypeD   Opcode = 0x59
	OpGetSlotD     Opcode = 0x5A
	OpGetGlobalMem Opcode = 0x5B
	OpDelete       Opcode = 0x5C
	OpDeleteBK     Opcode = 0x5D

	opMax Opcode = 0x5E
)

// Mode is the operand layout of an instruction word.
type Mode byte

const (
	ModeABC Mode = iota
	ModeABx
	ModeAsBx
)

func (m Mode) String() string {
	switch m {
	case ModeABC:
		return "ABC"
	case ModeABx:
		return "ABx"
	case ModeAsBx:
		return "AsBx"
	}
	return fmt.Sprintf("Mode(%d)", byte(m))
}

// ArgKind describes how one argument field is interpreted.
type ArgKind byte

const (
	ArgUnused ArgKind = iota
	ArgNumber
	ArgReg
	ArgConst
	ArgOffset
	ArgRegOrConst
)

// OpcodeInfo provides metadata about each opcode for decoding and listing.
type OpcodeInfo struct {
	Name string
	Mode Mode
	A    ArgKind
	B    ArgKind
	C    ArgKind
}

func abc(name string, a, b, c ArgKind) OpcodeInfo {
	return OpcodeInfo{Name: name, Mode: ModeABC, A: a, B: b, C: c}
}

func abx(name string, a, b ArgKind) OpcodeInfo {
	return OpcodeInfo{Name: name, Mode: ModeABx, A: a, B: b}
}

func asbx(name string, a ArgKind) OpcodeInfo {
	return OpcodeInfo{Name: name, Mode: ModeAsBx, A: a, B: ArgOffset}
}

const (
	u  = ArgUnused
	n  = ArgNumber
	r  = ArgReg
	k  = ArgConst
	rk = ArgRegOrConst
)

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpGetField:  abc("GETFIELD", r, r, k),
	OpTest:      abc("TEST", r, u, n),
	OpCallI:     abc("CALL_I", r, n, n),
	OpCallC:     abc("CALL_C", r, n, n),
	OpEq:        abc("EQ", n, r, rk),
	OpEqBK:      abc("EQ_BK", n, k, r),
	OpGetGlobal: abx("GETGLOBAL", r, k),
	OpMove:      abc("MOVE", r, r, u),
	OpSelf:      abc("SELF", r, r, rk),
	OpReturn:    abc("RETURN", r, n, u),

	OpGetTableS:   abc("GETTABLE_S", r, r, rk),
	OpGetTableN:   abc("GETTABLE_N", r, r, rk),
	OpGetTable:    abc("GETTABLE", r, r, rk),
	OpLoadBool:    abc("LOADBOOL", r, n, n),
	OpTForLoop:    abc("TFORLOOP", r, u, n),
	OpSetField:    abc("SETFIELD", r, k, rk),
	OpSetTableS:   abc("SETTABLE_S", r, r, rk),
	OpSetTableSBK: abc("SETTABLE_S_BK", r, k, rk),
	OpSetTableN:   abc("SETTABLE_N", r, r, rk),
	OpSetTableNBK: abc("SETTABLE_N_BK", r, k, rk),
	OpSetTable:    abc("SETTABLE", r, r, rk),
	OpSetTableBK:  abc("SETTABLE_BK", r, k, rk),

	OpTailCallI: abc("TAILCALL_I", r, n, n),
	OpTailCallC: abc("TAILCALL_C", r, n, n),
	OpTailCallM: abc("TAILCALL_M", r, n, n),
	OpLoadK:     abx("LOADK", r, k),
	OpLoadNil:   abc("LOADNIL", r, r, u),
	OpSetGlobal: abx("SETGLOBAL", r, k),
	OpJmp:       asbx("JMP", u),
	OpCallM:     abc("CALL_M", r, n, n),
	OpCall:      abc("CALL", r, n, n),

	OpIntrinsicIndex:           abc("INTRINSIC_INDEX", r, r, rk),
	OpIntrinsicNewIndex:        abc("INTRINSIC_NEWINDEX", r, r, rk),
	OpIntrinsicSelf:            abc("INTRINSIC_SELF", r, r, rk),
	OpIntrinsicIndexLiteral:    abc("INTRINSIC_INDEX_LITERAL", r, r, rk),
	OpIntrinsicNewIndexLiteral: abc("INTRINSIC_NEWINDEX_LITERAL", r, r, rk),
	OpIntrinsicSelfLiteral:     abc("INTRINSIC_SELF_LITERAL", r, r, rk),

	OpTailCall: abc("TAILCALL", r, n, n),
	OpGetUpval: abc("GETUPVAL", r, n, u),
	OpSetUpval: abc("SETUPVAL", r, n, u),

	OpAdd:   abc("ADD", r, r, rk),
	OpAddBK: abc("ADD_BK", r, k, r),
	OpSub:   abc("SUB", r, r, rk),
	OpSubBK: abc("SUB_BK", r, k, r),
	OpMul:   abc("MUL", r, r, rk),
	OpMulBK: abc("MUL_BK", r, k, r),
	OpDiv:   abc("DIV", r, r, rk),
	OpDivBK: abc("DIV_BK", r, k, r),
	OpMod:   abc("MOD", r, r, rk),
	OpModBK: abc("MOD_BK", r, k, r),
	OpPow:   abc("POW", r, r, rk),
	OpPowBK: abc("POW_BK", r, k, r),

	OpNewTable: abc("NEWTABLE", r, n, n),
	OpUnm:      abc("UNM", r, r, u),
	OpNot:      abc("NOT", r, r, u),
	OpLen:      abc("LEN", r, r, u),
	OpLt:       abc("LT", n, r, rk),
	OpLtBK:     abc("LT_BK", n, k, r),
	OpLe:       abc("LE", n, r, rk),
	OpLeBK:     abc("LE_BK", n, k, r),
	OpConcat:   abc("CONCAT", r, r, r),
	OpTestSet:  abc("TESTSET", r, r, n),
	OpForPrep:  asbx("FORPREP", r),
	OpForLoop:  asbx("FORLOOP", r),

	OpSetList:     abc("SETLIST", r, n, n),
	OpClose:       abc("CLOSE", r, u, u),
	OpClosure:     abx("CLOSURE", r, n),
	OpVararg:      abc("VARARG", r, n, u),
	OpTailCallIR1: abc("TAILCALL_I_R1", r, n, n),
	OpCallIR1:     abc("CALL_I_R1", r, n, n),
	OpSetUpvalR1:  abc("SETUPVAL_R1", r, n, u),
	OpTestR1:      abc("TEST_R1", r, u, n),
	OpNotR1:       abc("NOT_R1", r, r, u),
	OpGetFieldR1:  abc("GETFIELD_R1", r, r, k),
	OpSetFieldR1:  abc("SETFIELD_R1", r, k, rk),
	OpNewStruct:   abc("NEWSTRUCT", r, n, n),
	OpData:        abx("DATA", n, n),

	OpSetSlotN:     abc("SETSLOTN", r, n, u),
	OpSetSlotI:     abc("SETSLOTI", r, n, u),
	OpSetSlot:      abc("SETSLOT", r, n, r),
	OpSetSlotS:     abc("SETSLOTS", r, n, r),
	OpSetSlotMT:    abc("SETSLOTMT", r, n, r),
	OpCheckType:    abx("CHECKTYPE", r, n),
	OpCheckTypes:   abx("CHECKTYPES", r, n),
	OpGetSlot:      abc("GETSLOT", r, r, n),
	OpGetSlotMT:    abc("GETSLOTMT", r, r, n),
	OpSelfSlot:     abc("SELFSLOT", r, r, n),
	OpSelfSlotMT:   abc("SELFSLOTMT", r, r, n),
	OpGetFieldMM:   abc("GETFIELD_MM", r, r, k),
	OpCheckTypeD:   abx("CHECKTYPE_D", r, n),
	OpGetSlotD:     abc("GETSLOT_D", r, r, n),
	OpGetGlobalMem: abx("GETGLOBAL_MEM", r, k),
	OpDelete:       abc("DELETE", r, r, rk),
	OpDeleteBK:     abc("DELETE_BK", r, k, r),
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// Known reports whether op has an entry in the metadata table.
func (op Opcode) Known() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// IsCall returns true for the non-tail call family.
func (op Opcode) IsCall() bool {
	switch op {
	case OpCall, OpCallI, OpCallIR1, OpCallC, OpCallM:
		return true
	}
	return false
}

// IsTailCall returns true for the tail call family.
func (op Opcode) IsTailCall() bool {
	switch op {
	case OpTailCall, OpTailCallI, OpTailCallIR1, OpTailCallC, OpTailCallM:
		return true
	}
	return false
}

// IsJump returns true if the instruction carries a signed branch offset.
func (op Opcode) IsJump() bool {
	return GetOpcodeInfo(op).Mode == ModeAsBx
}

// AllOpcodes returns every opcode in numeric order.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := Opcode(0); op < opMax; op++ {
		if op.Known() {
			opcodes = append(opcodes, op)
		}
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
