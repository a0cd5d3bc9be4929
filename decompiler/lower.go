package decompiler

import (
	"fmt"

	"github.com/chazu/luidec/pkg/ast"
	"github.com/chazu/luidec/pkg/hks"
)

// lowering is the state of one flat pass over one prototype.
type lowering struct {
	fn  *hks.Function
	out []ast.Stmt
}

// Lower translates every instruction of fn into flat statements, including
// the pseudo-statements loop recovery consumes. Nested closures are not
// visited. The result is a function declaration with no name whose body
// holds the flat list.
func Lower(fn *hks.Function) (*ast.Function, error) {
	l := &lowering{fn: fn}
	for i := range fn.Instructions {
		in := &fn.Instructions[i]
		if err := l.instruction(in); err != nil {
			return nil, errAtOp(in, err)
		}
	}

	decl := &ast.Function{
		AddrVal: fn.Address,
		Vararg:  fn.VarargFlags != 0,
		Body:    &ast.Block{AddrVal: fn.Address, Body: l.out},
	}
	for i := 0; i < int(fn.ParamCount); i++ {
		decl.Params = append(decl.Params, &ast.Register{AddrVal: fn.Address, Index: i})
	}
	log.Debugf("lowered %s: %d instructions -> %d statements", fn.Label(), len(fn.Instructions), len(l.out))
	return decl, nil
}

func (l *lowering) emit(s ...ast.Stmt) {
	l.out = append(l.out, s...)
}

func reg(addr, index int) *ast.Register {
	return &ast.Register{AddrVal: addr, Index: index}
}

// regs returns registers first..first+count-1.
func regs(addr, first, count int) []ast.Expr {
	var out []ast.Expr
	for i := 0; i < count; i++ {
		out = append(out, reg(addr, first+i))
	}
	return out
}

// operand resolves operand i by its role.
func (l *lowering) operand(in *hks.Instruction, i int) (ast.Expr, error) {
	if i >= len(in.Operands) {
		return nil, fmt.Errorf("missing operand %d", i)
	}
	o := in.Operands[i]
	switch o.Role {
	case hks.RoleRegister:
		return reg(in.Address, o.Value), nil
	case hks.RoleConstant:
		return resolveConstant(l.fn, o.Value, in.Address)
	}
	return &ast.NumberLiteral{AddrVal: in.Address, Value: float64(o.Value)}, nil
}

// name resolves a constant operand that must be a string.
func (l *lowering) name(in *hks.Instruction, i int) (*ast.Identifier, error) {
	return resolveGlobal(l.fn, in.Arg(i), in.Address)
}

func (l *lowering) assign(in *hks.Instruction, target, value ast.Expr) {
	l.emit(&ast.Assign{AddrVal: in.Address, Targets: []ast.Expr{target}, Values: []ast.Expr{value}})
}

var arithOps = map[hks.Opcode]string{
	hks.OpAdd: "+", hks.OpAddBK: "+",
	hks.OpSub: "-", hks.OpSubBK: "-",
	hks.OpMul: "*", hks.OpMulBK: "*",
	hks.OpDiv: "/", hks.OpDivBK: "/",
	hks.OpMod: "%", hks.OpModBK: "%",
	hks.OpPow: "^", hks.OpPowBK: "^",
}

var unaryOps = map[hks.Opcode]string{
	hks.OpUnm:   "-",
	hks.OpNot:   "not ",
	hks.OpNotR1: "not ",
	hks.OpLen:   "#",
}

// compareOps maps a comparison to its operator when A is 0 and when A is 1.
var compareOps = map[hks.Opcode][2]string{
	hks.OpEq: {"==", "~="}, hks.OpEqBK: {"==", "~="},
	hks.OpLt: {"<", ">="}, hks.OpLtBK: {"<", ">="},
	hks.OpLe: {"<=", ">"}, hks.OpLeBK: {"<=", ">"},
}

func (l *lowering) instruction(in *hks.Instruction) error {
	at := in.Address
	a := in.Arg(0)

	if op, ok := arithOps[in.Op]; ok {
		left, err := l.operand(in, 1)
		if err != nil {
			return err
		}
		right, err := l.operand(in, 2)
		if err != nil {
			return err
		}
		l.assign(in, reg(at, a), &ast.BinaryExpr{AddrVal: at, Op: op, Left: left, Right: right})
		return nil
	}
	if op, ok := unaryOps[in.Op]; ok {
		l.assign(in, reg(at, a), &ast.UnaryExpr{AddrVal: at, Op: op, Operand: reg(at, in.Arg(1))})
		return nil
	}
	if ops, ok := compareOps[in.Op]; ok {
		left, err := l.operand(in, 1)
		if err != nil {
			return err
		}
		right, err := l.operand(in, 2)
		if err != nil {
			return err
		}
		op := ops[0]
		if a == 1 {
			op = ops[1]
		}
		l.emit(&ast.Test{AddrVal: at, Cond: &ast.BinaryExpr{AddrVal: at, Op: op, Left: left, Right: right}})
		return nil
	}
	if in.Op.IsCall() {
		l.emit(&ast.Assign{AddrVal: at, Targets: regs(at, a, in.Arg(2)-1), Values: []ast.Expr{l.call(in)}})
		return nil
	}
	if in.Op.IsTailCall() {
		l.emit(&ast.Return{AddrVal: at, Values: []ast.Expr{l.call(in)}})
		return nil
	}

	switch in.Op {
	case hks.OpJmp:
		l.emit(&ast.Jump{AddrVal: at, Offset: in.Arg(0)})

	case hks.OpForPrep:
		l.emit(&ast.ForPrep{AddrVal: at, Init: reg(at, a), Limit: reg(at, a+1), Step: reg(at, a+2), Var: reg(at, a+3)})

	case hks.OpForLoop:
		l.emit(&ast.ForLoop{AddrVal: at, Counter: reg(at, a), Offset: in.Arg(1)})

	case hks.OpTForLoop:
		loop := &ast.TForLoop{AddrVal: at}
		for i := 0; i < in.Arg(1); i++ {
			loop.Vars = append(loop.Vars, reg(at, a+3+i))
		}
		l.emit(loop)

	case hks.OpTest, hks.OpTestR1:
		var cond ast.Expr = reg(at, a)
		if in.Arg(1) == 1 {
			cond = &ast.UnaryExpr{AddrVal: at, Op: "not ", Operand: cond}
		}
		l.emit(&ast.Test{AddrVal: at, Cond: cond})

	case hks.OpTestSet:
		src := in.Arg(1)
		var cond ast.Expr = reg(at, src)
		if in.Arg(2) == 1 {
			cond = &ast.UnaryExpr{AddrVal: at, Op: "not ", Operand: cond}
		}
		l.emit(&ast.Test{AddrVal: at, Cond: cond})
		l.assign(in, reg(at, a), reg(at, src))

	case hks.OpLoadBool:
		l.assign(in, reg(at, a), &ast.BoolLiteral{AddrVal: at, Value: in.Arg(1) != 0})
		if in.Arg(2) != 0 {
			l.emit(&ast.Jump{AddrVal: at, Offset: 1})
		}

	case hks.OpLoadNil:
		last := in.Arg(1)
		asn := &ast.Assign{AddrVal: at}
		for i := a; i <= last; i++ {
			asn.Targets = append(asn.Targets, reg(at, i))
			asn.Values = append(asn.Values, &ast.NilLiteral{AddrVal: at})
		}
		if len(asn.Targets) == 0 {
			asn.Targets = []ast.Expr{reg(at, a)}
			asn.Values = []ast.Expr{&ast.NilLiteral{AddrVal: at}}
		}
		l.emit(asn)

	case hks.OpLoadK:
		k, err := l.operand(in, 1)
		if err != nil {
			return err
		}
		l.assign(in, reg(at, a), k)

	case hks.OpGetGlobal, hks.OpGetGlobalMem:
		g, err := l.name(in, 1)
		if err != nil {
			return err
		}
		l.assign(in, reg(at, a), g)

	case hks.OpSetGlobal:
		g, err := l.name(in, 1)
		if err != nil {
			return err
		}
		l.assign(in, g, reg(at, a))

	case hks.OpMove:
		l.assign(in, reg(at, a), reg(at, in.Arg(1)))

	case hks.OpConcat:
		first, last := in.Arg(1), in.Arg(2)
		var e ast.Expr = reg(at, first)
		for i := first + 1; i <= last; i++ {
			e = &ast.BinaryExpr{AddrVal: at, Op: "..", Left: e, Right: reg(at, i)}
		}
		l.assign(in, reg(at, a), e)

	case hks.OpVararg:
		count := in.Arg(1) - 1
		if count < 1 {
			count = 1
		}
		l.emit(&ast.Assign{AddrVal: at, Targets: regs(at, a, count), Values: []ast.Expr{&ast.VarargLiteral{AddrVal: at}}})

	case hks.OpReturn:
		if b := in.Arg(1); b > 0 {
			l.emit(&ast.Return{AddrVal: at, Values: regs(at, a, b-1)})
		}

	case hks.OpClosure:
		l.assign(in, reg(at, a), &ast.Closure{AddrVal: at, Index: in.Arg(1)})

	case hks.OpGetField, hks.OpGetFieldR1, hks.OpGetFieldMM:
		key, err := l.name(in, 2)
		if err != nil {
			return err
		}
		l.assign(in, reg(at, a), &ast.TableAccess{AddrVal: at, Table: reg(at, in.Arg(1)), Key: key})

	case hks.OpSetField, hks.OpSetFieldR1:
		key, err := l.name(in, 1)
		if err != nil {
			return err
		}
		value, err := l.operand(in, 2)
		if err != nil {
			return err
		}
		l.assign(in, &ast.TableAccess{AddrVal: at, Table: reg(at, a), Key: key}, value)

	case hks.OpGetTable, hks.OpGetTableS, hks.OpGetTableN:
		key, err := l.operand(in, 2)
		if err != nil {
			return err
		}
		l.assign(in, reg(at, a), &ast.TableAccess{AddrVal: at, Table: reg(at, in.Arg(1)), Key: key})

	case hks.OpSetTable, hks.OpSetTableS, hks.OpSetTableN,
		hks.OpSetTableBK, hks.OpSetTableSBK, hks.OpSetTableNBK:
		key, err := l.operand(in, 1)
		if err != nil {
			return err
		}
		value, err := l.operand(in, 2)
		if err != nil {
			return err
		}
		l.assign(in, &ast.TableAccess{AddrVal: at, Table: reg(at, a), Key: key}, value)

	case hks.OpSelf:
		key, err := l.operand(in, 2)
		if err != nil {
			return err
		}
		obj := in.Arg(1)
		l.assign(in, reg(at, a+1), reg(at, obj))
		l.assign(in, reg(at, a), &ast.TableAccess{AddrVal: at, Table: reg(at, obj), Key: key})

	case hks.OpGetUpval:
		l.assign(in, reg(at, a), upvalue(at, in.Arg(1)))

	case hks.OpSetUpval, hks.OpSetUpvalR1:
		l.assign(in, upvalue(at, in.Arg(1)), reg(at, a))

	case hks.OpNewTable:
		l.assign(in, reg(at, a), &ast.TableConstructor{AddrVal: at})

	default:
		log.Debugf("%s: no lowering for %s at 0x%X", l.fn.Label(), in.Op, at)
	}
	return nil
}

// call builds R(A)(R(A+1), ..., R(A+B-1)).
func (l *lowering) call(in *hks.Instruction) *ast.Call {
	at, a := in.Address, in.Arg(0)
	return &ast.Call{AddrVal: at, Func: reg(at, a), Args: regs(at, a+1, in.Arg(1)-1)}
}

func upvalue(addr, index int) *ast.Identifier {
	return &ast.Identifier{AddrVal: addr, Name: fmt.Sprintf("U%d", index)}
}
