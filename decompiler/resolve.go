package decompiler

import (
	"fmt"

	"github.com/chazu/luidec/pkg/ast"
	"github.com/chazu/luidec/pkg/hks"
)

// resolveConstant turns constant index of fn into a literal. Only nil,
// boolean, number and string constants have a literal form.
func resolveConstant(fn *hks.Function, index, addr int) (ast.Expr, error) {
	k, err := fn.Constant(index)
	if err != nil {
		return nil, err
	}

	switch k.Type {
	case hks.TypeNil:
		return &ast.NilLiteral{AddrVal: addr}, nil
	case hks.TypeBoolean:
		b, _ := k.Value.(bool)
		return &ast.BoolLiteral{AddrVal: addr, Value: b}, nil
	case hks.TypeNumber:
		v, _ := k.Float()
		return &ast.NumberLiteral{AddrVal: addr, Value: v}, nil
	case hks.TypeString:
		s, _ := k.Str()
		return &ast.StringLiteral{AddrVal: addr, Value: s}, nil
	}
	return nil, fmt.Errorf("%w: K(%d) is %s", ErrConstantKind, index, k.Type)
}

// resolveGlobal is resolveConstant restricted to strings, yielding a name.
func resolveGlobal(fn *hks.Function, index, addr int) (*ast.Identifier, error) {
	k, err := fn.Constant(index)
	if err != nil {
		return nil, err
	}
	s, ok := k.Str()
	if !ok {
		return nil, fmt.Errorf("%w: K(%d) is %s", ErrGlobalKey, index, k.Type)
	}
	return &ast.Identifier{AddrVal: addr, Name: s}, nil
}
