package decompiler_test

import (
	"errors"
	"testing"

	"github.com/chazu/luidec/decompiler"
	"github.com/chazu/luidec/pkg/ast"
	"github.com/chazu/luidec/pkg/hks"
	"github.com/chazu/luidec/pkg/hks/hkstest"
	"github.com/chazu/luidec/printer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func k(i int) int { return i | hks.ConstBit }

func decodeFunc(t *testing.T, f *hkstest.Func) *hks.Function {
	t.Helper()
	file, err := hks.Decode(hkstest.New(f).Bytes())
	require.NoError(t, err)
	return file.Root
}

// lowered returns the flat statements of f, one printed line each.
func lowered(t *testing.T, f *hkstest.Func) []string {
	t.Helper()
	decl, err := decompiler.Lower(decodeFunc(t, f))
	require.NoError(t, err)

	var lines []string
	for _, s := range decl.Body.Body {
		lines = append(lines, printer.Print(s, printer.Config{}))
	}
	return lines
}

func TestLowerLoads(t *testing.T) {
	lines := lowered(t, &hkstest.Func{
		Code: []hks.Word{
			hks.EncodeABx(hks.OpLoadK, 0, 0),
			hks.EncodeABx(hks.OpLoadK, 1, 1),
			hks.EncodeABC(hks.OpLoadBool, 2, 1, 0),
			hks.EncodeABC(hks.OpLoadBool, 3, 0, 1),
			hks.EncodeABC(hks.OpLoadNil, 4, 6, 0),
			hks.EncodeABC(hks.OpMove, 7, 0, 0),
			hks.EncodeABx(hks.OpGetGlobal, 8, 2),
			hks.EncodeABx(hks.OpSetGlobal, 8, 2),
			hks.EncodeABC(hks.OpGetUpval, 9, 3, 0),
			hks.EncodeABC(hks.OpSetUpval, 9, 4, 0),
			hks.EncodeABx(hks.OpClosure, 10, 0),
			hks.EncodeABC(hks.OpNewTable, 11, 0, 0),
			hks.EncodeABC(hks.OpVararg, 12, 3, 0),
		},
		Constants: []hkstest.Const{hkstest.Str("hi"), hkstest.Num(2.5), hkstest.Str("print")},
		Closures:  []*hkstest.Func{{}},
	})

	assert.Equal(t, []string{
		`R0 = "hi"`,
		`R1 = 2.5`,
		`R2 = true`,
		`R3 = false`,
		`asm_jump( 1 )`,
		`R4, R5, R6 = nil, nil, nil`,
		`R7 = R0`,
		`R8 = print`,
		`print = R8`,
		`R9 = U3`,
		`U4 = R9`,
		`R10 = C0`,
		`R11 = {}`,
		`R12, R13 = ...`,
	}, lines)
}

func TestLowerOperators(t *testing.T) {
	lines := lowered(t, &hkstest.Func{
		Code: []hks.Word{
			hks.EncodeABC(hks.OpAdd, 2, 0, k(0)),
			hks.EncodeABC(hks.OpSubBK, 2, 0, 1),
			hks.EncodeABC(hks.OpMul, 2, 0, 1),
			hks.EncodeABC(hks.OpDiv, 2, 0, 1),
			hks.EncodeABC(hks.OpMod, 2, 0, 1),
			hks.EncodeABC(hks.OpPow, 2, 0, 1),
			hks.EncodeABC(hks.OpUnm, 3, 0, 0),
			hks.EncodeABC(hks.OpNot, 3, 0, 0),
			hks.EncodeABC(hks.OpLen, 3, 0, 0),
			hks.EncodeABC(hks.OpConcat, 4, 0, 2),
		},
		Constants: []hkstest.Const{hkstest.Int(7)},
	})

	assert.Equal(t, []string{
		`R2 = R0 + 7`,
		`R2 = 7 - R1`,
		`R2 = R0 * R1`,
		`R2 = R0 / R1`,
		`R2 = R0 % R1`,
		`R2 = R0 ^ R1`,
		`R3 = -R0`,
		`R3 = not R0`,
		`R3 = #R0`,
		`R4 = R0 .. R1 .. R2`,
	}, lines)
}

func TestLowerTables(t *testing.T) {
	lines := lowered(t, &hkstest.Func{
		Code: []hks.Word{
			hks.EncodeABC(hks.OpGetField, 1, 0, 0),
			hks.EncodeABC(hks.OpSetField, 0, 0, k(1)),
			hks.EncodeABC(hks.OpGetTable, 1, 0, k(2)),
			hks.EncodeABC(hks.OpSetTable, 0, 1, 2),
			hks.EncodeABC(hks.OpSelf, 3, 0, k(0)),
		},
		Constants: []hkstest.Const{hkstest.Str("name"), hkstest.Int(1), hkstest.Str("two words")},
	})

	assert.Equal(t, []string{
		`R1 = R0.name`,
		`R0.name = 1`,
		`R1 = R0["two words"]`,
		`R0[R1] = R2`,
		`R4 = R0`,
		`R3 = R0.name`,
	}, lines)
}

func TestLowerBranches(t *testing.T) {
	lines := lowered(t, &hkstest.Func{
		Code: []hks.Word{
			hks.EncodeABC(hks.OpEq, 0, 0, 1),
			hks.EncodeABC(hks.OpEq, 1, 0, k(0)),
			hks.EncodeABC(hks.OpLt, 1, 0, 1),
			hks.EncodeABC(hks.OpLe, 0, 0, 1),
			hks.EncodeABC(hks.OpTest, 0, 0, 0),
			hks.EncodeABC(hks.OpTest, 0, 0, 1),
			hks.EncodeAsBx(hks.OpJmp, 0, -3),
			hks.EncodeAsBx(hks.OpForPrep, 4, 1),
			hks.EncodeAsBx(hks.OpForLoop, 4, -2),
			hks.EncodeABC(hks.OpTForLoop, 0, 0, 2),
		},
		Constants: []hkstest.Const{hkstest.Nil()},
	})

	assert.Equal(t, []string{
		`asm_test( R0 == R1 )`,
		`asm_test( R0 ~= nil )`,
		`asm_test( R0 >= R1 )`,
		`asm_test( R0 <= R1 )`,
		`asm_test( R0 )`,
		`asm_test( not R0 )`,
		`asm_jump( -3 )`,
		`asm_forprep( R4, R5, R6, R7 )`,
		`asm_forloop( -2 )`,
		`asm_tforloop()`,
	}, lines)
}

func TestLowerTestSet(t *testing.T) {
	lines := lowered(t, &hkstest.Func{
		Code: []hks.Word{
			hks.EncodeABC(hks.OpTestSet, 0, 1, 1),
			hks.EncodeABC(hks.OpTestSet, 3, 2, 0),
		},
	})

	assert.Equal(t, []string{
		`asm_test( not R1 )`,
		`R0 = R1`,
		`asm_test( R2 )`,
		`R3 = R2`,
	}, lines)
}

func TestLowerCalls(t *testing.T) {
	lines := lowered(t, &hkstest.Func{
		Code: []hks.Word{
			hks.EncodeABC(hks.OpCall, 0, 3, 2),
			hks.EncodeABC(hks.OpCallI, 0, 1, 1),
			hks.EncodeABC(hks.OpCallC, 0, 2, 3),
			hks.EncodeABC(hks.OpTailCall, 0, 2, 0),
			hks.EncodeABC(hks.OpReturn, 0, 3, 0),
			hks.EncodeABC(hks.OpReturn, 0, 1, 0),
			hks.EncodeABC(hks.OpReturn, 0, 0, 0),
		},
	})

	assert.Equal(t, []string{
		`R0 = R0(R1, R2)`,
		`R0()`,
		`R0, R1 = R0(R1)`,
		`return R0(R1)`,
		`return R0, R1`,
		`return`,
	}, lines)
}

func TestLowerUnhandledOpcode(t *testing.T) {
	lines := lowered(t, &hkstest.Func{
		Code: []hks.Word{
			hks.EncodeABC(hks.OpClose, 0, 0, 0),
			hks.EncodeABC(hks.OpSetList, 0, 1, 1),
		},
	})
	assert.Empty(t, lines)
}

func TestLowerFunctionShape(t *testing.T) {
	decl, err := decompiler.Lower(decodeFunc(t, &hkstest.Func{Params: 2, Vararg: 1}))
	require.NoError(t, err)

	assert.Nil(t, decl.Name)
	assert.True(t, decl.Vararg)
	require.Len(t, decl.Params, 2)
	assert.Equal(t, 1, decl.Params[1].Index)
	assert.Empty(t, decl.Body.Body)
}

func TestLowerErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   *hkstest.Func
		want error
	}{
		{
			name: "global key",
			fn: &hkstest.Func{
				Code:      []hks.Word{hks.EncodeABx(hks.OpGetGlobal, 0, 0)},
				Constants: []hkstest.Const{hkstest.Num(1)},
			},
			want: decompiler.ErrGlobalKey,
		},
		{
			name: "field key",
			fn: &hkstest.Func{
				Code:      []hks.Word{hks.EncodeABC(hks.OpGetField, 0, 0, 0)},
				Constants: []hkstest.Const{hkstest.Bool(true)},
			},
			want: decompiler.ErrGlobalKey,
		},
		{
			name: "constant kind",
			fn: &hkstest.Func{
				Code:      []hks.Word{hks.EncodeABx(hks.OpLoadK, 0, 0)},
				Constants: []hkstest.Const{hkstest.UI64(5)},
			},
			want: decompiler.ErrConstantKind,
		},
		{
			name: "constant index",
			fn: &hkstest.Func{
				Code: []hks.Word{hks.EncodeABx(hks.OpLoadK, 0, 3)},
			},
			want: hks.ErrConstantIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := decodeFunc(t, tt.fn)
			_, err := decompiler.Lower(fn)
			require.ErrorIs(t, err, tt.want)

			var derr *decompiler.Error
			require.True(t, errors.As(err, &derr))
			assert.Equal(t, fn.Instructions[0].Address, derr.Address)
			assert.True(t, derr.HasOp)
		})
	}
}

// assertNoPseudo fails if any statement under n only exists for recovery.
func assertNoPseudo(t *testing.T, n ast.Node) {
	t.Helper()
	ast.Inspect(n, func(n ast.Node) bool {
		if s, ok := n.(ast.Stmt); ok && ast.IsPseudo(s) {
			if _, jump := s.(*ast.Jump); !jump {
				t.Errorf("pseudo-statement %s left in tree", ast.Label(s))
			}
		}
		return true
	})
}
