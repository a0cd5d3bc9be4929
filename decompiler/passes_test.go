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

func lower(t *testing.T, f *hkstest.Func) *ast.Function {
	t.Helper()
	decl, err := decompiler.Lower(decodeFunc(t, f))
	require.NoError(t, err)
	return decl
}

func target(t *testing.T, s ast.Stmt) *ast.Register {
	t.Helper()
	asn, ok := s.(*ast.Assign)
	require.True(t, ok, "got %T", s)
	r, ok := asn.Targets[0].(*ast.Register)
	require.True(t, ok, "got %T", asn.Targets[0])
	return r
}

func TestCountUses(t *testing.T) {
	decl := lower(t, &hkstest.Func{
		Code: []hks.Word{
			hks.EncodeABx(hks.OpLoadK, 0, 0),
			hks.EncodeABC(hks.OpMove, 1, 0, 0),
			hks.EncodeABC(hks.OpMove, 2, 0, 0),
			hks.EncodeABx(hks.OpLoadK, 0, 0),
			hks.EncodeABC(hks.OpReturn, 1, 3, 0),
		},
		Constants: []hkstest.Const{hkstest.Str("a")},
	})
	require.NoError(t, decompiler.CountUses(decl))

	body := decl.Body.Body
	assert.Equal(t, 2, target(t, body[0]).Uses)
	assert.Equal(t, 1, target(t, body[1]).Uses)
	assert.Equal(t, 1, target(t, body[2]).Uses)
	assert.Equal(t, 0, target(t, body[3]).Uses)
}

// The number of register reads equals the sum of Uses over every register
// that was written.
func TestCountUsesTotals(t *testing.T) {
	decl := lower(t, &hkstest.Func{
		Params: 2,
		Code: []hks.Word{
			hks.EncodeABC(hks.OpAdd, 2, 0, 1),
			hks.EncodeABC(hks.OpMul, 3, 2, 2),
			hks.EncodeABC(hks.OpConcat, 4, 2, 3),
			hks.EncodeABC(hks.OpReturn, 3, 3, 0),
		},
	})
	require.NoError(t, decompiler.CountUses(decl))

	written := map[*ast.Register]bool{}
	for _, p := range decl.Params {
		written[p] = true
	}
	for _, s := range decl.Body.Body {
		if asn, ok := s.(*ast.Assign); ok {
			for _, e := range asn.Targets {
				written[e.(*ast.Register)] = true
			}
		}
	}

	reads := 0
	ast.Inspect(decl.Body, func(n ast.Node) bool {
		if r, ok := n.(*ast.Register); ok && !written[r] {
			reads++
		}
		return true
	})

	uses := 0
	for r := range written {
		uses += r.Uses
	}
	assert.Equal(t, 8, reads)
	assert.Equal(t, reads, uses)
}

func TestCountUsesUnbound(t *testing.T) {
	fn := decodeFunc(t, &hkstest.Func{
		Code: []hks.Word{
			hks.EncodeABC(hks.OpLoadNil, 0, 0, 0),
			hks.EncodeABC(hks.OpMove, 0, 5, 0),
		},
	})
	decl, err := decompiler.Lower(fn)
	require.NoError(t, err)

	err = decompiler.CountUses(decl)
	require.ErrorIs(t, err, decompiler.ErrUnboundRegister)

	var derr *decompiler.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, fn.Instructions[1].Address, derr.Address)
}

func TestCountUsesFunctionScope(t *testing.T) {
	inner := &ast.LocalFunction{
		Name: &ast.Closure{},
		Body: &ast.Block{Body: []ast.Stmt{
			&ast.Return{Values: []ast.Expr{&ast.Register{Index: 0}}},
		}},
	}
	outer := &ast.Function{
		Body: &ast.Block{Body: []ast.Stmt{
			&ast.Assign{
				Targets: []ast.Expr{&ast.Register{Index: 0}},
				Values:  []ast.Expr{&ast.NilLiteral{}},
			},
			inner,
		}},
	}

	// R0 of the enclosing function is not visible inside the closure.
	require.ErrorIs(t, decompiler.CountUses(outer), decompiler.ErrUnboundRegister)

	inner.Params = []*ast.Register{{Index: 0}}
	require.NoError(t, decompiler.CountUses(outer))
	assert.Equal(t, 1, inner.Params[0].Uses)
}

func inlined(t *testing.T, f *hkstest.Func) (*ast.Function, string) {
	t.Helper()
	decl := lower(t, f)
	require.NoError(t, decompiler.CountUses(decl))
	require.NoError(t, decompiler.Inline(decl))
	return decl, printer.Print(decl, printer.Config{ShowUseCounts: true})
}

func TestInline(t *testing.T) {
	tests := []struct {
		name string
		fn   *hkstest.Func
		want string
	}{
		{
			name: "single use folds",
			fn: &hkstest.Func{
				Params: 2,
				Code: []hks.Word{
					hks.EncodeABC(hks.OpAdd, 2, 0, 1),
					hks.EncodeABC(hks.OpReturn, 2, 2, 0),
				},
			},
			want: "function (R0, R1)\n    return R0 + R1\nend",
		},
		{
			name: "shared value stays",
			fn: &hkstest.Func{
				Code: []hks.Word{
					hks.EncodeABx(hks.OpLoadK, 0, 0),
					hks.EncodeABC(hks.OpMove, 1, 0, 0),
					hks.EncodeABC(hks.OpMove, 2, 0, 0),
					hks.EncodeABC(hks.OpReturn, 1, 3, 0),
				},
				Constants: []hkstest.Const{hkstest.Str("a")},
			},
			want: "function ()\n    R0(2) = \"a\"\n    return R0, R0\nend",
		},
		{
			name: "slot reuse",
			fn: &hkstest.Func{
				Code: []hks.Word{
					hks.EncodeABx(hks.OpLoadK, 0, 0),
					hks.EncodeABC(hks.OpMove, 1, 0, 0),
					hks.EncodeABx(hks.OpLoadK, 0, 1),
					hks.EncodeABC(hks.OpReturn, 0, 2, 0),
				},
				Constants: []hkstest.Const{hkstest.Str("a"), hkstest.Str("b")},
			},
			want: "function ()\n    return \"b\"\nend",
		},
		{
			name: "kept call result",
			fn: &hkstest.Func{
				Code: []hks.Word{
					hks.EncodeABx(hks.OpGetGlobal, 0, 0),
					hks.EncodeABC(hks.OpCall, 0, 1, 2),
					hks.EncodeABC(hks.OpReturn, 0, 2, 0),
				},
				Constants: []hkstest.Const{hkstest.Str("f")},
			},
			want: "function ()\n    R0(1) = f()\n    return R0\nend",
		},
		{
			name: "discarded call result",
			fn: &hkstest.Func{
				Code: []hks.Word{
					hks.EncodeABx(hks.OpGetGlobal, 0, 0),
					hks.EncodeABC(hks.OpCall, 0, 1, 2),
					hks.EncodeABC(hks.OpReturn, 0, 1, 0),
				},
				Constants: []hkstest.Const{hkstest.Str("f")},
			},
			want: "function ()\n    f()\n    return\nend",
		},
		{
			name: "field chain",
			fn: &hkstest.Func{
				Code: []hks.Word{
					hks.EncodeABx(hks.OpGetGlobal, 0, 0),
					hks.EncodeABC(hks.OpGetField, 0, 0, 1),
					hks.EncodeABx(hks.OpLoadK, 1, 2),
					hks.EncodeABC(hks.OpSetField, 0, 1, 1),
				},
				Constants: []hkstest.Const{hkstest.Str("game"), hkstest.Str("player"), hkstest.Str("hp")},
			},
			want: "function ()\n    game.player.player = \"hp\"\nend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := inlined(t, tt.fn)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInlineCallResultFlag(t *testing.T) {
	decl, _ := inlined(t, &hkstest.Func{
		Code: []hks.Word{
			hks.EncodeABx(hks.OpGetGlobal, 0, 0),
			hks.EncodeABC(hks.OpCall, 0, 1, 2),
			hks.EncodeABC(hks.OpCall, 0, 1, 3),
			hks.EncodeABC(hks.OpReturn, 0, 3, 0),
		},
		Constants: []hkstest.Const{hkstest.Str("f")},
	})

	require.Len(t, decl.Body.Body, 3)
	assert.True(t, decl.Body.Body[0].(*ast.Assign).CallResult)
	assert.False(t, decl.Body.Body[1].(*ast.Assign).CallResult)
}

func TestInlineIdempotent(t *testing.T) {
	decl, first := inlined(t, &hkstest.Func{
		Params: 1,
		Code: []hks.Word{
			hks.EncodeABx(hks.OpGetGlobal, 1, 0),
			hks.EncodeABC(hks.OpGetField, 2, 0, 1),
			hks.EncodeABC(hks.OpCall, 1, 2, 2),
			hks.EncodeABC(hks.OpAdd, 2, 1, 1),
			hks.EncodeABC(hks.OpReturn, 2, 2, 0),
		},
		Constants: []hkstest.Const{hkstest.Str("f"), hkstest.Str("x")},
	})
	assert.Equal(t, "function (R0)\n    R1(2) = f(R0.x)\n    return R1 + R1\nend", first)

	require.NoError(t, decompiler.Inline(decl))
	assert.Equal(t, first, printer.Print(decl, printer.Config{ShowUseCounts: true}))
}

func TestInlineUnbound(t *testing.T) {
	decl := lower(t, &hkstest.Func{
		Code: []hks.Word{hks.EncodeABC(hks.OpReturn, 3, 2, 0)},
	})
	require.ErrorIs(t, decompiler.Inline(decl), decompiler.ErrUnboundRegister)
}
