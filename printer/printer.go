// Package printer renders a decompiled tree as Lua-like pseudo-source.
//
// Expressions are printed without precedence-driven parentheses: a nested
// binary or unary expression prints as flat left-to-right text, so output
// mixing operators of different precedence does not always re-parse to the
// same tree.
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/luidec/pkg/ast"
)

const indentWidth = 4

// Config controls optional output details.
type Config struct {
	// ShowUseCounts prints assignment targets as R<i>(<uses>).
	ShowUseCounts bool
}

// Print renders n, which is usually an *ast.Chunk.
func Print(n ast.Node, cfg Config) string {
	p := &printer{cfg: cfg}
	switch n := n.(type) {
	case *ast.Chunk:
		for _, s := range n.Body {
			p.stmt(s)
			p.sb.WriteString("\n")
		}
	case ast.Stmt:
		p.stmt(n)
	case ast.Expr:
		p.expr(n)
	}
	return p.sb.String()
}

type printer struct {
	sb     strings.Builder
	cfg    Config
	indent int
}

func (p *printer) pad() {
	p.sb.WriteString(strings.Repeat(" ", p.indent))
}

// body prints each statement on its own line one level deeper, then the
// closing keyword at the current level.
func (p *printer) body(b *ast.Block, closing string) {
	p.sb.WriteString("\n")
	p.indent += indentWidth
	if b != nil {
		for _, s := range b.Body {
			p.pad()
			p.stmt(s)
			p.sb.WriteString("\n")
		}
	}
	p.indent -= indentWidth
	p.pad()
	p.sb.WriteString(closing)
}

func (p *printer) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Block:
		p.sb.WriteString("do")
		p.body(s, "end")
	case *ast.Do:
		p.sb.WriteString("do")
		p.body(s.Body, "end")
	case *ast.While:
		p.sb.WriteString("while ")
		p.expr(s.Cond)
		p.sb.WriteString(" do")
		p.body(s.Body, "end")
	case *ast.Repeat:
		p.sb.WriteString("repeat")
		p.body(s.Body, "until ")
		p.expr(s.Cond)
	case *ast.If:
		p.sb.WriteString("if ")
		p.expr(s.Cond)
		p.sb.WriteString(" then")
		closing := "end"
		if len(s.ElseIfs) > 0 || s.Else != nil {
			closing = ""
		}
		p.body(s.Then, closing)
		for i, e := range s.ElseIfs {
			p.sb.WriteString("elseif ")
			p.expr(e.Cond)
			p.sb.WriteString(" then")
			closing = ""
			if i == len(s.ElseIfs)-1 && s.Else == nil {
				closing = "end"
			}
			p.body(e.Body, closing)
		}
		if s.Else != nil {
			p.sb.WriteString("else")
			p.body(s.Else, "end")
		}
	case *ast.NumericFor:
		p.sb.WriteString("for ")
		p.expr(s.Var)
		p.sb.WriteString(" = ")
		p.forPart(s.Init)
		p.sb.WriteString(", ")
		p.forPart(s.Limit)
		if s.Step != nil {
			p.sb.WriteString(", ")
			p.forPart(s.Step)
		}
		p.sb.WriteString(" do")
		p.body(s.Body, "end")
	case *ast.GenericFor:
		p.sb.WriteString("for ")
		p.exprList(s.Vars, false)
		p.sb.WriteString(" in ")
		p.exprList(s.Exprs, false)
		p.sb.WriteString(" do")
		p.body(s.Body, "end")
	case *ast.Function:
		p.sb.WriteString("function ")
		if s.Name != nil {
			p.expr(s.Name)
		}
		p.params(s.Params, s.Vararg)
		p.body(s.Body, "end")
	case *ast.LocalFunction:
		p.sb.WriteString("local function ")
		p.expr(s.Name)
		p.params(s.Params, s.Vararg)
		p.body(s.Body, "end")
	case *ast.Local:
		p.sb.WriteString("local ")
		p.exprList(s.Names, true)
		if len(s.Values) > 0 {
			p.sb.WriteString(" = ")
			p.exprList(s.Values, false)
		}
	case *ast.Assign:
		if len(s.Targets) == 0 || (s.CallResult && unused(s.Targets)) {
			p.exprList(s.Values, false)
			return
		}
		p.exprList(s.Targets, true)
		p.sb.WriteString(" = ")
		p.exprList(s.Values, false)
	case *ast.Return:
		p.sb.WriteString("return")
		if len(s.Values) > 0 {
			p.sb.WriteString(" ")
			p.exprList(s.Values, false)
		}

	case *ast.Jump:
		fmt.Fprintf(&p.sb, "asm_jump( %d )", s.Offset)
	case *ast.Test:
		p.sb.WriteString("asm_test( ")
		p.expr(s.Cond)
		p.sb.WriteString(" )")
	case *ast.ForPrep:
		p.sb.WriteString("asm_forprep( ")
		p.exprList([]ast.Expr{s.Init, s.Limit, s.Step, s.Var}, false)
		p.sb.WriteString(" )")
	case *ast.ForLoop:
		fmt.Fprintf(&p.sb, "asm_forloop( %d )", s.Offset)
	case *ast.TForLoop:
		p.sb.WriteString("asm_tforloop()")
	default:
		fmt.Fprintf(&p.sb, "--[[ %T ]]", s)
	}
}

// forPart prints a numeric for bound, which is an expression once inlined
// and otherwise the load that produced it.
func (p *printer) forPart(n ast.Node) {
	switch n := n.(type) {
	case ast.Expr:
		p.expr(n)
	case *ast.Assign:
		if len(n.Values) > 0 {
			p.expr(n.Values[0])
		}
	}
}

func (p *printer) params(params []*ast.Register, vararg bool) {
	p.sb.WriteString("(")
	for i, r := range params {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.expr(r)
	}
	if vararg {
		if len(params) > 0 {
			p.sb.WriteString(", ")
		}
		p.sb.WriteString("...")
	}
	p.sb.WriteString(")")
}

func unused(targets []ast.Expr) bool {
	for _, t := range targets {
		r, ok := t.(*ast.Register)
		if !ok || r.Uses > 0 {
			return false
		}
	}
	return true
}

func (p *printer) exprList(es []ast.Expr, lvalue bool) {
	for i, e := range es {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		if r, ok := e.(*ast.Register); ok && lvalue && p.cfg.ShowUseCounts {
			fmt.Fprintf(&p.sb, "R%d(%d)", r.Index, r.Uses)
			continue
		}
		p.expr(e)
	}
}

func (p *printer) expr(e ast.Expr) {
	switch e := e.(type) {
	case nil:
		p.sb.WriteString("nil")
	case *ast.Register:
		fmt.Fprintf(&p.sb, "R%d", e.Index)
	case *ast.Closure:
		fmt.Fprintf(&p.sb, "C%d", e.Index)
	case *ast.Identifier:
		p.sb.WriteString(e.Name)
	case *ast.NilLiteral:
		p.sb.WriteString("nil")
	case *ast.BoolLiteral:
		p.sb.WriteString(strconv.FormatBool(e.Value))
	case *ast.NumberLiteral:
		p.sb.WriteString(strconv.FormatFloat(e.Value, 'g', -1, 64))
	case *ast.StringLiteral:
		p.sb.WriteString(Quote(e.Value))
	case *ast.VarargLiteral:
		p.sb.WriteString("...")
	case *ast.Call:
		p.expr(e.Func)
		p.sb.WriteString("(")
		p.exprList(e.Args, false)
		p.sb.WriteString(")")
	case *ast.BinaryExpr:
		p.expr(e.Left)
		p.sb.WriteString(" " + e.Op + " ")
		p.expr(e.Right)
	case *ast.UnaryExpr:
		p.sb.WriteString(e.Op)
		p.expr(e.Operand)
	case *ast.TableConstructor:
		p.table(e)
	case *ast.TableAccess:
		p.expr(e.Table)
		switch k := e.Key.(type) {
		case *ast.Identifier:
			p.sb.WriteString("." + k.Name)
		case *ast.StringLiteral:
			if isName(k.Value) {
				p.sb.WriteString("." + k.Value)
				return
			}
			p.sb.WriteString("[")
			p.expr(k)
			p.sb.WriteString("]")
		default:
			p.sb.WriteString("[")
			p.expr(e.Key)
			p.sb.WriteString("]")
		}
	default:
		fmt.Fprintf(&p.sb, "--[[ %T ]]", e)
	}
}

func (p *printer) table(t *ast.TableConstructor) {
	p.sb.WriteString("{")
	for i, v := range t.Values {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		if i < len(t.Keys) && t.Keys[i] != nil {
			p.sb.WriteString("[")
			p.expr(t.Keys[i])
			p.sb.WriteString("] = ")
		}
		p.expr(v)
	}
	p.sb.WriteString("}")
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Quote wraps s in double quotes, escaping backslash and double quote only.
func Quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}

var keywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "if": true,
	"in": true, "local": true, "nil": true, "not": true, "or": true,
	"repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true,
}

// isName reports whether s can be written after a dot.
func isName(s string) bool {
	if s == "" || keywords[s] {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
