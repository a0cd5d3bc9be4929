package decompiler

import (
	"fmt"

	"github.com/chazu/luidec/pkg/ast"
)

// inliner holds, per register slot, the expression a read of that slot
// should be replaced with.
type inliner struct {
	live map[int]ast.Expr
}

// Inline folds single-use register temporaries into the expressions that
// read them. It must run after CountUses. An assignment to a lone register
// read at most once is deleted and its value substituted at the read; any
// other register stays a named temporary.
func Inline(n ast.Node) error {
	in := &inliner{live: map[int]ast.Expr{}}
	_, err := in.stmt(n)
	return err
}

func (in *inliner) keep(r *ast.Register) {
	in.live[r.Index] = r
}

// swap returns the expression that replaces e.
func (in *inliner) swap(e ast.Expr) (ast.Expr, error) {
	switch e := e.(type) {
	case nil:
		return nil, nil
	case *ast.Register:
		v, ok := in.live[e.Index]
		if !ok {
			return nil, errAt(e.AddrVal, fmt.Errorf("%w: R%d", ErrUnboundRegister, e.Index))
		}
		return v, nil
	case *ast.Call:
		var err error
		if e.Func, err = in.swap(e.Func); err != nil {
			return nil, err
		}
		if err = in.swapAll(e.Args); err != nil {
			return nil, err
		}
	case *ast.BinaryExpr:
		var err error
		if e.Left, err = in.swap(e.Left); err != nil {
			return nil, err
		}
		if e.Right, err = in.swap(e.Right); err != nil {
			return nil, err
		}
	case *ast.UnaryExpr:
		var err error
		if e.Operand, err = in.swap(e.Operand); err != nil {
			return nil, err
		}
	case *ast.TableAccess:
		var err error
		if e.Table, err = in.swap(e.Table); err != nil {
			return nil, err
		}
		if e.Key, err = in.swap(e.Key); err != nil {
			return nil, err
		}
	case *ast.TableConstructor:
		if err := in.swapAll(e.Keys); err != nil {
			return nil, err
		}
		if err := in.swapAll(e.Values); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (in *inliner) swapAll(es []ast.Expr) error {
	for i := range es {
		v, err := in.swap(es[i])
		if err != nil {
			return err
		}
		es[i] = v
	}
	return nil
}

// swapTarget rewrites the parts of a non-register assignment target that
// are read, such as the table of a field store.
func (in *inliner) swapTarget(e ast.Expr) (ast.Expr, error) {
	if _, ok := e.(*ast.Register); ok {
		return e, nil
	}
	return in.swap(e)
}

func (in *inliner) list(stmts []ast.Stmt) ([]ast.Stmt, error) {
	for _, s := range stmts {
		if loop, ok := s.(*ast.TForLoop); ok {
			for _, r := range loop.Vars {
				in.keep(r)
			}
		}
	}

	out := stmts[:0]
	for _, s := range stmts {
		remove, err := in.stmt(s)
		if err != nil {
			return nil, err
		}
		if !remove {
			out = append(out, s)
		}
	}
	return out, nil
}

func (in *inliner) block(b *ast.Block) error {
	if b == nil {
		return nil
	}
	body, err := in.list(b.Body)
	if err != nil {
		return err
	}
	b.Body = body
	return nil
}

func (in *inliner) function(params []*ast.Register, body *ast.Block) error {
	saved := in.live
	in.live = map[int]ast.Expr{}
	defer func() { in.live = saved }()

	for _, p := range params {
		in.keep(p)
	}
	return in.block(body)
}

// assign reports whether the assignment was folded away.
func (in *inliner) assign(n *ast.Assign) (bool, error) {
	if err := in.swapAll(n.Values); err != nil {
		return false, err
	}
	for i, t := range n.Targets {
		v, err := in.swapTarget(t)
		if err != nil {
			return false, err
		}
		n.Targets[i] = v
	}

	if len(n.Values) == 1 {
		if _, ok := n.Values[0].(*ast.Call); ok {
			if len(n.Targets) == 1 {
				n.CallResult = true
			}
			in.keepTargets(n.Targets)
			return false, nil
		}
	}

	if len(n.Targets) == 1 {
		if r, ok := n.Targets[0].(*ast.Register); ok && len(n.Values) > 0 {
			if r.Uses <= 1 {
				in.live[r.Index] = n.Values[0]
				return true, nil
			}
		}
	}
	in.keepTargets(n.Targets)
	return false, nil
}

func (in *inliner) keepTargets(targets []ast.Expr) {
	for _, t := range targets {
		if r, ok := t.(*ast.Register); ok {
			in.keep(r)
		}
	}
}

// forPart folds one of a numeric for's init, limit or step loads.
func (in *inliner) forPart(part ast.Node) (ast.Node, error) {
	switch p := part.(type) {
	case *ast.Assign:
		folded, err := in.assign(p)
		if err != nil {
			return nil, err
		}
		if folded {
			return p.Values[0], nil
		}
		return p, nil
	case ast.Expr:
		return in.swap(p)
	}
	return part, nil
}

// stmt rewrites n in place and reports whether it should be deleted from
// its list.
func (in *inliner) stmt(n ast.Node) (bool, error) {
	var err error
	switch n := n.(type) {
	case *ast.Chunk:
		n.Body, err = in.list(n.Body)
	case *ast.Block:
		err = in.block(n)
	case *ast.Do:
		err = in.block(n.Body)
	case *ast.Function:
		err = in.function(n.Params, n.Body)
	case *ast.LocalFunction:
		err = in.function(n.Params, n.Body)

	case *ast.Assign:
		return in.assign(n)
	case *ast.Local:
		if err = in.swapAll(n.Values); err != nil {
			return false, err
		}
		in.keepTargets(n.Names)
	case *ast.Return:
		err = in.swapAll(n.Values)

	case *ast.While:
		if n.Cond, err = in.swap(n.Cond); err != nil {
			return false, err
		}
		err = in.block(n.Body)
	case *ast.Repeat:
		if err = in.block(n.Body); err != nil {
			return false, err
		}
		n.Cond, err = in.swap(n.Cond)
	case *ast.If:
		if n.Cond, err = in.swap(n.Cond); err != nil {
			return false, err
		}
		if err = in.block(n.Then); err != nil {
			return false, err
		}
		for _, e := range n.ElseIfs {
			if e.Cond, err = in.swap(e.Cond); err != nil {
				return false, err
			}
			if err = in.block(e.Body); err != nil {
				return false, err
			}
		}
		err = in.block(n.Else)
	case *ast.NumericFor:
		if n.Init, err = in.forPart(n.Init); err != nil {
			return false, err
		}
		if n.Limit, err = in.forPart(n.Limit); err != nil {
			return false, err
		}
		if n.Step, err = in.forPart(n.Step); err != nil {
			return false, err
		}
		in.keep(n.Var)
		err = in.block(n.Body)
	case *ast.GenericFor:
		if err = in.swapAll(n.Exprs); err != nil {
			return false, err
		}
		in.keepTargets(n.Vars)
		err = in.block(n.Body)

	case *ast.Test:
		n.Cond, err = in.swap(n.Cond)
	case *ast.ForLoop:
		n.Counter, err = in.swap(n.Counter)
	case *ast.ForPrep:
		if n.Init, err = in.swap(n.Init); err != nil {
			return false, err
		}
		if n.Limit, err = in.swap(n.Limit); err != nil {
			return false, err
		}
		if n.Step, err = in.swap(n.Step); err != nil {
			return false, err
		}
		in.keep(n.Var)
	case *ast.TForLoop:
		for _, r := range n.Vars {
			in.keep(r)
		}
	}
	return false, err
}
