package decompiler

import (
	"fmt"

	"github.com/chazu/luidec/pkg/ast"
)

// counter records, per register slot, the Register node last written there.
type counter struct {
	live map[int]*ast.Register
}

// CountUses fills Register.Uses for every register written in the tree
// rooted at n: each read of a slot increments the node that last wrote it.
// Reading a slot nothing has written yet is an error. Every function starts
// with a fresh set of slots holding its parameters.
func CountUses(n ast.Node) error {
	c := &counter{live: map[int]*ast.Register{}}
	return c.node(n)
}

func (c *counter) bind(r *ast.Register) {
	c.live[r.Index] = r
}

func (c *counter) read(r *ast.Register) error {
	w, ok := c.live[r.Index]
	if !ok {
		return errAt(r.AddrVal, fmt.Errorf("%w: R%d", ErrUnboundRegister, r.Index))
	}
	w.Uses++
	return nil
}

func (c *counter) list(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if loop, ok := s.(*ast.TForLoop); ok {
			for _, r := range loop.Vars {
				c.bind(r)
			}
		}
	}
	for _, s := range stmts {
		if err := c.node(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *counter) function(params []*ast.Register, body *ast.Block) error {
	saved := c.live
	c.live = map[int]*ast.Register{}
	defer func() { c.live = saved }()

	for _, p := range params {
		c.bind(p)
	}
	return c.node(body)
}

// target handles an assignment target: registers are bound, anything else
// is read.
func (c *counter) target(e ast.Expr) error {
	if r, ok := e.(*ast.Register); ok {
		c.bind(r)
		return nil
	}
	return c.node(e)
}

func (c *counter) exprs(es []ast.Expr) error {
	for _, e := range es {
		if err := c.node(e); err != nil {
			return err
		}
	}
	return nil
}

func (c *counter) node(n ast.Node) error {
	switch n := n.(type) {
	case nil:
		return nil
	case *ast.Register:
		return c.read(n)
	case *ast.Chunk:
		return c.list(n.Body)
	case *ast.Block:
		if n == nil {
			return nil
		}
		return c.list(n.Body)
	case *ast.Function:
		return c.function(n.Params, n.Body)
	case *ast.LocalFunction:
		return c.function(n.Params, n.Body)

	case *ast.Assign:
		if err := c.exprs(n.Values); err != nil {
			return err
		}
		for _, t := range n.Targets {
			if err := c.target(t); err != nil {
				return err
			}
		}
	case *ast.Local:
		if err := c.exprs(n.Values); err != nil {
			return err
		}
		for _, t := range n.Names {
			if err := c.target(t); err != nil {
				return err
			}
		}
	case *ast.NumericFor:
		for _, part := range []ast.Node{n.Init, n.Limit, n.Step} {
			if err := c.node(part); err != nil {
				return err
			}
		}
		c.bind(n.Var)
		return c.node(n.Body)
	case *ast.GenericFor:
		if err := c.exprs(n.Exprs); err != nil {
			return err
		}
		for _, v := range n.Vars {
			if err := c.target(v); err != nil {
				return err
			}
		}
		return c.node(n.Body)

	case *ast.ForPrep:
		if err := c.exprs([]ast.Expr{n.Init, n.Limit, n.Step}); err != nil {
			return err
		}
		c.bind(n.Var)
	case *ast.TForLoop:
		for _, r := range n.Vars {
			c.bind(r)
		}

	default:
		for _, child := range ast.Children(n) {
			if err := c.node(child); err != nil {
				return err
			}
		}
	}
	return nil
}
