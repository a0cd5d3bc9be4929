// Package decompiler turns a decoded chunk into a tree: flat lowering of
// every instruction, loop recovery from backward branches, then register
// reference counting and inlining.
package decompiler

import (
	"github.com/chazu/luidec/pkg/ast"
	"github.com/chazu/luidec/pkg/hks"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("luidec.decompiler")

// Options selects which passes run.
type Options struct {
	// Structure enables loop recovery. Without it the flat pseudo-statements
	// are kept.
	Structure bool

	// Inline enables reference counting and register inlining.
	Inline bool

	// Stages run, in order, on every function body after loop recovery.
	Stages []Stage
}

// DefaultOptions enables every pass.
func DefaultOptions() Options {
	return Options{Structure: true, Inline: true}
}

// Decompile builds the tree for a whole file. The root prototype becomes
// an anonymous function declaration; each nested closure is declared as
// `local function C<i>` at the top of the function that owns it.
func Decompile(file *hks.File, opts Options) (*ast.Chunk, error) {
	d := &decompiler{opts: opts}

	root, err := d.function(file.Root)
	if err != nil {
		return nil, err
	}
	chunk := &ast.Chunk{AddrVal: root.AddrVal, Body: []ast.Stmt{root}}

	if opts.Inline {
		if err := CountUses(chunk); err != nil {
			return nil, err
		}
		if err := Inline(chunk); err != nil {
			return nil, err
		}
	}
	return chunk, nil
}

type decompiler struct {
	opts Options
}

func (d *decompiler) function(fn *hks.Function) (*ast.Function, error) {
	decl, err := Lower(fn)
	if err != nil {
		return nil, err
	}

	body := decl.Body.Body
	if d.opts.Structure {
		if body, err = Recover(body); err != nil {
			return nil, err
		}
		for _, stage := range d.opts.Stages {
			if body, err = stage(body); err != nil {
				return nil, err
			}
		}
	}

	var locals []ast.Stmt
	for i, sub := range fn.Closures {
		inner, err := d.function(sub)
		if err != nil {
			return nil, err
		}
		locals = append(locals, &ast.LocalFunction{
			AddrVal: inner.AddrVal,
			Name:    &ast.Closure{AddrVal: inner.AddrVal, Index: i},
			Params:  inner.Params,
			Vararg:  inner.Vararg,
			Body:    inner.Body,
		})
	}
	decl.Body.Body = append(locals, body...)
	return decl, nil
}
