package decompiler

import (
	"github.com/chazu/luidec/pkg/ast"
)

// Stage is a rewrite applied to a statement list after loop recovery.
// Forward conditional merging belongs here once it exists.
type Stage func([]ast.Stmt) ([]ast.Stmt, error)

// findLocation returns the index of the first statement at addr. An
// instruction that lowered to nothing has no statement, so a branch to it
// lands on the next statement instead. Targets outside the list fail.
func findLocation(stmts []ast.Stmt, addr int) (int, error) {
	if len(stmts) == 0 || addr < stmts[0].Addr() {
		return -1, errAt(addr, ErrLocationNotFound)
	}
	for i, s := range stmts {
		if s.Addr() >= addr {
			return i, nil
		}
	}
	return -1, errAt(addr, ErrLocationNotFound)
}

// Recover rebuilds loop structure in a flat statement list. It scans from
// the end; every time a backward construct is rewritten the scan restarts
// from the new end of the list.
//
// A FORLOOP becomes a NumericFor that absorbs the three loads before its
// FORPREP. A negative Jump collapses the range from its target through
// itself into a Block: a generic-for region when preceded by a TForLoop, a
// repeat region when preceded by a Test, otherwise a while region.
func Recover(stmts []ast.Stmt) ([]ast.Stmt, error) {
	for i := len(stmts) - 1; i >= 0; i-- {
		switch s := stmts[i].(type) {
		case *ast.ForLoop:
			begin, err := findLocation(stmts, ast.BranchTarget(s.AddrVal, s.Offset))
			if err != nil {
				return nil, err
			}
			if begin < 4 {
				return nil, errAt(s.AddrVal, ErrBadForPrep)
			}
			if _, ok := stmts[begin-1].(*ast.ForPrep); !ok {
				return nil, errAt(s.AddrVal, ErrBadForPrep)
			}
			if stmts, err = recoverFor(stmts, begin-4, i); err != nil {
				return nil, err
			}
			i = len(stmts)

		case *ast.Jump:
			if s.Offset >= 0 {
				continue
			}
			begin, err := findLocation(stmts, ast.BranchTarget(s.AddrVal, s.Offset))
			if err != nil {
				return nil, err
			}
			kind := "while"
			if i > 0 {
				switch stmts[i-1].(type) {
				case *ast.TForLoop:
					kind = "for-in"
				case *ast.Test:
					kind = "repeat"
				}
			}
			log.Debugf("%s region 0x%X..0x%X", kind, stmts[begin].Addr(), s.AddrVal)
			if stmts, err = recoverRegion(stmts, begin, i); err != nil {
				return nil, err
			}
			i = len(stmts)
		}
	}
	return stmts, nil
}

// recoverFor replaces stmts[begin..end] with a NumericFor. stmts[begin..begin+2]
// load init, limit and step, stmts[begin+3] is the ForPrep and stmts[end]
// the ForLoop.
func recoverFor(stmts []ast.Stmt, begin, end int) ([]ast.Stmt, error) {
	prep := stmts[begin+3].(*ast.ForPrep)
	addr := stmts[begin].Addr()

	body, err := Recover(clone(stmts[begin+4 : end]))
	if err != nil {
		return nil, err
	}

	loop := &ast.NumericFor{
		AddrVal: addr,
		Var:     prep.Var,
		Init:    stmts[begin],
		Limit:   stmts[begin+1],
		Step:    stmts[begin+2],
		Body:    &ast.Block{AddrVal: addr, Body: body},
	}
	log.Debugf("numeric for at 0x%X, %d body statements", addr, len(body))
	return splice(stmts, begin, end, loop), nil
}

// recoverRegion replaces stmts[begin..end] with a Block. Everything before
// the closing jump is recovered on its own first so nested loops survive.
func recoverRegion(stmts []ast.Stmt, begin, end int) ([]ast.Stmt, error) {
	addr := stmts[begin].Addr()

	inner, err := Recover(clone(stmts[begin:end]))
	if err != nil {
		return nil, err
	}
	body := append(inner, stmts[end])

	return splice(stmts, begin, end, &ast.Block{AddrVal: addr, Body: body}), nil
}

func clone(stmts []ast.Stmt) []ast.Stmt {
	return append([]ast.Stmt(nil), stmts...)
}

// splice returns stmts with [begin..end] replaced by s.
func splice(stmts []ast.Stmt, begin, end int, s ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(stmts)-(end-begin))
	out = append(out, stmts[:begin]...)
	out = append(out, s)
	return append(out, stmts[end+1:]...)
}
