package ast

// Inspect traverses the tree rooted at n in depth-first order. It calls
// f(n) and, if f returns true, descends into the children of n. Nil
// children are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// Children returns the direct children of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if c != nil && !isNilNode(c) {
			out = append(out, c)
		}
	}
	addExprs := func(es []Expr) {
		for _, e := range es {
			add(e)
		}
	}
	addStmts := func(ss []Stmt) {
		for _, s := range ss {
			add(s)
		}
	}
	addRegs := func(rs []*Register) {
		for _, r := range rs {
			add(r)
		}
	}

	switch n := n.(type) {
	case *Chunk:
		addStmts(n.Body)
	case *Block:
		addStmts(n.Body)
	case *Do:
		add(n.Body)
	case *While:
		add(n.Cond)
		add(n.Body)
	case *Repeat:
		add(n.Body)
		add(n.Cond)
	case *If:
		add(n.Cond)
		add(n.Then)
		for _, e := range n.ElseIfs {
			add(e)
		}
		add(n.Else)
	case *ElseIf:
		add(n.Cond)
		add(n.Body)
	case *NumericFor:
		add(n.Var)
		add(n.Init)
		add(n.Limit)
		add(n.Step)
		add(n.Body)
	case *GenericFor:
		addExprs(n.Vars)
		addExprs(n.Exprs)
		add(n.Body)
	case *Function:
		add(n.Name)
		addRegs(n.Params)
		add(n.Body)
	case *LocalFunction:
		add(n.Name)
		addRegs(n.Params)
		add(n.Body)
	case *Local:
		addExprs(n.Names)
		addExprs(n.Values)
	case *Assign:
		addExprs(n.Targets)
		addExprs(n.Values)
	case *Return:
		addExprs(n.Values)
	case *Test:
		add(n.Cond)
	case *ForPrep:
		add(n.Init)
		add(n.Limit)
		add(n.Step)
		add(n.Var)
	case *ForLoop:
		add(n.Counter)
	case *TForLoop:
		addRegs(n.Vars)
	case *Call:
		add(n.Func)
		addExprs(n.Args)
	case *BinaryExpr:
		add(n.Left)
		add(n.Right)
	case *UnaryExpr:
		add(n.Operand)
	case *TableConstructor:
		addExprs(n.Keys)
		addExprs(n.Values)
	case *TableAccess:
		add(n.Table)
		add(n.Key)
	}
	return out
}

// isNilNode catches typed nil pointers stored in an interface.
func isNilNode(n Node) bool {
	switch n := n.(type) {
	case *Block:
		return n == nil
	case *Register:
		return n == nil
	case *ElseIf:
		return n == nil
	}
	return false
}
