package ast

import (
	"fmt"
	"strconv"

	"github.com/xlab/treeprint"
)

// Dump renders the tree rooted at n as an indented outline, one node per
// line, for debugging the recovery and rewrite passes.
func Dump(n Node) string {
	tree := treeprint.New()
	tree.SetValue(Label(n))
	for _, c := range Children(n) {
		addTree(tree, c)
	}
	return tree.String()
}

func addTree(parent treeprint.Tree, n Node) {
	children := Children(n)
	if len(children) == 0 {
		parent.AddNode(Label(n))
		return
	}
	branch := parent.AddBranch(Label(n))
	for _, c := range children {
		addTree(branch, c)
	}
}

// Label is a one-line description of a single node.
func Label(n Node) string {
	at := fmt.Sprintf("@%04X", n.Addr())
	switch n := n.(type) {
	case *Chunk:
		return "Chunk " + at
	case *Block:
		return fmt.Sprintf("Block %s (%d)", at, len(n.Body))
	case *Do:
		return "Do " + at
	case *While:
		return "While " + at
	case *Repeat:
		return "Repeat " + at
	case *If:
		return "If " + at
	case *ElseIf:
		return "ElseIf " + at
	case *NumericFor:
		return "NumericFor " + at
	case *GenericFor:
		return "GenericFor " + at
	case *Function:
		return fmt.Sprintf("Function %s params=%d", at, len(n.Params))
	case *LocalFunction:
		return fmt.Sprintf("LocalFunction %s params=%d", at, len(n.Params))
	case *Local:
		return "Local " + at
	case *Assign:
		if n.CallResult {
			return "Assign " + at + " call"
		}
		return "Assign " + at
	case *Return:
		return "Return " + at
	case *Jump:
		return fmt.Sprintf("Jump %s %+d", at, n.Offset)
	case *Test:
		return "Test " + at
	case *ForPrep:
		return "ForPrep " + at
	case *ForLoop:
		return fmt.Sprintf("ForLoop %s %+d", at, n.Offset)
	case *TForLoop:
		return "TForLoop " + at
	case *Register:
		return fmt.Sprintf("R%d uses=%d", n.Index, n.Uses)
	case *Closure:
		return fmt.Sprintf("C%d", n.Index)
	case *Identifier:
		return "Identifier " + n.Name
	case *NilLiteral:
		return "nil"
	case *BoolLiteral:
		return strconv.FormatBool(n.Value)
	case *NumberLiteral:
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	case *StringLiteral:
		return strconv.Quote(n.Value)
	case *VarargLiteral:
		return "..."
	case *Call:
		return fmt.Sprintf("Call %s args=%d", at, len(n.Args))
	case *BinaryExpr:
		return "Binary " + n.Op
	case *UnaryExpr:
		return "Unary " + n.Op
	case *TableConstructor:
		return "Table {}"
	case *TableAccess:
		return "Index"
	}
	return fmt.Sprintf("%T %s", n, at)
}
