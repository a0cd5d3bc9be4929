// Package ast defines the tree produced by the decompiler: statements,
// expressions and the low-level pseudo-statements that exist only until
// loop recovery has consumed them.
package ast

// ---------------------------------------------------------------------------
// Node interfaces
// ---------------------------------------------------------------------------

// Node is the interface implemented by all tree nodes. Addr is the byte
// offset of the instruction the node came from, or of the first
// instruction of a containing construct.
type Node interface {
	Addr() int
	node() // marker method
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Register is a VM register used as a synthetic local. Uses is filled by
// the reference counting pass.
type Register struct {
	AddrVal int
	Index   int
	Uses    int
}

func (n *Register) Addr() int { return n.AddrVal }
func (n *Register) node()     {}
func (n *Register) expr()     {}

// Closure refers to a nested prototype of the owning function.
type Closure struct {
	AddrVal int
	Index   int
}

func (n *Closure) Addr() int { return n.AddrVal }
func (n *Closure) node()     {}
func (n *Closure) expr()     {}

// Identifier is a global, field or upvalue name.
type Identifier struct {
	AddrVal int
	Name    string
}

func (n *Identifier) Addr() int { return n.AddrVal }
func (n *Identifier) node()     {}
func (n *Identifier) expr()     {}

type NilLiteral struct {
	AddrVal int
}

func (n *NilLiteral) Addr() int { return n.AddrVal }
func (n *NilLiteral) node()     {}
func (n *NilLiteral) expr()     {}

type BoolLiteral struct {
	AddrVal int
	Value   bool
}

func (n *BoolLiteral) Addr() int { return n.AddrVal }
func (n *BoolLiteral) node()     {}
func (n *BoolLiteral) expr()     {}

type NumberLiteral struct {
	AddrVal int
	Value   float64
}

func (n *NumberLiteral) Addr() int { return n.AddrVal }
func (n *NumberLiteral) node()     {}
func (n *NumberLiteral) expr()     {}

type StringLiteral struct {
	AddrVal int
	Value   string
}

func (n *StringLiteral) Addr() int { return n.AddrVal }
func (n *StringLiteral) node()     {}
func (n *StringLiteral) expr()     {}

// VarargLiteral is the `...` expression.
type VarargLiteral struct {
	AddrVal int
}

func (n *VarargLiteral) Addr() int { return n.AddrVal }
func (n *VarargLiteral) node()     {}
func (n *VarargLiteral) expr()     {}

// Call is a function call expression.
type Call struct {
	AddrVal int
	Func    Expr
	Args    []Expr
}

func (n *Call) Addr() int { return n.AddrVal }
func (n *Call) node()     {}
func (n *Call) expr()     {}

// BinaryExpr holds its operator as the literal symbol to print, e.g. "~=".
type BinaryExpr struct {
	AddrVal int
	Op      string
	Left    Expr
	Right   Expr
}

func (n *BinaryExpr) Addr() int { return n.AddrVal }
func (n *BinaryExpr) node()     {}
func (n *BinaryExpr) expr()     {}

// UnaryExpr holds its operator as printed, including any trailing space
// ("not ").
type UnaryExpr struct {
	AddrVal int
	Op      string
	Operand Expr
}

func (n *UnaryExpr) Addr() int { return n.AddrVal }
func (n *UnaryExpr) node()     {}
func (n *UnaryExpr) expr()     {}

// TableConstructor is `{...}`. Keys and Values are parallel; a nil key is a
// positional entry.
type TableConstructor struct {
	AddrVal int
	Keys    []Expr
	Values  []Expr
}

func (n *TableConstructor) Addr() int { return n.AddrVal }
func (n *TableConstructor) node()     {}
func (n *TableConstructor) expr()     {}

// TableAccess is `Table.Key` when Key is an Identifier, else `Table[Key]`.
type TableAccess struct {
	AddrVal int
	Table   Expr
	Key     Expr
}

func (n *TableAccess) Addr() int { return n.AddrVal }
func (n *TableAccess) node()     {}
func (n *TableAccess) expr()     {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Chunk is the root of a decompiled file.
type Chunk struct {
	AddrVal int
	Body    []Stmt
}

func (n *Chunk) Addr() int { return n.AddrVal }
func (n *Chunk) node()     {}

// Block is a statement list. Loop regions that are recognised but not yet
// given a typed loop node are collapsed into a Block.
type Block struct {
	AddrVal int
	Body    []Stmt
}

func (n *Block) Addr() int { return n.AddrVal }
func (n *Block) node()     {}
func (n *Block) stmt()     {}

type Do struct {
	AddrVal int
	Body    *Block
}

func (n *Do) Addr() int { return n.AddrVal }
func (n *Do) node()     {}
func (n *Do) stmt()     {}

type While struct {
	AddrVal int
	Cond    Expr
	Body    *Block
}

func (n *While) Addr() int { return n.AddrVal }
func (n *While) node()     {}
func (n *While) stmt()     {}

type Repeat struct {
	AddrVal int
	Body    *Block
	Cond    Expr
}

func (n *Repeat) Addr() int { return n.AddrVal }
func (n *Repeat) node()     {}
func (n *Repeat) stmt()     {}

type If struct {
	AddrVal int
	Cond    Expr
	Then    *Block
	ElseIfs []*ElseIf
	Else    *Block // nil when absent
}

func (n *If) Addr() int { return n.AddrVal }
func (n *If) node()     {}
func (n *If) stmt()     {}

// ElseIf is one `elseif` arm of an If.
type ElseIf struct {
	AddrVal int
	Cond    Expr
	Body    *Block
}

func (n *ElseIf) Addr() int { return n.AddrVal }
func (n *ElseIf) node()     {}

// NumericFor is `for Var = Init, Limit, Step do ... end`. Init, Limit and
// Step start out as the *Assign statements that loaded them and become
// expressions once the inlining pass folds them.
type NumericFor struct {
	AddrVal int
	Var     *Register
	Init    Node
	Limit   Node
	Step    Node
	Body    *Block
}

func (n *NumericFor) Addr() int { return n.AddrVal }
func (n *NumericFor) node()     {}
func (n *NumericFor) stmt()     {}

type GenericFor struct {
	AddrVal int
	Vars    []Expr
	Exprs   []Expr
	Body    *Block
}

func (n *GenericFor) Addr() int { return n.AddrVal }
func (n *GenericFor) node()     {}
func (n *GenericFor) stmt()     {}

// Function is a function declaration. Name is nil for the anonymous root.
type Function struct {
	AddrVal int
	Name    Expr
	Params  []*Register
	Vararg  bool
	Body    *Block
}

func (n *Function) Addr() int { return n.AddrVal }
func (n *Function) node()     {}
func (n *Function) stmt()     {}

type LocalFunction struct {
	AddrVal int
	Name    Expr
	Params  []*Register
	Vararg  bool
	Body    *Block
}

func (n *LocalFunction) Addr() int { return n.AddrVal }
func (n *LocalFunction) node()     {}
func (n *LocalFunction) stmt()     {}

type Local struct {
	AddrVal int
	Names   []Expr
	Values  []Expr
}

func (n *Local) Addr() int { return n.AddrVal }
func (n *Local) node()     {}
func (n *Local) stmt()     {}

// Assign is a multi-target assignment. An Assign with no targets is a call
// statement. CallResult marks a lone call whose result was kept by the
// inlining pass.
type Assign struct {
	AddrVal    int
	Targets    []Expr
	Values     []Expr
	CallResult bool
}

func (n *Assign) Addr() int { return n.AddrVal }
func (n *Assign) node()     {}
func (n *Assign) stmt()     {}

type Return struct {
	AddrVal int
	Values  []Expr
}

func (n *Return) Addr() int { return n.AddrVal }
func (n *Return) node()     {}
func (n *Return) stmt()     {}

// ---------------------------------------------------------------------------
// Pseudo-statements
// ---------------------------------------------------------------------------

// Jump is an unconditional branch by Offset instructions.
type Jump struct {
	AddrVal int
	Offset  int
}

func (n *Jump) Addr() int { return n.AddrVal }
func (n *Jump) node()     {}
func (n *Jump) stmt()     {}

// Test skips the next instruction unless Cond holds.
type Test struct {
	AddrVal int
	Cond    Expr
}

func (n *Test) Addr() int { return n.AddrVal }
func (n *Test) node()     {}
func (n *Test) stmt()     {}

// ForPrep marks the start of a numeric for loop. Init, Limit and Step are
// registers until the inlining pass substitutes their loads.
type ForPrep struct {
	AddrVal int
	Init    Expr
	Limit   Expr
	Step    Expr
	Var     *Register
}

func (n *ForPrep) Addr() int { return n.AddrVal }
func (n *ForPrep) node()     {}
func (n *ForPrep) stmt()     {}

// ForLoop closes a numeric for loop; Offset branches back past its ForPrep.
type ForLoop struct {
	AddrVal int
	Counter Expr
	Offset  int
}

func (n *ForLoop) Addr() int { return n.AddrVal }
func (n *ForLoop) node()     {}
func (n *ForLoop) stmt()     {}

// TForLoop is the iterator call of a generic for. Vars are the registers the
// iterator results land in.
type TForLoop struct {
	AddrVal int
	Vars    []*Register
}

func (n *TForLoop) Addr() int { return n.AddrVal }
func (n *TForLoop) node()     {}
func (n *TForLoop) stmt()     {}

// IsPseudo reports whether s only exists for loop recovery.
func IsPseudo(s Stmt) bool {
	switch s.(type) {
	case *Jump, *Test, *ForPrep, *ForLoop, *TForLoop:
		return true
	}
	return false
}

// BranchTarget is the address a backward branch at addr with the given
// instruction offset lands on.
func BranchTarget(addr, offset int) int {
	return addr + 4 + offset*4
}
