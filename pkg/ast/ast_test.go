package ast

import (
	"strings"
	"testing"
)

func sampleChunk() *Chunk {
	r0 := &Register{Index: 0}
	return &Chunk{Body: []Stmt{
		&Function{
			Params: []*Register{{Index: 0}},
			Body: &Block{Body: []Stmt{
				&Assign{
					AddrVal: 0x10,
					Targets: []Expr{r0},
					Values:  []Expr{&BinaryExpr{Op: "+", Left: &Register{Index: 0}, Right: &NumberLiteral{Value: 1}}},
				},
				&Test{AddrVal: 0x14, Cond: &Register{Index: 0}},
				&Jump{AddrVal: 0x18, Offset: -3},
				&Return{AddrVal: 0x1C, Values: []Expr{&StringLiteral{Value: "x"}}},
			}},
		},
	}}
}

func TestInspectVisitsAll(t *testing.T) {
	counts := map[string]int{}
	Inspect(sampleChunk(), func(n Node) bool {
		switch n.(type) {
		case *Register:
			counts["reg"]++
		case Stmt:
			counts["stmt"]++
		}
		return true
	})

	if counts["reg"] != 4 {
		t.Errorf("registers visited = %d, want 4", counts["reg"])
	}
	// Function, Block, Assign, Test, Jump, Return
	if counts["stmt"] != 6 {
		t.Errorf("statements visited = %d, want 6", counts["stmt"])
	}
}

func TestInspectPrunes(t *testing.T) {
	visited := 0
	Inspect(sampleChunk(), func(n Node) bool {
		visited++
		_, isFn := n.(*Function)
		return !isFn
	})
	if visited != 2 {
		t.Errorf("visited = %d, want 2 (chunk and function)", visited)
	}
}

func TestChildrenSkipsNil(t *testing.T) {
	n := &If{Cond: &BoolLiteral{Value: true}, Then: &Block{}}
	if got := len(Children(n)); got != 2 {
		t.Errorf("len(Children(if)) = %d, want 2", got)
	}

	f := &NumericFor{Var: &Register{Index: 3}, Body: &Block{}}
	if got := len(Children(f)); got != 2 {
		t.Errorf("len(Children(for)) = %d, want 2", got)
	}
}

func TestIsPseudo(t *testing.T) {
	tests := []struct {
		s    Stmt
		want bool
	}{
		{&Jump{}, true},
		{&Test{}, true},
		{&ForPrep{}, true},
		{&ForLoop{}, true},
		{&TForLoop{}, true},
		{&Assign{}, false},
		{&Block{}, false},
		{&Return{}, false},
	}
	for _, tt := range tests {
		if got := IsPseudo(tt.s); got != tt.want {
			t.Errorf("IsPseudo(%T) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestBranchTarget(t *testing.T) {
	if got := BranchTarget(0x20, -3); got != 0x18 {
		t.Errorf("BranchTarget(0x20, -3) = 0x%X, want 0x18", got)
	}
	if got := BranchTarget(0x20, 0); got != 0x24 {
		t.Errorf("BranchTarget(0x20, 0) = 0x%X, want 0x24", got)
	}
}

func TestDump(t *testing.T) {
	out := Dump(sampleChunk())
	for _, want := range []string{"Chunk", "Function", "Assign @0010", "Binary +", "Jump @0018 -3", `"x"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump missing %q:\n%s", want, out)
		}
	}
}
