package hks

import "fmt"

// DebugInfo is the minimal debug record of a function. Only the hash word is
// retained.
type DebugInfo struct {
	Hash uint32 `cbor:"1,keyasint"`
}

// Function is one compiled prototype and the closures it owns.
type Function struct {
	Address      int           `cbor:"1,keyasint"`
	UpvalCount   uint32        `cbor:"2,keyasint"`
	ParamCount   uint32        `cbor:"3,keyasint"`
	VarargFlags  uint8         `cbor:"4,keyasint"`
	RegCount     uint32        `cbor:"5,keyasint"`
	Instructions []Instruction `cbor:"6,keyasint"`
	Constants    []Constant    `cbor:"7,keyasint"`
	Debug        *DebugInfo    `cbor:"8,keyasint,omitempty"`
	Closures     []*Function   `cbor:"9,keyasint"`
}

// Label is the stable synthetic name derived from the start address.
func (f *Function) Label() string {
	return fmt.Sprintf("_id_%08X", f.Address)
}

// Constant returns constant i or ErrConstantIndex.
func (f *Function) Constant(i int) (Constant, error) {
	if i < 0 || i >= len(f.Constants) {
		return Constant{}, fmt.Errorf("%w: %d of %d in %s", ErrConstantIndex, i, len(f.Constants), f.Label())
	}
	return f.Constants[i], nil
}

// Closure returns nested prototype i, or nil.
func (f *Function) Closure(i int) *Function {
	if i < 0 || i >= len(f.Closures) {
		return nil
	}
	return f.Closures[i]
}

// Walk calls fn for f and every nested closure, depth first in declaration
// order.
func (f *Function) Walk(fn func(*Function)) {
	fn(f)
	for _, c := range f.Closures {
		c.Walk(fn)
	}
}

// File is a fully decoded chunk.
type File struct {
	Header     Header      `cbor:"1,keyasint"`
	Root       *Function   `cbor:"2,keyasint"`
	Prototypes []*Function `cbor:"3,keyasint"`
}

// FunctionCount returns the number of prototypes in the tree.
func (f *File) FunctionCount() int {
	if f.Root == nil {
		return 0
	}
	count := 0
	f.Root.Walk(func(*Function) { count++ })
	return count
}
