package decompiler

import (
	"errors"
	"fmt"

	"github.com/chazu/luidec/pkg/hks"
)

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrBadForPrep       = errors.New("bad for prep")
	ErrGlobalKey        = errors.New("global key is not a string constant")
	ErrConstantKind     = errors.New("constant kind has no literal form")
	ErrUnboundRegister  = errors.New("register read before it was written")
)

// Error is a recovery or lowering failure tied to an instruction address.
type Error struct {
	Address int
	Op      hks.Opcode
	HasOp   bool
	Err     error
}

func (e *Error) Error() string {
	if e.HasOp {
		return fmt.Sprintf("decompile error at 0x%X (%s): %v", e.Address, e.Op, e.Err)
	}
	return fmt.Sprintf("decompile error at 0x%X: %v", e.Address, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errAt(addr int, err error) *Error {
	return &Error{Address: addr, Err: err}
}

func errAtOp(in *hks.Instruction, err error) *Error {
	return &Error{Address: in.Address, Op: in.Op, HasOp: true, Err: err}
}
