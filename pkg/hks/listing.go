package hks

import (
	"fmt"
	"strings"
)

// Listing returns the raw disassembly of the whole chunk: header directives,
// then every function depth first.
func (f *File) Listing() string {
	var sb strings.Builder
	f.Header.writeListing(&sb)
	if f.Root != nil {
		f.Root.writeListing(&sb)
	}
	return sb.String()
}

func (h *Header) writeListing(sb *strings.Builder) {
	fmt.Fprintf(sb, ".format %s\n", h.Format)
	fmt.Fprintf(sb, ".endianness %s\n", strings.ToLower(h.Endianness.String()))
	fmt.Fprintf(sb, ".int_size %d\n", h.IntSize)
	fmt.Fprintf(sb, ".size_t_size %d\n", h.SizeTSize)
	fmt.Fprintf(sb, ".instruction_size %d\n", h.InstructionSize)
	fmt.Fprintf(sb, ".number_size %d\n", h.NumberSize)
	fmt.Fprintf(sb, ".number_type %s\n", strings.ToLower(h.NumberType.String()))
	fmt.Fprintf(sb, ".build_flags %d\n", h.BuildFlags)
	fmt.Fprintf(sb, ".referenced_mode %s\n", strings.ToLower(h.SharingMode.String()))
	for _, t := range h.Types {
		fmt.Fprintf(sb, ".type %d %s\n", t.ID, quote(t.Name))
	}
	sb.WriteString("\n")
}

// Listing returns the raw disassembly of fn and its closures.
func (fn *Function) Listing() string {
	var sb strings.Builder
	fn.writeListing(&sb)
	return sb.String()
}

func (fn *Function) writeListing(sb *strings.Builder) {
	fmt.Fprintf(sb, ".function %s\n", fn.Label())
	fmt.Fprintf(sb, ".upval_count %d\n", fn.UpvalCount)
	fmt.Fprintf(sb, ".param_count %d\n", fn.ParamCount)
	fmt.Fprintf(sb, ".varg_flags %d\n", fn.VarargFlags)
	fmt.Fprintf(sb, ".reg_count %d\n", fn.RegCount)
	fmt.Fprintf(sb, ".instr_count %d\n", len(fn.Instructions))
	fmt.Fprintf(sb, ".const_count %d\n", len(fn.Constants))
	fmt.Fprintf(sb, ".func_count %d\n", len(fn.Closures))

	for i, c := range fn.Constants {
		fmt.Fprintf(sb, ".constant %s ; %d\n", c.String(), i)
	}

	for i := range fn.Instructions {
		sb.WriteString(fn.Instructions[i].String())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	for _, c := range fn.Closures {
		c.writeListing(sb)
	}
}
