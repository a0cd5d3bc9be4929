// Package hks models and decodes compiled Havok Script chunks, the
// register-based Lua dialect used by LUI menu scripts.
//
// A chunk consists of a header followed by a tree of function prototypes:
//
//   - Header: signature, VM and format versions, byte order, the widths of
//     int/size_t/instruction/number, the number representation (FLOAT or
//     INT), build flags, the sharing mode and a list of type metadata
//     records.
//
//   - Function: counts (upvalues, parameters, registers), vararg flags, the
//     instruction array, the constant pool, debug info and the nested
//     closures the function owns.
//
// # Instruction Encoding
//
// Instructions are 32-bit words:
//
//	31      25 24      17 16       8 7        0
//	+---------+----------+----------+----------+
//	|   op    |    B     |    C     |    A     |   ABC
//	+---------+----------+----------+----------+
//	|   op    |         Bx          |    A     |   ABx / AsBx
//	+---------+---------------------+----------+
//
// In AsBx mode the signed offset is Bx - 0xFFFF. A C field of 0x100 or more
// in a register-or-constant slot names the constant C & 0xFF.
//
// Decoding is table driven: every opcode has an OpcodeInfo describing its
// mode and the kind of each argument. The same table drives the textual
// listing produced by File.Listing.
package hks
