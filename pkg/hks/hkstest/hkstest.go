// Package hkstest assembles binary chunks from hand-written instruction
// words for use in tests.
package hkstest

import (
	"encoding/binary"
	"math"

	"github.com/chazu/luidec/pkg/hks"
)

// Const is a constant to be written into a function's pool.
type Const struct {
	Type  hks.Type
	Value any
}

func Nil() Const              { return Const{Type: hks.TypeNil} }
func Bool(b bool) Const       { return Const{Type: hks.TypeBoolean, Value: b} }
func Num(v float64) Const     { return Const{Type: hks.TypeNumber, Value: v} }
func Int(v int64) Const       { return Const{Type: hks.TypeNumber, Value: v} }
func Str(s string) Const      { return Const{Type: hks.TypeString, Value: s} }
func UI64(v uint64) Const     { return Const{Type: hks.TypeUI64, Value: v} }
func Userdata(v uint64) Const { return Const{Type: hks.TypeLightUserdata, Value: v} }

// Tag writes only a type byte. Used to produce unsupported constants.
func Tag(t hks.Type) Const { return Const{Type: t} }

// Func describes one prototype.
type Func struct {
	Upvals    uint32
	Params    uint32
	Vararg    uint8
	Regs      uint32
	Code      []hks.Word
	Constants []Const
	Debug     *uint32
	Closures  []*Func
}

// Chunk describes a whole file.
type Chunk struct {
	Signature       uint32
	Version         uint8
	Format          uint8
	Endianness      hks.Endianness
	IntSize         uint8
	SizeTSize       uint8
	InstructionSize uint8
	NumberSize      uint8
	NumberType      hks.NumberType
	BuildFlags      uint8
	SharingMode     hks.SharingMode
	Types           []hks.TypeMeta
	Root            *Func
}

// New returns a little-endian V14 chunk with 8-byte size_t and double
// numbers.
func New(root *Func) *Chunk {
	return &Chunk{
		Signature:       0x61754C1B,
		Version:         0x51,
		Format:          uint8(hks.FormatV14),
		Endianness:      hks.LittleEndian,
		IntSize:         4,
		SizeTSize:       8,
		InstructionSize: 4,
		NumberSize:      8,
		NumberType:      hks.NumberFloat,
		Root:            root,
	}
}

type writer struct {
	buf   []byte
	order binary.AppendByteOrder
	c     *Chunk
}

// Bytes encodes the chunk.
func (c *Chunk) Bytes() []byte {
	w := &writer{order: binary.LittleEndian, c: c}

	w.u32(c.Signature)
	w.u8(c.Version)
	w.u8(c.Format)
	w.u8(uint8(c.Endianness))
	if c.Endianness == hks.BigEndian {
		w.order = binary.BigEndian
	}
	w.u8(c.IntSize)
	w.u8(c.SizeTSize)
	w.u8(c.InstructionSize)
	w.u8(c.NumberSize)
	w.u8(uint8(c.NumberType))
	w.u8(c.BuildFlags)
	w.u8(uint8(c.SharingMode))

	w.u32(uint32(len(c.Types)))
	for _, t := range c.Types {
		w.u32(t.ID)
		w.u32(uint32(len(t.Name) + 1))
		w.buf = append(w.buf, t.Name...)
		w.buf = append(w.buf, 0)
	}

	if c.Root != nil {
		w.function(c.Root)
	}
	return w.buf
}

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) u32(v uint32) { w.buf = w.order.AppendUint32(w.buf, v) }
func (w *writer) u64(v uint64) { w.buf = w.order.AppendUint64(w.buf, v) }

func (w *writer) size(v int) {
	if w.c.SizeTSize == 4 {
		w.u32(uint32(v))
		return
	}
	w.u64(uint64(v))
}

func (w *writer) function(f *Func) {
	w.u32(f.Upvals)
	w.u32(f.Params)
	w.u8(f.Vararg)
	w.u32(f.Regs)

	w.size(len(f.Code))
	for len(w.buf)%4 != 0 {
		w.u8(0)
	}
	for _, word := range f.Code {
		w.u32(uint32(word))
	}

	w.u32(uint32(len(f.Constants)))
	for _, c := range f.Constants {
		w.constant(c)
	}

	if f.Debug != nil {
		w.u32(1)
		w.u32(*f.Debug)
	} else {
		w.u32(0)
	}

	w.u32(uint32(len(f.Closures)))
	for _, sub := range f.Closures {
		w.function(sub)
	}
}

func (w *writer) constant(c Const) {
	w.u8(uint8(c.Type))
	switch c.Type {
	case hks.TypeBoolean:
		if b, _ := c.Value.(bool); b {
			w.u8(1)
		} else {
			w.u8(0)
		}
	case hks.TypeLightUserdata:
		v, _ := c.Value.(uint64)
		w.size(int(v))
	case hks.TypeNumber:
		w.number(c.Value)
	case hks.TypeString:
		s, _ := c.Value.(string)
		if s == "" {
			w.size(0)
			return
		}
		w.size(len(s) + 1)
		w.buf = append(w.buf, s...)
		w.buf = append(w.buf, 0)
	case hks.TypeUI64:
		v, _ := c.Value.(uint64)
		w.u64(v)
	}
}

func (w *writer) number(v any) {
	var f float64
	var i int64
	switch n := v.(type) {
	case float64:
		f, i = n, int64(n)
	case int64:
		f, i = float64(n), n
	}

	switch {
	case w.c.NumberType == hks.NumberInt && w.c.NumberSize == 4:
		w.u32(uint32(int32(i)))
	case w.c.NumberType == hks.NumberInt:
		w.u64(uint64(i))
	case w.c.NumberSize == 4:
		w.u32(math.Float32bits(float32(f)))
	default:
		w.u64(math.Float64bits(f))
	}
}
