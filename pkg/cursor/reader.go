// Package cursor provides a positioned reader over an in-memory byte buffer
// with a switchable byte order and a stack of saved positions.
package cursor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnexpectedEOF = errors.New("unexpected end of data")
	ErrBadSeek       = errors.New("seek out of range")
	ErrEmptyStack    = errors.New("position stack is empty")
)

// Reader reads fixed-width values from a byte slice. The zero value is not
// usable; construct with NewReader.
type Reader struct {
	data   []byte
	offset int
	order  binary.ByteOrder
	stack  []int
}

// NewReader returns a Reader positioned at offset 0. A nil order means
// little-endian.
func NewReader(data []byte, order binary.ByteOrder) *Reader {
	if order == nil {
		order = binary.LittleEndian
	}
	return &Reader{data: data, order: order}
}

// SetOrder changes the byte order used by every subsequent multi-byte read.
func (r *Reader) SetOrder(order binary.ByteOrder) {
	r.order = order
}

// Order returns the current byte order.
func (r *Reader) Order() binary.ByteOrder {
	return r.order
}

// Offset returns the current read position.
func (r *Reader) Offset() int {
	return r.offset
}

// Len returns the total buffer length.
func (r *Reader) Len() int {
	return len(r.data)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.offset
}

// Seek moves to an absolute position. Seeking to Len() is allowed.
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.data) {
		return fmt.Errorf("%w: %d (len %d)", ErrBadSeek, offset, len(r.data))
	}
	r.offset = offset
	return nil
}

// Skip advances by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// Pad advances to the next multiple of align. No-op when already aligned.
func (r *Reader) Pad(align int) error {
	if align <= 1 {
		return nil
	}
	if rem := r.offset % align; rem != 0 {
		return r.Skip(align - rem)
	}
	return nil
}

// Push saves the current position.
func (r *Reader) Push() {
	r.stack = append(r.stack, r.offset)
}

// Pop restores the most recently pushed position.
func (r *Reader) Pop() error {
	if len(r.stack) == 0 {
		return ErrEmptyStack
	}
	r.offset = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > len(r.data)-r.offset {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrUnexpectedEOF, n, r.offset, len(r.data)-r.offset)
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

// Bytes returns a copy of the next n bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// String reads n bytes as a string.
func (r *Reader) String(n int) (string, error) {
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(b), nil
}

func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	return math.Float64frombits(v), err
}

// Uint reads an unsigned integer of the given width (1, 2, 4 or 8 bytes).
func (r *Reader) Uint(size int) (uint64, error) {
	switch size {
	case 1:
		v, err := r.Uint8()
		return uint64(v), err
	case 2:
		v, err := r.Uint16()
		return uint64(v), err
	case 4:
		v, err := r.Uint32()
		return uint64(v), err
	case 8:
		return r.Uint64()
	}
	return 0, fmt.Errorf("unsupported integer width %d", size)
}
