package hks

import (
	"encoding/binary"
	"fmt"
)

// Format is the chunk layout revision stored in the header.
type Format byte

const (
	FormatV13 Format = 13
	FormatV14 Format = 14
)

func (f Format) String() string {
	switch f {
	case FormatV13:
		return "V13"
	case FormatV14:
		return "V14"
	}
	return fmt.Sprintf("Format(%d)", byte(f))
}

// Endianness is the byte order declared by the header.
type Endianness byte

const (
	BigEndian    Endianness = 0
	LittleEndian Endianness = 1
)

// ByteOrder maps the header flag to an encoding/binary order. Any non-zero
// value is treated as little-endian.
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (e Endianness) String() string {
	if e == BigEndian {
		return "BIG"
	}
	return "LITTLE"
}

// NumberType selects how number constants are encoded.
type NumberType byte

const (
	NumberFloat NumberType = 0
	NumberInt   NumberType = 1
)

func (t NumberType) String() string {
	switch t {
	case NumberFloat:
		return "FLOAT"
	case NumberInt:
		return "INT"
	}
	return fmt.Sprintf("NumberType(%d)", byte(t))
}

// SharingMode is the reference-counting mode the chunk was built with.
type SharingMode byte

const (
	SharingOff    SharingMode = 0
	SharingOn     SharingMode = 1
	SharingSecure SharingMode = 2
)

func (m SharingMode) String() string {
	switch m {
	case SharingOff:
		return "OFF"
	case SharingOn:
		return "ON"
	case SharingSecure:
		return "SECURE"
	}
	return fmt.Sprintf("SharingMode(%d)", byte(m))
}

// TypeMeta is one custom type record from the header.
type TypeMeta struct {
	ID   uint32 `cbor:"1,keyasint"`
	Name string `cbor:"2,keyasint"`
}

// Header is the fixed preamble of a chunk.
type Header struct {
	Signature       uint32      `cbor:"1,keyasint"`
	Version         uint8       `cbor:"2,keyasint"`
	Format          Format      `cbor:"3,keyasint"`
	Endianness      Endianness  `cbor:"4,keyasint"`
	IntSize         uint8       `cbor:"5,keyasint"`
	SizeTSize       uint8       `cbor:"6,keyasint"`
	InstructionSize uint8       `cbor:"7,keyasint"`
	NumberSize      uint8       `cbor:"8,keyasint"`
	NumberType      NumberType  `cbor:"9,keyasint"`
	BuildFlags      uint8       `cbor:"10,keyasint"`
	SharingMode     SharingMode `cbor:"11,keyasint"`
	Types           []TypeMeta  `cbor:"12,keyasint"`
}
