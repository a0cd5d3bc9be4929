package hks

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical encoding so exports of the same chunk are
// byte-identical.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("hks: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalFile serializes a decoded chunk to CBOR bytes.
func MarshalFile(f *File) ([]byte, error) {
	return cborEncMode.Marshal(f)
}

// UnmarshalFile deserializes a chunk model written by MarshalFile.
func UnmarshalFile(data []byte) (*File, error) {
	var f File
	if err := cbor.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("hks: unmarshal file: %w", err)
	}
	if f.Root != nil {
		numberType := f.Header.NumberType
		f.Root.Walk(func(fn *Function) {
			for i := range fn.Constants {
				fn.Constants[i].Value = normalizeValue(fn.Constants[i], numberType)
			}
		})
	}
	return &f, nil
}

// normalizeValue restores the Go type a constant had before encoding. CBOR
// has a single integer major type per sign, so an int64 comes back as a
// uint64 when non-negative.
func normalizeValue(c Constant, numberType NumberType) any {
	switch c.Type {
	case TypeNumber:
		if numberType == NumberInt {
			switch v := c.Value.(type) {
			case uint64:
				return int64(v)
			case float64:
				return int64(v)
			}
			return c.Value
		}
		if v, ok := c.Float(); ok {
			return v
		}
	case TypeLightUserdata, TypeUI64:
		if v, ok := c.Value.(int64); ok {
			return uint64(v)
		}
	}
	return c.Value
}
