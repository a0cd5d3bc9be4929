package hks

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is a constant or value type tag.
type Type byte

const (
	TypeNil Type = iota
	TypeBoolean
	TypeLightUserdata
	TypeNumber
	TypeString
	TypeTable
	TypeFunction
	TypeUserdata
	TypeThread
	TypeIFunction
	TypeCFunction
	TypeUI64
	TypeStruct
)

var typeNames = [...]string{
	TypeNil:           "TNIL",
	TypeBoolean:       "TBOOLEAN",
	TypeLightUserdata: "TLIGHTUSERDATA",
	TypeNumber:        "TNUMBER",
	TypeString:        "TSTRING",
	TypeTable:         "TTABLE",
	TypeFunction:      "TFUNCTION",
	TypeUserdata:      "TUSERDATA",
	TypeThread:        "TTHREAD",
	TypeIFunction:     "TIFUNCTION",
	TypeCFunction:     "TCFUNCTION",
	TypeUI64:          "TUI64",
	TypeStruct:        "TSTRUCT",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", byte(t))
}

// Constant is one entry of a function's constant pool. Value holds nil,
// bool, uint64 (light userdata and ui64), float64 or int64 (numbers, by the
// header's NumberType) or string.
type Constant struct {
	Type  Type `cbor:"1,keyasint"`
	Value any  `cbor:"2,keyasint"`
}

// Str returns the string payload and whether the constant is a string.
func (c Constant) Str() (string, bool) {
	if c.Type != TypeString {
		return "", false
	}
	s, ok := c.Value.(string)
	return s, ok
}

// Float returns the numeric payload as a float64.
func (c Constant) Float() (float64, bool) {
	switch v := c.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

// String renders the constant the way the listing shows it.
func (c Constant) String() string {
	switch c.Type {
	case TypeNil:
		return "nil"
	case TypeBoolean:
		if b, _ := c.Value.(bool); b {
			return "true"
		}
		return "false"
	case TypeString:
		s, _ := c.Value.(string)
		return quote(s)
	case TypeLightUserdata, TypeUI64:
		return fmt.Sprintf("%s(%d)", c.Type, c.Value)
	case TypeNumber:
		switch v := c.Value.(type) {
		case int64:
			return strconv.FormatInt(v, 10)
		case float64:
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
	}
	return fmt.Sprintf("%v", c.Value)
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
