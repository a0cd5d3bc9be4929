package hks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/luidec/pkg/cursor"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("luidec.hks")

// ---------------------------------------------------------------------------
// Decode Error Types
// ---------------------------------------------------------------------------

var (
	ErrUnsupportedFormat   = errors.New("unsupported format version")
	ErrUnsupportedConstant = errors.New("unsupported constant type")
	ErrSizeAssumption      = errors.New("unsupported type size")
	ErrUnknownOpcode       = errors.New("unknown opcode")
	ErrConstantIndex       = errors.New("constant index out of range")
)

// DecodeError reports where in the input decoding stopped.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error at offset 0x%X: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ---------------------------------------------------------------------------
// decoder: reads a chunk through a byte cursor
// ---------------------------------------------------------------------------

type decoder struct {
	r      *cursor.Reader
	header Header
}

// Decode parses a complete chunk. The returned error is always a
// *DecodeError.
func Decode(data []byte) (*File, error) {
	d := &decoder{r: cursor.NewReader(data, nil)}

	if err := d.readHeader(); err != nil {
		return nil, d.fail(err)
	}
	log.Debugf("header: format %s, %s endian, size_t %d, number %d/%s",
		d.header.Format, d.header.Endianness, d.header.SizeTSize, d.header.NumberSize, d.header.NumberType)

	root, err := d.readFunction()
	if err != nil {
		return nil, d.fail(err)
	}

	file := &File{Header: d.header, Root: root}
	if err := d.readPrototypes(file); err != nil {
		return nil, d.fail(err)
	}
	log.Debugf("decoded %d functions", file.FunctionCount())
	return file, nil
}

// offsetError pins an error to an earlier position than the cursor's.
type offsetError struct {
	offset int
	err    error
}

func (e *offsetError) Error() string { return e.err.Error() }
func (e *offsetError) Unwrap() error { return e.err }

func errAt(offset int, err error) error {
	return &offsetError{offset: offset, err: err}
}

// fail wraps err, with every message added on the way up, into the one
// DecodeError returned to callers. The offset is the innermost pinned
// position, or the cursor position.
func (d *decoder) fail(err error) error {
	offset := d.r.Offset()
	var oe *offsetError
	if errors.As(err, &oe) {
		offset = oe.offset
	}
	return &DecodeError{Offset: offset, Err: err}
}

func (d *decoder) readHeader() error {
	h := &d.header
	var err error

	if h.Signature, err = d.r.Uint32(); err != nil {
		return fmt.Errorf("failed to read signature: %w", err)
	}
	if h.Version, err = d.r.Uint8(); err != nil {
		return fmt.Errorf("failed to read version: %w", err)
	}
	format, err := d.r.Uint8()
	if err != nil {
		return fmt.Errorf("failed to read format: %w", err)
	}
	switch Format(format) {
	case FormatV13, FormatV14:
		h.Format = Format(format)
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}

	endian, err := d.r.Uint8()
	if err != nil {
		return fmt.Errorf("failed to read endianness: %w", err)
	}
	h.Endianness = Endianness(endian)
	d.r.SetOrder(h.Endianness.ByteOrder())

	sizes := []*uint8{&h.IntSize, &h.SizeTSize, &h.InstructionSize, &h.NumberSize}
	for _, p := range sizes {
		if *p, err = d.r.Uint8(); err != nil {
			return fmt.Errorf("failed to read type sizes: %w", err)
		}
	}
	if h.InstructionSize != 4 {
		return fmt.Errorf("%w: instruction size %d", ErrSizeAssumption, h.InstructionSize)
	}
	if h.SizeTSize != 4 && h.SizeTSize != 8 {
		return fmt.Errorf("%w: size_t size %d", ErrSizeAssumption, h.SizeTSize)
	}
	if h.NumberSize != 4 && h.NumberSize != 8 {
		return fmt.Errorf("%w: number size %d", ErrSizeAssumption, h.NumberSize)
	}

	numberType, err := d.r.Uint8()
	if err != nil {
		return fmt.Errorf("failed to read number type: %w", err)
	}
	h.NumberType = NumberType(numberType)

	if h.BuildFlags, err = d.r.Uint8(); err != nil {
		return fmt.Errorf("failed to read build flags: %w", err)
	}
	mode, err := d.r.Uint8()
	if err != nil {
		return fmt.Errorf("failed to read sharing mode: %w", err)
	}
	h.SharingMode = SharingMode(mode)

	return d.readTypeMeta()
}

func (d *decoder) readTypeMeta() error {
	count, err := d.r.Uint32()
	if err != nil {
		return fmt.Errorf("failed to read type count: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		id, err := d.r.Uint32()
		if err != nil {
			return fmt.Errorf("failed to read type %d id: %w", i, err)
		}
		length, err := d.r.Int32()
		if err != nil {
			return fmt.Errorf("failed to read type %d name length: %w", i, err)
		}
		name, err := d.r.String(int(length))
		if err != nil {
			return fmt.Errorf("failed to read type %d name: %w", i, err)
		}
		d.header.Types = append(d.header.Types, TypeMeta{ID: id, Name: strings.TrimRight(name, "\x00")})
	}
	return nil
}

// readSize reads a size_t. Sizes are byte or element counts of data that
// follows, so anything larger than the rest of the input is truncation.
func (d *decoder) readSize() (int, error) {
	v, err := d.r.Uint(int(d.header.SizeTSize))
	if err != nil {
		return 0, err
	}
	if v > uint64(d.r.Remaining()) {
		return 0, fmt.Errorf("%w: size %d with %d bytes left", cursor.ErrUnexpectedEOF, v, d.r.Remaining())
	}
	return int(v), nil
}

func (d *decoder) readFunction() (*Function, error) {
	fn := &Function{Address: d.r.Offset()}
	var err error

	if fn.UpvalCount, err = d.r.Uint32(); err != nil {
		return nil, fmt.Errorf("failed to read upvalue count: %w", err)
	}
	if fn.ParamCount, err = d.r.Uint32(); err != nil {
		return nil, fmt.Errorf("failed to read parameter count: %w", err)
	}
	if fn.VarargFlags, err = d.r.Uint8(); err != nil {
		return nil, fmt.Errorf("failed to read vararg flags: %w", err)
	}
	if fn.RegCount, err = d.r.Uint32(); err != nil {
		return nil, fmt.Errorf("failed to read register count: %w", err)
	}

	if err := d.readInstructions(fn); err != nil {
		return nil, err
	}
	if err := d.readConstants(fn); err != nil {
		return nil, err
	}
	if err := d.readDebug(fn); err != nil {
		return nil, err
	}

	count, err := d.r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("failed to read closure count: %w", err)
	}
	log.Debugf("function %s: %d instructions, %d constants, %d closures",
		fn.Label(), len(fn.Instructions), len(fn.Constants), count)
	for i := uint32(0); i < count; i++ {
		sub, err := d.readFunction()
		if err != nil {
			return nil, err
		}
		fn.Closures = append(fn.Closures, sub)
	}
	return fn, nil
}

func (d *decoder) readInstructions(fn *Function) error {
	count, err := d.readSize()
	if err != nil {
		return fmt.Errorf("failed to read instruction count: %w", err)
	}
	if err := d.r.Pad(4); err != nil {
		return fmt.Errorf("failed to align instructions: %w", err)
	}
	if count < 0 || count > d.r.Remaining()/4 {
		return fmt.Errorf("%w: %d instructions declared", cursor.ErrUnexpectedEOF, count)
	}

	fn.Instructions = make([]Instruction, 0, count)
	for i := 0; i < count; i++ {
		addr := d.r.Offset()
		w, err := d.r.Uint32()
		if err != nil {
			return fmt.Errorf("failed to read instruction %d: %w", i, err)
		}
		in, err := DecodeInstruction(addr, Word(w))
		if err != nil {
			return fmt.Errorf("instruction %d: %w", i, errAt(addr, err))
		}
		fn.Instructions = append(fn.Instructions, in)
	}
	return nil
}

func (d *decoder) readConstants(fn *Function) error {
	count, err := d.r.Uint32()
	if err != nil {
		return fmt.Errorf("failed to read constant count: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		c, err := d.readConstant()
		if err != nil {
			return fmt.Errorf("constant %d: %w", i, err)
		}
		fn.Constants = append(fn.Constants, c)
	}
	return nil
}

func (d *decoder) readConstant() (Constant, error) {
	at := d.r.Offset()
	tag, err := d.r.Uint8()
	if err != nil {
		return Constant{}, fmt.Errorf("failed to read constant type: %w", err)
	}
	c := Constant{Type: Type(tag)}

	switch c.Type {
	case TypeNil:
	case TypeBoolean:
		b, err := d.r.Uint8()
		if err != nil {
			return c, err
		}
		c.Value = b != 0
	case TypeLightUserdata:
		v, err := d.r.Uint(int(d.header.SizeTSize))
		if err != nil {
			return c, err
		}
		c.Value = v
	case TypeNumber:
		v, err := d.readNumber()
		if err != nil {
			return c, err
		}
		c.Value = v
	case TypeString:
		s, err := d.readString()
		if err != nil {
			return c, err
		}
		c.Value = s
	case TypeUI64:
		v, err := d.r.Uint64()
		if err != nil {
			return c, err
		}
		c.Value = v
	default:
		return c, errAt(at, fmt.Errorf("%w: %s", ErrUnsupportedConstant, c.Type))
	}
	return c, nil
}

func (d *decoder) readNumber() (any, error) {
	if d.header.NumberType == NumberInt {
		if d.header.NumberSize == 4 {
			v, err := d.r.Int32()
			return int64(v), err
		}
		return d.r.Int64()
	}
	if d.header.NumberSize == 4 {
		v, err := d.r.Float32()
		return float64(v), err
	}
	return d.r.Float64()
}

// readString reads a size_t length and, when non-zero, that many bytes
// including a trailing terminator which is dropped.
func (d *decoder) readString() (string, error) {
	length, err := d.readSize()
	if err != nil {
		return "", fmt.Errorf("failed to read string length: %w", err)
	}
	if length == 0 {
		return "", nil
	}
	s, err := d.r.String(length)
	if err != nil {
		return "", fmt.Errorf("failed to read string: %w", err)
	}
	return s[:length-1], nil
}

func (d *decoder) readDebug(fn *Function) error {
	flag, err := d.r.Uint32()
	if err != nil {
		return fmt.Errorf("failed to read debug flag: %w", err)
	}
	if flag != 1 {
		return nil
	}
	hash, err := d.r.Uint32()
	if err != nil {
		return fmt.Errorf("failed to read debug hash: %w", err)
	}
	fn.Debug = &DebugInfo{Hash: hash}
	return nil
}

// readPrototypes handles the trailing prototype section. The section
// carries nothing this decoder uses, so no bytes are consumed.
func (d *decoder) readPrototypes(file *File) error {
	file.Prototypes = nil
	return nil
}
