package blheli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Value is a decoded setting.
type Value struct {
	Encoding Encoding
	Raw      byte
	// Int is the decoded integer: the byte itself, the affine result, or the
	// enum code.
	Int int
	// Text is the enum label or the hex rendering of a hex-display field.
	Text string
}

func (v Value) String() string {
	if v.Text != "" {
		return v.Text
	}
	return strconv.Itoa(v.Int)
}

// Input is the value Set accepts to store v again.
func (v Value) Input() int {
	return v.Int
}

// Store owns the settings bytes and converts between them and Values.
type Store struct {
	reg     *Registry
	buf     []byte
	orig    []byte
	written *bitset.BitSet
}

// NewStore takes a copy of buf, which must hold at least reg.BlockSize bytes.
func NewStore(reg *Registry, buf []byte) (*Store, error) {
	if len(buf) < reg.BlockSize() {
		return nil, fmt.Errorf("settings block is %d bytes, layout needs %d", len(buf), reg.BlockSize())
	}
	return &Store{
		reg:     reg,
		buf:     append([]byte(nil), buf...),
		orig:    append([]byte(nil), buf...),
		written: bitset.New(uint(len(buf))),
	}, nil
}

func (s *Store) Get(name string) (Value, error) {
	f, err := s.reg.Describe(name)
	if err != nil {
		return Value{}, err
	}
	return decode(f, s.buf[f.Offset])
}

func decode(f FieldSpec, raw byte) (Value, error) {
	v := Value{Encoding: f.Encoding, Raw: raw, Int: int(raw)}
	switch f.Encoding {
	case RawInt, ReadOnlyRawInt:
	case ReadOnlyHexDisplay:
		v.Text = fmt.Sprintf("%#x", raw)
	case EnumMap:
		label, ok := f.Choices[raw]
		if !ok {
			// Raw is still reported so callers can show the bad byte.
			return Value{Encoding: f.Encoding, Raw: raw}, &InvalidEncodedValueError{Name: f.Name, Raw: raw}
		}
		v.Text = label
	case Affine:
		v.Int = int(raw)*f.Scale + f.Bias
	default:
		return Value{}, fmt.Errorf("setting %q has unknown encoding %v", f.Name, f.Encoding)
	}
	return v, nil
}

// encode validates value and returns the byte to store. It never touches
// the buffer.
func encode(f FieldSpec, value int) (byte, error) {
	if !f.Mutable {
		return 0, &ReadOnlyFieldError{Name: f.Name}
	}

	switch f.Encoding {
	case EnumMap:
		if value < 0 || value > 0xFF {
			return 0, &ConstraintViolationError{Name: f.Name, Value: value, Allowed: f.Choices}
		}
		if _, ok := f.Choices[byte(value)]; !ok {
			return 0, &ConstraintViolationError{Name: f.Name, Value: value, Allowed: f.Choices}
		}
		return byte(value), nil
	case RawInt:
		if value < 0 || value > 0xFF {
			return 0, &OutOfRangeError{Name: f.Name, Value: value, Min: 0, Max: 0xFF}
		}
		return byte(value), nil
	case Affine:
		// Truncating inverse of raw*Scale + Bias.
		n := value - f.Bias
		if n < 0 || n/f.Scale > 0xFF {
			return 0, &OutOfRangeError{Name: f.Name, Value: value, Min: f.Bias, Max: 0xFF*f.Scale + f.Bias}
		}
		return byte(n / f.Scale), nil
	default:
		return 0, &ReadOnlyFieldError{Name: f.Name}
	}
}

// Set stores value, given in the field's user-facing units.
func (s *Store) Set(name string, value int) error {
	f, err := s.reg.Describe(name)
	if err != nil {
		return err
	}
	raw, err := encode(f, value)
	if err != nil {
		return err
	}
	s.buf[f.Offset] = raw
	s.written.Set(uint(f.Offset))
	return nil
}

// ParseInput converts text to the integer Set expects. Enum fields also
// accept their labels, case-insensitively. Read-only fields are rejected
// before the text is looked at.
func (s *Store) ParseInput(name, text string) (int, error) {
	f, err := s.reg.Describe(name)
	if err != nil {
		return 0, err
	}
	if !f.Mutable {
		return 0, &ReadOnlyFieldError{Name: f.Name}
	}
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(text); err == nil {
		return n, nil
	}
	if f.Encoding == EnumMap {
		for _, code := range f.Choices.Codes() {
			if strings.EqualFold(f.Choices[code], text) {
				return int(code), nil
			}
		}
		return 0, &ConstraintViolationError{Name: f.Name, Text: text, Allowed: f.Choices}
	}
	return 0, fmt.Errorf("setting %q needs an integer, got %q", f.Name, text)
}

// Changed lists fields, in registration order, whose byte differs from the
// one originally read.
func (s *Store) Changed() []string {
	var names []string
	for _, f := range s.reg.fields {
		if s.written.Test(uint(f.Offset)) && s.buf[f.Offset] != s.orig[f.Offset] {
			names = append(names, f.Name)
		}
	}
	return names
}

// Bytes returns a copy of the block.
func (s *Store) Bytes() []byte {
	return append([]byte(nil), s.buf...)
}

func (s *Store) clone() *Store {
	return &Store{
		reg:     s.reg,
		buf:     append([]byte(nil), s.buf...),
		orig:    s.orig,
		written: s.written.Clone(),
	}
}
