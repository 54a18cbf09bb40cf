package blheli

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Encoding is how a field's raw byte maps to the value a user sees.
type Encoding int

const (
	// RawInt is the byte's integer value.
	RawInt Encoding = iota
	// EnumMap restricts the byte to the codes in FieldSpec.Choices.
	EnumMap
	// Affine presents raw*Scale + Bias.
	Affine
	ReadOnlyRawInt
	// ReadOnlyHexDisplay presents the byte as a 0x-prefixed hex string.
	ReadOnlyHexDisplay
)

func (e Encoding) String() string {
	switch e {
	case RawInt:
		return "int"
	case EnumMap:
		return "enum"
	case Affine:
		return "affine"
	case ReadOnlyRawInt:
		return "int (read-only)"
	case ReadOnlyHexDisplay:
		return "hex (read-only)"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// Choices maps a raw code to its label.
type Choices map[byte]string

// Codes returns the codes in ascending order.
func (c Choices) Codes() []byte {
	codes := make([]byte, 0, len(c))
	for code := range c {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// FieldSpec describes one setting within the settings block.
type FieldSpec struct {
	Name     string
	Offset   int
	Encoding Encoding
	Mutable  bool

	Choices Choices // EnumMap only
	Scale   int     // Affine only
	Bias    int     // Affine only
}

// Registry is the immutable, ordered table of settings.
type Registry struct {
	fields []FieldSpec
	index  map[string]int
	size   int
}

// NewRegistry validates fields and indexes them by name. Names must be unique
// and no two fields may share a byte.
func NewRegistry(fields []FieldSpec) (*Registry, error) {
	r := &Registry{
		fields: make([]FieldSpec, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(r.fields, fields)

	used := bitset.New(0)
	for i, f := range r.fields {
		if _, dup := r.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		if f.Offset < 0 {
			return nil, fmt.Errorf("field %q has negative offset %d", f.Name, f.Offset)
		}
		if used.Test(uint(f.Offset)) {
			return nil, fmt.Errorf("field %q shares byte %d with another field", f.Name, f.Offset)
		}
		switch f.Encoding {
		case EnumMap:
			if len(f.Choices) == 0 {
				return nil, fmt.Errorf("enum field %q has no choices", f.Name)
			}
		case Affine:
			if f.Scale <= 0 {
				return nil, fmt.Errorf("affine field %q needs a positive scale", f.Name)
			}
		case ReadOnlyRawInt, ReadOnlyHexDisplay:
			if f.Mutable {
				return nil, fmt.Errorf("field %q is read-only by encoding but marked mutable", f.Name)
			}
		}
		used.Set(uint(f.Offset))
		r.index[f.Name] = i
		if f.Offset+1 > r.size {
			r.size = f.Offset + 1
		}
	}

	return r, nil
}

// MustRegistry is NewRegistry for static tables.
func MustRegistry(fields []FieldSpec) *Registry {
	r, err := NewRegistry(fields)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Describe(name string) (FieldSpec, error) {
	i, ok := r.index[name]
	if !ok {
		return FieldSpec{}, &UnknownFieldError{Name: name}
	}
	return r.fields[i], nil
}

// Constraints returns a copy of the allowed codes for EnumMap fields, and
// false for every other field, including unknown ones.
func (r *Registry) Constraints(name string) (Choices, bool) {
	f, err := r.Describe(name)
	if err != nil || f.Encoding != EnumMap {
		return nil, false
	}
	return maps.Clone(f.Choices), true
}

// Names returns field names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// BlockSize is the minimum number of bytes a settings block must hold.
func (r *Registry) BlockSize() int {
	return r.size
}

// Fields returns the specs in registration order.
func (r *Registry) Fields() []FieldSpec {
	return slices.Clone(r.fields)
}

// DefaultLayout is the BLHeli EEPROM layout.
var DefaultLayout = MustRegistry([]FieldSpec{
	{Name: "fw-rev", Offset: 0, Encoding: ReadOnlyRawInt},
	{Name: "fw-subrev", Offset: 1, Encoding: ReadOnlyRawInt},
	{Name: "fw-eeprom-layout-rev", Offset: 2, Encoding: ReadOnlyRawInt},
	// 0x55
	{Name: "signature-hi", Offset: 13, Encoding: ReadOnlyHexDisplay},
	// 0xaa
	{Name: "signature-lo", Offset: 14, Encoding: ReadOnlyHexDisplay},
	{Name: "temp-protection", Offset: 35, Encoding: EnumMap, Mutable: true, Choices: Choices{
		1: "Enabled",
		2: "Disabled",
	}},
	{Name: "motor-direction", Offset: 11, Encoding: EnumMap, Mutable: true, Choices: Choices{
		1: "Normal",
		2: "Reversed",
		3: "Bidirectional",
	}},
	{Name: "demag-comp", Offset: 31, Encoding: EnumMap, Mutable: true, Choices: Choices{
		1: "Disabled",
		2: "Low",
		3: "High",
	}},
	{Name: "pwm-freq", Offset: 10, Encoding: EnumMap, Mutable: true, Choices: Choices{
		1: "High",
		2: "Low",
		3: "DampedLight",
	}},
	{Name: "motor-timing", Offset: 21, Encoding: EnumMap, Mutable: true, Choices: Choices{
		1: "Low",
		2: "MediumLow",
		3: "Medium",
		4: "MediumHigh",
		5: "High",
	}},
	{Name: "input-polarity", Offset: 12, Encoding: EnumMap, Mutable: true, Choices: Choices{
		1: "Positive",
		2: "Negative",
	}},
	{Name: "beep-strength", Offset: 27, Encoding: RawInt, Mutable: true},
	{Name: "beacon-strength", Offset: 28, Encoding: RawInt, Mutable: true},
	{Name: "beacon-delay", Offset: 29, Encoding: EnumMap, Mutable: true, Choices: Choices{
		1: "1 minute",
		2: "2 minutes",
		3: "5 minutes",
		4: "10 minutes",
		5: "infinite",
	}},
	// PPM throttle endpoints are stored in 4us steps above 1000us.
	{Name: "ppm-min-throttle", Offset: 25, Encoding: Affine, Mutable: true, Scale: 4, Bias: 1000},
	{Name: "ppm-max-throttle", Offset: 26, Encoding: Affine, Mutable: true, Scale: 4, Bias: 1000},
	{Name: "low-volt-limiter", Offset: 6, Encoding: EnumMap, Mutable: true, Choices: Choices{
		1: "Off",
		2: "3.0V/c",
		3: "3.1V/c",
		4: "3.2V/c",
		5: "3.3V/c",
		6: "3.4V/c",
	}},
	// Governor mode.
	{Name: "closed-loop", Offset: 5, Encoding: EnumMap, Mutable: true, Choices: Choices{
		1: "HiRange",
		2: "MidRange",
		3: "LoRange",
		4: "Off",
	}},
	{Name: "motor-gain", Offset: 7, Encoding: EnumMap, Mutable: true, Choices: Choices{
		1: "0.75",
		2: "0.88",
		3: "1.00",
		4: "1.12",
		5: "1.25",
	}},
})
