package blheli

import "fmt"

// Family selects the microcontroller class a firmware dump was built for.
type Family int

const (
	SiLabs Family = iota
	Atmel
)

// RecordSize is the payload length of every full settings record. A shorter
// record ends the settings block.
const RecordSize = 16

// StartAddress is the 16-bit record address at which the settings block begins.
func (f Family) StartAddress() uint16 {
	if f == Atmel {
		return 0x0000
	}
	return 0x1A00
}

func (f Family) String() string {
	switch f {
	case SiLabs:
		return "silabs"
	case Atmel:
		return "atmel"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// FamilyFor maps the CLI's atmel flag to a Family.
func FamilyFor(atmel bool) Family {
	if atmel {
		return Atmel
	}
	return SiLabs
}

// MarshalText and UnmarshalText let profiles carry the family by name.
func (f Family) MarshalText() ([]byte, error) {
	switch f {
	case SiLabs, Atmel:
		return []byte(f.String()), nil
	}
	return nil, fmt.Errorf("unknown family %d", int(f))
}

func (f *Family) UnmarshalText(text []byte) error {
	switch string(text) {
	case "silabs":
		*f = SiLabs
	case "atmel":
		*f = Atmel
	default:
		return fmt.Errorf("unknown family %q", text)
	}
	return nil
}
