package blheli

import (
	"bytes"
	"strings"

	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"
)

// VerifyImage parses a complete hex file and checks that the image holds want
// at address base.
func VerifyImage(lines []string, base uint16, want []byte) error {
	// gohex rejects surrounding whitespace, carriage returns included.
	trimmed := make([]string, len(lines))
	for i, line := range lines {
		trimmed[i] = strings.TrimSpace(line)
	}

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(bytes.NewReader(JoinLines(trimmed))); err != nil {
		return errors.Wrap(err, "re-parsing hex image")
	}

	got := mem.ToBinary(uint32(base), uint32(len(want)), 0xFF)
	if !bytes.Equal(got, want) {
		for i := range want {
			if got[i] != want[i] {
				return errors.Errorf("image byte at 0x%04X is 0x%02X, settings block has 0x%02X", int(base)+i, got[i], want[i])
			}
		}
	}
	return nil
}
