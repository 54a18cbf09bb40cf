package blheli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anupcshan/blheli/intelhex"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// sampleBlock is a 36 byte settings block in which every enum field holds a
// valid code.
func sampleBlock() []byte {
	b := make([]byte, 36)
	b[0] = 14    // fw-rev
	b[1] = 5     // fw-subrev
	b[2] = 20    // fw-eeprom-layout-rev
	b[5] = 4     // closed-loop: Off
	b[6] = 3     // low-volt-limiter: 3.1V/c
	b[7] = 3     // motor-gain: 1.00
	b[10] = 1    // pwm-freq: High
	b[11] = 1    // motor-direction: Normal
	b[12] = 1    // input-polarity: Positive
	b[13] = 0x55 // signature-hi
	b[14] = 0xAA // signature-lo
	b[21] = 3    // motor-timing: Medium
	b[25] = 35   // ppm-min-throttle: 1140
	b[26] = 250  // ppm-max-throttle: 2000
	b[27] = 40   // beep-strength
	b[28] = 80   // beacon-strength
	b[29] = 4    // beacon-delay: 10 minutes
	b[31] = 2    // demag-comp: Low
	b[35] = 1    // temp-protection: Enabled
	return b
}

func render(t *testing.T, addr uint16, body []byte) string {
	t.Helper()
	line, err := intelhex.RenderLine(addr, intelhex.RecordData, body)
	require.NoError(t, err)
	return line
}

func code(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i*7)
	}
	return b
}

// sampleLines is a small SiLabs image: code, the settings block at 0x1A00
// spread over three records, more code and the EOF record. It ends with a
// newline.
func sampleLines(t *testing.T, block []byte) []string {
	t.Helper()
	lines := []string{
		":020000040000FA",
		render(t, 0x0000, code(16, 0x02)),
		render(t, 0x0010, code(16, 0x40)),
	}
	blockLines, err := Serialize(block, 0x1A00)
	require.NoError(t, err)
	lines = append(lines, blockLines...)
	lines = append(lines,
		render(t, 0x1C00, code(8, 0x90)),
		":00000001FF",
		"",
	)
	return lines
}

// atmelLines is an EEPROM image whose settings start at address 0.
func atmelLines(t *testing.T, block []byte) []string {
	t.Helper()
	lines, err := Serialize(block, 0x0000)
	require.NoError(t, err)
	return append(lines, ":00000001FF", "")
}

func withCRLF(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if l != "" {
			l += "\r"
		}
		out[i] = l
	}
	return out
}

func writeHex(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "esc.hex")
	require.NoError(t, os.WriteFile(path, JoinLines(lines), 0644))
	return path
}

func quietLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

// corrupt flips the checksum of a rendered line.
func corrupt(line string) string {
	last := line[len(line)-1]
	repl := byte('0')
	if last == '0' {
		repl = '1'
	}
	return strings.TrimSuffix(line, string(last)) + string(repl)
}
