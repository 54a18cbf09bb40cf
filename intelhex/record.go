package intelhex

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// StartCode is the mark that begins every record line.
const StartCode = ':'

// Record types.
const (
	RecordData                uint8 = 0x00
	RecordEOF                 uint8 = 0x01
	RecordExtendedSegmentAddr uint8 = 0x02
	RecordStartSegmentAddr    uint8 = 0x03
	RecordExtendedLinearAddr  uint8 = 0x04
	RecordStartLinearAddr     uint8 = 0x05
)

// headerLength is byte count + address (2) + record type.
const headerLength = 4

type Record struct {
	Length   uint8
	Offset   uint16
	RecType  uint8
	Body     []byte
	Checksum uint8

	// ReadOffset is where the body of a data record lives in the image it
	// is read from (Encoder) or was written to (Parser).
	ReadOffset int64 `json:",omitempty"`
}

// Checksum returns the two's complement of the 8-bit sum of p.
// https://en.wikipedia.org/wiki/Intel_HEX#Checksum_calculation
func Checksum(p ...[]byte) uint8 {
	var sum uint8
	for _, b := range p {
		for _, c := range b {
			sum += c
		}
	}
	return ^sum + 1 // 2's complement
}

func (r *Record) header() []byte {
	return []byte{r.Length, byte(r.Offset >> 8), byte(r.Offset), r.RecType}
}

// ComputeChecksum returns the checksum the record should carry.
func (r *Record) ComputeChecksum() uint8 {
	return Checksum(r.header(), r.Body)
}

// ParseLine decodes a single record line. Surrounding whitespace, including a
// trailing carriage return, is ignored.
//
// When only the checksum is wrong the decoded record is returned together
// with a *ChecksumMismatchError so that callers can treat it as advisory.
func ParseLine(text string) (*Record, error) {
	line := strings.TrimSpace(text)
	if len(line) == 0 || line[0] != StartCode {
		return nil, &MalformedLineError{Line: text, Reason: "missing start code"}
	}

	digits := line[1:]
	if len(digits)%2 != 0 {
		return nil, &MalformedLineError{Line: text, Reason: "odd number of hex digits"}
	}

	raw, err := hex.DecodeString(digits)
	if err != nil {
		return nil, &MalformedLineError{Line: text, Reason: err.Error()}
	}

	if len(raw) < headerLength+1 {
		return nil, &MalformedLineError{Line: text, Reason: fmt.Sprintf("record too short: %d bytes", len(raw))}
	}

	length := raw[0]
	if want := headerLength + int(length) + 1; len(raw) != want {
		return nil, &MalformedLineError{
			Line:   text,
			Reason: fmt.Sprintf("byte count %d disagrees with record size %d", length, len(raw)-headerLength-1),
		}
	}

	r := &Record{
		Length:   length,
		Offset:   uint16(raw[1])<<8 | uint16(raw[2]),
		RecType:  raw[3],
		Body:     raw[headerLength : headerLength+int(length)],
		Checksum: raw[len(raw)-1],
	}

	if computed := r.ComputeChecksum(); computed != r.Checksum {
		return r, &ChecksumMismatchError{Expected: computed, Actual: r.Checksum}
	}

	return r, nil
}

// RenderLine encodes a record as an uppercase line without a line terminator.
// The checksum is always computed from the fields.
func RenderLine(offset uint16, recType uint8, body []byte) (string, error) {
	if len(body) > 0xFF {
		return "", fmt.Errorf("record body of %d bytes exceeds 255", len(body))
	}

	r := Record{
		Length:  uint8(len(body)),
		Offset:  offset,
		RecType: recType,
		Body:    body,
	}

	var sb strings.Builder
	sb.Grow(1 + 2*(headerLength+len(body)+1))
	sb.WriteByte(StartCode)
	sb.WriteString(strings.ToUpper(hex.EncodeToString(r.header())))
	sb.WriteString(strings.ToUpper(hex.EncodeToString(body)))
	fmt.Fprintf(&sb, "%02X", r.ComputeChecksum())

	return sb.String(), nil
}
