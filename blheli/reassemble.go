package blheli

import (
	"bytes"
	"fmt"

	"github.com/anupcshan/blheli/intelhex"
)

// Serialize renders buf as data records of at most RecordSize bytes, the
// first at base and each following one directly after the previous. When
// the last record is full an empty record follows it, so that the block
// stays terminated.
func Serialize(buf []byte, base uint16) ([]string, error) {
	if int(base)+len(buf) > 0x10000 {
		return nil, fmt.Errorf("%d bytes at 0x%04X run past the 16-bit address space", len(buf), base)
	}

	records := make([]intelhex.Record, 0, len(buf)/RecordSize+1)
	for i := 0; i <= len(buf); i += RecordSize {
		n := min(RecordSize, len(buf)-i)
		records = append(records, intelhex.Record{
			Length:     uint8(n),
			Offset:     base + uint16(i),
			RecType:    intelhex.RecordData,
			ReadOffset: int64(i),
		})
	}

	return intelhex.NewEncoder(bytes.NewReader(buf), records).EncodeRecords()
}

// Splice replaces original[span.FirstLine:span.LastLine+1] with replacement.
// The two need not have the same length. original is not modified.
func Splice(original []string, span Span, replacement []string) []string {
	out := make([]string, 0, len(original)-(span.LastLine-span.FirstLine+1)+len(replacement))
	out = append(out, original[:span.FirstLine]...)
	out = append(out, replacement...)
	out = append(out, original[span.LastLine+1:]...)
	return out
}
