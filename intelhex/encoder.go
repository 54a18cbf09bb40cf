package intelhex

import "io"

// Encoder renders records back into lines. Data record bodies are read from r
// at each record's ReadOffset; other records carry their own Body.
type Encoder struct {
	r io.ReaderAt

	Records []Record
}

func NewEncoder(r io.ReaderAt, records []Record) *Encoder {
	return &Encoder{
		r:       r,
		Records: records,
	}
}

func (e *Encoder) EncodeRecords() ([]string, error) {
	lines := make([]string, 0, len(e.Records))
	for _, record := range e.Records {
		line, err := e.encodeRecord(record)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, nil
}

func (e *Encoder) encodeRecord(r Record) (string, error) {
	body := r.Body

	if r.RecType == RecordData {
		body = make([]byte, r.Length)
		// A short read is an error; io.EOF alongside a full body is not.
		if n, err := e.r.ReadAt(body, r.ReadOffset); n < len(body) {
			if err == nil || err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return "", err
		}
	}

	return RenderLine(r.Offset, r.RecType, body)
}

// DataRecords lays out size bytes of an image placed at absolute address base
// as data records of at most width bytes, reading from image offset 0. An
// extended linear address record is emitted whenever the upper 16 address
// bits change, and no record straddles a 64K boundary.
func DataRecords(base uint32, size, width int) []Record {
	width = max(1, min(width, 0xFF))

	var records []Record
	var upper uint32
	for off := 0; off < size; {
		addr := base + uint32(off)
		if addr>>16 != upper {
			upper = addr >> 16
			records = append(records, Record{
				Length:  2,
				RecType: RecordExtendedLinearAddr,
				Body:    []byte{byte(upper >> 8), byte(upper)},
			})
		}
		n := min(width, size-off, 0x10000-int(addr&0xFFFF))
		records = append(records, Record{
			Length:     uint8(n),
			Offset:     uint16(addr),
			RecType:    RecordData,
			ReadOffset: int64(off),
		})
		off += n
	}
	return records
}
