package intelhex

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Parser reads a whole Intel-HEX file record by record and writes the body of
// every data record into w at its absolute address.
type Parser struct {
	s *bufio.Scanner
	w io.WriterAt

	outputOffset         int64
	sawData              bool
	baseAddress          uint32
	disableCompactOutput bool
	lineNum              int

	Records []Record

	eof bool
}

type ParserOptions struct {
	disableCompactOutput bool
}

type ParserOption func(*ParserOptions)

// WithDisableCompactOutput writes data at its absolute address. By default
// the first data record is written at offset 0 and the rest relative to it.
func WithDisableCompactOutput() ParserOption {
	return func(o *ParserOptions) {
		o.disableCompactOutput = true
	}
}

func NewParser(r io.Reader, w io.WriterAt, opts ...ParserOption) *Parser {
	po := &ParserOptions{}
	for _, opt := range opts {
		opt(po)
	}
	return &Parser{
		s:                    bufio.NewScanner(r),
		w:                    w,
		disableCompactOutput: po.disableCompactOutput,
	}
}

// ReadRecord consumes the next non-blank line. It returns io.ErrUnexpectedEOF
// if the input ends before an end-of-file record.
func (p *Parser) ReadRecord() error {
	var line string
	for {
		if !p.s.Scan() {
			if err := p.s.Err(); err != nil {
				return err
			}
			return io.ErrUnexpectedEOF
		}
		p.lineNum++
		line = p.s.Text()
		if strings.TrimSpace(line) != "" {
			break
		}
	}

	rec, err := ParseLine(line)
	if err != nil {
		return fmt.Errorf("line %d: %w", p.lineNum, err)
	}

	var copyBody bool

	switch rec.RecType {
	case RecordData:
		readOffset := int64(p.baseAddress) + int64(rec.Offset)
		if !p.sawData && !p.disableCompactOutput {
			p.outputOffset = -readOffset
		}
		p.sawData = true

		readOffset += p.outputOffset
		if _, err := p.w.WriteAt(rec.Body, readOffset); err != nil {
			return err
		}
		rec.ReadOffset = readOffset
	case RecordEOF:
		p.eof = true
	case RecordExtendedSegmentAddr, RecordExtendedLinearAddr:
		copyBody = true
		if rec.Length != 2 {
			return fmt.Errorf("line %d: address record with %d byte body", p.lineNum, rec.Length)
		}
		upper := uint32(rec.Body[0])<<8 | uint32(rec.Body[1])
		if rec.RecType == RecordExtendedSegmentAddr {
			p.baseAddress = upper << 4
		} else {
			p.baseAddress = upper << 16
		}
	case RecordStartSegmentAddr, RecordStartLinearAddr:
		copyBody = true
	default:
		return fmt.Errorf("line %d: unknown record type %d", p.lineNum, rec.RecType)
	}

	if !copyBody {
		rec.Body = nil
	}

	p.Records = append(p.Records, *rec)

	return nil
}

func (p *Parser) HasNext() bool {
	return !p.eof
}
