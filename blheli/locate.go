package blheli

import (
	"fmt"
	"strings"

	"github.com/anupcshan/blheli/intelhex"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Span is the inclusive range of file lines a settings block was read from.
type Span struct {
	FirstLine int
	LastLine  int
	// EOL is "\r" when the block's lines end in CRLF. Lines are split on
	// "\n", so the carriage return stays attached to each line.
	EOL string
}

// Warning is a problem that did not stop a read.
type Warning struct {
	Line int // 0-based
	Err  error
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %v", w.Line+1, w.Err)
}

// Located is the result of Locate.
type Located struct {
	Span     Span
	Data     []byte
	Warnings []Warning
}

type locator struct {
	opts     options
	warnings []Warning
}

// Locate finds the settings block that starts with a data record at address
// start and concatenates the payloads of it and the records that follow,
// up to and including the first record shorter than RecordSize.
func Locate(lines []string, start uint16, opts ...Option) (*Located, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	l := &locator{opts: o}
	return l.locate(lines, start)
}

func (l *locator) parse(lines []string, idx int) (*intelhex.Record, error) {
	rec, err := intelhex.ParseLine(lines[idx])
	if err == nil {
		return rec, nil
	}

	var mismatch *intelhex.ChecksumMismatchError
	if errors.As(err, &mismatch) && !l.opts.strictChecksums {
		l.opts.log.WithFields(logrus.Fields{
			"line":     idx + 1,
			"expected": fmt.Sprintf("%02X", mismatch.Expected),
			"actual":   fmt.Sprintf("%02X", mismatch.Actual),
		}).Warn("Ignoring record checksum mismatch")
		l.warnings = append(l.warnings, Warning{Line: idx, Err: err})
		return rec, nil
	}

	return nil, errors.Wrapf(err, "line %d", idx+1)
}

func (l *locator) locate(lines []string, start uint16) (*Located, error) {
	first := -1
	var rec *intelhex.Record
	for idx, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var err error
		rec, err = l.parse(lines, idx)
		if err != nil {
			var malformed *intelhex.MalformedLineError
			if l.opts.strictChecksums || !errors.As(err, &malformed) {
				return nil, err
			}
			l.opts.log.WithField("line", idx+1).WithError(malformed).Warn("Skipping malformed record ahead of settings block")
			l.warnings = append(l.warnings, Warning{Line: idx, Err: malformed})
			continue
		}
		if rec.RecType == intelhex.RecordData && rec.Offset == start {
			first = idx
			break
		}
	}
	if first < 0 {
		return nil, &BlockNotFoundError{StartAddress: start}
	}

	data := append([]byte(nil), rec.Body...)
	numLines := 1
	last := first
	next := uint32(rec.Offset) + uint32(rec.Length)

	for rec.Length >= RecordSize {
		last++
		numLines++
		if last >= len(lines) {
			return nil, &MalformedBlockError{Line: last - 1, Reason: "file ends before a terminating short record"}
		}
		if numLines > l.opts.maxBlockLines {
			return nil, &MalformedBlockError{
				Line:   last,
				Reason: fmt.Sprintf("no record shorter than %d bytes within %d lines", RecordSize, l.opts.maxBlockLines),
			}
		}
		if strings.TrimSpace(lines[last]) == "" {
			return nil, &MalformedBlockError{Line: last, Reason: "blank line inside settings block"}
		}

		var err error
		rec, err = l.parse(lines, last)
		if err != nil {
			return nil, err
		}
		if rec.RecType != intelhex.RecordData {
			return nil, &MalformedBlockError{
				Line:   last,
				Reason: fmt.Sprintf("record type %d before a terminating short record", rec.RecType),
			}
		}
		if uint32(rec.Offset) != next {
			l.opts.log.WithFields(logrus.Fields{
				"line":     last + 1,
				"address":  fmt.Sprintf("%04X", rec.Offset),
				"expected": fmt.Sprintf("%04X", next),
			}).Warn("Settings record is not contiguous with the previous one")
		}
		next = uint32(rec.Offset) + uint32(rec.Length)
		data = append(data, rec.Body...)
	}

	span := Span{FirstLine: first, LastLine: last}
	if strings.HasSuffix(lines[first], "\r") {
		span.EOL = "\r"
	}

	l.opts.log.WithFields(logrus.Fields{
		"first": first + 1,
		"last":  last + 1,
		"bytes": len(data),
	}).Debug("Located settings block")

	return &Located{
		Span:     span,
		Data:     data,
		Warnings: l.warnings,
	}, nil
}
