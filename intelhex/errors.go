package intelhex

import (
	"fmt"

	"github.com/pkg/errors"
)

// MalformedLineError reports a line that is not a structurally valid record.
type MalformedLineError struct {
	Line   string
	Reason string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("malformed record %q: %s", e.Line, e.Reason)
}

// ChecksumMismatchError reports a record whose trailing checksum byte does not
// match the one computed from its contents.
type ChecksumMismatchError struct {
	Expected uint8
	Actual   uint8
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: computed 0x%02X, record has 0x%02X", e.Expected, e.Actual)
}

// ErrMissingEOF is reported by Lint for files without an end-of-file record.
var ErrMissingEOF = errors.New("no end-of-file record")
