package blheli

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotYetRead is returned by operations that need a settings block before
// one has been read.
var ErrNotYetRead = errors.New("no settings block has been read")

// BlockNotFoundError reports that no record started at the settings address.
type BlockNotFoundError struct {
	StartAddress uint16
}

func (e *BlockNotFoundError) Error() string {
	return fmt.Sprintf("settings block not found: no data record at address 0x%04X", e.StartAddress)
}

// MalformedBlockError reports a settings block that was found but could not
// be extracted.
type MalformedBlockError struct {
	Line   int // 0-based index of the offending line
	Reason string
}

func (e *MalformedBlockError) Error() string {
	return fmt.Sprintf("malformed settings block at line %d: %s", e.Line+1, e.Reason)
}

type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unrecognized setting %q", e.Name)
}

type ReadOnlyFieldError struct {
	Name string
}

func (e *ReadOnlyFieldError) Error() string {
	return fmt.Sprintf("cannot change read-only setting %q", e.Name)
}

// ConstraintViolationError reports a value outside an enumerated field's
// choices. Allowed is what a caller should offer the user instead.
type ConstraintViolationError struct {
	Name    string
	Value   int
	Text    string // set instead of Value when the input was not a number
	Allowed Choices
}

func (e *ConstraintViolationError) Error() string {
	var sb strings.Builder
	if e.Text != "" {
		fmt.Fprintf(&sb, "%q is not a valid value for %q, please use one of:", e.Text, e.Name)
	} else {
		fmt.Fprintf(&sb, "%d is not a valid value for %q, please use one of:", e.Value, e.Name)
	}
	for _, code := range e.Allowed.Codes() {
		fmt.Fprintf(&sb, " %d (%s)", code, e.Allowed[code])
	}
	return sb.String()
}

// OutOfRangeError reports a value that cannot be stored in the field's byte.
type OutOfRangeError struct {
	Name     string
	Value    int
	Min, Max int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%d is out of range for %q: valid range is %d-%d", e.Value, e.Name, e.Min, e.Max)
}

// InvalidEncodedValueError reports a stored byte the field cannot decode.
type InvalidEncodedValueError struct {
	Name string
	Raw  byte
}

func (e *InvalidEncodedValueError) Error() string {
	return fmt.Sprintf("setting %q holds undecodable value 0x%02X", e.Name, e.Raw)
}
