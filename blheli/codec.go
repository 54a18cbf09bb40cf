// Package blheli reads and edits the settings block of BLHeli ESC firmware
// stored as Intel HEX.
//
//	c := blheli.New()
//	if err := c.Read("esc.hex", blheli.SiLabs); err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Set("ppm-min-throttle", 1140); err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Write("esc-new.hex"); err != nil {
//	    log.Fatal(err)
//	}
package blheli

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Codec holds one hex file and the settings block decoded from it. It is not
// safe for concurrent use.
type Codec struct {
	opts options

	family   Family
	lines    []string
	span     Span
	store    *Store
	warnings []Warning
}

func New(opts ...Option) *Codec {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Codec{opts: o}
}

// Read loads path and decodes its settings block.
func (c *Codec) Read(path string, family Family) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading hex file")
	}
	if err := c.ReadLines(SplitLines(data), family); err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	return nil
}

// ReadLines decodes the settings block from the lines of a hex file. The
// codec keeps its previous state if this fails.
func (c *Codec) ReadLines(lines []string, family Family) error {
	l := &locator{opts: c.opts}
	located, err := l.locate(lines, family.StartAddress())
	if err != nil {
		return err
	}

	store, err := NewStore(c.opts.registry, located.Data)
	if err != nil {
		return &MalformedBlockError{Line: located.Span.LastLine, Reason: err.Error()}
	}

	c.family = family
	c.lines = append([]string(nil), lines...)
	c.span = located.Span
	c.store = store
	c.warnings = located.Warnings
	return nil
}

// Lines returns the file with the settings block re-encoded from the
// current values. Lines outside the block are returned unchanged.
func (c *Codec) Lines() ([]string, error) {
	if c.store == nil {
		return nil, ErrNotYetRead
	}

	block := c.store.Bytes()
	base := c.family.StartAddress()
	rendered, err := Serialize(block, base)
	if err != nil {
		return nil, err
	}
	for i := range rendered {
		rendered[i] += c.span.EOL
	}

	lines := Splice(c.lines, c.span, rendered)

	if c.opts.verify {
		if len(c.warnings) > 0 {
			c.opts.log.WithField("warnings", len(c.warnings)).Warn("Skipping image verification of a file read with warnings")
		} else if err := VerifyImage(lines, base, block); err != nil {
			return nil, err
		}
	}

	return lines, nil
}

// Write saves the re-encoded file to path, replacing it atomically.
func (c *Codec) Write(path string) error {
	lines, err := c.Lines()
	if err != nil {
		return err
	}
	data := JoinLines(lines)
	if err := atomicWriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "writing hex file")
	}
	c.opts.log.WithFields(logrus.Fields{
		"path":    path,
		"changed": c.store.Changed(),
	}).Debug("Wrote hex file")
	return nil
}

func (c *Codec) Get(name string) (Value, error) {
	if c.store == nil {
		if _, err := c.opts.registry.Describe(name); err != nil {
			return Value{}, err
		}
		return Value{}, ErrNotYetRead
	}
	return c.store.Get(name)
}

// Set validates value against the field and stores it. On error nothing is
// changed.
func (c *Codec) Set(name string, value int) error {
	if c.store == nil {
		if _, err := c.opts.registry.Describe(name); err != nil {
			return err
		}
		return ErrNotYetRead
	}
	return c.store.Set(name, value)
}

// SetText is Set for user-typed input; enum fields also accept labels.
func (c *Codec) SetText(name, text string) error {
	if c.store == nil {
		if _, err := c.opts.registry.Describe(name); err != nil {
			return err
		}
		return ErrNotYetRead
	}
	value, err := c.store.ParseInput(name, text)
	if err != nil {
		return err
	}
	return c.store.Set(name, value)
}

func (c *Codec) ListFieldNames() []string {
	return c.opts.registry.Names()
}

func (c *Codec) ConstraintsFor(name string) (Choices, bool) {
	return c.opts.registry.Constraints(name)
}

func (c *Codec) Describe(name string) (FieldSpec, error) {
	return c.opts.registry.Describe(name)
}

// Setting is one entry of Settings. Err is set when the stored byte could
// not be decoded.
type Setting struct {
	Name  string
	Value Value
	Err   error
}

// Settings decodes every field in registration order.
func (c *Codec) Settings() ([]Setting, error) {
	if c.store == nil {
		return nil, ErrNotYetRead
	}
	names := c.opts.registry.Names()
	settings := make([]Setting, len(names))
	for i, name := range names {
		v, err := c.store.Get(name)
		settings[i] = Setting{Name: name, Value: v, Err: err}
	}
	return settings, nil
}

// Changed lists the fields modified since Read.
func (c *Codec) Changed() []string {
	if c.store == nil {
		return nil
	}
	return c.store.Changed()
}

// Warnings returns the advisory problems seen by the last Read.
func (c *Codec) Warnings() []Warning {
	return append([]Warning(nil), c.warnings...)
}

// Span reports where the settings block was found.
func (c *Codec) Span() (Span, error) {
	if c.store == nil {
		return Span{}, ErrNotYetRead
	}
	return c.span, nil
}

// Block returns a copy of the raw settings bytes.
func (c *Codec) Block() ([]byte, error) {
	if c.store == nil {
		return nil, ErrNotYetRead
	}
	return c.store.Bytes(), nil
}

func (c *Codec) Family() Family {
	return c.family
}
