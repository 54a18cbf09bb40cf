package blheli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Profile is a portable set of mutable settings, in Set's units.
type Profile struct {
	ID       uuid.UUID      `json:"id" cbor:"1,keyasint"`
	Family   Family         `json:"family" cbor:"2,keyasint"`
	Settings map[string]int `json:"settings" cbor:"3,keyasint"`
}

// Export captures every mutable setting.
func (c *Codec) Export() (*Profile, error) {
	if c.store == nil {
		return nil, ErrNotYetRead
	}
	p := &Profile{
		ID:       uuid.New(),
		Family:   c.family,
		Settings: make(map[string]int),
	}
	for _, f := range c.opts.registry.fields {
		if !f.Mutable {
			continue
		}
		v, err := c.store.Get(f.Name)
		if err != nil {
			return nil, err
		}
		p.Settings[f.Name] = v.Input()
	}
	return p, nil
}

// Apply sets every value in p. Either all of them are applied or, on the
// first error, none are.
func (c *Codec) Apply(p *Profile) error {
	if c.store == nil {
		return ErrNotYetRead
	}
	if p.Family != c.family {
		return fmt.Errorf("profile %s is for %v firmware, file was read as %v", p.ID, p.Family, c.family)
	}
	for name := range p.Settings {
		if _, err := c.opts.registry.Describe(name); err != nil {
			return err
		}
	}

	staged := c.store.clone()
	for _, name := range c.opts.registry.Names() {
		value, ok := p.Settings[name]
		if !ok {
			continue
		}
		if err := staged.Set(name, value); err != nil {
			return err
		}
	}
	c.store = staged
	return nil
}

type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// FormatFor picks a format from a file extension, defaulting to JSON.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		return FormatCBOR
	}
	return FormatJSON
}

func EncodeProfile(w io.Writer, p *Profile, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case FormatCBOR:
		return cbor.NewEncoder(w).Encode(p)
	default:
		return errors.Errorf("unknown profile format %q", format)
	}
}

func DecodeProfile(r io.Reader, format Format) (*Profile, error) {
	var p Profile
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&p); err != nil {
			return nil, errors.Wrap(err, "decoding JSON profile")
		}
	case FormatCBOR:
		if err := cbor.NewDecoder(r).Decode(&p); err != nil {
			return nil, errors.Wrap(err, "decoding CBOR profile")
		}
	default:
		return nil, errors.Errorf("unknown profile format %q", format)
	}
	return &p, nil
}
