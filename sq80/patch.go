package sq80

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrEmptyName   = errors.New("patch name must not be empty")
	ErrInvalidText = errors.New("text cannot be stored in a patch file")
)

// CheckText rejects strings the patch file cannot carry unchanged:
// invalid UTF-8 and characters outside the XML character range, which
// covers every control character except tab, newline and carriage
// return.
func CheckText(s string) error {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size <= 1 {
				return fmt.Errorf("%q at byte %d: %w", s, i, ErrInvalidText)
			}
		}
		if !xmlChar(r) {
			return fmt.Errorf("%q: character %U: %w", s, r, ErrInvalidText)
		}
	}
	return nil
}

func xmlChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// Patch is one SQ-80 sound: a name, a free-form type and the raw
// parameter bytes. Origin is the file the patch was loaded from or last
// saved to; empty means it has never been saved.
type Patch struct {
	Name       string
	Type       string
	Origin     string
	Parameters [ParameterCount]byte
}

// New creates a patch holding the neutral defaults: every oscillator and
// DCA modulation source off, DCA outputs enabled, the filter fully open
// and the amplifier following envelope 4 at full depth.
func New(name, typ string) (*Patch, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if err := CheckText(name); err != nil {
		return nil, err
	}
	if err := CheckText(typ); err != nil {
		return nil, err
	}

	p := &Patch{Name: name, Type: typ}

	for _, group := range []string{"osc1", "osc2", "osc3", "dca1", "dca2", "dca3"} {
		p.setNamed(group+".mod1_src", ModSourceOff)
		p.setNamed(group+".mod2_src", ModSourceOff)
	}
	for _, group := range []string{"dca1", "dca2", "dca3"} {
		p.setNamed(group+".output", 1)
	}

	freq := MustLookup(GroupFilter + ".frequency")
	p.Set(freq.Index, byte(freq.Max))

	depth := MustLookup(GroupAmplifier + ".env4_depth")
	p.Set(depth.Index, byte(depth.Max))

	return p, nil
}

func (p *Patch) setNamed(name string, v int) {
	p.Set(MustLookup(name).Index, byte(v))
}

// Set stores a raw byte. Domain checks belong to the codec's callers.
func (p *Patch) Set(index int, b byte) {
	p.Parameters[index] = b
}

// Get returns the raw byte stored at index.
func (p *Patch) Get(index int) byte {
	return p.Parameters[index]
}

// Value decodes the stored byte at index into its UI value.
func (p *Patch) Value(index int) int {
	d, _ := DescriptorAt(index)
	return Decode(d, p.Get(index))
}

// Saved reports whether the patch has a file identity.
func (p *Patch) Saved() bool {
	return p.Origin != ""
}

// ParameterValue is one row of a Snapshot.
type ParameterValue struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Value int    `json:"value"`
	Label string `json:"label,omitempty"`
}

// Snapshot is a decoded, JSON friendly view of a patch.
type Snapshot struct {
	Name       string           `json:"name"`
	Type       string           `json:"type"`
	Origin     string           `json:"origin,omitempty"`
	Parameters []ParameterValue `json:"parameters"`
}

func (p *Patch) Snapshot() Snapshot {
	s := Snapshot{
		Name:       p.Name,
		Type:       p.Type,
		Origin:     p.Origin,
		Parameters: make([]ParameterValue, 0, ParameterCount),
	}
	for _, d := range descriptors {
		v := Decode(d, p.Get(d.Index))
		s.Parameters = append(s.Parameters, ParameterValue{
			Index: d.Index,
			Name:  d.Name,
			Value: v,
			Label: d.ValueLabel(v),
		})
	}
	return s
}
