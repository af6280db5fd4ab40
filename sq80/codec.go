package sq80

import (
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// ErrOutOfDomain marks a stored byte that no UI value of its parameter
// encodes to.
var ErrOutOfDomain = errors.New("stored value outside parameter domain")

// Controller numbers of the NRPN "set parameter" idiom.
const (
	nrpnMSB   = 0x62
	nrpnLSB   = 0x63
	dataEntry = 0x06

	statusControlChange = 0xB0
	statusNoteOff       = 0x80
	statusNoteOn        = 0x90
	statusProgramChange = 0xC0

	// BooleanOn is the data value the device uses for a switched-on flag.
	BooleanOn = 0x40
)

// Message is one short MIDI channel message.
type Message struct {
	Status byte
	Data1  byte
	Data2  byte
}

// MIDI converts the message for a gomidi output. Program change
// carries one data byte on the wire.
func (m Message) MIDI() midi.Message {
	if m.Status&0xF0 == statusProgramChange {
		return midi.Message{m.Status, m.Data1}
	}
	return midi.Message{m.Status, m.Data1, m.Data2}
}

func (m Message) String() string {
	return fmt.Sprintf("%02X %02X %02X", m.Status, m.Data1, m.Data2)
}

// Edit is the result of encoding one control change: the byte stored
// in the patch and the NRPN parameter/value pair sent to the device.
type Edit struct {
	Index     int
	Stored    byte
	Parameter uint8
	Value     uint8
}

// Messages returns the three controller messages that set Parameter to
// Value on the device.
func (e Edit) Messages() []Message {
	return []Message{
		{Status: statusControlChange, Data1: nrpnMSB, Data2: e.Parameter & 0x7F},
		{Status: statusControlChange, Data1: nrpnLSB, Data2: 0x00},
		{Status: statusControlChange, Data1: dataEntry, Data2: e.Value & 0x7F},
	}
}

// storeSigned keeps negative UI values inside a 7-bit byte.
func storeSigned(v int) byte {
	return byte(v) & 0x7F
}

// EncodeLinear maps a scale position. The offset is added before the
// optional multiplier; a zero multiplier means none. Values are not
// clamped.
func EncodeLinear(v int, d Descriptor) (stored byte, transport uint8) {
	t := v + d.Offset
	if d.Multiplier > 0 {
		t *= d.Multiplier
	}
	return storeSigned(v), uint8(t)
}

// EncodeEnumerated maps a selector position to the entry's own NRPN
// parameter and value.
func EncodeEnumerated(i int, d Descriptor) (stored byte, parameter, value uint8) {
	e := d.Enumeration[i]
	return byte(i), e.Parameter, e.Value
}

// EncodeBoolean maps a switch. The device reads 0x40 as on.
func EncodeBoolean(on bool, d Descriptor) (stored byte, transport uint8) {
	if on {
		return 1, BooleanOn
	}
	return 0, 0
}

// Encode dispatches on the descriptor kind. For booleans any non-zero
// value means on.
func Encode(d Descriptor, v int) Edit {
	e := Edit{Index: d.Index, Parameter: uint8(d.Index)}
	switch d.Kind {
	case Enumerated:
		e.Stored, e.Parameter, e.Value = EncodeEnumerated(v, d)
	case Boolean:
		e.Stored, e.Value = EncodeBoolean(v != 0, d)
	default:
		e.Stored, e.Value = EncodeLinear(v, d)
	}
	return e
}

// Decode turns a stored byte back into the UI value Encode was given.
// Enumerated bytes past the last entry that equal an entry's transport
// value decode to that entry, which is how older files store selectors.
// The result may lie outside the descriptor's range; see DecodeChecked.
func Decode(d Descriptor, b byte) int {
	switch d.Kind {
	case Boolean:
		if b != 0 {
			return 1
		}
		return 0
	case Enumerated:
		if int(b) < len(d.Enumeration) {
			return int(b)
		}
		for i, e := range d.Enumeration {
			if e.Value == b {
				return i
			}
		}
		return int(b)
	}
	v := int(b & 0x7F)
	if d.Signed() && v > d.Max {
		v -= 0x80
	}
	return v
}

// DecodeChecked is Decode with a domain check, so the result can be
// passed to Encode safely.
func DecodeChecked(d Descriptor, b byte) (int, error) {
	v := Decode(d, b)
	if !d.InRange(v) {
		return 0, fmt.Errorf("%s: byte %d: %w", d.Name, b, ErrOutOfDomain)
	}
	return v, nil
}

// Apply encodes v, stores the result in p and returns the edit so the
// caller can forward it to the device.
func Apply(p *Patch, d Descriptor, v int) Edit {
	e := Encode(d, v)
	p.Set(d.Index, e.Stored)
	return e
}

// PatchEdits re-encodes every stored parameter of p, in index order.
// It fails on the first byte outside its parameter's domain, before
// anything is returned for sending.
func PatchEdits(p *Patch) ([]Edit, error) {
	edits := make([]Edit, 0, ParameterCount)
	for _, d := range descriptors {
		v, err := DecodeChecked(d, p.Get(d.Index))
		if err != nil {
			return nil, err
		}
		edits = append(edits, Encode(d, v))
	}
	return edits, nil
}

// NoteOn builds a note-on for a 0-based channel.
func NoteOn(channel, note, velocity uint8) Message {
	return Message{Status: statusNoteOn | channel&0x0F, Data1: note & 0x7F, Data2: velocity & 0x7F}
}

// NoteOff builds a note-off for a 0-based channel.
func NoteOff(channel, note, velocity uint8) Message {
	return Message{Status: statusNoteOff | channel&0x0F, Data1: note & 0x7F, Data2: velocity & 0x7F}
}

// ProgramChange builds a program change for a 0-based channel.
func ProgramChange(channel, program uint8) Message {
	return Message{Status: statusProgramChange | channel&0x0F, Data1: program & 0x7F}
}
