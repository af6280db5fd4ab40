package sq80

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestEncodeLinear(t *testing.T) {
	tests := []struct {
		name      string
		param     string
		ui        int
		stored    byte
		transport uint8
	}{
		{"centered low", "env1.level1", -63, 0x41, 1},
		{"centered zero", "env1.level1", 0, 0, 64},
		{"centered high", "env1.level1", 63, 63, 127},
		{"doubled", "env1.time1", 63, 63, 126},
		{"plain", "filter.frequency", 127, 127, 127},
		{"resonance", "filter.resonance", 31, 31, 124},
		{"pan", "amp.pan", 15, 15, 120},
		{"octave", "osc1.octave", -3, 0x7D, 0xFD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, transport := EncodeLinear(tt.ui, MustLookup(tt.param))
			if stored != tt.stored {
				t.Errorf("stored: expected 0x%02X, got 0x%02X", tt.stored, stored)
			}
			if transport != tt.transport {
				t.Errorf("transport: expected %d, got %d", tt.transport, transport)
			}
		})
	}
}

func TestCenteredSpan(t *testing.T) {
	d := MustLookup("osc3.mod2_depth")
	for v := d.Min; v <= d.Max; v++ {
		_, transport := EncodeLinear(v, d)
		if transport < 1 || transport > 127 {
			t.Fatalf("value %d transports to %d", v, transport)
		}
	}
}

func TestEncodeBoolean(t *testing.T) {
	d := MustLookup("modes.sync")

	stored, transport := EncodeBoolean(true, d)
	if stored != 1 || transport != 0x40 {
		t.Errorf("on: expected 1/0x40, got %d/0x%02X", stored, transport)
	}

	stored, transport = EncodeBoolean(false, d)
	if stored != 0 || transport != 0 {
		t.Errorf("off: expected 0/0, got %d/0x%02X", stored, transport)
	}
}

func TestEncodeEnumerated(t *testing.T) {
	d := MustLookup("lfo1.wave")
	stored, param, value := EncodeEnumerated(3, d)
	if stored != 3 || int(param) != d.Index || value != 0x60 {
		t.Errorf("expected 3/%d/0x60, got %d/%d/0x%02X", d.Index, stored, param, value)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, d := range Descriptors() {
		for v := d.Min; v <= d.Max; v++ {
			e := Encode(d, v)
			if e.Stored > 127 {
				t.Fatalf("%s=%d stores 0x%02X", d.Name, v, e.Stored)
			}
			if got := Decode(d, e.Stored); got != v {
				t.Fatalf("%s: encoded %d, decoded %d", d.Name, v, got)
			}
		}
	}
}

func TestEditMessages(t *testing.T) {
	for _, d := range Descriptors() {
		msgs := Encode(d, d.Max).Messages()
		if len(msgs) != 3 {
			t.Fatalf("%s: expected 3 messages, got %d", d.Name, len(msgs))
		}
		for i, ctl := range []byte{0x62, 0x63, 0x06} {
			if msgs[i].Status != 0xB0 || msgs[i].Data1 != ctl {
				t.Errorf("%s message %d: got %s", d.Name, i, msgs[i])
			}
		}
		if msgs[0].Data2 != byte(d.Index) {
			t.Errorf("%s: parameter byte %d", d.Name, msgs[0].Data2)
		}
		if msgs[1].Data2 != 0 {
			t.Errorf("%s: second message data2 %d", d.Name, msgs[1].Data2)
		}
	}
}

func TestApply(t *testing.T) {
	p, err := New("Apply", "")
	if err != nil {
		t.Fatal(err)
	}

	d := MustLookup("dca2.mod1_depth")
	e := Apply(p, d, -10)
	if p.Value(d.Index) != -10 {
		t.Errorf("expected -10, got %d", p.Value(d.Index))
	}
	if e.Value != 54 {
		t.Errorf("expected transport 54, got %d", e.Value)
	}
}

func TestPatchEdits(t *testing.T) {
	p, _ := New("Edits", "")
	edits, err := PatchEdits(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(edits) != ParameterCount {
		t.Fatalf("expected %d edits, got %d", ParameterCount, len(edits))
	}

	freq := MustLookup("filter.frequency")
	if edits[freq.Index].Value != 127 {
		t.Errorf("expected filter frequency 127, got %d", edits[freq.Index].Value)
	}
	src := MustLookup("osc1.mod1_src")
	if edits[src.Index].Value != 0x78 {
		t.Errorf("expected Off source 0x78, got 0x%02X", edits[src.Index].Value)
	}
}

func TestChannelMessages(t *testing.T) {
	tests := []struct {
		msg  Message
		want []byte
	}{
		{NoteOn(0, 60, 100), []byte{0x90, 60, 100}},
		{NoteOff(15, 60, 0), []byte{0x8F, 60, 0}},
		{ProgramChange(2, 45), []byte{0xC2, 45}},
	}

	for _, tt := range tests {
		if got := tt.msg.MIDI().Bytes(); !bytes.Equal(got, tt.want) {
			t.Errorf("%s: expected % X, got % X", tt.msg, tt.want, got)
		}
	}
}

func TestDecodeLegacySelector(t *testing.T) {
	src := "<sq80><name>Old</name>" +
		`<param id="68" value="120"/>` +
		`<param id="43" value="32"/>` +
		"</sq80>"
	p, err := Read(strings.NewReader(src))
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}

	src1 := MustLookup("osc1.mod1_src")
	if got := p.Value(src1.Index); got != ModSourceOff {
		t.Errorf("expected Off, got %d", got)
	}
	wave := MustLookup("lfo1.wave")
	if got := p.Value(wave.Index); got != 1 {
		t.Errorf("expected Sawtooth, got %d", got)
	}

	edits, err := PatchEdits(p)
	if err != nil {
		t.Fatalf("failed to build edits: %v", err)
	}
	if edits[src1.Index].Value != 0x78 || edits[wave.Index].Value != 0x20 {
		t.Errorf("unexpected transport values 0x%02X 0x%02X", edits[src1.Index].Value, edits[wave.Index].Value)
	}
}

func TestPatchEditsOutOfDomain(t *testing.T) {
	tests := []struct {
		param  string
		stored byte
	}{
		{"filter.resonance", 100},
		{"osc1.octave", 10},
		{"lfo1.wave", 5},
		{"osc2.mod1_src", 121},
		{"osc1.wave", 127},
	}

	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			p, _ := New("Bad", "")
			d := MustLookup(tt.param)
			p.Set(d.Index, tt.stored)

			edits, err := PatchEdits(p)
			if !errors.Is(err, ErrOutOfDomain) {
				t.Fatalf("expected ErrOutOfDomain, got %v", err)
			}
			if edits != nil {
				t.Error("expected no edits on failure")
			}
			if !strings.Contains(err.Error(), tt.param) {
				t.Errorf("error does not name the parameter: %v", err)
			}

			// a decoded view must still be available
			s := p.Snapshot()
			if len(s.Parameters) != ParameterCount {
				t.Errorf("expected full snapshot, got %d rows", len(s.Parameters))
			}
		})
	}
}
