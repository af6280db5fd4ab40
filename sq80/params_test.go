package sq80

import (
	"encoding/json"
	"testing"
)

func TestDescriptorLayout(t *testing.T) {
	if got := len(Descriptors()); got != ParameterCount {
		t.Fatalf("expected %d descriptors, got %d", ParameterCount, got)
	}

	for i, d := range Descriptors() {
		if d.Index != i {
			t.Errorf("descriptor %q has index %d at position %d", d.Name, d.Index, i)
		}
		if d.Min > d.Max {
			t.Errorf("descriptor %q has min %d > max %d", d.Name, d.Min, d.Max)
		}
		if d.Kind == Enumerated && (d.Offset != 0 || d.Multiplier != 0) {
			t.Errorf("enumerated descriptor %q carries offset/multiplier", d.Name)
		}
	}

	bounds := []struct {
		group       string
		first, last int
	}{
		{"env1", 0, 9},
		{"env4", 30, 39},
		{"lfo1", 40, 47},
		{"lfo3", 56, 63},
		{"osc1", 64, 71},
		{"osc3", 80, 87},
		{"dca1", 88, 93},
		{"dca3", 100, 105},
		{GroupAmplifier, 106, 109},
		{GroupFilter, 110, 116},
		{GroupModes, 117, 124},
	}
	for _, b := range bounds {
		ds := GroupDescriptors(b.group)
		if len(ds) == 0 {
			t.Errorf("group %s has no descriptors", b.group)
			continue
		}
		if ds[0].Index != b.first || ds[len(ds)-1].Index != b.last {
			t.Errorf("group %s spans %d..%d, expected %d..%d", b.group, ds[0].Index, ds[len(ds)-1].Index, b.first, b.last)
		}
	}

	if got := len(Groups()); got != 17 {
		t.Errorf("expected 17 groups, got %d", got)
	}
}

func TestEnumerationsBindOwnIndex(t *testing.T) {
	for _, d := range Descriptors() {
		if d.Kind != Enumerated {
			continue
		}
		for i, e := range d.Enumeration {
			if int(e.Parameter) != d.Index {
				t.Errorf("%s entry %d targets parameter %d", d.Name, i, e.Parameter)
			}
		}
	}
}

func TestModulationSources(t *testing.T) {
	d := MustLookup("osc2.mod1_src")
	if len(d.Enumeration) != 16 {
		t.Fatalf("expected 16 modulation sources, got %d", len(d.Enumeration))
	}
	if d.Enumeration[ModSourceOff].Label != "Off" {
		t.Errorf("expected Off at %d, got %q", ModSourceOff, d.Enumeration[ModSourceOff].Label)
	}
	if v := d.Enumeration[ModSourceOff].Value; v != 0x78 {
		t.Errorf("expected Off to transport 0x78, got 0x%02X", v)
	}
	if v := d.Enumeration[1].Value; v != 0x08 {
		t.Errorf("expected LFO 2 to transport 0x08, got 0x%02X", v)
	}

	wave := MustLookup("lfo2.wave")
	want := []uint8{0x00, 0x20, 0x40, 0x60}
	for i, w := range want {
		if wave.Enumeration[i].Value != w {
			t.Errorf("lfo wave %d: expected 0x%02X, got 0x%02X", i, w, wave.Enumeration[i].Value)
		}
	}
}

func TestLookup(t *testing.T) {
	d, ok := Lookup("filter.frequency")
	if !ok {
		t.Fatal("filter.frequency not found")
	}
	if d.Index != 110 || d.Max != 127 {
		t.Errorf("unexpected filter.frequency descriptor: %+v", d)
	}

	if _, ok := Lookup("filter.nope"); ok {
		t.Error("expected unknown name to fail")
	}
	if _, ok := DescriptorAt(ParameterCount); ok {
		t.Error("expected out of range index to fail")
	}
	if _, ok := DescriptorAt(-1); ok {
		t.Error("expected negative index to fail")
	}
}

func TestDescriptorJSON(t *testing.T) {
	data, err := json.Marshal(MustLookup("modes.mono"))
	if err != nil {
		t.Fatalf("failed to marshal descriptor: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("failed to unmarshal descriptor: %v", err)
	}
	if m["kind"] != "boolean" {
		t.Errorf("expected kind boolean, got %v", m["kind"])
	}
}

func TestValueLabel(t *testing.T) {
	if got := MustLookup("osc1.wave").ValueLabel(2); got != "Sine" {
		t.Errorf("expected Sine, got %q", got)
	}
	if got := MustLookup("dca1.mod2_src").ValueLabel(ModSourceOff); got != "Off" {
		t.Errorf("expected Off, got %q", got)
	}
	if got := MustLookup("filter.frequency").ValueLabel(3); got != "" {
		t.Errorf("expected no label, got %q", got)
	}
}
