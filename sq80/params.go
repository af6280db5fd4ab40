package sq80

import "fmt"

// ParameterCount is the number of parameters in an SQ-80 patch.
const ParameterCount = 125

// Kind selects how a parameter's UI value is encoded.
type Kind int

const (
	Linear Kind = iota
	Enumerated
	Boolean
)

func (k Kind) String() string {
	switch k {
	case Linear:
		return "linear"
	case Enumerated:
		return "enumerated"
	case Boolean:
		return "boolean"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// EnumEntry maps one selector choice to the NRPN parameter/value pair
// the device expects for it.
type EnumEntry struct {
	Label     string `json:"label"`
	Parameter uint8  `json:"parameter"`
	Value     uint8  `json:"value"`
}

// Descriptor is the static metadata for one parameter index.
type Descriptor struct {
	Index       int         `json:"index"`
	Name        string      `json:"name"`
	Group       string      `json:"group"`
	Label       string      `json:"label"`
	Kind        Kind        `json:"kind"`
	Min         int         `json:"min"`
	Max         int         `json:"max"`
	Offset      int         `json:"offset,omitempty"`
	Multiplier  int         `json:"multiplier,omitempty"`
	Labels      []string    `json:"labels,omitempty"`
	Enumeration []EnumEntry `json:"enumeration,omitempty"`
}

// InRange reports whether v lies inside the descriptor's UI range.
func (d Descriptor) InRange(v int) bool {
	return v >= d.Min && v <= d.Max
}

// Signed reports whether the UI range reaches below zero.
func (d Descriptor) Signed() bool {
	return d.Min < 0
}

// ValueLabel returns the display label for a UI value, if the
// parameter has one.
func (d Descriptor) ValueLabel(v int) string {
	switch d.Kind {
	case Enumerated:
		if v >= 0 && v < len(d.Enumeration) {
			return d.Enumeration[v].Label
		}
	case Boolean:
		if v != 0 {
			return "on"
		}
		return "off"
	default:
		if v >= 0 && v < len(d.Labels) {
			return d.Labels[v]
		}
	}
	return ""
}

var modSourceLabels = []string{
	"LFO 1",
	"LFO 2",
	"LFO 3",
	"Envelope 1",
	"Envelope 2",
	"Envelope 3",
	"Envelope 4",
	"Velocity",
	"Velocity X",
	"Keyboard",
	"Keyboard 2",
	"Modulation Wheel",
	"Foot Pedal",
	"External Controller",
	"Pressure",
	"Off",
}

// ModSourceOff is the selector index of the "Off" modulation source.
const ModSourceOff = 15

var lfoWaveLabels = []string{"Triangle", "Sawtooth", "Square", "Noise"}

// The first 32 waves are shared with the ESQ-1, the rest are SQ-80 only.
var oscWaveLabels = []string{
	"Sawtooth", "Bell", "Sine", "Square", "Pulse", "Noise 1", "Noise 2", "Noise 3",
	"Bass", "Piano", "Electric Piano", "Voice 1", "Voice 2", "Kick", "Reed", "Organ",
	"Synth 1", "Synth 2", "Synth 3", "Formant 1", "Formant 2", "Formant 3", "Formant 4", "Formant 5",
	"Pulse 2", "Square 2", "Four Octaves", "Prime", "Bass 2", "Electric Piano 2", "Octave", "Octave And Fifth",
	"Sawtooth 2", "Triangle", "Reed 2", "Reed 3", "Grit 1", "Grit 2", "Grit 3", "Glint 1",
	"Glint 2", "Glint 3", "Clav", "Brass", "String", "Digit 1", "Digit 2", "Bell 2",
	"Alien", "Breath", "Voice 3", "Steam", "Metal", "Chime", "Bowing", "Pick 1",
	"Pick 2", "Mallet", "Slap", "Plink", "Pluck", "Plunk", "Click", "Chiff",
	"Thump", "Log Drum", "Kick 2", "Snare", "Tom Tom", "Hi Hat", "Drums 1", "Drums 2",
	"Drums 3", "Drums 4", "Drums 5",
}

// field is one row of a group template. Enumerated fields list labels
// and the transport value step between consecutive entries.
type field struct {
	name       string
	label      string
	kind       Kind
	min, max   int
	offset     int
	multiplier int
	labels     []string
	enumLabels []string
	enumStep   uint8
}

func scale(name, label string, lo, hi int) field {
	return field{name: name, label: label, kind: Linear, min: lo, max: hi}
}

func scaled(name, label string, lo, hi, multiplier int) field {
	return field{name: name, label: label, kind: Linear, min: lo, max: hi, multiplier: multiplier}
}

func centered(name, label string) field {
	return field{name: name, label: label, kind: Linear, min: -63, max: 63, offset: 64}
}

func toggle(name, label string) field {
	return field{name: name, label: label, kind: Boolean, min: 0, max: 1}
}

func selector(name, label string, labels []string, step uint8) field {
	return field{name: name, label: label, kind: Enumerated, min: 0, max: len(labels) - 1, enumLabels: labels, enumStep: step}
}

func modSource(name, label string) field {
	return selector(name, label, modSourceLabels, 0x08)
}

var envelopeTemplate = []field{
	centered("level1", "Level 1"),
	centered("level2", "Level 2"),
	centered("level3", "Level 3"),
	scale("velocity_level", "Velocity Level", 0, 127),
	scaled("velocity_attack", "Velocity Attack", 0, 63, 2),
	scaled("time1", "Time 1", 0, 63, 2),
	scaled("time2", "Time 2", 0, 63, 2),
	scaled("time3", "Time 3", 0, 63, 2),
	scale("time4", "Time 4", 0, 127),
	scaled("keyboard_decay_scaling", "Keyboard Decay Scaling", 0, 63, 2),
}

var lfoTemplate = []field{
	scaled("frequency", "Frequency", 0, 63, 2),
	toggle("reset", "Reset"),
	toggle("human", "Human"),
	selector("wave", "Wave", lfoWaveLabels, 0x20),
	scaled("initial_level", "Initial Level", 0, 63, 2),
	scaled("delay", "Delay", 0, 63, 2),
	scaled("final_level", "Final Level", 0, 63, 2),
	modSource("mod_src", "Mod"),
}

var oscillatorTemplate = []field{
	scale("octave", "Octave", -3, 5),
	scale("semitone", "Semitone", 0, 11),
	scale("fine", "Fine", 0, 31),
	{name: "wave", label: "Wave", kind: Linear, min: 0, max: len(oscWaveLabels) - 1, labels: oscWaveLabels},
	modSource("mod1_src", "Mod 1"),
	centered("mod1_depth", "Mod 1 Depth"),
	modSource("mod2_src", "Mod 2"),
	centered("mod2_depth", "Mod 2 Depth"),
}

var dcaTemplate = []field{
	scale("level", "Level", 0, 63),
	toggle("output", "Output"),
	modSource("mod1_src", "Mod 1"),
	centered("mod1_depth", "Mod 1 Depth"),
	modSource("mod2_src", "Mod 2"),
	centered("mod2_depth", "Mod 2 Depth"),
}

var amplifierTemplate = []field{
	scaled("env4_depth", "Env 4 Depth", 0, 63, 2),
	scaled("pan", "Pan", 0, 15, 8),
	modSource("mod_src", "Pan Mod"),
	centered("mod_depth", "Pan Mod Depth"),
}

var filterTemplate = []field{
	scale("frequency", "Frequency", 0, 127),
	scaled("resonance", "Resonance", 0, 31, 4),
	scaled("keyboard_tracking", "Keyboard Tracking", 0, 63, 2),
	modSource("mod1_src", "Mod 1"),
	centered("mod1_depth", "Mod 1 Depth"),
	modSource("mod2_src", "Mod 2"),
	centered("mod2_depth", "Mod 2 Depth"),
}

var modesTemplate = []field{
	toggle("amplitude_modulation", "Amplitude Modulation"),
	scaled("glide", "Glide", 0, 63, 2),
	toggle("mono", "Mono"),
	toggle("sync", "Sync"),
	toggle("voice_restart", "Voice Restart"),
	toggle("envelope_restart", "Envelope Restart"),
	toggle("oscillator_restart", "Oscillator Restart"),
	toggle("envelope_full_cycle", "Envelope Full Cycle"),
}

// block places count copies of a template one after another. Groups
// with a single instance use count 1 and an unnumbered name.
type block struct {
	prefix   string
	title    string
	template []field
	count    int
}

// Layout of the parameter array, in index order.
var layout = []block{
	{"env", "Envelope", envelopeTemplate, 4},
	{"lfo", "LFO", lfoTemplate, 3},
	{"osc", "Oscillator", oscillatorTemplate, 3},
	{"dca", "DCA", dcaTemplate, 3},
	{"amp", "Amplifier", amplifierTemplate, 1},
	{"filter", "Filter", filterTemplate, 1},
	{"modes", "Modes", modesTemplate, 1},
}

// Names of the single-instance groups.
const (
	GroupAmplifier = "amp"
	GroupFilter    = "filter"
	GroupModes     = "modes"
)

var (
	descriptors []Descriptor
	byName      map[string]int
	groups      []string
)

func init() {
	descriptors = buildDescriptors()
	if modSourceLabels[ModSourceOff] != "Off" {
		panic("sq80: modulation source table out of order")
	}
	if len(descriptors) != ParameterCount {
		panic(fmt.Sprintf("sq80: parameter layout has %d entries, want %d", len(descriptors), ParameterCount))
	}
	byName = make(map[string]int, len(descriptors))
	for _, d := range descriptors {
		byName[d.Name] = d.Index
		if len(groups) == 0 || groups[len(groups)-1] != d.Group {
			groups = append(groups, d.Group)
		}
	}
}

func buildDescriptors() []Descriptor {
	var out []Descriptor
	index := 0
	for _, b := range layout {
		for n := 1; n <= b.count; n++ {
			group, title := b.prefix, b.title
			if b.count > 1 {
				group = fmt.Sprintf("%s%d", b.prefix, n)
				title = fmt.Sprintf("%s %d", b.title, n)
			}
			for _, f := range b.template {
				out = append(out, f.descriptor(index, group, title))
				index++
			}
		}
	}
	return out
}

func (f field) descriptor(index int, group, title string) Descriptor {
	d := Descriptor{
		Index:      index,
		Name:       group + "." + f.name,
		Group:      group,
		Label:      title + " " + f.label,
		Kind:       f.kind,
		Min:        f.min,
		Max:        f.max,
		Offset:     f.offset,
		Multiplier: f.multiplier,
		Labels:     f.labels,
	}
	if f.kind == Enumerated {
		d.Enumeration = make([]EnumEntry, len(f.enumLabels))
		for i, l := range f.enumLabels {
			d.Enumeration[i] = EnumEntry{Label: l, Parameter: uint8(index), Value: uint8(i) * f.enumStep}
		}
	}
	return d
}

// Descriptors returns the full table in index order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// DescriptorAt returns the descriptor for a parameter index.
func DescriptorAt(index int) (Descriptor, bool) {
	if index < 0 || index >= len(descriptors) {
		return Descriptor{}, false
	}
	return descriptors[index], true
}

// Lookup finds a descriptor by its dotted name, e.g. "osc2.mod1_src".
func Lookup(name string) (Descriptor, bool) {
	i, ok := byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return descriptors[i], true
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) Descriptor {
	d, ok := Lookup(name)
	if !ok {
		panic("sq80: unknown parameter " + name)
	}
	return d
}

// Groups returns the group names in index order.
func Groups() []string {
	out := make([]string, len(groups))
	copy(out, groups)
	return out
}

// GroupDescriptors returns the descriptors of one group, in index order.
func GroupDescriptors(group string) []Descriptor {
	var out []Descriptor
	for _, d := range descriptors {
		if d.Group == group {
			out = append(out, d)
		}
	}
	return out
}
