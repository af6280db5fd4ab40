package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gitlab.com/gomidi/midi/v2"
)

// player sounds short phrases on the gateway for auditioning a patch.
type player struct {
	g        *Gateway
	channel  uint8
	velocity uint8
	note     time.Duration
	gap      time.Duration
	rest     time.Duration
	sleep    func(time.Duration)
}

func newPlayer(g *Gateway, channel, velocity uint8) *player {
	return &player{
		g:        g,
		channel:  channel,
		velocity: velocity,
		note:     300 * time.Millisecond,
		gap:      60 * time.Millisecond,
		rest:     360 * time.Millisecond,
		sleep:    time.Sleep,
	}
}

func (p *player) playTestNotes() error {
	return p.playNotes([]uint8{midi.C(4), midi.E(4), midi.G(4)})
}

func (p *player) playNotes(notes []uint8) error {
	for _, n := range notes {
		if err := p.strike(n); err != nil {
			return err
		}
	}
	return nil
}

func (p *player) strike(n uint8) error {
	if err := p.g.NoteOn(p.channel, n, p.velocity); err != nil {
		return fmt.Errorf("note on failed for %d: %w", n, err)
	}
	p.sleep(p.note)
	if err := p.g.NoteOff(p.channel, n); err != nil {
		return fmt.Errorf("note off failed for %d: %w", n, err)
	}
	p.sleep(p.gap)
	return nil
}

// playChord holds all notes together for d.
func (p *player) playChord(notes []uint8, d time.Duration) error {
	for _, n := range notes {
		if err := p.g.NoteOn(p.channel, n, p.velocity); err != nil {
			return fmt.Errorf("note on failed for %d: %w", n, err)
		}
	}

	p.sleep(d)

	for _, n := range notes {
		if err := p.g.NoteOff(p.channel, n); err != nil {
			return fmt.Errorf("note off failed for %d: %w", n, err)
		}
	}
	return nil
}

// minor7 builds a minor seventh chord; the seventh must stay a valid
// MIDI note.
func minor7(root uint8) ([]uint8, error) {
	if root > 127-10 {
		return nil, fmt.Errorf("no minor seventh chord on note %d: top note %d is out of range", root, int(root)+10)
	}
	return []uint8{root, root + 3, root + 7, root + 10}, nil
}

func (p *player) playNotesFromText(notesText string) error {
	tokens := strings.FieldsFunc(notesText, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == '|'
	})
	if len(tokens) == 0 {
		return fmt.Errorf("no notes provided")
	}

	for _, tok := range tokens {
		n, isRest, err := parseNoteToken(tok)
		if err != nil {
			return fmt.Errorf("invalid note %q: %w", tok, err)
		}

		if isRest {
			p.sleep(p.rest)
			continue
		}
		if err := p.strike(n); err != nil {
			return err
		}
	}

	return nil
}

// parseNoteToken reads names like C4, F#3 or Bb2, with C4 = 60. "r"
// and "rest" are rests.
func parseNoteToken(tok string) (uint8, bool, error) {
	t := strings.TrimSpace(tok)
	if t == "" {
		return 0, false, fmt.Errorf("empty token")
	}

	if strings.EqualFold(t, "r") || strings.EqualFold(t, "rest") {
		return 0, true, nil
	}

	if len(t) < 2 {
		return 0, false, fmt.Errorf("too short")
	}

	base := strings.ToUpper(string(t[0]))
	accidental := 0
	rest := t[1:]

	switch rest[0] {
	case '#':
		accidental = 1
		rest = rest[1:]
	case 'b':
		accidental = -1
		rest = rest[1:]
	}

	if rest == "" {
		return 0, false, fmt.Errorf("missing octave")
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false, fmt.Errorf("invalid octave: %w", err)
	}

	semitone, ok := map[string]int{"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11}[base]
	if !ok {
		return 0, false, fmt.Errorf("invalid note letter %q", base)
	}

	n := 12*(octave+1) + semitone + accidental
	if n < 0 || n > 127 {
		return 0, false, fmt.Errorf("MIDI note out of range: %d", n)
	}

	return uint8(n), false, nil
}
