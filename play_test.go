package main

import (
	"testing"
	"time"
)

func TestParseNoteToken(t *testing.T) {
	tests := []struct {
		tok    string
		note   uint8
		isRest bool
		ok     bool
	}{
		{"C4", 60, false, true},
		{"c4", 60, false, true},
		{"A4", 69, false, true},
		{"F#3", 54, false, true},
		{"Bb2", 46, false, true},
		{"C-1", 0, false, true},
		{"G9", 127, false, true},
		{"r", 0, true, true},
		{"REST", 0, true, true},
		{"H4", 0, false, false},
		{"C", 0, false, false},
		{"C#", 0, false, false},
		{"Cx", 0, false, false},
		{"G#9", 0, false, false},
		{"", 0, false, false},
	}

	for _, tt := range tests {
		n, isRest, err := parseNoteToken(tt.tok)
		if (err == nil) != tt.ok {
			t.Errorf("%q: unexpected error state %v", tt.tok, err)
			continue
		}
		if !tt.ok {
			continue
		}
		if n != tt.note || isRest != tt.isRest {
			t.Errorf("%q: expected %d/%v, got %d/%v", tt.tok, tt.note, tt.isRest, n, isRest)
		}
	}
}

func TestPlayNotesFromText(t *testing.T) {
	g := &Gateway{}
	out := newFakeOutput("SQ-80")
	if err := g.Open(out); err != nil {
		t.Fatal(err)
	}

	var slept time.Duration
	p := newPlayer(g, 0, 80)
	p.sleep = func(d time.Duration) { slept += d }

	if err := p.playNotesFromText("C4, E4 | r ; G4"); err != nil {
		t.Fatalf("failed to play: %v", err)
	}
	if len(out.sent) != 6 {
		t.Errorf("expected 6 messages, got %d", len(out.sent))
	}
	if out.sent[0][1] != 60 || out.sent[0][2] != 80 {
		t.Errorf("unexpected first note: % X", out.sent[0])
	}
	if want := 3*(p.note+p.gap) + p.rest; slept != want {
		t.Errorf("expected %v of sleep, got %v", want, slept)
	}

	if err := p.playNotesFromText(" , "); err == nil {
		t.Error("expected error for empty phrase")
	}
	if err := p.playNotesFromText("C4 X9"); err == nil {
		t.Error("expected error for bad note")
	}
}

func TestPlayChord(t *testing.T) {
	g := &Gateway{}
	out := newFakeOutput("SQ-80")
	if err := g.Open(out); err != nil {
		t.Fatal(err)
	}
	p := newPlayer(g, 0, 100)
	p.sleep = func(time.Duration) {}

	chord, err := minor7(60)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.playChord(chord, time.Second); err != nil {
		t.Fatal(err)
	}
	if len(out.sent) != 8 {
		t.Fatalf("expected 8 messages, got %d", len(out.sent))
	}
	for i, n := range []byte{60, 63, 67, 70} {
		if out.sent[i][0] != 0x90 || out.sent[i][1] != n {
			t.Errorf("note on %d: got % X", i, out.sent[i])
		}
		if out.sent[i+4][0] != 0x80 || out.sent[i+4][1] != n {
			t.Errorf("note off %d: got % X", i, out.sent[i+4])
		}
	}

	if err := p.playTestNotes(); err != nil {
		t.Fatal(err)
	}
	if len(out.sent) != 14 {
		t.Errorf("expected 14 messages, got %d", len(out.sent))
	}
}

func TestMinor7Range(t *testing.T) {
	chord, err := minor7(117)
	if err != nil {
		t.Fatalf("expected chord on 117, got %v", err)
	}
	if chord[3] != 127 {
		t.Errorf("expected top note 127, got %d", chord[3])
	}

	// G9 parses to 127 and has no room for a seventh above it
	root, _, err := parseNoteToken("G9")
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []uint8{118, root} {
		if _, err := minor7(n); err == nil {
			t.Errorf("expected error for root %d", n)
		}
	}
}
