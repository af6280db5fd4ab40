package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"sq80edit/sq80"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var (
	ErrAlreadyOpen = errors.New("output port already open")
	ErrNotOpen     = errors.New("no output port open")
)

// Output is the part of drivers.Out the gateway needs.
type Output interface {
	Open() error
	Close() error
	IsOpen() bool
	Send(data []byte) error
	String() string
}

// Gateway owns the one output port messages go to.
type Gateway struct {
	mu  sync.Mutex
	out Output
}

// Open makes out the active port. An already open port is kept.
func (g *Gateway) Open(out Output) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.out != nil {
		log.Printf("cannot open %s: %s is already open", out, g.out)
		return ErrAlreadyOpen
	}
	if !out.IsOpen() {
		if err := out.Open(); err != nil {
			log.Printf("failed to open %s: %v", out, err)
			return fmt.Errorf("open %s: %w", out, err)
		}
	}
	g.out = out
	log.Println("Opened MIDI output port", out.String())
	return nil
}

func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.out == nil {
		return ErrNotOpen
	}
	out := g.out
	g.out = nil
	if err := out.Close(); err != nil {
		log.Printf("failed to close %s: %v", out, err)
		return err
	}
	return nil
}

func (g *Gateway) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.out != nil
}

// Port names the open port, or returns "".
func (g *Gateway) Port() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.out == nil {
		return ""
	}
	return g.out.String()
}

// Write sends msgs in order and stops at the first failure.
func (g *Gateway) Write(msgs ...sq80.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.out == nil {
		return ErrNotOpen
	}
	for _, m := range msgs {
		if err := g.out.Send(m.MIDI().Bytes()); err != nil {
			log.Printf("failed to send %s to %s: %v", m, g.out, err)
			return fmt.Errorf("send %s: %w", m, err)
		}
	}
	return nil
}

// SendEdit forwards one parameter change as its NRPN sequence.
func (g *Gateway) SendEdit(e sq80.Edit) error {
	return g.Write(e.Messages()...)
}

// NoteOn, NoteOff and ProgramChange take a 0-based channel.
func (g *Gateway) NoteOn(channel, note, velocity uint8) error {
	return g.Write(sq80.NoteOn(channel, note, velocity))
}

func (g *Gateway) NoteOff(channel, note uint8) error {
	return g.Write(sq80.NoteOff(channel, note, 0))
}

func (g *Gateway) ProgramChange(channel, program uint8) error {
	return g.Write(sq80.ProgramChange(channel, program))
}

// OutPortNames lists the outputs the MIDI driver reports.
func OutPortNames() []string {
	var names []string
	for _, out := range midi.GetOutPorts() {
		names = append(names, out.String())
	}
	return names
}

// findOutPort returns the first output whose name contains nameFragment.
func findOutPort(nameFragment string) (drivers.Out, error) {
	outs, err := drivers.Outs()
	if err != nil {
		return nil, err
	}
	if len(outs) == 0 {
		return nil, fmt.Errorf("no MIDI outputs available")
	}

	lower := strings.ToLower(nameFragment)
	for _, out := range outs {
		if strings.Contains(strings.ToLower(out.String()), lower) {
			return out, nil
		}
	}

	return nil, fmt.Errorf("no MIDI output contains %q", nameFragment)
}

// OpenDevice opens the port matching hint on a new gateway. The closer
// releases the port and the driver.
func OpenDevice(hint string) (*Gateway, func(), error) {
	out, err := findOutPort(hint)
	if err != nil {
		return nil, nil, err
	}

	g := &Gateway{}
	if err := g.Open(out); err != nil {
		return nil, nil, err
	}

	closer := func() {
		if err := g.Close(); err != nil && !errors.Is(err, ErrNotOpen) {
			log.Printf("closing output: %v", err)
		}
		drivers.Close()
	}
	return g, closer, nil
}
