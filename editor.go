package main

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"sq80edit/sq80"
)

var (
	ErrNoActivePatch = errors.New("no active patch")
	ErrNoOrigin      = errors.New("patch has never been saved; a path is required")
)

// Editor is one editing session: the open patches, the one being edited
// and the device edits are mirrored to.
type Editor struct {
	mu       sync.Mutex
	registry *sq80.Registry
	active   *sq80.Patch
	gateway  *Gateway
	channel  uint8
	sleep    func(time.Duration)
}

// NewEditor creates a session sending on a 1-based MIDI channel. A nil
// gateway gives an offline editor.
func NewEditor(g *Gateway, channel int) *Editor {
	if g == nil {
		g = &Gateway{}
	}
	return &Editor{
		registry: sq80.NewRegistry(),
		gateway:  g,
		channel:  uint8(channel - 1),
		sleep:    time.Sleep,
	}
}

func (e *Editor) NewPatch(name, typ string) (*sq80.Patch, error) {
	p, err := sq80.New(name, typ)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = e.registry.Insert(p)
	return e.active, nil
}

// Open loads path. If the file is already open its entry is selected
// instead.
func (e *Editor) Open(path string) (*sq80.Patch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p := e.registry.FindOrigin(path); p != nil {
		e.active = p
		return p, nil
	}

	p, err := sq80.ReadFile(path)
	if err != nil {
		return nil, err
	}
	e.active = e.registry.Insert(p)
	log.Printf("Opened %q from %s", p.Name, path)
	return e.active, nil
}

// Save writes the active patch to path, or to its origin when path is
// empty, and returns the path written.
func (e *Editor) Save(path string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.active
	if p == nil {
		return "", ErrNoActivePatch
	}
	if path == "" {
		path = p.Origin
	}
	if path == "" {
		return "", ErrNoOrigin
	}
	if other := e.registry.FindOrigin(path); other != nil && other != p {
		return "", fmt.Errorf("%s is open as %q", path, other.Name)
	}

	if err := sq80.WriteFile(path, p); err != nil {
		return "", err
	}
	p.Origin = path
	log.Printf("Saved %q to %s", p.Name, path)
	return path, nil
}

// Close drops the named patch. Closing the active patch leaves none
// selected.
func (e *Editor) Close(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.registry.Find(name)
	if p == nil {
		return fmt.Errorf("no open patch named %q", name)
	}
	if p == e.active {
		e.active = nil
	}
	e.registry.Close(p)
	return nil
}

func (e *Editor) Select(name string) (*sq80.Patch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.registry.Find(name)
	if p == nil {
		return nil, fmt.Errorf("no open patch named %q", name)
	}
	e.active = p
	return p, nil
}

func (e *Editor) Active() *sq80.Patch {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

func (e *Editor) Patches() []*sq80.Patch {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Patches()
}

// Rename changes the active patch's name and type and keeps the
// registry ordered.
func (e *Editor) Rename(name, typ string) error {
	if name == "" {
		return sq80.ErrEmptyName
	}
	if err := sq80.CheckText(name); err != nil {
		return err
	}
	if err := sq80.CheckText(typ); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return ErrNoActivePatch
	}
	e.active.Name = name
	e.active.Type = typ
	e.registry.Reorder(e.active)
	return nil
}

// SetParameter validates v against the named parameter, stores it in
// the active patch and forwards it to the device. The stored value is
// kept when sending fails.
func (e *Editor) SetParameter(name string, v int) (sq80.Edit, error) {
	d, ok := sq80.Lookup(name)
	if !ok {
		return sq80.Edit{}, fmt.Errorf("unknown parameter %q", name)
	}
	if !d.InRange(v) {
		return sq80.Edit{}, fmt.Errorf("%s must be in range %d–%d, got %d", name, d.Min, d.Max, v)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return sq80.Edit{}, ErrNoActivePatch
	}
	edit := sq80.Apply(e.active, d, v)

	if err := e.gateway.SendEdit(edit); err != nil {
		return edit, fmt.Errorf("%s stored but not sent: %w", name, err)
	}
	return edit, nil
}

// Randomize rolls every parameter of group in the active patch and
// sends the result.
func (e *Editor) Randomize(group string, rng *rand.Rand) ([]sq80.Edit, error) {
	if len(sq80.GroupDescriptors(group)) == 0 {
		return nil, fmt.Errorf("unknown group %q", group)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return nil, ErrNoActivePatch
	}
	edits := sq80.Randomize(e.active, group, rng)
	return edits, e.sendEdits(edits)
}

// SendPatch emits every parameter of the active patch.
func (e *Editor) SendPatch() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return ErrNoActivePatch
	}
	edits, err := sq80.PatchEdits(e.active)
	if err != nil {
		return err
	}
	return e.sendEdits(edits)
}

func (e *Editor) sendEdits(edits []sq80.Edit) error {
	for _, edit := range edits {
		if err := e.gateway.SendEdit(edit); err != nil {
			return err
		}
	}
	return nil
}

// Play selects program and sounds one note for d.
func (e *Editor) Play(program, note, velocity uint8, d time.Duration) error {
	if err := e.gateway.ProgramChange(e.channel, program); err != nil {
		return fmt.Errorf("program change failed: %w", err)
	}
	if err := e.gateway.NoteOn(e.channel, note, velocity); err != nil {
		return fmt.Errorf("note on failed for %d: %w", note, err)
	}
	e.sleep(d)
	if err := e.gateway.NoteOff(e.channel, note); err != nil {
		return fmt.Errorf("note off failed for %d: %w", note, err)
	}
	return nil
}

func (e *Editor) Gateway() *Gateway {
	return e.gateway
}

func (e *Editor) Channel() uint8 {
	return e.channel
}
