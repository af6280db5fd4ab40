package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"gopkg.in/yaml.v3"

	"sq80edit/sq80"
)

const usage = `usage: sq80edit <command> [arguments]

commands:
  ports                         list MIDI outputs
  config                        print the effective configuration
  new <file> <name> [type]      create a patch file with default values
  show <file>                   print a patch as JSON
  set <file> <param> <value>    change one parameter, send it and save
  randomize <file> <group>      randomize one group, send it and save
  send <file>                   send every parameter of a patch
  play [notes|test|chord]       select the configured program and play
  mcp                           serve the MCP tools on stdio`

func main() {
	if len(os.Args) < 2 {
		log.Println(usage)
		log.Println("exiting: no command specified")
		return
	}

	cfgPath, err := ConfigPath()
	if err != nil {
		log.Fatalf("could not locate config: %v", err)
	}
	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "ports":
		log.Println("Available MIDI outputs:")
		for i, name := range OutPortNames() {
			fmt.Printf("%d: %s\n", i, name)
		}
	case "config":
		out, err := yaml.Marshal(cfg)
		if err != nil {
			log.Fatalf("failed to marshal config: %v", err)
		}
		fmt.Printf("# %s\n%s", cfgPath, out)
	case "new":
		need(args, 2)
		newPatchFile(args)
	case "show":
		need(args, 1)
		showPatch(args[0])
	case "set":
		need(args, 3)
		setParameter(cfg, args[0], args[1], args[2])
	case "randomize":
		need(args, 2)
		randomizeGroup(cfg, args[0], args[1])
	case "send":
		need(args, 1)
		sendPatch(cfg, args[0])
	case "play":
		play(cfg, strings.Join(args, " "))
	case "mcp":
		g, closer := openOptional(cfg)
		defer closer()
		runMCP(NewEditor(g, cfg.Channel), cfg)
	default:
		log.Fatalf("unknown command %q\n%s", os.Args[1], usage)
	}
}

func need(args []string, n int) {
	if len(args) < n {
		log.Fatalf("missing arguments\n%s", usage)
	}
}

// openOptional opens the configured port, falling back to an offline
// gateway so edits are still stored.
func openOptional(cfg Config) (*Gateway, func()) {
	g, closer, err := OpenDevice(cfg.Port)
	if err != nil {
		log.Printf("working offline: %v", err)
		return &Gateway{}, func() {}
	}
	return g, closer
}

func openRequired(cfg Config) (*Gateway, func()) {
	g, closer, err := OpenDevice(cfg.Port)
	if err != nil {
		log.Fatalf("could not open SQ-80 output %q: %v", cfg.Port, err)
	}
	return g, closer
}

func newPatchFile(args []string) {
	typ := ""
	if len(args) > 2 {
		typ = args[2]
	}
	p, err := sq80.New(args[1], typ)
	if err != nil {
		log.Fatalf("failed to create patch: %v", err)
	}
	if err := sq80.WriteFile(args[0], p); err != nil {
		log.Fatalf("failed to write patch: %v", err)
	}
}

func showPatch(path string) {
	p, err := sq80.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read patch: %v", err)
	}

	asJson, err := json.MarshalIndent(p.Snapshot(), "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal patch to JSON: %v", err)
	}
	fmt.Println(string(asJson))
}

func setParameter(cfg Config, path, name, value string) {
	v, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("invalid value %q: %v", value, err)
	}

	g, closer := openOptional(cfg)
	defer closer()

	ed := NewEditor(g, cfg.Channel)
	if _, err := ed.Open(path); err != nil {
		log.Fatalf("failed to open patch: %v", err)
	}
	if _, err := ed.SetParameter(name, v); err != nil {
		if !errors.Is(err, ErrNotOpen) {
			log.Fatalf("failed to set parameter: %v", err)
		}
		log.Println(err)
	}
	if _, err := ed.Save(""); err != nil {
		log.Fatalf("failed to save patch: %v", err)
	}
}

func randomizeGroup(cfg Config, path, group string) {
	g, closer := openOptional(cfg)
	defer closer()

	ed := NewEditor(g, cfg.Channel)
	if _, err := ed.Open(path); err != nil {
		log.Fatalf("failed to open patch: %v", err)
	}
	if _, err := ed.Randomize(group, nil); err != nil {
		if !errors.Is(err, ErrNotOpen) {
			log.Fatalf("failed to randomize %s: %v", group, err)
		}
		log.Println(err)
	}
	if _, err := ed.Save(""); err != nil {
		log.Fatalf("failed to save patch: %v", err)
	}
}

func sendPatch(cfg Config, path string) {
	g, closer := openRequired(cfg)
	defer closer()

	ed := NewEditor(g, cfg.Channel)
	if _, err := ed.Open(path); err != nil {
		log.Fatalf("failed to open patch: %v", err)
	}
	if err := ed.SendPatch(); err != nil {
		log.Fatalf("failed to send patch: %v", err)
	}
	log.Printf("Sent %q on channel %d", ed.Active().Name, cfg.Channel)
}

func play(cfg Config, notes string) {
	g, closer := openRequired(cfg)
	defer closer()

	ed := NewEditor(g, cfg.Channel)
	program := ProgramNumber(cfg.Bank, cfg.Program)

	var err error
	if notes == "" {
		note, _, _ := parseNoteToken(cfg.Note)
		if err := ed.Play(program, note, uint8(cfg.Velocity), time.Second); err != nil {
			log.Fatalf("failed to play test note: %v", err)
		}
		return
	}

	if err := g.ProgramChange(ed.Channel(), program); err != nil {
		log.Fatalf("program change failed: %v", err)
	}

	pl := newPlayer(g, ed.Channel(), uint8(cfg.Velocity))
	switch notes {
	case "test":
		err = pl.playTestNotes()
	case "chord":
		root, _, _ := parseNoteToken(cfg.Note)
		var chord []uint8
		if chord, err = minor7(root); err == nil {
			err = pl.playChord(chord, 2*time.Second)
		}
	default:
		err = pl.playNotesFromText(notes)
	}
	if err != nil {
		log.Fatalf("failed to play: %v", err)
	}
}
