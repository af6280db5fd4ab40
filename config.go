package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configEnv = "SQ80_CONFIG"

// Config holds the device settings shared by every command.
type Config struct {
	Port     string `yaml:"port"`
	Channel  int    `yaml:"channel"`
	Bank     int    `yaml:"bank"`
	Program  int    `yaml:"program"`
	Note     string `yaml:"note"`
	Velocity int    `yaml:"velocity"`
}

func DefaultConfig() Config {
	return Config{
		Port:     "sq-80",
		Channel:  1,
		Bank:     0,
		Program:  1,
		Note:     "C4",
		Velocity: 100,
	}
}

// ConfigPath returns $SQ80_CONFIG, or ~/.config/sq80edit/config.yaml.
func ConfigPath() (string, error) {
	if p := os.Getenv(configEnv); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sq80edit", "config.yaml"), nil
}

// LoadConfig reads path on top of the defaults. A missing file is not
// an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c Config) Validate() error {
	if c.Channel < 1 || c.Channel > 16 {
		return fmt.Errorf("channel must be in range 1–16, got %d", c.Channel)
	}
	if c.Bank < 0 || c.Bank > 2 {
		return fmt.Errorf("bank must be in range 0–2, got %d", c.Bank)
	}
	if c.Program < 1 || c.Program > 40 {
		return fmt.Errorf("program must be in range 1–40, got %d", c.Program)
	}
	if c.Velocity < 0 || c.Velocity > 127 {
		return fmt.Errorf("velocity must be in range 0–127, got %d", c.Velocity)
	}
	if _, rest, err := parseNoteToken(c.Note); err != nil || rest {
		return fmt.Errorf("invalid test note %q", c.Note)
	}
	return nil
}

// ProgramNumber converts bank and 1-based program to the device's
// program change value.
func ProgramNumber(bank, program int) uint8 {
	return uint8(bank*40 + program - 1)
}
