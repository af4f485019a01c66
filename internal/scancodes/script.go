package scancodes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// Script is a recorded typing session: steps replayed in order, and the text
// the driver is expected to decode from them.
type Script struct {
	Name   string `toml:"name" yaml:"name"`
	Expect string `toml:"expect" yaml:"expect"`
	Steps  []Step `toml:"steps" yaml:"steps"`
}

// Step is one of: text to type, a key sequence (see ForSequence), or raw
// scancodes.
type Step struct {
	Text      string `toml:"text" yaml:"text"`
	Keys      string `toml:"keys" yaml:"keys"`
	Scancodes []int  `toml:"scancodes" yaml:"scancodes"`
}

// Codes returns the scancodes of the step.
func (s Step) Codes() ([]byte, error) {
	set := 0
	for _, present := range []bool{s.Text != "", s.Keys != "", len(s.Scancodes) > 0} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("scancodes: step needs exactly one of text, keys, scancodes")
	}

	switch {
	case s.Text != "":
		return ForString(s.Text)
	case s.Keys != "":
		return ForSequence(s.Keys)
	}
	codes := make([]byte, len(s.Scancodes))
	for i, v := range s.Scancodes {
		if v < 0 || v > 0xff {
			return nil, fmt.Errorf("scancodes: value %d out of byte range", v)
		}
		codes[i] = byte(v)
	}
	return codes, nil
}

// Codes returns the scancodes of all steps in order.
func (s *Script) Codes() ([]byte, error) {
	var codes []byte
	for i, step := range s.Steps {
		c, err := step.Codes()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		codes = append(codes, c...)
	}
	return codes, nil
}

// ParseScript decodes a script in format "toml" or "yaml".
func ParseScript(data []byte, format string) (*Script, error) {
	var s Script
	var err error
	switch format {
	case "toml":
		err = toml.Unmarshal(data, &s)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &s)
	default:
		return nil, fmt.Errorf("scancodes: unsupported script format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("scancodes: parse %s script: %w", format, err)
	}
	if len(s.Steps) == 0 {
		return nil, errors.New("scancodes: script has no steps")
	}
	return &s, nil
}

// LoadScript reads a script file, choosing the format by extension.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseScript(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}
