package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"example.com/x86-hal/hal"
	"example.com/x86-hal/internal/config"
	"example.com/x86-hal/internal/scancodes"
)

// Replay runs a typing script and compares the decoded text with the
// script's expectation, when it has one.
type Replay struct {
	Script string `arg:"" type:"existingfile" help:"Script file (.toml, .yaml, .yml)"`
	Quiet  bool   `help:"Do not print the decoded text"`
}

func (c *Replay) Run(logger *slog.Logger, opts *config.Platform) error {
	s, err := scancodes.LoadScript(c.Script)
	if err != nil {
		return err
	}
	codes, err := s.Codes()
	if err != nil {
		return fmt.Errorf("%s: %w", c.Script, err)
	}

	p, err := hal.NewPlatform(opts.HalConfig(os.Stdout, logger))
	if err != nil {
		return err
	}
	defer p.Close()

	text, err := feed(p, codes)
	if err != nil {
		return err
	}
	if !c.Quiet {
		if err := printText(p.Console(), text); err != nil {
			return err
		}
	}
	if s.Expect != "" && s.Expect != string(text) {
		return fmt.Errorf("replay %s: decoded %q, want %q", s.Name, text, s.Expect)
	}
	logger.Info("Replay: script done", "name", s.Name, "steps", len(s.Steps), "scancodes", len(codes))
	return nil
}
