package cmd

import (
	"log/slog"
	"os"

	"example.com/x86-hal/hal"
	"example.com/x86-hal/hal/console"
	"example.com/x86-hal/internal/config"
	"example.com/x86-hal/internal/scancodes"
)

// Type types its argument on the simulated keyboard. The driver's output is
// printed through the console, so it reaches stdout over COM1.
type Type struct {
	Text string `arg:"" help:"Text to type"`
	Keys bool   `help:"Read the argument as key chords, e.g. \"LShift+A CapsLock B\""`
}

func (c *Type) Run(logger *slog.Logger, opts *config.Platform) error {
	var codes []byte
	var err error
	if c.Keys {
		codes, err = scancodes.ForSequence(c.Text)
	} else {
		codes, err = scancodes.ForString(c.Text)
	}
	if err != nil {
		return err
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
	logger.Debug("Type: keyboard fed",
		"scancodes", len(codes), "decoded", len(text), "interrupts", p.CPU().Handled())
	return printText(p.Console(), text)
}

// feed types codes and collects what the driver decoded.
func feed(p *hal.Platform, codes []byte) ([]byte, error) {
	var text []byte
	err := p.Feed(codes, func(b byte) { text = append(text, b) })
	return text, err
}

// printText writes text to the console, ending with a newline.
func printText(c *console.Console, text []byte) error {
	if _, err := c.Write(text); err != nil {
		return err
	}
	if n := len(text); n == 0 || text[n-1] != '\n' {
		return c.Println()
	}
	return nil
}
