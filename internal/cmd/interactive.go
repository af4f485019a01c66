package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"example.com/x86-hal/hal"
	"example.com/x86-hal/internal/config"
	"example.com/x86-hal/internal/scancodes"
)

// Terminal control bytes seen in raw mode.
const (
	ctrlC = 0x03
	ctrlD = 0x04
	del   = 0x7f
)

// Interactive puts the terminal in raw mode and types every key pressed on
// the simulated keyboard. Lines the driver decodes are echoed back.
type Interactive struct{}

func (c *Interactive) Run(logger *slog.Logger, opts *config.Platform) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("interactive: stdin is not a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, state)

	p, err := hal.NewPlatform(opts.HalConfig(crlfWriter{os.Stdout}, logger))
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := signalContext()
	defer cancel()
	done := runPlatform(ctx, p)
	go func() {
		if err := pump(ctx, os.Stdin, p); err != nil {
			logger.Debug("Interactive: terminal input ended", "error", err)
		}
		cancel()
	}()

	p.Console().Println("kbdsim: typing on the simulated keyboard, Ctrl-D quits")
	err = echoLines(ctx, p.Console(), func(line string) error {
		return p.Console().Printf("driver read %q\n", line)
	})
	cancel()
	return errors.Join(err, <-done)
}

// pump turns raw terminal bytes into keystrokes until Ctrl-C, Ctrl-D or
// end of input. Bytes no key produces are skipped.
func pump(ctx context.Context, r io.Reader, p *hal.Platform) error {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			switch b {
			case ctrlC, ctrlD:
				return nil
			case '\r':
				b = '\n'
			case del:
				b = '\b'
			}
			codes, err := scancodes.ForChar(rune(b))
			if err != nil {
				continue
			}
			if err := p.Send(ctx, codes); err != nil {
				return err
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
