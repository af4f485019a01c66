// Package cmd holds the kbdsim commands. Kong calls each command's Run with
// the logger and platform options bound in main.
package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"example.com/x86-hal/hal"
	"example.com/x86-hal/hal/console"
	"example.com/x86-hal/internal/config"
)

// CLI is the kbdsim command line.
type CLI struct {
	Config   string          `help:"Configuration file (json, yaml or toml)" type:"path" env:"KBDSIM_CONFIG"`
	Log      config.Log      `embed:"" prefix:"log."`
	Platform config.Platform `embed:"" prefix:"platform."`

	Type        Type        `cmd:"" help:"Type text on the simulated keyboard and print what the driver decodes"`
	Replay      Replay      `cmd:"" help:"Replay a TOML or YAML typing script and check the decoded text"`
	Interactive Interactive `cmd:"" help:"Type on the simulated keyboard from this terminal"`
	Evdev       Evdev       `cmd:"" help:"Feed a Linux input device into the simulated keyboard"`
	Hosted      Hosted      `cmd:"" help:"Run the driver against real ports through /dev/port"`
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runPlatform starts the CPU loop in the background. The returned channel
// yields its result once ctx is done.
func runPlatform(ctx context.Context, p *hal.Platform) <-chan error {
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return done
}

// echoLines reads lines from the console until ctx is done and reports each
// one through report.
func echoLines(ctx context.Context, c *console.Console, report func(line string) error) error {
	for {
		line, err := c.ReadLine(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, console.ErrClosed) {
				return nil
			}
			return err
		}
		if err := report(line); err != nil {
			return err
		}
	}
}

// crlfWriter turns "\n" into "\r\n" for a terminal in raw mode.
type crlfWriter struct{ w io.Writer }

func (c crlfWriter) Write(p []byte) (int, error) {
	for i, b := range p {
		var err error
		if b == '\n' {
			_, err = c.w.Write([]byte{'\r', '\n'})
		} else {
			_, err = c.w.Write(p[i : i+1])
		}
		if err != nil {
			return i, err
		}
	}
	return len(p), nil
}
