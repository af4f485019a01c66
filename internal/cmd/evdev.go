package cmd

import (
	"errors"
	"log/slog"
	"os"

	"example.com/x86-hal/hal"
	"example.com/x86-hal/internal/config"
	"example.com/x86-hal/internal/scancodes"
)

// Evdev forwards a Linux keyboard's key events to the simulated keyboard and
// prints the lines the driver decodes.
type Evdev struct {
	Device string `arg:"" type:"existingfile" help:"Input device, e.g. /dev/input/event3"`
	Grab   bool   `help:"Take the device exclusively while running"`
}

func (c *Evdev) Run(logger *slog.Logger, opts *config.Platform) error {
	src, err := scancodes.OpenEvdev(c.Device, c.Grab, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	p, err := hal.NewPlatform(opts.HalConfig(os.Stdout, logger))
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := signalContext()
	defer cancel()
	done := runPlatform(ctx, p)
	srcErr := make(chan error, 1)
	go func() {
		srcErr <- src.Run(ctx, func(codes ...byte) {
			if err := p.Send(ctx, codes); err != nil {
				logger.Debug("Evdev: scancode not sent", "error", err)
			}
		})
		cancel()
	}()

	logger.Info("Evdev: forwarding key events", "device", c.Device, "grab", c.Grab)
	err = echoLines(ctx, p.Console(), func(line string) error {
		logger.Info("Evdev: line", "text", line)
		return nil
	})
	cancel()
	return errors.Join(err, <-srcErr, <-done)
}
