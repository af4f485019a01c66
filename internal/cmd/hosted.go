package cmd

import (
	"errors"
	"log/slog"

	"example.com/x86-hal/hal"
	"example.com/x86-hal/hal/portio"
	"example.com/x86-hal/internal/config"
)

// Hosted runs the driver on the machine's own 8042 through /dev/port. It
// needs root, and the host kernel's keyboard driver competes for the same
// bytes.
type Hosted struct {
	Device string `help:"Port device" default:"/dev/port" env:"KBDSIM_DEVPORT"`
}

func (c *Hosted) Run(logger *slog.Logger, opts *config.Platform) error {
	if c.Device == "" {
		c.Device = portio.DefaultDevPortPath
	}
	p, err := hal.NewHostedPlatform(opts.HalConfig(nil, logger), c.Device)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := signalContext()
	defer cancel()
	done := runPlatform(ctx, p)

	logger.Info("Hosted: polling keyboard controller", "device", c.Device)
	err = echoLines(ctx, p.Console(), func(line string) error {
		logger.Info("Hosted: line", "text", line)
		return nil
	})
	cancel()
	return errors.Join(err, <-done)
}
