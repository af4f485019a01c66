//go:build linux

package scancodes

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	evdev "github.com/holoplot/go-evdev"
)

// EvdevSource reads key events from a Linux input device.
type EvdevSource struct {
	dev     *evdev.InputDevice
	path    string
	grabbed bool
	logger  *slog.Logger
	once    sync.Once
	err     error
}

// OpenEvdev opens the input device at path. With grab set, the device's
// events stop reaching the rest of the host while the source is open.
func OpenEvdev(path string, grab bool, logger *slog.Logger) (*EvdevSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scancodes: open %s: %w", path, err)
	}
	if grab {
		if err := dev.Grab(); err != nil {
			dev.Close()
			return nil, fmt.Errorf("scancodes: grab %s: %w", path, err)
		}
	}
	name, _ := dev.Name()
	logger.Debug("scancodes: input device opened", "path", path, "name", name, "grabbed", grab)
	return &EvdevSource{dev: dev, path: path, grabbed: grab, logger: logger}, nil
}

// Run forwards each key press and release to sink as a scancode until ctx is
// done or the device fails.
func (s *EvdevSource) Run(ctx context.Context, sink func(scancodes ...byte)) error {
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	for {
		ev, err := s.dev.ReadOne()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("scancodes: read %s: %w", s.path, err)
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		sc, ok := FromKeyEvent(uint16(ev.Code), ev.Value)
		if !ok {
			continue
		}
		s.logger.Debug("scancodes: key event",
			"code", uint16(ev.Code), "value", ev.Value, "scancode", fmt.Sprintf("0x%02x", sc))
		sink(sc)
	}
}

// Close releases the device. It is safe to call more than once.
func (s *EvdevSource) Close() error {
	s.once.Do(func() {
		if s.grabbed {
			s.dev.Ungrab()
		}
		s.err = s.dev.Close()
	})
	return s.err
}
