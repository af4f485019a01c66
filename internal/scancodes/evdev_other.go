//go:build !linux

package scancodes

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoEvdev is returned where Linux input devices do not exist.
var ErrNoEvdev = errors.New("scancodes: evdev needs Linux")

// EvdevSource is unavailable on this platform.
type EvdevSource struct{}

func OpenEvdev(path string, grab bool, logger *slog.Logger) (*EvdevSource, error) {
	return nil, ErrNoEvdev
}

func (s *EvdevSource) Run(ctx context.Context, sink func(scancodes ...byte)) error {
	return ErrNoEvdev
}

func (s *EvdevSource) Close() error { return nil }
