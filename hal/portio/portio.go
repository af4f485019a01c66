// Package portio provides byte-wide access to x86 I/O ports through a Bus.
//
// A Bus is anything that can service an IN or OUT instruction: the simulated
// IOBus in hal/devices, or DevPort, which forwards to the host's /dev/port.
package portio

import (
	"errors"
	"fmt"
)

// I/O directions, matching the KVM_EXIT_IO_IN/OUT encoding.
const (
	DirIn  uint8 = 0 // read from device
	DirOut uint8 = 1 // write to device
)

var (
	// ErrUnhandledPort is returned by a Bus when no device decodes the port.
	ErrUnhandledPort = errors.New("portio: unhandled port")
	// ErrUnsupported is returned when the host cannot provide port access.
	ErrUnsupported = errors.New("portio: port access not supported on this host")
)

// Bus services port I/O. For DirIn the callee fills data[:size], for DirOut
// it consumes data[:size].
type Bus interface {
	HandleIO(port uint16, direction uint8, size uint8, data []byte) error
}

// ReadOnly is a byte port that only supports IN.
type ReadOnly struct {
	bus  Bus
	addr uint16
	buf  [1]byte
}

// NewReadOnly returns a read-only port at addr on bus.
func NewReadOnly(bus Bus, addr uint16) *ReadOnly {
	return &ReadOnly{bus: bus, addr: addr}
}

// Addr returns the port number.
func (p *ReadOnly) Addr() uint16 { return p.addr }

// Read performs a one-byte IN.
func (p *ReadOnly) Read() (byte, error) {
	if err := p.bus.HandleIO(p.addr, DirIn, 1, p.buf[:]); err != nil {
		return 0, fmt.Errorf("in 0x%02x: %w", p.addr, err)
	}
	return p.buf[0], nil
}

// WriteOnly is a byte port that only supports OUT.
type WriteOnly struct {
	bus  Bus
	addr uint16
	buf  [1]byte
}

// NewWriteOnly returns a write-only port at addr on bus.
func NewWriteOnly(bus Bus, addr uint16) *WriteOnly {
	return &WriteOnly{bus: bus, addr: addr}
}

// Addr returns the port number.
func (p *WriteOnly) Addr() uint16 { return p.addr }

// Write performs a one-byte OUT.
func (p *WriteOnly) Write(v byte) error {
	p.buf[0] = v
	if err := p.bus.HandleIO(p.addr, DirOut, 1, p.buf[:]); err != nil {
		return fmt.Errorf("out 0x%02x: %w", p.addr, err)
	}
	return nil
}

// ReadWrite is a byte port supporting both directions.
type ReadWrite struct {
	r ReadOnly
	w WriteOnly
}

// NewReadWrite returns a bidirectional port at addr on bus.
func NewReadWrite(bus Bus, addr uint16) *ReadWrite {
	return &ReadWrite{
		r: ReadOnly{bus: bus, addr: addr},
		w: WriteOnly{bus: bus, addr: addr},
	}
}

// Addr returns the port number.
func (p *ReadWrite) Addr() uint16 { return p.r.addr }

// Read performs a one-byte IN.
func (p *ReadWrite) Read() (byte, error) { return p.r.Read() }

// Write performs a one-byte OUT.
func (p *ReadWrite) Write(v byte) error { return p.w.Write(v) }
