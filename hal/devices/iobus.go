// hal/devices/iobus.go
package devices

import (
	"fmt"
	"log/slog"

	"example.com/x86-hal/hal/portio"
)

// PioDevice defines the interface for a port I/O device.
type PioDevice interface {
	HandleIO(port uint16, direction uint8, size uint8, data []byte) error
}

// InterruptRaiser is how devices signal an IRQ line to the PIC.
type InterruptRaiser interface {
	RaiseIRQ(irqLine uint8)
}

// IOBus routes port I/O to registered devices. It implements portio.Bus.
type IOBus struct {
	ports  map[uint16]PioDevice
	logger *slog.Logger
}

// NewIOBus creates an empty bus. A nil logger means slog.Default().
func NewIOBus(logger *slog.Logger) *IOBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &IOBus{
		ports:  make(map[uint16]PioDevice),
		logger: logger,
	}
}

// RegisterDevice registers a device for every port in [startPort, endPort].
// Registration happens during platform bring-up, before any I/O.
func (bus *IOBus) RegisterDevice(startPort, endPort uint16, device PioDevice) {
	if device == nil {
		bus.logger.Warn("IOBus: attempted to register a nil device", "start", fmt.Sprintf("0x%x", startPort), "end", fmt.Sprintf("0x%x", endPort))
		return
	}
	for port := startPort; port <= endPort; port++ {
		if existing, ok := bus.ports[port]; ok && existing != device {
			bus.logger.Warn("IOBus: port already registered, overwriting",
				"port", fmt.Sprintf("0x%x", port), "old", fmt.Sprintf("%T", existing), "new", fmt.Sprintf("%T", device))
		}
		bus.ports[port] = device
		if port == 0xFFFF { // Avoid overflow if endPort is 0xFFFF
			break
		}
	}
}

// HandleIO routes an I/O operation to the device decoding port.
func (bus *IOBus) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	device, ok := bus.ports[port]
	if !ok {
		return fmt.Errorf("IOBus: port 0x%x: %w", port, portio.ErrUnhandledPort)
	}
	if len(data) < int(size) {
		return fmt.Errorf("IOBus: data buffer too small for I/O operation (size %d, buffer %d)", size, len(data))
	}
	return device.HandleIO(port, direction, size, data[:size])
}
