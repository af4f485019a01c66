//go:build !linux

package portio

// DefaultDevPortPath is the kernel's port-I/O character device.
const DefaultDevPortPath = "/dev/port"

// DevPort is unavailable outside Linux.
type DevPort struct{}

// OpenDevPort always fails with ErrUnsupported.
func OpenDevPort(path string) (*DevPort, error) {
	return nil, ErrUnsupported
}

// HandleIO always fails with ErrUnsupported.
func (d *DevPort) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	return ErrUnsupported
}

// Close is a no-op.
func (d *DevPort) Close() error { return nil }
