//go:build linux

package portio

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// DefaultDevPortPath is the kernel's port-I/O character device.
const DefaultDevPortPath = "/dev/port"

// DevPort implements Bus on top of the Linux /dev/port device, where the file
// offset selects the port. Opening it requires CAP_SYS_RAWIO.
type DevPort struct {
	mu   sync.Mutex
	fd   int
	path string
}

// OpenDevPort opens path (usually DefaultDevPortPath) for port I/O.
func OpenDevPort(path string) (*DevPort, error) {
	if path == "" {
		path = DefaultDevPortPath
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &DevPort{fd: fd, path: path}, nil
}

// HandleIO issues the access as a positioned read or write at offset port.
func (d *DevPort) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	if int(size) > len(data) {
		return fmt.Errorf("DevPort: data buffer too small for I/O operation (size %d, buffer %d)", size, len(data))
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.fd < 0 {
		return fmt.Errorf("DevPort: %s is closed", d.path)
	}

	var (
		n   int
		err error
	)
	switch direction {
	case DirIn:
		n, err = unix.Pread(d.fd, data[:size], int64(port))
	case DirOut:
		n, err = unix.Pwrite(d.fd, data[:size], int64(port))
	default:
		return fmt.Errorf("DevPort: invalid I/O direction %d for port 0x%x", direction, port)
	}
	if err != nil {
		return fmt.Errorf("DevPort: port 0x%x: %w", port, err)
	}
	if n != int(size) {
		return fmt.Errorf("DevPort: short transfer on port 0x%x (%d of %d bytes)", port, n, size)
	}
	return nil
}

// Close releases the file descriptor.
func (d *DevPort) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}
