// hal/devices/serial.go
package devices

import (
	"fmt"
	"io"
	"sync"

	"example.com/x86-hal/hal/portio"
)

// SerialPortDevice implements the register file of a 16550A UART. Only the
// transmit path is wired: bytes written to THR go to outputWriter.
type SerialPortDevice struct {
	outputWriter io.Writer
	lock         sync.Mutex

	dll byte // Divisor Latch Low (DLAB=1)
	dlh byte // Divisor Latch High (DLAB=1)
	ier byte
	fcr byte
	lcr byte
	mcr byte
	scr byte
}

// NewSerialPortDevice creates a UART whose transmitter writes to writer.
func NewSerialPortDevice(writer io.Writer) *SerialPortDevice {
	if writer == nil {
		writer = io.Discard
	}
	return &SerialPortDevice{outputWriter: writer}
}

func (s *SerialPortDevice) dlab() bool { return s.lcr&LCR_DLAB != 0 }

// HandleIO processes I/O operations for COM1.
func (s *SerialPortDevice) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if size != 1 {
		return fmt.Errorf("SerialPortDevice: I/O size %d not supported for port 0x%x, only 1-byte supported", size, port)
	}
	offset := port - COM1_PORT_BASE

	switch direction {
	case portio.DirOut:
		val := data[0]
		switch offset {
		case RHR_THR_DLL:
			if s.dlab() {
				s.dll = val
				return nil
			}
			if _, err := s.outputWriter.Write(data[:1]); err != nil {
				return fmt.Errorf("SerialPortDevice: error writing to output: %w", err)
			}
		case IER_DLH:
			if s.dlab() {
				s.dlh = val
			} else {
				s.ier = val
			}
		case IIR_FCR:
			s.fcr = val
		case LCR:
			s.lcr = val
		case MCR:
			s.mcr = val
		case SCR:
			s.scr = val
		default:
			return fmt.Errorf("SerialPortDevice: Unhandled OUT to port 0x%x (offset 0x%x), value 0x%x", port, offset, val)
		}
	case portio.DirIn:
		var readVal byte
		switch offset {
		case RHR_THR_DLL:
			if s.dlab() {
				readVal = s.dll
			}
		case IER_DLH:
			if s.dlab() {
				readVal = s.dlh
			} else {
				readVal = s.ier
			}
		case IIR_FCR:
			readVal = IIR_NO_INT_PENDING
		case LCR:
			readVal = s.lcr
		case MCR:
			readVal = s.mcr
		case LSR:
			// Output is synchronous, so the transmitter is always empty.
			readVal = LSR_THRE | LSR_TEMT
		case MSR:
			readVal = 0x00
		case SCR:
			readVal = s.scr
		default:
			return fmt.Errorf("SerialPortDevice: Unhandled IN from port 0x%x (offset 0x%x)", port, offset)
		}
		data[0] = readVal
	default:
		return fmt.Errorf("SerialPortDevice: Invalid I/O direction %d for port 0x%x", direction, port)
	}
	return nil
}
