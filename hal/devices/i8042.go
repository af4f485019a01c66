// hal/devices/i8042.go
package devices

import (
	"fmt"
	"sync"

	"example.com/x86-hal/hal/portio"
)

// DefaultKeyboardQueue is how many scancodes the keyboard itself buffers
// before it starts discarding keystrokes.
const DefaultKeyboardQueue = 16

// I8042 models an 8042 keyboard controller with a PS/2 keyboard attached to
// its first port. Scancodes injected from the host side are queued and
// presented one at a time at 0x60, raising IRQ 1 for each.
type I8042 struct {
	lock      sync.Mutex
	irqRaiser InterruptRaiser

	queue    []byte // head is the byte visible at 0x60
	capacity int
	dropped  int

	commandByte          byte
	expectingCommandByte bool
	lastWasCommand       bool
}

// NewI8042 creates a controller raising interrupts through irqRaiser. A
// queueSize of 0 selects DefaultKeyboardQueue.
func NewI8042(irqRaiser InterruptRaiser, queueSize int) *I8042 {
	if queueSize <= 0 {
		queueSize = DefaultKeyboardQueue
	}
	return &I8042{
		irqRaiser:   irqRaiser,
		capacity:    queueSize,
		commandByte: KBC_CB_FIRST_PORT_IRQ | KBC_CB_SYSTEM_FLAG | KBC_CB_TRANSLATION,
	}
}

// Inject queues scancodes as if the keyboard had sent them. Bytes beyond the
// queue capacity are dropped and counted. It returns how many were accepted.
func (k *I8042) Inject(scancodes ...byte) int {
	k.lock.Lock()
	defer k.lock.Unlock()

	if k.commandByte&KBC_CB_FIRST_PORT_CLK != 0 {
		k.dropped += len(scancodes)
		return 0
	}
	accepted := 0
	for _, sc := range scancodes {
		if len(k.queue) >= k.capacity {
			k.dropped++
			continue
		}
		k.queue = append(k.queue, sc)
		accepted++
		if len(k.queue) == 1 {
			k.raiseLocked()
		}
	}
	return accepted
}

// Pending returns the number of queued bytes not yet read by the guest.
func (k *I8042) Pending() int {
	k.lock.Lock()
	defer k.lock.Unlock()
	return len(k.queue)
}

// Free returns how many more scancodes the keyboard can queue.
func (k *I8042) Free() int {
	k.lock.Lock()
	defer k.lock.Unlock()
	if free := k.capacity - len(k.queue); free > 0 {
		return free
	}
	return 0
}

// Dropped returns how many injected bytes were discarded.
func (k *I8042) Dropped() int {
	k.lock.Lock()
	defer k.lock.Unlock()
	return k.dropped
}

// HandleIO processes I/O on the data (0x60) and status/command (0x64) ports.
func (k *I8042) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	k.lock.Lock()
	defer k.lock.Unlock()

	if size != 1 {
		return fmt.Errorf("I8042: I/O size %d not supported for port 0x%x, only 1-byte supported", size, port)
	}

	switch {
	case direction == portio.DirIn && port == KEYBOARD_PORT_STATUS:
		data[0] = k.statusLocked()
	case direction == portio.DirIn && port == KEYBOARD_PORT_DATA:
		data[0] = k.readDataLocked()
	case direction == portio.DirOut && port == KEYBOARD_PORT_COMMAND:
		k.lastWasCommand = true
		k.handleCommandLocked(data[0])
	case direction == portio.DirOut && port == KEYBOARD_PORT_DATA:
		k.lastWasCommand = false
		if k.expectingCommandByte {
			k.commandByte = data[0]
			k.expectingCommandByte = false
		}
		// Commands addressed to the keyboard itself (LEDs, typematic) are ignored.
	default:
		return fmt.Errorf("I8042: Unhandled I/O to port 0x%x, direction %d", port, direction)
	}
	return nil
}

func (k *I8042) statusLocked() byte {
	status := KBC_STATUS_SYSTEM
	if len(k.queue) > 0 {
		status |= KBC_STATUS_OUTPUT_FULL
	}
	if k.lastWasCommand {
		status |= KBC_STATUS_COMMAND
	}
	return status
}

// readDataLocked pops the visible byte. Reading an empty buffer returns the
// last value again on real hardware; 0 is good enough here.
func (k *I8042) readDataLocked() byte {
	if len(k.queue) == 0 {
		return 0x00
	}
	v := k.queue[0]
	k.queue = k.queue[1:]
	if len(k.queue) > 0 {
		k.raiseLocked()
	}
	return v
}

func (k *I8042) handleCommandLocked(cmd byte) {
	switch cmd {
	case KBC_CMD_READ_COMMAND_BYTE:
		k.respondLocked(k.commandByte)
	case KBC_CMD_WRITE_COMMAND_BYTE:
		k.expectingCommandByte = true
	case KBC_CMD_SELF_TEST:
		k.respondLocked(KBC_RESPONSE_SELF_TEST)
	case KBC_CMD_TEST_FIRST_PORT:
		k.respondLocked(KBC_RESPONSE_PORT_OK)
	case KBC_CMD_DISABLE_FIRST_PORT:
		k.commandByte |= KBC_CB_FIRST_PORT_CLK
	case KBC_CMD_ENABLE_FIRST_PORT:
		k.commandByte &^= KBC_CB_FIRST_PORT_CLK
	}
}

// respondLocked puts a controller response in front of pending scancodes.
// Responses do not raise an interrupt; the guest polls for them.
func (k *I8042) respondLocked(v byte) {
	k.queue = append([]byte{v}, k.queue...)
}

func (k *I8042) raiseLocked() {
	if k.irqRaiser == nil || k.commandByte&KBC_CB_FIRST_PORT_IRQ == 0 {
		return
	}
	k.irqRaiser.RaiseIRQ(KEYBOARD_IRQ)
}
