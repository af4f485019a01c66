// Package ps2 is the PS/2 keyboard driver: it decodes Set 1 scancodes read
// from the 8042 data port inside the keyboard interrupt and queues the
// resulting bytes for Getchar.
package ps2

import (
	"fmt"

	"example.com/x86-hal/hal/irq"
	"example.com/x86-hal/hal/irqsafe"
	"example.com/x86-hal/hal/portio"
)

// 8042 controller ports.
const (
	DataPort    uint16 = 0x60
	StatusPort  uint16 = 0x64 // read
	CommandPort uint16 = 0x64 // write
)

// Registrar installs interrupt handlers by vector.
type Registrar interface {
	RegisterHandler(vector uint8, h func()) bool
}

// Keyboard owns the decode state and the output ring. Build one per system
// with NewKeyboard and hand it to both the interrupt table and consumers.
type Keyboard struct {
	data *portio.ReadOnly
	lock *irqsafe.Mutex
	buf  RingBuffer
	mods Modifiers
}

// NewKeyboard returns a driver reading scancodes from bus. mask is the
// interrupt control of the CPU that takes the keyboard interrupt.
func NewKeyboard(bus portio.Bus, mask irqsafe.Mask) *Keyboard {
	return &Keyboard{
		data: portio.NewReadOnly(bus, DataPort),
		lock: irqsafe.New(mask),
	}
}

// Init registers the interrupt handler for the keyboard vector. Call it once
// at startup.
func (k *Keyboard) Init(r Registrar) error {
	if !r.RegisterHandler(irq.KeyboardVector, k.HandleInterrupt) {
		return fmt.Errorf("keyboard: vector 0x%02x: %w", irq.KeyboardVector, irq.ErrVectorInUse)
	}
	return nil
}

// HandleInterrupt is the keyboard interrupt service routine. It reads one
// scancode, updates the modifier latches, and queues the decoded byte, if any.
// A full ring drops the byte.
func (k *Keyboard) HandleInterrupt() {
	scancode, err := k.data.Read()
	if err != nil {
		return
	}
	k.lock.Lock()
	defer k.lock.Unlock()
	k.mods.Update(scancode)
	if c, ok := k.mods.Decode(scancode); ok {
		k.buf.Put(c)
	}
}

// Getchar returns the oldest decoded byte without blocking. It reports false
// when nothing is queued.
func (k *Keyboard) Getchar() (byte, bool) {
	k.lock.Lock()
	defer k.lock.Unlock()
	return k.buf.Get()
}

// Buffered returns the number of queued bytes.
func (k *Keyboard) Buffered() int {
	k.lock.Lock()
	defer k.lock.Unlock()
	return k.buf.Used()
}

// Modifiers returns a snapshot of the latches.
func (k *Keyboard) Modifiers() Modifiers {
	k.lock.Lock()
	defer k.lock.Unlock()
	return k.mods
}
