// Package hal composes the PS/2 keyboard driver with the PC hardware it runs
// on: a port bus, the interrupt controller, the keyboard controller, a UART
// and a CPU that delivers interrupts to registered handlers.
package hal

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"example.com/x86-hal/hal/devices"
	"example.com/x86-hal/hal/irq"
	"example.com/x86-hal/hal/irqsafe"
	"example.com/x86-hal/hal/portio"
)

// DefaultTickInterval is how often the run loop re-checks its interrupt
// source when nothing has kicked it.
const DefaultTickInterval = 10 * time.Millisecond

// InterruptSource is where the CPU learns about interrupt requests.
// Pending acknowledges the highest-priority request and returns its vector;
// EOI ends service of a vector returned by Pending.
type InterruptSource interface {
	Pending() (vector uint8, ok bool)
	EOI(vector uint8) error
}

// Dispatcher runs the handler installed for a vector.
type Dispatcher interface {
	Dispatch(vector uint8) bool
}

// CPU is the execution context interrupt handlers run on. Its interrupt flag
// is a disable depth: interrupts are delivered only while the depth is zero.
// CPU implements irqsafe.Mask, so critical sections taken by consumers hold
// interrupts off for their duration.
type CPU struct {
	depth    atomic.Int32
	source   InterruptSource
	vectors  Dispatcher
	kick     chan struct{}
	tick     time.Duration
	logger   *slog.Logger
	handled  atomic.Uint64
	spurious atomic.Uint64
}

var _ irqsafe.Mask = (*CPU)(nil)

// NewCPU creates a CPU taking interrupts from source and running handlers
// from vectors. A zero tick selects DefaultTickInterval; a nil logger means
// slog.Default().
func NewCPU(source InterruptSource, vectors Dispatcher, tick time.Duration, logger *slog.Logger) *CPU {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CPU{
		source:  source,
		vectors: vectors,
		kick:    make(chan struct{}, 1),
		tick:    tick,
		logger:  logger,
	}
}

// Disable raises the disable depth and returns the depth it had before.
func (c *CPU) Disable() irqsafe.State {
	return irqsafe.State(c.depth.Add(1) - 1)
}

// Restore drops one level of disable depth. Goroutines sharing the CPU each
// undo their own Disable, so the saved state is not written back.
func (c *CPU) Restore(irqsafe.State) {
	if c.depth.Add(-1) == 0 {
		c.Kick()
	}
}

// InterruptsEnabled reports whether the disable depth is zero.
func (c *CPU) InterruptsEnabled() bool {
	return c.depth.Load() == 0
}

// Kick wakes the run loop. It never blocks.
func (c *CPU) Kick() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// Handled returns how many interrupts were delivered to a handler.
func (c *CPU) Handled() uint64 { return c.handled.Load() }

// Spurious returns how many acknowledged vectors had no handler.
func (c *CPU) Spurious() uint64 { return c.spurious.Load() }

// Step delivers one pending interrupt if interrupts are enabled. It reports
// whether a vector was taken from the source.
func (c *CPU) Step() bool {
	if prev := c.Disable(); prev != 0 {
		c.depth.Add(-1)
		return false
	}
	vector, ok := c.source.Pending()
	if !ok {
		c.depth.Add(-1)
		return false
	}

	if c.vectors.Dispatch(vector) {
		c.handled.Add(1)
	} else {
		c.spurious.Add(1)
		c.logger.Warn("CPU: spurious interrupt", "vector", fmt.Sprintf("0x%02x", vector))
	}
	c.depth.Add(-1)

	if err := c.source.EOI(vector); err != nil {
		c.logger.Warn("CPU: end of interrupt failed", "vector", fmt.Sprintf("0x%02x", vector), "error", err)
	}
	return true
}

// Drain delivers pending interrupts until none is left or interrupts are
// disabled. It returns how many were delivered.
func (c *CPU) Drain() int {
	n := 0
	for c.Step() {
		n++
	}
	return n
}

// Run is the CPU loop. It delivers interrupts whenever it is kicked or its
// ticker fires, until ctx is done.
func (c *CPU) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	c.logger.Debug("CPU: entering run loop", "tick", c.tick)
	for {
		c.Drain()
		select {
		case <-ctx.Done():
			c.logger.Debug("CPU: stop signal received, exiting run loop")
			return nil
		case <-c.kick:
		case <-ticker.C:
		}
	}
}

// PICSource takes interrupts from an emulated 8259A pair and ends them by
// writing OCW2 to the command ports, the way a kernel does.
type PICSource struct {
	pic       *devices.PICDevice
	masterCmd *portio.WriteOnly
	slaveCmd  *portio.WriteOnly
}

// NewPICSource acknowledges through pic and sends EOIs over bus.
func NewPICSource(pic *devices.PICDevice, bus portio.Bus) *PICSource {
	return &PICSource{
		pic:       pic,
		masterCmd: portio.NewWriteOnly(bus, devices.PIC_MASTER_CMD_PORT),
		slaveCmd:  portio.NewWriteOnly(bus, devices.PIC_SLAVE_CMD_PORT),
	}
}

// Pending implements InterruptSource.
func (s *PICSource) Pending() (uint8, bool) {
	vector := s.pic.GetInterruptVector()
	return vector, vector != 0
}

// EOI implements InterruptSource. Slave vectors need an EOI on both chips.
func (s *PICSource) EOI(vector uint8) error {
	if vector >= irq.SlaveOffset && vector < irq.SlaveOffset+8 {
		if err := s.slaveCmd.Write(devices.PIC_OCW2_EOI_CMD); err != nil {
			return err
		}
	}
	return s.masterCmd.Write(devices.PIC_OCW2_EOI_CMD)
}

// StatusPollSource stands in for the interrupt controller when the keyboard
// controller is reached through real ports: a full output buffer holding
// keyboard data is reported as the keyboard vector. Aux (mouse) bytes are
// read and discarded, since the controller holds everything behind them.
type StatusPollSource struct {
	status *portio.ReadOnly
	data   *portio.ReadOnly
}

// maxAuxDiscard bounds how many aux bytes one Pending call throws away.
const maxAuxDiscard = 16

// NewStatusPollSource polls the 8042 status port on bus.
func NewStatusPollSource(bus portio.Bus) *StatusPollSource {
	return &StatusPollSource{
		status: portio.NewReadOnly(bus, devices.KEYBOARD_PORT_STATUS),
		data:   portio.NewReadOnly(bus, devices.KEYBOARD_PORT_DATA),
	}
}

// Pending implements InterruptSource.
func (s *StatusPollSource) Pending() (uint8, bool) {
	for i := 0; i < maxAuxDiscard; i++ {
		st, err := s.status.Read()
		if err != nil || st&devices.KBC_STATUS_OUTPUT_FULL == 0 {
			return 0, false
		}
		if st&devices.KBC_STATUS_AUX_DATA == 0 {
			return irq.KeyboardVector, true
		}
		if _, err := s.data.Read(); err != nil {
			return 0, false
		}
	}
	return 0, false
}

// EOI implements InterruptSource. Nothing was acknowledged, so nothing ends.
func (s *StatusPollSource) EOI(uint8) error { return nil }
