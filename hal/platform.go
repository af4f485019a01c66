package hal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"example.com/x86-hal/hal/console"
	"example.com/x86-hal/hal/devices"
	"example.com/x86-hal/hal/irq"
	"example.com/x86-hal/hal/portio"
	"example.com/x86-hal/hal/ps2"
)

// ErrNoController is returned by Press on a platform without a simulated
// keyboard controller.
var ErrNoController = errors.New("platform: no simulated keyboard controller")

// ErrStalled is returned by Feed when the keyboard queue is full and no
// interrupt can be delivered to empty it.
var ErrStalled = errors.New("platform: keyboard input stalled")

// Config holds the platform parameters. The zero value is usable.
type Config struct {
	TickInterval time.Duration // CPU run loop re-check period
	ConsolePoll  time.Duration // console poll period while waiting for input
	QueueSize    int           // scancodes the keyboard holds before dropping
	Serial       io.Writer     // receives COM1 output; nil discards it
	Logger       *slog.Logger  // nil means slog.Default()
}

// Platform is the one instance of the machine the keyboard driver runs on.
// It owns the bus, the devices, the CPU, the vector table, the driver and
// the console, and hands references to whoever needs them.
type Platform struct {
	logger   *slog.Logger
	bus      portio.Bus
	pic      *devices.PICDevice
	kbc      *devices.I8042
	cpu      *CPU
	vectors  *irq.Table
	keyboard *ps2.Keyboard
	console  *console.Console
	closer   io.Closer
}

// picLine raises an IRQ on the PIC and wakes the CPU so it is delivered
// without waiting for the next tick.
type picLine struct {
	pic *devices.PICDevice
	cpu *CPU
}

func (l picLine) RaiseIRQ(irqLine uint8) {
	l.pic.RaiseIRQ(irqLine)
	l.cpu.Kick()
}

// NewPlatform builds a simulated PC: PIC pair, 8042 with a keyboard, COM1,
// one CPU. The PIC is remapped to 0x20/0x28 with only IRQ 1 unmasked, the
// controller passes self-test, and the keyboard driver owns vector 0x21.
func NewPlatform(cfg Config) (*Platform, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ioBus := devices.NewIOBus(logger)
	vectors := irq.NewTable()
	pic := devices.NewPICDevice()
	cpu := NewCPU(NewPICSource(pic, ioBus), vectors, cfg.TickInterval, logger)
	kbc := devices.NewI8042(picLine{pic: pic, cpu: cpu}, cfg.QueueSize)
	serial := devices.NewSerialPortDevice(cfg.Serial)

	ioBus.RegisterDevice(devices.PIC_MASTER_CMD_PORT, devices.PIC_MASTER_DATA_PORT, pic)
	ioBus.RegisterDevice(devices.PIC_SLAVE_CMD_PORT, devices.PIC_SLAVE_DATA_PORT, pic)
	ioBus.RegisterDevice(devices.KEYBOARD_PORT_DATA, devices.KEYBOARD_PORT_DATA, kbc)
	ioBus.RegisterDevice(devices.KEYBOARD_PORT_STATUS, devices.KEYBOARD_PORT_STATUS, kbc)
	ioBus.RegisterDevice(devices.COM1_PORT_BASE, devices.COM1_PORT_END, serial)

	if err := RemapPIC(ioBus, irq.MasterOffset, irq.SlaveOffset); err != nil {
		return nil, err
	}
	if err := SetPICMask(ioBus, ^byte(1<<irq.KeyboardLine), 0xFF); err != nil {
		return nil, err
	}
	if err := initController(ioBus); err != nil {
		return nil, err
	}

	p := &Platform{
		logger:  logger,
		bus:     ioBus,
		pic:     pic,
		kbc:     kbc,
		cpu:     cpu,
		vectors: vectors,
	}
	if err := p.attachDriver(cfg); err != nil {
		return nil, err
	}
	logger.Debug("Platform: simulated PC ready",
		"keyboard_vector", fmt.Sprintf("0x%02x", irq.KeyboardVector), "queue", cfg.QueueSize)
	return p, nil
}

// NewHostedPlatform runs the driver against real ports through /dev/port at
// path. There is no interrupt controller in the loop: the CPU polls the 8042
// status port and treats keyboard data as the keyboard interrupt.
func NewHostedPlatform(cfg Config, path string) (*Platform, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dev, err := portio.OpenDevPort(path)
	if err != nil {
		return nil, fmt.Errorf("platform: %w", err)
	}

	vectors := irq.NewTable()
	p := &Platform{
		logger:  logger,
		bus:     dev,
		cpu:     NewCPU(NewStatusPollSource(dev), vectors, cfg.TickInterval, logger),
		vectors: vectors,
		closer:  dev,
	}
	if err := p.attachDriver(cfg); err != nil {
		dev.Close()
		return nil, err
	}
	logger.Debug("Platform: hosted on port device", "path", path)
	return p, nil
}

func (p *Platform) attachDriver(cfg Config) error {
	p.keyboard = ps2.NewKeyboard(p.bus, p.cpu)
	if err := p.keyboard.Init(p.vectors); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	p.console = console.New(p.keyboard, p.bus, cfg.ConsolePoll)
	return nil
}

// RemapPIC runs the ICW1..ICW4 sequence on both 8259s: edge triggered,
// cascaded on IRQ 2, 8086 mode, vectors starting at masterOffset and
// slaveOffset. Both controllers come out fully masked.
func RemapPIC(bus portio.Bus, masterOffset, slaveOffset uint8) error {
	writes := []struct {
		port uint16
		val  byte
	}{
		{devices.PIC_MASTER_CMD_PORT, devices.PIC_ICW1_INIT | devices.PIC_ICW1_IC4},
		{devices.PIC_SLAVE_CMD_PORT, devices.PIC_ICW1_INIT | devices.PIC_ICW1_IC4},
		{devices.PIC_MASTER_DATA_PORT, masterOffset},
		{devices.PIC_SLAVE_DATA_PORT, slaveOffset},
		{devices.PIC_MASTER_DATA_PORT, 1 << devices.PIC_MASTER_SLAVE_IRQ},
		{devices.PIC_SLAVE_DATA_PORT, devices.PIC_MASTER_SLAVE_IRQ},
		{devices.PIC_MASTER_DATA_PORT, devices.PIC_ICW4_8086},
		{devices.PIC_SLAVE_DATA_PORT, devices.PIC_ICW4_8086},
	}
	for _, w := range writes {
		if err := portio.NewWriteOnly(bus, w.port).Write(w.val); err != nil {
			return fmt.Errorf("platform: PIC remap: %w", err)
		}
	}
	return SetPICMask(bus, 0xFF, 0xFF)
}

// SetPICMask writes OCW1 to both controllers. A set bit masks the line.
func SetPICMask(bus portio.Bus, master, slave byte) error {
	if err := portio.NewWriteOnly(bus, devices.PIC_MASTER_DATA_PORT).Write(master); err != nil {
		return fmt.Errorf("platform: PIC mask: %w", err)
	}
	if err := portio.NewWriteOnly(bus, devices.PIC_SLAVE_DATA_PORT).Write(slave); err != nil {
		return fmt.Errorf("platform: PIC mask: %w", err)
	}
	return nil
}

// initController self-tests the 8042 and enables its keyboard port.
func initController(bus portio.Bus) error {
	cmd := portio.NewWriteOnly(bus, devices.KEYBOARD_PORT_COMMAND)
	data := portio.NewReadOnly(bus, devices.KEYBOARD_PORT_DATA)

	if err := cmd.Write(devices.KBC_CMD_SELF_TEST); err != nil {
		return fmt.Errorf("platform: 8042 self-test: %w", err)
	}
	res, err := data.Read()
	if err != nil {
		return fmt.Errorf("platform: 8042 self-test: %w", err)
	}
	if res != devices.KBC_RESPONSE_SELF_TEST {
		return fmt.Errorf("platform: 8042 self-test returned 0x%02x", res)
	}
	if err := cmd.Write(devices.KBC_CMD_ENABLE_FIRST_PORT); err != nil {
		return fmt.Errorf("platform: 8042 enable: %w", err)
	}
	return nil
}

// Keyboard returns the driver.
func (p *Platform) Keyboard() *ps2.Keyboard { return p.keyboard }

// Console returns the console built on the driver.
func (p *Platform) Console() *console.Console { return p.console }

// CPU returns the CPU that takes the keyboard interrupt.
func (p *Platform) CPU() *CPU { return p.cpu }

// Vectors returns the interrupt handler table.
func (p *Platform) Vectors() *irq.Table { return p.vectors }

// Controller returns the simulated 8042, or nil on a hosted platform.
func (p *Platform) Controller() *devices.I8042 { return p.kbc }

// Press feeds scancodes to the simulated keyboard. It returns how many the
// keyboard accepted.
func (p *Platform) Press(scancodes ...byte) (int, error) {
	if p.kbc == nil {
		return 0, ErrNoController
	}
	return p.kbc.Inject(scancodes...), nil
}

// Feed types codes on the simulated keyboard without a running CPU loop: it
// fills the keyboard queue, delivers the interrupts, and hands every decoded
// byte to consume, until all codes are in. Nothing is dropped for lack of
// room in either queue.
func (p *Platform) Feed(codes []byte, consume func(byte)) error {
	if p.kbc == nil {
		return ErrNoController
	}
	for {
		delivered := p.cpu.Drain()
		for {
			c, ok := p.keyboard.Getchar()
			if !ok {
				break
			}
			if consume != nil {
				consume(c)
			}
		}
		if len(codes) == 0 {
			return nil
		}
		n := p.kbc.Inject(codes[:min(p.kbc.Free(), len(codes))]...)
		if n == 0 && delivered == 0 {
			return ErrStalled
		}
		codes = codes[n:]
	}
}

// Send types codes on the simulated keyboard while Run is active, waiting
// for room in the keyboard queue. It returns ctx.Err() if ctx ends first.
func (p *Platform) Send(ctx context.Context, codes []byte) error {
	if p.kbc == nil {
		return ErrNoController
	}
	for len(codes) > 0 {
		n := p.kbc.Inject(codes[:min(p.kbc.Free(), len(codes))]...)
		codes = codes[n:]
		if len(codes) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.cpu.tick):
		}
	}
	return nil
}

// Run runs the CPU until ctx is done.
func (p *Platform) Run(ctx context.Context) error {
	p.logger.Debug("Platform: starting CPU run loop")
	err := p.cpu.Run(ctx)
	p.logger.Debug("Platform: CPU run loop exited")
	return err
}

// Close wakes console readers and releases the port device, if any.
func (p *Platform) Close() error {
	p.logger.Debug("Platform: closing")
	p.console.Close()
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}
