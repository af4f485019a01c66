// Package console is the text console on top of the keyboard driver: input
// comes from Getchar, output goes to the COM1 UART.
package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"example.com/x86-hal/hal/portio"
)

// COM1 registers used for output.
const (
	COM1Data uint16 = 0x3F8
	COM1LSR  uint16 = 0x3FD

	lsrTHRE = 0x20
)

// DefaultPollInterval is how long RecvByte sleeps between empty polls.
const DefaultPollInterval = time.Millisecond

// thrRetries bounds the transmit-holding-register wait so a missing UART
// cannot hang the console.
const thrRetries = 1 << 12

// ErrClosed is returned by reads on a closed console.
var ErrClosed = errors.New("console: closed")

// Keyboard is the input side of the console.
type Keyboard interface {
	Getchar() (byte, bool)
}

// Console reads lines from a keyboard and prints through a serial port.
type Console struct {
	kbd  Keyboard
	thr  *portio.WriteOnly
	lsr  *portio.ReadOnly
	poll time.Duration

	outMu  sync.Mutex
	done   chan struct{}
	closer sync.Once
}

// New creates a console reading from kbd and writing to COM1 on bus. A zero
// poll selects DefaultPollInterval.
func New(kbd Keyboard, bus portio.Bus, poll time.Duration) *Console {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Console{
		kbd:  kbd,
		thr:  portio.NewWriteOnly(bus, COM1Data),
		lsr:  portio.NewReadOnly(bus, COM1LSR),
		poll: poll,
		done: make(chan struct{}),
	}
}

// Getchar returns the next decoded byte without waiting.
func (c *Console) Getchar() (byte, bool) {
	return c.kbd.Getchar()
}

// RecvByte waits for a decoded byte. It returns ctx.Err() when ctx is done
// and ErrClosed once the console is closed.
func (c *Console) RecvByte(ctx context.Context) (byte, error) {
	if b, ok := c.kbd.Getchar(); ok {
		return b, nil
	}
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-c.done:
			return 0, ErrClosed
		case <-ticker.C:
			if b, ok := c.kbd.Getchar(); ok {
				return b, nil
			}
		}
	}
}

// ReadLine reads up to a newline, echoing what is typed. Backspace removes
// the last character. The newline is not part of the result.
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	var line []byte
	for {
		b, err := c.RecvByte(ctx)
		if err != nil {
			return string(line), err
		}
		switch b {
		case '\n':
			if err := c.writeByte('\n'); err != nil {
				return string(line), err
			}
			return string(line), nil
		case '\b':
			if len(line) == 0 {
				continue
			}
			line = line[:len(line)-1]
			if _, err := c.Write([]byte("\b \b")); err != nil {
				return string(line), err
			}
		default:
			line = append(line, b)
			if err := c.writeByte(b); err != nil {
				return string(line), err
			}
		}
	}
}

// Write sends p to the serial port one byte at a time.
func (c *Console) Write(p []byte) (int, error) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	for i, b := range p {
		if err := c.transmitLocked(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

func (c *Console) writeByte(b byte) error {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	return c.transmitLocked(b)
}

func (c *Console) transmitLocked(b byte) error {
	for i := 0; i < thrRetries; i++ {
		st, err := c.lsr.Read()
		if err != nil {
			return fmt.Errorf("console: %w", err)
		}
		if st&lsrTHRE != 0 {
			break
		}
	}
	if err := c.thr.Write(b); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}

// Print formats with fmt.Sprint semantics and writes the result.
func (c *Console) Print(a ...any) error {
	_, err := fmt.Fprint(c, a...)
	return err
}

// Println formats with fmt.Sprintln semantics and writes the result.
func (c *Console) Println(a ...any) error {
	_, err := fmt.Fprintln(c, a...)
	return err
}

// Printf formats according to format and writes the result.
func (c *Console) Printf(format string, a ...any) error {
	_, err := fmt.Fprintf(c, format, a...)
	return err
}

// Close wakes pending reads with ErrClosed.
func (c *Console) Close() error {
	c.closer.Do(func() { close(c.done) })
	return nil
}
