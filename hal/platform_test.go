package hal_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/x86-hal/hal"
	"example.com/x86-hal/hal/console"
	"example.com/x86-hal/hal/devices"
	"example.com/x86-hal/hal/irq"
	"example.com/x86-hal/hal/ps2"
	"example.com/x86-hal/internal/scancodes"
)

// syncBuffer is a bytes.Buffer safe for the CPU goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// "hi!" with a left-shift chord around the '1' key.
var hiBang = []byte{0x23, 0xa3, 0x17, 0x97, 0x2a, 0x02, 0x82, 0xaa}

func drainKeyboard(p *hal.Platform) string {
	var out []byte
	for {
		c, ok := p.Keyboard().Getchar()
		if !ok {
			return string(out)
		}
		out = append(out, c)
	}
}

func TestPlatformBringUp(t *testing.T) {
	p, err := hal.NewPlatform(hal.Config{})
	require.NoError(t, err)
	defer p.Close()

	assert.True(t, p.Vectors().Registered(irq.KeyboardVector))
	assert.False(t, p.Vectors().RegisterHandler(irq.KeyboardVector, func() {}), "driver owns the keyboard vector")
	assert.Equal(t, 0, p.Controller().Pending(), "self-test response consumed")
	assert.True(t, p.CPU().InterruptsEnabled())
}

func TestPlatformKeystrokesReachGetchar(t *testing.T) {
	p, err := hal.NewPlatform(hal.Config{})
	require.NoError(t, err)
	defer p.Close()

	n, err := p.Press(hiBang...)
	require.NoError(t, err)
	require.Equal(t, len(hiBang), n)

	assert.Equal(t, len(hiBang), p.CPU().Drain(), "one interrupt per scancode")
	assert.Equal(t, "hi!", drainKeyboard(p))
	assert.False(t, p.Keyboard().Modifiers().Shifted())
	assert.Equal(t, uint64(0), p.CPU().Spurious())
}

func TestPlatformCriticalSectionDefersInterrupts(t *testing.T) {
	p, err := hal.NewPlatform(hal.Config{})
	require.NoError(t, err)
	defer p.Close()

	cpu := p.CPU()
	s := cpu.Disable()
	_, err = p.Press(0x1e, 0x9e)
	require.NoError(t, err)
	assert.Equal(t, 0, cpu.Drain())
	assert.Equal(t, 2, p.Controller().Pending())
	cpu.Restore(s)

	assert.Equal(t, 2, cpu.Drain())
	assert.Equal(t, "a", drainKeyboard(p))
}

func TestPlatformKeyboardQueueOverflow(t *testing.T) {
	p, err := hal.NewPlatform(hal.Config{QueueSize: 4})
	require.NoError(t, err)
	defer p.Close()

	n, err := p.Press(0x1e, 0x30, 0x2e, 0x20, 0x12, 0x21)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 2, p.Controller().Dropped())
	p.CPU().Drain()
	assert.Equal(t, "abcd", drainKeyboard(p))
}

func TestPlatformRunAndConsole(t *testing.T) {
	serial := &syncBuffer{}
	p, err := hal.NewPlatform(hal.Config{Serial: serial, TickInterval: time.Millisecond})
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.NoError(t, p.Console().Print("> "))
	// "ok" then a typo fixed with backspace, then Enter.
	_, err = p.Press(0x18, 0x98, 0x25, 0xa5, 0x2d, 0xad, 0x0e, 0x8e, 0x1c, 0x9c)
	require.NoError(t, err)

	line, err := p.Console().ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", line)
	assert.Equal(t, "> okx\b \b\n", serial.String())

	cancel()
	assert.NoError(t, <-done)
}

func TestHostedPlatformMissingDevice(t *testing.T) {
	_, err := hal.NewHostedPlatform(hal.Config{}, filepath.Join(t.TempDir(), "port"))
	assert.Error(t, err)
}

func TestPressWithoutController(t *testing.T) {
	var p hal.Platform
	_, err := p.Press(0x1e)
	assert.ErrorIs(t, err, hal.ErrNoController)
}

func TestPlatformFeedLongText(t *testing.T) {
	p, err := hal.NewPlatform(hal.Config{})
	require.NoError(t, err)
	defer p.Close()

	text := strings.Repeat("The quick brown fox jumps over the lazy dog? 0123456789\n", 8)
	codes, err := scancodes.ForString(text)
	require.NoError(t, err)
	require.Greater(t, len(codes), 16*10)

	var got strings.Builder
	require.NoError(t, p.Feed(codes, func(c byte) { got.WriteByte(c) }))
	assert.Equal(t, text, got.String())
	assert.Equal(t, 0, p.Controller().Dropped())
}

func TestPlatformFeedStallsWithInterruptsOff(t *testing.T) {
	p, err := hal.NewPlatform(hal.Config{})
	require.NoError(t, err)
	defer p.Close()

	s := p.CPU().Disable()
	defer p.CPU().Restore(s)
	codes, err := scancodes.ForString("more than sixteen scancodes")
	require.NoError(t, err)
	assert.ErrorIs(t, p.Feed(codes, nil), hal.ErrStalled)
}

func TestPlatformSendWhileRunning(t *testing.T) {
	p, err := hal.NewPlatform(hal.Config{TickInterval: time.Millisecond})
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	codes, err := scancodes.ForString("Sent While Running\n")
	require.NoError(t, err)
	require.NoError(t, p.Send(ctx, codes))

	line, err := p.Console().ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sent While Running", line)

	cancel()
	assert.NoError(t, <-done)
}

func TestDriverPortsMatchBoard(t *testing.T) {
	assert.Equal(t, devices.KEYBOARD_PORT_DATA, ps2.DataPort)
	assert.Equal(t, devices.KEYBOARD_PORT_STATUS, ps2.StatusPort)
	assert.Equal(t, devices.KEYBOARD_PORT_COMMAND, ps2.CommandPort)
	assert.Equal(t, devices.COM1_PORT_BASE+devices.RHR_THR_DLL, console.COM1Data)
	assert.Equal(t, devices.COM1_PORT_BASE+devices.LSR, console.COM1LSR)
	assert.Equal(t, irq.Vector(devices.KEYBOARD_IRQ), irq.KeyboardVector)
}
