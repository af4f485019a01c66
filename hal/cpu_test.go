package hal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/x86-hal/hal/devices"
	"example.com/x86-hal/hal/irq"
	"example.com/x86-hal/hal/portio"
	"example.com/x86-hal/hal/ps2"
)

// MockSource hands out queued vectors and records EOIs.
type MockSource struct {
	mu      sync.Mutex
	pending []uint8
	eois    []uint8
}

func (m *MockSource) Raise(vectors ...uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, vectors...)
}

func (m *MockSource) Pending() (uint8, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return 0, false
	}
	v := m.pending[0]
	m.pending = m.pending[1:]
	return v, true
}

func (m *MockSource) EOI(vector uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eois = append(m.eois, vector)
	return nil
}

func (m *MockSource) EOIs() []uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint8(nil), m.eois...)
}

// MockBus records port writes and answers reads with a fixed value.
type MockBus struct {
	mu     sync.Mutex
	in     byte
	err    error
	writes []portWrite
}

type portWrite struct {
	port uint16
	val  byte
}

func (m *MockBus) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if direction == portio.DirIn {
		data[0] = m.in
		return nil
	}
	m.writes = append(m.writes, portWrite{port, data[0]})
	return nil
}

func TestCPUDeliversInOrderAndAcknowledges(t *testing.T) {
	src := &MockSource{}
	table := irq.NewTable()
	var got []uint8
	var depthInHandler []bool
	var cpu *CPU
	for _, v := range []uint8{0x20, 0x21} {
		v := v // per-iteration copy; module builds with go 1.21 loop semantics
		require.True(t, table.RegisterHandler(v, func() {
			got = append(got, v)
			depthInHandler = append(depthInHandler, cpu.InterruptsEnabled())
		}))
	}
	cpu = NewCPU(src, table, 0, nil)

	src.Raise(0x21, 0x20, 0x21)
	assert.Equal(t, 3, cpu.Drain())
	assert.Equal(t, []uint8{0x21, 0x20, 0x21}, got)
	assert.Equal(t, []bool{false, false, false}, depthInHandler, "handlers run with interrupts off")
	assert.Equal(t, []uint8{0x21, 0x20, 0x21}, src.EOIs())
	assert.True(t, cpu.InterruptsEnabled())
	assert.Equal(t, uint64(3), cpu.Handled())
}

func TestCPUHoldsInterruptsWhileDisabled(t *testing.T) {
	src := &MockSource{}
	table := irq.NewTable()
	calls := 0
	table.RegisterHandler(irq.KeyboardVector, func() { calls++ })
	cpu := NewCPU(src, table, 0, nil)

	outer := cpu.Disable()
	inner := cpu.Disable()
	assert.Equal(t, uint8(0), uint8(outer))
	assert.Equal(t, uint8(1), uint8(inner))

	src.Raise(irq.KeyboardVector)
	assert.False(t, cpu.Step())
	cpu.Restore(inner)
	assert.False(t, cpu.Step(), "still one level deep")
	cpu.Restore(outer)
	assert.True(t, cpu.Step())
	assert.Equal(t, 1, calls)
}

func TestCPUCountsSpurious(t *testing.T) {
	src := &MockSource{}
	cpu := NewCPU(src, irq.NewTable(), 0, nil)
	src.Raise(0x27)
	assert.True(t, cpu.Step())
	assert.Equal(t, uint64(1), cpu.Spurious())
	assert.Equal(t, []uint8{0x27}, src.EOIs(), "spurious vectors are still acknowledged")
}

func TestCPURunLoop(t *testing.T) {
	src := &MockSource{}
	table := irq.NewTable()
	var mu sync.Mutex
	calls := 0
	table.RegisterHandler(irq.KeyboardVector, func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	cpu := NewCPU(src, table, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cpu.Run(ctx) }()

	src.Raise(irq.KeyboardVector, irq.KeyboardVector)
	cpu.Kick()
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run loop did not stop")
	}
}

func TestPICSourceEOI(t *testing.T) {
	bus := &MockBus{}
	src := NewPICSource(devices.NewPICDevice(), bus)

	require.NoError(t, src.EOI(irq.KeyboardVector))
	require.NoError(t, src.EOI(irq.Vector(12)))
	assert.Equal(t, []portWrite{
		{devices.PIC_MASTER_CMD_PORT, devices.PIC_OCW2_EOI_CMD},
		{devices.PIC_SLAVE_CMD_PORT, devices.PIC_OCW2_EOI_CMD},
		{devices.PIC_MASTER_CMD_PORT, devices.PIC_OCW2_EOI_CMD},
	}, bus.writes)

	_, ok := src.Pending()
	assert.False(t, ok, "power-on PIC has everything masked")
}

func TestStatusPollSource(t *testing.T) {
	tests := []struct {
		name   string
		status byte
		err    error
		want   bool
	}{
		{"empty", 0x14, nil, false},
		{"keyboard byte", 0x15, nil, true},
		{"mouse byte", 0x35, nil, false},
		{"port fault", 0x01, errors.New("EIO"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewStatusPollSource(&MockBus{in: tt.status, err: tt.err})
			v, ok := src.Pending()
			assert.Equal(t, tt.want, ok)
			if ok {
				assert.Equal(t, irq.KeyboardVector, v)
			}
			assert.NoError(t, src.EOI(v))
		})
	}
}

// MockKBC is an 8042 seen through real ports: a queue of bytes, each tagged
// as keyboard or aux data, drained by reads of port 0x60.
type MockKBC struct {
	mu    sync.Mutex
	queue []kbcByte
}

type kbcByte struct {
	code byte
	aux  bool
}

func (m *MockKBC) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if direction != portio.DirIn {
		return nil
	}
	switch port {
	case devices.KEYBOARD_PORT_STATUS:
		data[0] = devices.KBC_STATUS_SYSTEM
		if len(m.queue) > 0 {
			data[0] |= devices.KBC_STATUS_OUTPUT_FULL
			if m.queue[0].aux {
				data[0] |= devices.KBC_STATUS_AUX_DATA
			}
		}
	case devices.KEYBOARD_PORT_DATA:
		data[0] = 0
		if len(m.queue) > 0 {
			data[0] = m.queue[0].code
			m.queue = m.queue[1:]
		}
	}
	return nil
}

func (m *MockKBC) Left() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func TestStatusPollSourceDiscardsAuxBytes(t *testing.T) {
	tests := []struct {
		name  string
		queue []kbcByte
		want  string
	}{
		{"aux byte then key", []kbcByte{{0x08, true}, {0x1e, false}, {0x9e, false}}, "a"},
		{"aux packet between keys", []kbcByte{{0x1e, false}, {0x9e, false}, {0x08, true}, {0x01, true}, {0x02, true}, {0x30, false}, {0xb0, false}}, "ab"},
		{"aux only", []kbcByte{{0x08, true}, {0x00, true}, {0x00, true}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kbc := &MockKBC{queue: tt.queue}
			table := irq.NewTable()
			cpu := NewCPU(NewStatusPollSource(kbc), table, 0, nil)
			kbd := ps2.NewKeyboard(kbc, cpu)
			require.NoError(t, kbd.Init(table))

			for i := 0; i < len(tt.queue); i++ {
				cpu.Drain()
			}

			var got []byte
			for {
				c, ok := kbd.Getchar()
				if !ok {
					break
				}
				got = append(got, c)
			}
			assert.Equal(t, tt.want, string(got))
			assert.Zero(t, kbc.Left(), "controller output buffer drained")
		})
	}
}
