package irqsafe_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"example.com/x86-hal/hal/irqsafe"
)

// depthMask counts nested Disable calls and records the order of events.
type depthMask struct {
	mu     sync.Mutex
	depth  int
	events []string
}

func (m *depthMask) Disable() irqsafe.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.depth
	m.depth++
	m.events = append(m.events, "disable")
	return irqsafe.State(prev)
}

func (m *depthMask) Restore(s irqsafe.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depth = int(s)
	m.events = append(m.events, "restore")
}

func (m *depthMask) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.depth
}

func TestMutexMasksWhileHeld(t *testing.T) {
	mask := &depthMask{}
	m := irqsafe.New(mask)

	m.Lock()
	assert.Equal(t, 1, mask.Depth(), "interrupts must be masked inside the critical section")
	m.Unlock()
	assert.Equal(t, 0, mask.Depth())
	assert.Equal(t, []string{"disable", "restore"}, mask.events)
}

func TestMutexRestoresOnEarlyReturnAndPanic(t *testing.T) {
	mask := &depthMask{}
	m := irqsafe.New(mask)

	early := func() int {
		m.Lock()
		defer m.Unlock()
		if mask.Depth() == 1 {
			return 1
		}
		return 0
	}
	assert.Equal(t, 1, early())
	assert.Equal(t, 0, mask.Depth())

	assert.Panics(t, func() {
		m.Do(func() { panic("fault") })
	})
	assert.Equal(t, 0, mask.Depth())
}

func TestMutexPreservesOuterMaskState(t *testing.T) {
	mask := &depthMask{}
	m := irqsafe.New(mask)

	// Already masked, as inside an interrupt handler.
	outer := mask.Disable()
	m.Do(func() {
		assert.Equal(t, 2, mask.Depth())
	})
	assert.Equal(t, 1, mask.Depth(), "inner unlock must not unmask the handler context")
	mask.Restore(outer)
	assert.Equal(t, 0, mask.Depth())
}

func TestMutexExcludesConcurrentHolders(t *testing.T) {
	m := irqsafe.New(nil)
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Do(func() { counter++ })
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8000, counter)
}
