// Package irqsafe provides a mutex whose critical section also masks local
// interrupt delivery, so an interrupt handler that takes the same lock can
// never preempt a holder on the same CPU.
package irqsafe

import "sync"

// State is the interrupt state saved by Mask.Disable and handed back to
// Mask.Restore.
type State uintptr

// Mask controls interrupt delivery on the current execution context.
// Disable masks interrupts and returns the previous state; Restore puts that
// state back. Calls nest.
type Mask interface {
	Disable() State
	Restore(State)
}

// NoMask is a Mask for contexts with no interrupt delivery to suppress.
type NoMask struct{}

func (NoMask) Disable() State { return 0 }
func (NoMask) Restore(State)  {}

// Mutex couples a sync.Mutex with a Mask. The zero value is not usable; build
// one with New.
type Mutex struct {
	mu    sync.Mutex
	mask  Mask
	saved State
}

// New returns a Mutex masking interrupts through mask. A nil mask means NoMask.
func New(mask Mask) *Mutex {
	if mask == nil {
		mask = NoMask{}
	}
	return &Mutex{mask: mask}
}

// Lock masks interrupts, then acquires the mutex. Pair with a deferred Unlock.
func (m *Mutex) Lock() {
	s := m.mask.Disable()
	m.mu.Lock()
	m.saved = s
}

// Unlock releases the mutex, then restores the interrupt state saved by Lock.
func (m *Mutex) Unlock() {
	s := m.saved
	m.mu.Unlock()
	m.mask.Restore(s)
}

// Do runs fn inside the critical section.
func (m *Mutex) Do(fn func()) {
	m.Lock()
	defer m.Unlock()
	fn()
}
