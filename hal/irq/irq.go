// Package irq keeps the table of interrupt handlers, indexed by vector.
package irq

import (
	"errors"
	"sync"
)

// PIC vector offsets as programmed by the platform (ICW2).
const (
	MasterOffset uint8 = 0x20
	SlaveOffset  uint8 = 0x28
)

// Well-known legacy IRQ lines.
const (
	TimerLine    uint8 = 0
	KeyboardLine uint8 = 1
)

// Vectors for the legacy lines after the remap.
const (
	TimerVector    = MasterOffset + TimerLine    // 0x20
	KeyboardVector = MasterOffset + KeyboardLine // 0x21
)

// ErrVectorInUse is returned when a vector already has a handler.
var ErrVectorInUse = errors.New("irq: vector already registered")

// Handler is a zero-argument interrupt service routine.
type Handler func()

// Vector maps a legacy IRQ line (0-15) to its vector.
func Vector(line uint8) uint8 {
	if line < 8 {
		return MasterOffset + line
	}
	return SlaveOffset + (line - 8)
}

// Table holds at most one handler per vector.
type Table struct {
	mu       sync.RWMutex
	handlers [256]Handler
}

// NewTable returns an empty vector table.
func NewTable() *Table {
	return &Table{}
}

// RegisterHandler installs h for vector. It reports false if h is nil or the
// vector is taken.
func (t *Table) RegisterHandler(vector uint8, h func()) bool {
	if h == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.handlers[vector] != nil {
		return false
	}
	t.handlers[vector] = h
	return true
}

// Unregister removes the handler for vector, if any.
func (t *Table) Unregister(vector uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[vector] = nil
}

// Registered reports whether vector has a handler.
func (t *Table) Registered(vector uint8) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.handlers[vector] != nil
}

// Dispatch runs the handler for vector and reports whether one ran.
func (t *Table) Dispatch(vector uint8) bool {
	t.mu.RLock()
	h := t.handlers[vector]
	t.mu.RUnlock()
	if h == nil {
		return false
	}
	h()
	return true
}
