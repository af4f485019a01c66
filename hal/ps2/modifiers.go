package ps2

// Modifiers holds the shift latches and the caps-lock toggle.
type Modifiers struct {
	ShiftLeft  bool
	ShiftRight bool
	CapsLock   bool
}

// Shifted reports whether either shift key is held.
func (m Modifiers) Shifted() bool {
	return m.ShiftLeft || m.ShiftRight
}

// Update applies a make or break code to the latches and reports whether the
// code was a modifier transition. Caps lock toggles on make only.
func (m *Modifiers) Update(scancode byte) bool {
	switch scancode {
	case ScancodeLeftShift:
		m.ShiftLeft = true
	case ScancodeLeftShift | BreakBit:
		m.ShiftLeft = false
	case ScancodeRightShift:
		m.ShiftRight = true
	case ScancodeRightShift | BreakBit:
		m.ShiftRight = false
	case ScancodeCapsLock:
		m.CapsLock = !m.CapsLock
	default:
		return false
	}
	return true
}

// Decode maps scancode to an output byte under the current latches. Break
// codes, codes past the keymap and keys without output yield false.
func (m Modifiers) Decode(scancode byte) (byte, bool) {
	k, ok := Lookup(scancode)
	if !ok {
		return 0, false
	}
	switch k.Kind {
	case KeyLetter:
		if m.Shifted() != m.CapsLock {
			return k.Upper, true
		}
		return k.Lower, true
	case KeySymbol:
		if m.Shifted() {
			return k.Upper, true
		}
		return k.Lower, true
	default:
		return 0, false
	}
}
