package scancodes

import "example.com/x86-hal/hal/ps2"

// Key event values reported by Linux input devices.
const (
	KeyReleased int32 = 0
	KeyPressed  int32 = 1
	KeyRepeated int32 = 2
)

// FromKeyEvent converts a Linux EV_KEY event to a Set 1 scancode. Linux key
// codes 1..88 are the Set 1 make codes, so the code passes through and a
// release gets the break bit. Autorepeat and codes outside the keymap yield
// false.
func FromKeyEvent(code uint16, value int32) (byte, bool) {
	if code == 0 || int(code) >= ps2.KeymapSize {
		return 0, false
	}
	switch value {
	case KeyPressed:
		return byte(code), true
	case KeyReleased:
		return Break(byte(code)), true
	default:
		return 0, false
	}
}
