package ps2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// feed applies a scancode sequence the way the interrupt handler does and
// collects the decoded output.
func feed(m *Modifiers, codes ...byte) string {
	var out []byte
	for _, sc := range codes {
		m.Update(sc)
		if c, ok := m.Decode(sc); ok {
			out = append(out, c)
		}
	}
	return string(out)
}

func TestShiftMakeAndBreak(t *testing.T) {
	var m Modifiers
	assert.Equal(t, "1", feed(&m, 0x02))
	assert.Equal(t, "!", feed(&m, ScancodeLeftShift, 0x02))
	assert.Equal(t, "1", feed(&m, 0xaa, 0x02), "shift break restores unshifted decoding")
	assert.Equal(t, "@A", feed(&m, ScancodeRightShift, 0x03, 0x1e))
	assert.Equal(t, "a", feed(&m, 0xb6, 0x1e), "right shift break must release the right latch")
}

func TestShiftLatchesAreIndependent(t *testing.T) {
	var m Modifiers
	feed(&m, ScancodeLeftShift, ScancodeRightShift, 0xaa)
	assert.True(t, m.Shifted(), "right shift still held")
	assert.Equal(t, "Q", feed(&m, 0x10))
	feed(&m, 0xb6)
	assert.False(t, m.Shifted())
}

func TestCapsLockAffectsLettersOnly(t *testing.T) {
	var m Modifiers
	assert.Equal(t, "A1;", feed(&m, ScancodeCapsLock, 0x1e, 0x02, 0x27))
	assert.Equal(t, "a!:", feed(&m, ScancodeLeftShift, 0x1e, 0x02, 0x27), "shift inverts caps for letters only")
	feed(&m, 0xaa)

	// Caps lock break is ignored; a second make toggles back.
	feed(&m, 0xba)
	assert.True(t, m.CapsLock)
	feed(&m, ScancodeCapsLock)
	assert.False(t, m.CapsLock)
	assert.Equal(t, "a", feed(&m, 0x1e))
}

func TestModifierKeysProduceNoOutput(t *testing.T) {
	var m Modifiers
	assert.Empty(t, feed(&m, ScancodeLeftShift, 0xaa, ScancodeRightShift, 0xb6, ScancodeCapsLock, 0xba))
}

func TestBreakCodesProduceNoOutput(t *testing.T) {
	var m Modifiers
	for sc := 0x81; sc <= 0xff; sc++ {
		_, ok := m.Decode(byte(sc))
		assert.False(t, ok, "break 0x%02x", sc)
	}
}

func TestDecodeIsPure(t *testing.T) {
	states := []Modifiers{{}, {ShiftLeft: true}, {CapsLock: true}, {ShiftRight: true, CapsLock: true}}
	for _, st := range states {
		for sc := 0; sc < 256; sc++ {
			c1, ok1 := st.Decode(byte(sc))
			c2, ok2 := st.Decode(byte(sc))
			assert.Equal(t, ok1, ok2)
			assert.Equal(t, c1, c2)
		}
	}
}

func TestUnknownCodesLeaveStateUnchanged(t *testing.T) {
	m := Modifiers{ShiftLeft: true, CapsLock: true}
	for _, sc := range []byte{0x00, 0x59, 0x60, 0x7f, 0xe0, 0xff, 0x81} {
		assert.False(t, m.Update(sc))
	}
	assert.Equal(t, Modifiers{ShiftLeft: true, CapsLock: true}, m)
}

func TestControlBytes(t *testing.T) {
	var m Modifiers
	assert.Equal(t, "\x1b\b\t\n ", feed(&m, 0x01, 0x0e, 0x0f, 0x1c, 0x39))
	assert.Equal(t, "=+", feed(&m, 0x0d, ScancodeLeftShift, 0x0d))
}
