package ps2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeymapAlignment(t *testing.T) {
	assert.Equal(t, 0x59, KeymapSize)

	checks := map[byte]string{
		0x01: "Esc",
		0x10: "Q",
		0x1e: "A",
		0x2c: "Z",
		0x39: "Space",
		0x3b: "F1",
		0x47: "Keypad_7",
		0x58: "F12",
	}
	for sc, name := range checks {
		k, ok := Lookup(sc)
		assert.True(t, ok, "0x%02x", sc)
		assert.Equal(t, name, k.Name, "misalignment at 0x%02x", sc)
	}
}

func TestKeymapModifiersProduceNothing(t *testing.T) {
	for _, sc := range []byte{ScancodeLeftShift, ScancodeRightShift, ScancodeCapsLock, 0x1d, 0x38} {
		k, ok := Lookup(sc)
		assert.True(t, ok)
		assert.Equal(t, KeyModifier, k.Kind, "0x%02x", sc)
		assert.False(t, k.Printable())
	}
}

func TestKeymapLettersAreConsistent(t *testing.T) {
	letters := 0
	for sc := 0; sc < KeymapSize; sc++ {
		k, _ := Lookup(byte(sc))
		switch k.Kind {
		case KeyLetter:
			letters++
			assert.True(t, k.Lower >= 'a' && k.Lower <= 'z', "0x%02x", sc)
			assert.Equal(t, k.Lower-'a'+'A', k.Upper)
		case KeySymbol:
			assert.NotZero(t, k.Lower, "0x%02x", sc)
			assert.NotZero(t, k.Upper, "0x%02x", sc)
		}
	}
	assert.Equal(t, 26, letters)
}

func TestLookupRejectsBreakAndOutOfRange(t *testing.T) {
	_, ok := Lookup(0x82)
	assert.False(t, ok)
	_, ok = Lookup(0x59)
	assert.False(t, ok)
	_, ok = Lookup(0x7f)
	assert.False(t, ok)
}

func TestKeyKindString(t *testing.T) {
	assert.Equal(t, "letter", KeyLetter.String())
	assert.Equal(t, "unknown", KeyKind(9).String())
}
