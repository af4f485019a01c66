package ps2

// Set 1 scancodes with special meaning to the driver.
const (
	ScancodeLeftShift  byte = 0x2a
	ScancodeRightShift byte = 0x36
	ScancodeCapsLock   byte = 0x3a

	// BreakBit is set on the release (break) code of every key.
	BreakBit byte = 0x80
)

// KeyKind classifies a keymap entry.
type KeyKind uint8

const (
	// KeyNone produces no output (function keys, unused codes).
	KeyNone KeyKind = iota
	// KeyModifier changes or would change modifier state and produces no output.
	KeyModifier
	// KeyLetter is case-inverted by caps lock as well as shift.
	KeyLetter
	// KeySymbol follows shift only (digits, punctuation, whitespace, control bytes).
	KeySymbol
)

func (k KeyKind) String() string {
	switch k {
	case KeyNone:
		return "none"
	case KeyModifier:
		return "modifier"
	case KeyLetter:
		return "letter"
	case KeySymbol:
		return "symbol"
	default:
		return "unknown"
	}
}

// Key is one keymap entry: what a make code produces unshifted and shifted.
type Key struct {
	Kind  KeyKind
	Lower byte
	Upper byte
	Name  string
}

// Printable reports whether the key produces output.
func (k Key) Printable() bool {
	return k.Kind == KeyLetter || k.Kind == KeySymbol
}

func letter(c byte) Key {
	return Key{Kind: KeyLetter, Lower: c, Upper: c - 'a' + 'A', Name: string(c - 'a' + 'A')}
}

func symbol(lower, upper byte, name string) Key {
	return Key{Kind: KeySymbol, Lower: lower, Upper: upper, Name: name}
}

func modifier(name string) Key { return Key{Kind: KeyModifier, Name: name} }

func none(name string) Key { return Key{Kind: KeyNone, Name: name} }

// keymap is the US layout for Set 1 make codes 0x00..0x58.
var keymap = [...]Key{
	0x00: none("Error"),
	0x01: symbol(0x1b, 0x1b, "Esc"), // ESC byte, so line editors can see it
	0x02: symbol('1', '!', "1"),
	0x03: symbol('2', '@', "2"),
	0x04: symbol('3', '#', "3"),
	0x05: symbol('4', '$', "4"),
	0x06: symbol('5', '%', "5"),
	0x07: symbol('6', '^', "6"),
	0x08: symbol('7', '&', "7"),
	0x09: symbol('8', '*', "8"),
	0x0a: symbol('9', '(', "9"),
	0x0b: symbol('0', ')', "0"),
	0x0c: symbol('-', '_', "-"),
	0x0d: symbol('=', '+', "="),
	0x0e: symbol('\b', '\b', "Backspace"), // ReadLine erases on it
	0x0f: symbol('\t', '\t', "Tab"),
	0x10: letter('q'),
	0x11: letter('w'),
	0x12: letter('e'),
	0x13: letter('r'),
	0x14: letter('t'),
	0x15: letter('y'),
	0x16: letter('u'),
	0x17: letter('i'),
	0x18: letter('o'),
	0x19: letter('p'),
	0x1a: symbol('[', '{', "["),
	0x1b: symbol(']', '}', "]"),
	0x1c: symbol('\n', '\n', "Enter"),
	0x1d: modifier("LCtrl"),
	0x1e: letter('a'),
	0x1f: letter('s'),
	0x20: letter('d'),
	0x21: letter('f'),
	0x22: letter('g'),
	0x23: letter('h'),
	0x24: letter('j'),
	0x25: letter('k'),
	0x26: letter('l'),
	0x27: symbol(';', ':', ";"),
	0x28: symbol('\'', '"', "'"),
	0x29: symbol('`', '~', "`"),
	0x2a: modifier("LShift"),
	0x2b: symbol('\\', '|', "\\"),
	0x2c: letter('z'),
	0x2d: letter('x'),
	0x2e: letter('c'),
	0x2f: letter('v'),
	0x30: letter('b'),
	0x31: letter('n'),
	0x32: letter('m'),
	0x33: symbol(',', '<', ","),
	0x34: symbol('.', '>', "."),
	0x35: symbol('/', '?', "/"),
	0x36: modifier("RShift"),
	0x37: symbol('*', '*', "Keypad_*"),
	0x38: modifier("LAlt"),
	0x39: symbol(' ', ' ', "Space"),
	0x3a: modifier("CapsLock"),
	0x3b: none("F1"),
	0x3c: none("F2"),
	0x3d: none("F3"),
	0x3e: none("F4"),
	0x3f: none("F5"),
	0x40: none("F6"),
	0x41: none("F7"),
	0x42: none("F8"),
	0x43: none("F9"),
	0x44: none("F10"),
	0x45: modifier("NumLock"),
	0x46: modifier("ScrollLock"),
	0x47: none("Keypad_7"),
	0x48: none("Keypad_8"),
	0x49: none("Keypad_9"),
	0x4a: symbol('-', '-', "Keypad_-"),
	0x4b: none("Keypad_4"),
	0x4c: none("Keypad_5"),
	0x4d: none("Keypad_6"),
	0x4e: symbol('+', '+', "Keypad_+"),
	0x4f: none("Keypad_1"),
	0x50: none("Keypad_2"),
	0x51: none("Keypad_3"),
	0x52: none("Keypad_0"),
	0x53: none("Keypad_."),
	0x54: none("Alt_SysRq"),
	0x55: none(""),
	0x56: none("102nd"),
	0x57: none("F11"),
	0x58: none("F12"),
}

// KeymapSize is the number of make codes the keymap covers (0x00..0x58).
const KeymapSize = len(keymap)

// Lookup returns the keymap entry for a make code. It reports false for
// break codes and codes past the table.
func Lookup(scancode byte) (Key, bool) {
	if scancode&BreakBit != 0 || int(scancode) >= KeymapSize {
		return Key{}, false
	}
	return keymap[scancode], true
}
