// Package scancodes computes the Set 1 scancodes the simulated keyboard sends
// for text, named keys and host input events. Every mapping is derived from
// the driver's own keymap, so decoding the output with caps lock off gives the
// input back.
package scancodes

import (
	"errors"
	"fmt"
	"strings"

	"example.com/x86-hal/hal/ps2"
)

// ErrUnmappable is returned for characters or key names no key produces.
var ErrUnmappable = errors.New("scancodes: no key produces this")

type stroke struct {
	code    byte
	shifted bool
	ok      bool
}

// byChar maps an output byte to the first key producing it, preferring keys
// that need no shift.
var byChar = func() (t [128]stroke) {
	for _, shifted := range []bool{false, true} {
		for sc := 0; sc < ps2.KeymapSize; sc++ {
			k, _ := ps2.Lookup(byte(sc))
			if !k.Printable() {
				continue
			}
			c := k.Lower
			if shifted {
				c = k.Upper
			}
			if c < 128 && !t[c].ok {
				t[c] = stroke{code: byte(sc), shifted: shifted, ok: true}
			}
		}
	}
	return t
}()

// byName maps lower-cased key names to make codes.
var byName = func() map[string]byte {
	m := make(map[string]byte, ps2.KeymapSize)
	for sc := 0; sc < ps2.KeymapSize; sc++ {
		k, _ := ps2.Lookup(byte(sc))
		if k.Name != "" {
			m[strings.ToLower(k.Name)] = byte(sc)
		}
	}
	return m
}()

// Break returns the release code for a make code.
func Break(makeCode byte) byte { return makeCode | ps2.BreakBit }

// ForChar returns the make/break sequence typing c, wrapped in a left-shift
// press and release when c is a shifted character.
func ForChar(c rune) ([]byte, error) {
	if c < 0 || c >= 128 || !byChar[c].ok {
		return nil, fmt.Errorf("%w: %q", ErrUnmappable, c)
	}
	s := byChar[c]
	if !s.shifted {
		return []byte{s.code, Break(s.code)}, nil
	}
	return []byte{
		ps2.ScancodeLeftShift, s.code, Break(s.code), Break(ps2.ScancodeLeftShift),
	}, nil
}

// ForString returns the scancodes typing input.
func ForString(input string) ([]byte, error) {
	codes := make([]byte, 0, 2*len(input))
	for _, c := range input {
		seq, err := ForChar(c)
		if err != nil {
			return nil, err
		}
		codes = append(codes, seq...)
	}
	return codes, nil
}

// ForKey returns the make code of a named key ("LShift", "CapsLock", "F1",
// "A"). Names are case-insensitive.
func ForKey(name string) (byte, error) {
	if sc, ok := byName[strings.ToLower(name)]; ok {
		return sc, nil
	}
	return 0, fmt.Errorf("%w: key %q", ErrUnmappable, name)
}

// ForSequence returns the scancodes for space-separated chords of
// "+"-joined key names, e.g. "LShift+A CapsLock B". Keys of a chord are
// pressed in order and released together once the chord is complete.
func ForSequence(sequence string) ([]byte, error) {
	var codes, release []byte
	for _, chord := range strings.Fields(sequence) {
		for _, key := range strings.Split(chord, "+") {
			sc, err := ForKey(key)
			if err != nil {
				return nil, err
			}
			codes = append(codes, sc)
			release = append(release, Break(sc))
		}
		codes = append(codes, release...)
		release = release[:0]
	}
	return codes, nil
}
