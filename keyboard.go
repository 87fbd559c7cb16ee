package c8vm

import "github.com/pkg/errors"

type KeyboardState [NumKeys]bool

// IsPressed reports whether k is down. Values past the keypad are never pressed.
func (kb KeyboardState) IsPressed(k byte) bool {
	if k >= NumKeys {
		return false
	}
	return kb[k]
}

// FirstPressed returns the lowest pressed key.
func (kb KeyboardState) FirstPressed() (byte, bool) {
	for k, pressed := range kb {
		if pressed {
			return byte(k), true
		}
	}

	return 0, false
}

// KeyboardLayout lists, for every keypad key 0x0..0xF, the character of the
// physical key bound to it.
type KeyboardLayout [NumKeys]rune

// DefaultKeyboardLayout maps the left block of a QWERTY keyboard onto the keypad:
//
//	1 2 3 4      1 2 3 C
//	q w e r  ->  4 5 6 D
//	a s d f      7 8 9 E
//	z x c v      A 0 B F
//
// "0123456789abcdef" binds every keypad key to its own hex digit instead.
var DefaultKeyboardLayout = KeyboardLayout{
	0x0: 'x',
	0x1: '1', 0x2: '2', 0x3: '3',
	0x4: 'q', 0x5: 'w', 0x6: 'e',
	0x7: 'a', 0x8: 's', 0x9: 'd',
	0xA: 'z', 0xB: 'c',
	0xC: '4', 0xD: 'r', 0xE: 'f', 0xF: 'v',
}

// LookupMap returns the reverse of the layout, from physical character to keypad key.
func LookupMap(layout KeyboardLayout) map[rune]byte {
	m := make(map[rune]byte, NumKeys)
	for k, r := range layout {
		m[r] = byte(k)
	}

	return m
}

// ParseKeyboardLayout reads a layout from 16 characters given in keypad order 0..F.
func ParseKeyboardLayout(s string) (KeyboardLayout, error) {
	var layout KeyboardLayout

	runes := []rune(s)
	if len(runes) != NumKeys {
		return layout, errors.Errorf("keyboard layout needs %d keys, got %d", NumKeys, len(runes))
	}

	seen := make(map[rune]bool, NumKeys)
	for k, r := range runes {
		if seen[r] {
			return layout, errors.Errorf("key %q is bound twice", r)
		}
		seen[r] = true
		layout[k] = r
	}

	return layout, nil
}
