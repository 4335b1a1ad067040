// Package keys translates high-level key events read from the host terminal
// into the xterm byte sequences the child assistant expects on its PTY.
package keys

import "fmt"

// Code identifies the class of key that was pressed.
type Code int

const (
	Char Code = iota
	Enter
	Backspace
	Tab
	BackTab
	Esc
	Up
	Down
	Right
	Left
	Home
	End
	PageUp
	PageDown
	Delete
	Insert
	Function
	Null
)

// Event is a decoded key press, independent of any specific terminal input
// library: modifiers follow the xterm convention of shift/alt/ctrl booleans.
type Event struct {
	Code  Code
	Char  rune // valid when Code == Char
	FKey  uint8 // valid when Code == Function, 1..12
	Shift bool
	Alt   bool
	Ctrl  bool
}

// modifierCode implements the xterm convention: 1 + shift + 2*alt + 4*ctrl.
func modifierCode(e Event) int {
	code := 1
	if e.Shift {
		code++
	}
	if e.Alt {
		code += 2
	}
	if e.Ctrl {
		code += 4
	}
	return code
}

// Encode produces the PTY-bound byte sequence for a single key event.
func Encode(e Event) []byte {
	mod := modifierCode(e)
	hasMod := mod > 1

	switch e.Code {
	case Char:
		return encodeChar(e.Char, e.Ctrl, e.Alt, e.Shift)
	case Enter:
		return []byte{'\r'}
	case Backspace:
		return encodeBackspace(e.Alt, e.Ctrl)
	case Tab:
		return encodeTab(e.Shift, e.Ctrl, mod)
	case BackTab:
		return []byte{0x1b, '[', 'Z'}
	case Esc:
		return []byte{0x1b}
	case Up:
		return encodeArrow('A', hasMod, mod)
	case Down:
		return encodeArrow('B', hasMod, mod)
	case Right:
		return encodeArrow('C', hasMod, mod)
	case Left:
		return encodeArrow('D', hasMod, mod)
	case Home:
		return encodeHomeEnd('H', hasMod, mod)
	case End:
		return encodeHomeEnd('F', hasMod, mod)
	case PageUp:
		return encodePage(5, hasMod, mod)
	case PageDown:
		return encodePage(6, hasMod, mod)
	case Delete:
		return encodeDelete(e.Alt, e.Ctrl, e.Shift, hasMod, mod)
	case Insert:
		return encodeInsert(hasMod, mod)
	case Function:
		return encodeFunctionKey(e.FKey, hasMod, mod)
	case Null:
		return []byte{0x00}
	default:
		return nil
	}
}

func encodeChar(c rune, ctrl, alt, shift bool) []byte {
	switch {
	case ctrl && !alt && !shift:
		lower := c
		if lower >= 'A' && lower <= 'Z' {
			lower = lower - 'A' + 'a'
		}
		return []byte{byte(lower) & 0x1f}
	case alt && !ctrl:
		return append([]byte{0x1b}, []byte(string(c))...)
	case ctrl && alt:
		lower := c
		if lower >= 'A' && lower <= 'Z' {
			lower = lower - 'A' + 'a'
		}
		return []byte{0x1b, byte(lower) & 0x1f}
	default:
		return []byte(string(c))
	}
}

func encodeBackspace(alt, ctrl bool) []byte {
	if alt || ctrl {
		return []byte{0x1b, 0x7f}
	}
	return []byte{0x7f}
}

func encodeTab(shift, ctrl bool, mod int) []byte {
	switch {
	case shift:
		return []byte{0x1b, '[', 'Z'}
	case ctrl:
		return []byte(fmt.Sprintf("\x1b[9;%d~", mod))
	default:
		return []byte{'\t'}
	}
}

func encodeArrow(direction byte, hasMod bool, mod int) []byte {
	if hasMod {
		return []byte(fmt.Sprintf("\x1b[1;%d%c", mod, direction))
	}
	return []byte{0x1b, '[', direction}
}

func encodeHomeEnd(key byte, hasMod bool, mod int) []byte {
	if hasMod {
		return []byte(fmt.Sprintf("\x1b[1;%d%c", mod, key))
	}
	return []byte{0x1b, '[', key}
}

func encodePage(code int, hasMod bool, mod int) []byte {
	if hasMod {
		return []byte(fmt.Sprintf("\x1b[%d;%d~", code, mod))
	}
	return []byte{0x1b, '[', byte('0' + code), '~'}
}

func encodeDelete(alt, ctrl, shift, hasMod bool, mod int) []byte {
	switch {
	case alt && !ctrl && !shift:
		return []byte{0x1b, 'd'}
	case hasMod:
		return []byte(fmt.Sprintf("\x1b[3;%d~", mod))
	default:
		return []byte{0x1b, '[', '3', '~'}
	}
}

func encodeInsert(hasMod bool, mod int) []byte {
	if hasMod {
		return []byte(fmt.Sprintf("\x1b[2;%d~", mod))
	}
	return []byte{0x1b, '[', '2', '~'}
}

var f1to4 = map[uint8]byte{1: 'P', 2: 'Q', 3: 'R', 4: 'S'}
var f5to12 = map[uint8]int{5: 15, 6: 17, 7: 18, 8: 19, 9: 20, 10: 21, 11: 23, 12: 24}

func encodeFunctionKey(n uint8, hasMod bool, mod int) []byte {
	if n >= 1 && n <= 4 {
		letter := f1to4[n]
		if hasMod {
			return []byte(fmt.Sprintf("\x1b[1;%d%c", mod, letter))
		}
		return []byte(fmt.Sprintf("\x1bO%c", letter))
	}
	if num, ok := f5to12[n]; ok {
		if hasMod {
			return []byte(fmt.Sprintf("\x1b[%d;%d~", num, mod))
		}
		return []byte(fmt.Sprintf("\x1b[%d~", num))
	}
	return nil
}

// EncodePaste returns bracketed-paste text as a single unencoded chunk; the
// bracketing sequences themselves are forwarded by the caller as received.
func EncodePaste(text []byte) []byte {
	out := make([]byte, len(text))
	copy(out, text)
	return out
}
