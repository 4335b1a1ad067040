package input

import (
	"testing"

	"github.com/crabigator/crabigator/internal/keys"
)

func decodeAll(t *testing.T, buf []byte) Event {
	t.Helper()
	ev, consumed, ok := decodeNext(buf)
	if !ok {
		t.Fatalf("decodeNext(%q) did not decode", buf)
	}
	if consumed != len(buf) {
		t.Fatalf("decodeNext(%q) consumed %d bytes, expected %d", buf, consumed, len(buf))
	}
	return ev
}

func TestDecodeNextPlainRune(t *testing.T) {
	ev := decodeAll(t, []byte("x"))
	if ev.Kind != EventKey || ev.Key.Code != keys.Char || ev.Key.Char != 'x' {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestDecodeNextControlChar(t *testing.T) {
	ev := decodeAll(t, []byte{0x01})
	if ev.Key.Code != keys.Char || ev.Key.Char != 'a' || !ev.Key.Ctrl {
		t.Fatalf("expected ctrl+a, got %+v", ev.Key)
	}
}

func TestDecodeNextEnterBackspaceTab(t *testing.T) {
	if ev := decodeAll(t, []byte{'\r'}); ev.Key.Code != keys.Enter {
		t.Fatalf("expected Enter, got %+v", ev.Key)
	}
	if ev := decodeAll(t, []byte{0x7f}); ev.Key.Code != keys.Backspace {
		t.Fatalf("expected Backspace, got %+v", ev.Key)
	}
	if ev := decodeAll(t, []byte{'\t'}); ev.Key.Code != keys.Tab {
		t.Fatalf("expected Tab, got %+v", ev.Key)
	}
}

func TestDecodeNextArrowKeys(t *testing.T) {
	cases := map[string]keys.Code{
		"\x1b[A": keys.Up,
		"\x1b[B": keys.Down,
		"\x1b[C": keys.Right,
		"\x1b[D": keys.Left,
	}
	for seq, code := range cases {
		ev := decodeAll(t, []byte(seq))
		if ev.Key.Code != code {
			t.Fatalf("sequence %q: expected code %v, got %v", seq, code, ev.Key.Code)
		}
	}
}

func TestDecodeNextModifiedArrow(t *testing.T) {
	ev := decodeAll(t, []byte("\x1b[1;5C"))
	if ev.Key.Code != keys.Right || !ev.Key.Ctrl || ev.Key.Shift || ev.Key.Alt {
		t.Fatalf("expected ctrl+right, got %+v", ev.Key)
	}
}

func TestDecodeNextTildeKeys(t *testing.T) {
	ev := decodeAll(t, []byte("\x1b[3~"))
	if ev.Key.Code != keys.Delete {
		t.Fatalf("expected Delete, got %+v", ev.Key)
	}
	ev = decodeAll(t, []byte("\x1b[5~"))
	if ev.Key.Code != keys.PageUp {
		t.Fatalf("expected PageUp, got %+v", ev.Key)
	}
}

func TestDecodeNextFunctionKeySS3(t *testing.T) {
	ev := decodeAll(t, []byte("\x1bOP"))
	if ev.Key.Code != keys.Function || ev.Key.FKey != 1 {
		t.Fatalf("expected F1, got %+v", ev.Key)
	}
}

func TestDecodeNextAltKey(t *testing.T) {
	ev := decodeAll(t, []byte("\x1bx"))
	if ev.Key.Code != keys.Char || ev.Key.Char != 'x' || !ev.Key.Alt {
		t.Fatalf("expected alt+x, got %+v", ev.Key)
	}
}

func TestDecodeNextIncompleteCSIWaitsForMoreBytes(t *testing.T) {
	_, _, ok := decodeNext([]byte("\x1b[1;5"))
	if ok {
		t.Fatal("expected an incomplete CSI sequence to not decode yet")
	}
}

func TestDecodeNextSGRMouseWheel(t *testing.T) {
	ev, consumed, ok := decodeNext([]byte("\x1b[<64;10;5M"))
	if !ok {
		t.Fatal("expected SGR mouse sequence to decode")
	}
	if consumed != len("\x1b[<64;10;5M") {
		t.Fatalf("expected full sequence consumed, got %d", consumed)
	}
	if ev.Kind != EventMouseScroll || !ev.ScrollUp {
		t.Fatalf("expected scroll-up event, got %+v", ev)
	}
}
