// Package input puts the host terminal into raw mode and decodes the raw
// byte stream from stdin into high-level events: key presses, bracketed
// paste, resizes, and scroll-wheel mouse reports. It mirrors termscan's
// restartable byte-scanner shape, but runs on the opposite side of the
// pipe, decoding host keyboard input instead of child output.
package input

import (
	"bytes"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/x/term"

	"github.com/crabigator/crabigator/internal/keys"
)

// EventKind discriminates the decoded Event union.
type EventKind int

const (
	EventKey EventKind = iota
	EventPaste
	EventResize
	EventMouseScroll
	EventIgnore
)

// Event is one decoded unit of host terminal input.
type Event struct {
	Kind     EventKind
	Key      keys.Event
	Paste    []byte
	Cols     int
	Rows     int
	ScrollUp bool
}

const (
	escAmbiguityWindow = 15 * time.Millisecond
	pasteStart         = "\x1b[200~"
	pasteEnd           = "\x1b[201~"
)

// EnableRaw puts f into raw mode and returns the previous state for Restore.
func EnableRaw(f *os.File) (*term.State, error) {
	return term.MakeRaw(int(f.Fd()))
}

// Restore returns f to the terminal state captured by EnableRaw.
func Restore(f *os.File, state *term.State) error {
	return term.Restore(int(f.Fd()), state)
}

// GetSize returns f's current terminal dimensions.
func GetSize(f *os.File) (cols, rows int, err error) {
	return term.GetSize(int(f.Fd()))
}

// Reader decodes f's byte stream into Events on a background goroutine.
type Reader struct {
	f      *os.File
	events chan Event
	stopCh chan struct{}
	once   sync.Once
}

// NewReader starts decoding f (normally os.Stdin) in the background.
func NewReader(f *os.File) *Reader {
	r := &Reader{f: f, events: make(chan Event, 64), stopCh: make(chan struct{})}
	go r.run()
	go r.watchResize()
	return r
}

// Poll waits up to timeout for the next decoded event.
func (r *Reader) Poll(timeout time.Duration) (Event, bool) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case ev, ok := <-r.events:
		if !ok {
			return Event{}, false
		}
		return ev, true
	case <-t.C:
		return Event{}, false
	}
}

// Close stops both background goroutines.
func (r *Reader) Close() {
	r.once.Do(func() { close(r.stopCh) })
}

func (r *Reader) run() {
	rawCh := make(chan []byte, 16)
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := r.f.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case rawCh <- chunk:
				case <-r.stopCh:
					return
				}
			}
			if err != nil {
				close(rawCh)
				return
			}
		}
	}()

	var pending []byte
	var timer *time.Timer
	var timerC <-chan time.Time

	emit := func(ev Event) {
		if ev.Kind == EventIgnore {
			return
		}
		select {
		case r.events <- ev:
		case <-r.stopCh:
		}
	}

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		for len(pending) > 0 {
			if bytes.HasPrefix(pending, []byte(pasteStart)) {
				rest := pending[len(pasteStart):]
				idx := bytes.Index(rest, []byte(pasteEnd))
				if idx < 0 {
					break
				}
				content := append([]byte(nil), rest[:idx]...)
				emit(Event{Kind: EventPaste, Paste: content})
				pending = rest[idx+len(pasteEnd):]
				continue
			}

			if len(pending) == 1 && pending[0] == 0x1b {
				if timerC == nil {
					timer = time.NewTimer(escAmbiguityWindow)
					timerC = timer.C
				}
				break
			}

			ev, consumed, ok := decodeNext(pending)
			if !ok {
				break
			}
			stopTimer()
			emit(ev)
			pending = pending[consumed:]
		}

		select {
		case chunk, open := <-rawCh:
			if !open {
				close(r.events)
				return
			}
			pending = append(pending, chunk...)
		case <-timerC:
			timerC = nil
			emit(Event{Kind: EventKey, Key: keys.Event{Code: keys.Esc}})
			pending = nil
		case <-r.stopCh:
			return
		}
	}
}

func (r *Reader) watchResize() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-sigCh:
			cols, rows, err := GetSize(r.f)
			if err != nil {
				continue
			}
			select {
			case r.events <- Event{Kind: EventResize, Cols: cols, Rows: rows}:
			case <-r.stopCh:
				return
			}
		case <-r.stopCh:
			return
		}
	}
}

func decodeNext(buf []byte) (Event, int, bool) {
	b0 := buf[0]
	switch {
	case b0 == 0x1b:
		return decodeEscape(buf)
	case b0 == 0x00:
		return keyEvent(keys.Event{Code: keys.Null}), 1, true
	case b0 == '\r':
		return keyEvent(keys.Event{Code: keys.Enter}), 1, true
	case b0 == 0x7f || b0 == 0x08:
		return keyEvent(keys.Event{Code: keys.Backspace}), 1, true
	case b0 == '\t':
		return keyEvent(keys.Event{Code: keys.Tab}), 1, true
	case b0 < 0x20:
		return keyEvent(keys.Event{Code: keys.Char, Char: rune(b0 + 'a' - 1), Ctrl: true}), 1, true
	default:
		return decodeRune(buf)
	}
}

func keyEvent(e keys.Event) Event { return Event{Kind: EventKey, Key: e} }

func decodeRune(buf []byte) (Event, int, bool) {
	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError && size <= 1 {
		if len(buf) < utf8.UTFMax {
			return Event{}, 0, false
		}
		return keyEvent(keys.Event{Code: keys.Char, Char: rune(buf[0])}), 1, true
	}
	return keyEvent(keys.Event{Code: keys.Char, Char: r}), size, true
}

func decodeEscape(buf []byte) (Event, int, bool) {
	switch buf[1] {
	case '[':
		return decodeCSI(buf)
	case 'O':
		return decodeSS3(buf)
	default:
		r, size := utf8.DecodeRune(buf[1:])
		if r == utf8.RuneError && size <= 1 {
			if len(buf)-1 < utf8.UTFMax {
				return Event{}, 0, false
			}
			return keyEvent(keys.Event{Code: keys.Char, Char: rune(buf[1]), Alt: true}), 2, true
		}
		return keyEvent(keys.Event{Code: keys.Char, Char: r, Alt: true}), 1 + size, true
	}
}

func decodeSS3(buf []byte) (Event, int, bool) {
	if len(buf) < 3 {
		return Event{}, 0, false
	}
	var fkeyNum uint8
	switch buf[2] {
	case 'P':
		fkeyNum = 1
	case 'Q':
		fkeyNum = 2
	case 'R':
		fkeyNum = 3
	case 'S':
		fkeyNum = 4
	default:
		return keyEvent(keys.Event{Code: keys.Esc}), 1, true
	}
	return keyEvent(keys.Event{Code: keys.Function, FKey: fkeyNum}), 3, true
}

func isCSIFinal(b byte) bool { return b >= 0x40 && b <= 0x7e }

func decodeCSI(buf []byte) (Event, int, bool) {
	i := 2
	for i < len(buf) && !isCSIFinal(buf[i]) {
		i++
	}
	if i >= len(buf) {
		return Event{}, 0, false
	}
	final := buf[i]
	params := string(buf[2:i])
	consumed := i + 1

	switch final {
	case '~':
		return decodeTilde(params), consumed, true
	case 'A', 'B', 'C', 'D', 'H', 'F':
		return decodeArrowHomeEnd(final, params), consumed, true
	case 'Z':
		return keyEvent(keys.Event{Code: keys.BackTab}), consumed, true
	case 'P', 'Q', 'R', 'S':
		return decodeModifiedF1to4(final, params), consumed, true
	case 'M', 'm':
		if strings.HasPrefix(params, "<") {
			return decodeSGRMouse(params, final), consumed, true
		}
		return Event{Kind: EventIgnore}, consumed, true
	default:
		return Event{Kind: EventIgnore}, consumed, true
	}
}

type mods struct{ shift, alt, ctrl bool }

func parseMods(params string) mods {
	parts := strings.SplitN(params, ";", 2)
	if len(parts) < 2 || parts[1] == "" {
		return mods{}
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return mods{}
	}
	n--
	return mods{shift: n&1 != 0, alt: n&2 != 0, ctrl: n&4 != 0}
}

func withMods(e keys.Event, m mods) keys.Event {
	e.Shift, e.Alt, e.Ctrl = m.shift, m.alt, m.ctrl
	return e
}

func decodeTilde(params string) Event {
	m := parseMods(params)
	code := strings.SplitN(params, ";", 2)[0]

	switch code {
	case "2":
		return keyEvent(withMods(keys.Event{Code: keys.Insert}, m))
	case "3":
		return keyEvent(withMods(keys.Event{Code: keys.Delete}, m))
	case "5":
		return keyEvent(withMods(keys.Event{Code: keys.PageUp}, m))
	case "6":
		return keyEvent(withMods(keys.Event{Code: keys.PageDown}, m))
	case "1", "7":
		return keyEvent(withMods(keys.Event{Code: keys.Home}, m))
	case "4", "8":
		return keyEvent(withMods(keys.Event{Code: keys.End}, m))
	case "15":
		return keyEvent(withMods(keys.Event{Code: keys.Function, FKey: 5}, m))
	case "17":
		return keyEvent(withMods(keys.Event{Code: keys.Function, FKey: 6}, m))
	case "18":
		return keyEvent(withMods(keys.Event{Code: keys.Function, FKey: 7}, m))
	case "19":
		return keyEvent(withMods(keys.Event{Code: keys.Function, FKey: 8}, m))
	case "20":
		return keyEvent(withMods(keys.Event{Code: keys.Function, FKey: 9}, m))
	case "21":
		return keyEvent(withMods(keys.Event{Code: keys.Function, FKey: 10}, m))
	case "23":
		return keyEvent(withMods(keys.Event{Code: keys.Function, FKey: 11}, m))
	case "24":
		return keyEvent(withMods(keys.Event{Code: keys.Function, FKey: 12}, m))
	default:
		return Event{Kind: EventIgnore}
	}
}

func decodeArrowHomeEnd(final byte, params string) Event {
	m := mods{}
	if params != "" {
		m = parseMods(params)
	}
	var code keys.Code
	switch final {
	case 'A':
		code = keys.Up
	case 'B':
		code = keys.Down
	case 'C':
		code = keys.Right
	case 'D':
		code = keys.Left
	case 'H':
		code = keys.Home
	case 'F':
		code = keys.End
	}
	return keyEvent(withMods(keys.Event{Code: code}, m))
}

func decodeModifiedF1to4(final byte, params string) Event {
	m := parseMods(params)
	var n uint8
	switch final {
	case 'P':
		n = 1
	case 'Q':
		n = 2
	case 'R':
		n = 3
	case 'S':
		n = 4
	}
	return keyEvent(withMods(keys.Event{Code: keys.Function, FKey: n}, m))
}

func decodeSGRMouse(params string, final byte) Event {
	body := strings.TrimPrefix(params, "<")
	fields := strings.Split(body, ";")
	if len(fields) == 0 || final != 'M' {
		return Event{Kind: EventIgnore}
	}
	cb, err := strconv.Atoi(fields[0])
	if err != nil || cb&0x40 == 0 {
		return Event{Kind: EventIgnore}
	}
	return Event{Kind: EventMouseScroll, ScrollUp: cb&0x1 == 0}
}
