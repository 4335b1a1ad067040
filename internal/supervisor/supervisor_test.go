package supervisor

import (
	"testing"

	"go.uber.org/zap"

	"github.com/crabigator/crabigator/internal/config"
	"github.com/crabigator/crabigator/internal/input"
	"github.com/crabigator/crabigator/internal/keys"
	"github.com/crabigator/crabigator/internal/ptyhost"
	"github.com/crabigator/crabigator/internal/session"
	"github.com/crabigator/crabigator/internal/statsreader"
	"github.com/crabigator/crabigator/internal/termscan"
	"github.com/crabigator/crabigator/internal/vscreen"
)

type fakeHost struct {
	writes  [][]byte
	running bool
	out     chan ptyhost.Chunk
}

func newFakeHost() *fakeHost {
	return &fakeHost{running: true, out: make(chan ptyhost.Chunk, 1)}
}

func (h *fakeHost) Output() <-chan ptyhost.Chunk { return h.out }
func (h *fakeHost) Write(data []byte) error {
	cp := append([]byte(nil), data...)
	h.writes = append(h.writes, cp)
	return nil
}
func (h *fakeHost) Resize(cols, rows int) error { return nil }
func (h *fakeHost) IsRunning() bool             { return h.running }
func (h *fakeHost) Close() error                { return nil }

func newTestSupervisor() (*Supervisor, *fakeHost) {
	host := newFakeHost()
	sess := session.New(config.PlatformClaude, "/tmp", 80, 24)
	s := New(Params{
		Session: sess,
		Host:    host,
		Stdout:  nopWriter{},
		Logger:  zap.NewNop(),
		Screen:  vscreen.New(sess.Layout.Cols, sess.Layout.PtyRows, zap.NewNop()),
		Scanner: termscan.New(),
		Stats:   statsreader.NewSessionStats(),
	})
	return s, host
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestHandleKeyEventForwardsPlainKey(t *testing.T) {
	s, host := newTestSupervisor()

	quit := s.handleKeyEvent(keys.Event{Code: keys.Char, Char: 'x'})
	if quit {
		t.Fatal("plain key should not quit")
	}
	if len(host.writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(host.writes))
	}
	if string(host.writes[0]) != "x" {
		t.Fatalf("expected forwarded 'x', got %q", host.writes[0])
	}
}

func TestHandleKeyEventCtrlAArmsPrefixThenQuit(t *testing.T) {
	s, host := newTestSupervisor()

	quit := s.handleKeyEvent(keys.Event{Code: keys.Char, Char: 'a', Ctrl: true})
	if quit {
		t.Fatal("arming the prefix should not quit")
	}
	if len(host.writes) != 0 {
		t.Fatalf("arming the prefix should not write, got %d writes", len(host.writes))
	}
	if !s.prefixArmed {
		t.Fatal("prefix should be armed")
	}

	quit = s.handleKeyEvent(keys.Event{Code: keys.Char, Char: 'q'})
	if !quit {
		t.Fatal("q after the prefix should quit")
	}
	if s.prefixArmed {
		t.Fatal("prefix should be cleared after use")
	}
}

func TestHandleKeyEventCtrlAThenLiteralCtrlA(t *testing.T) {
	s, host := newTestSupervisor()

	s.handleKeyEvent(keys.Event{Code: keys.Char, Char: 'a', Ctrl: true})
	quit := s.handleKeyEvent(keys.Event{Code: keys.Char, Char: 'a', Ctrl: true})
	if quit {
		t.Fatal("forwarding literal ctrl+a should not quit")
	}
	if len(host.writes) != 1 || host.writes[0][0] != 0x01 {
		t.Fatalf("expected a single 0x01 byte write, got %v", host.writes)
	}
}

func TestHandleKeyEventPrefixArrowAbsorbed(t *testing.T) {
	s, host := newTestSupervisor()

	s.handleKeyEvent(keys.Event{Code: keys.Char, Char: 'a', Ctrl: true})
	quit := s.handleKeyEvent(keys.Event{Code: keys.Up})
	if quit {
		t.Fatal("arrow after prefix should not quit")
	}
	if len(host.writes) != 0 {
		t.Fatalf("arrow after prefix should be absorbed, got %d writes", len(host.writes))
	}
	if s.prefixArmed {
		t.Fatal("prefix should be cleared even when absorbed")
	}
}

func TestHandleInputEventPasteClearsPrefix(t *testing.T) {
	s, host := newTestSupervisor()

	s.handleKeyEvent(keys.Event{Code: keys.Char, Char: 'a', Ctrl: true})
	quit := s.handleInputEvent(input.Event{Kind: input.EventPaste, Paste: []byte("hello")})
	if quit {
		t.Fatal("paste should never quit")
	}
	if s.prefixArmed {
		t.Fatal("paste should clear an armed prefix")
	}
	if len(host.writes) != 1 || string(host.writes[0]) != "\x1b[200~hello\x1b[201~" {
		t.Fatalf("expected paste forwarded verbatim, got %v", host.writes)
	}
}

func TestHandleInputEventResizeUpdatesLayout(t *testing.T) {
	s, _ := newTestSupervisor()

	quit := s.handleInputEvent(input.Event{Kind: input.EventResize, Cols: 120, Rows: 40})
	if quit {
		t.Fatal("resize should never quit")
	}
	if s.session.Layout.Cols != 120 || s.session.Layout.Rows != 40 {
		t.Fatalf("expected layout to track the resize, got %+v", s.session.Layout)
	}
}
