// Package vscreen maintains a virtual terminal screen for introspection
// only: it is never rendered to the host. Feeding malformed escape sequences
// into the underlying VT parser must never crash the wrapper.
package vscreen

import (
	"sync"

	"github.com/hinshun/vt10x"
	"go.uber.org/zap"
)

// Screen wraps a vt10x terminal state machine with a crash boundary around
// every write.
type Screen struct {
	mu     sync.Mutex
	term   vt10x.Terminal
	logger *zap.Logger
}

// New creates a screen sized cols x rows.
func New(cols, rows int, logger *zap.Logger) *Screen {
	if logger == nil {
		logger = zap.NewNop()
	}
	term := vt10x.New(vt10x.WithSize(cols, rows))
	return &Screen{term: term, logger: logger}
}

// Write feeds passthrough bytes (OSC/DSR already stripped of requests) into
// the parser. Parser panics are recovered and logged; the screen's prior
// state is left intact rather than propagating the failure.
func (s *Screen) Write(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("virtual screen parser panic recovered", zap.Any("panic", r))
		}
	}()

	_, _ = s.term.Write(data)
}

// Resize adjusts the virtual screen's dimensions to match the PTY.
func (s *Screen) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("virtual screen resize panic recovered", zap.Any("panic", r))
		}
	}()

	s.term.Resize(cols, rows)
}

// Cursor returns the child's virtual-screen cursor position, 1-indexed for
// use in CPR replies.
func (s *Screen) Cursor() (row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.term.Cursor()
	return c.Y + 1, c.X + 1
}

// Snapshot renders the current full screen contents as plain text lines,
// one per row, for atomic capture to screen.txt.
func (s *Screen) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, rows := s.term.Size()
	lines := make([]string, 0, rows)
	for y := 0; y < rows; y++ {
		line := make([]rune, 0, cols)
		for x := 0; x < cols; x++ {
			glyph := s.term.Cell(x, y)
			ch := glyph.Char
			if ch == 0 {
				ch = ' '
			}
			line = append(line, ch)
		}
		lines = append(lines, string(line))
	}
	return lines
}

// Title returns the window title vt10x has tracked from OSC sequences, if
// the underlying parser surfaces one independent of the termscan pass.
func (s *Screen) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term.Title()
}
