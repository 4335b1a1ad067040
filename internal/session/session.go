// Package session holds the process-wide Session record: identity, platform,
// working directory, and the host/PTY row split derived from terminal size.
package session

import (
	"fmt"
	"os"
	"time"

	"github.com/crabigator/crabigator/internal/config"
)

const (
	minStatusRows   = 3
	statusRowsRatio = 0.2
)

// Layout is the scroll-region/status-band row split for a given terminal
// size. PtyRows is reserved for the child, StatusRows for the wrapper.
type Layout struct {
	Cols       int
	Rows       int
	PtyRows    int
	StatusRows int
}

// NewLayout computes the split for a host terminal of the given size: the
// bottom 20% (minimum 3 rows) goes to the status band, the rest to the PTY.
func NewLayout(cols, rows int) Layout {
	statusRows := int(float64(rows) * statusRowsRatio)
	if statusRows < minStatusRows {
		statusRows = minStatusRows
	}
	ptyRows := rows - statusRows
	if ptyRows < 1 {
		ptyRows = 1
	}
	return Layout{Cols: cols, Rows: rows, PtyRows: ptyRows, StatusRows: statusRows}
}

// Session is the process-wide record created once per wrapper invocation.
type Session struct {
	ID       string
	Platform config.Platform
	Cwd      string
	Started  time.Time
	Layout   Layout
}

// New creates a session for the given platform/cwd/terminal size, generating
// a fresh id.
func New(platform config.Platform, cwd string, cols, rows int) *Session {
	return &Session{
		ID:       GenerateID(),
		Platform: platform,
		Cwd:      cwd,
		Started:  time.Now(),
		Layout:   NewLayout(cols, rows),
	}
}

// GenerateID produces a lowercase-hex id from the process id and a
// monotonic-ish timestamp component, matching the scheme the hook sidecar
// and session directory names are keyed on.
func GenerateID() string {
	pid := os.Getpid()
	nanos := time.Now().UnixNano()
	return fmt.Sprintf("%x%x", pid, nanos%0xFFFFFFFF)
}

// Resize recomputes the layout for a new terminal size.
func (s *Session) Resize(cols, rows int) {
	s.Layout = NewLayout(cols, rows)
}
