// Package scrollback implements the scroll-off diff heuristic and the
// append-only scrollback.log / atomic screen.txt writers for a session
// directory.
package scrollback

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	minMatchRatio   = 0.5
	minCommonRows   = 3
	screenWriteGate = 100 * time.Millisecond
)

// Delta aligns an old screen snapshot against a new one and returns the rows
// that have scrolled off the top of the grid, in order.
//
// Alignment: locate the new grid's row 0 inside the old grid; that offset
// is how many old top rows have scrolled away. Require at least half of the
// remaining overlapping rows to also match at their aligned offset. If the
// new row 0 cannot be located anywhere in old, or fewer than minCommonRows
// rows match, the entire old grid is considered to have scrolled off.
func Delta(old, new_ []string) []string {
	if len(old) == 0 {
		return nil
	}
	if len(new_) == 0 {
		return append([]string(nil), old...)
	}

	anchor := indexOf(old, new_[0])
	if anchor < 0 {
		return append([]string(nil), old...)
	}

	overlap := len(old) - anchor
	if overlap > len(new_) {
		overlap = len(new_)
	}

	matched := 0
	for i := 0; i < overlap; i++ {
		if old[anchor+i] == new_[i] {
			matched++
		}
	}

	ratio := float64(matched) / float64(overlap)
	if matched < minCommonRows || ratio < minMatchRatio {
		return append([]string(nil), old...)
	}

	if anchor == 0 {
		return nil
	}
	return append([]string(nil), old[:anchor]...)
}

func indexOf(rows []string, target string) int {
	for i, r := range rows {
		if r == target {
			return i
		}
	}
	return -1
}

// Recorder appends scrolled-off rows to scrollback.log and periodically
// writes a full snapshot to screen.txt, both inside a session directory. A
// Recorder constructed with capture disabled is a no-op.
type Recorder struct {
	dir        string
	enabled    bool
	logFile    *os.File
	lastScreen time.Time
	prevSnap   []string
}

// New returns a recorder rooted at dir. When enabled is false every method
// is a no-op, matching the "--no-capture" configuration path.
func New(dir string, enabled bool) (*Recorder, error) {
	r := &Recorder{dir: dir, enabled: enabled}
	if !enabled {
		return r, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "scrollback.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	r.logFile = f
	return r, nil
}

// Observe takes the new screen snapshot, computes the scroll-off delta
// against the previously observed snapshot, appends it to scrollback.log
// (trailing whitespace stripped, empty rows dropped), and throttles a full
// screen.txt rewrite to at most once per 100ms.
func (r *Recorder) Observe(current []string) error {
	if !r.enabled {
		return nil
	}

	if r.prevSnap != nil {
		delta := Delta(r.prevSnap, current)
		if err := r.appendScrollback(delta); err != nil {
			return err
		}
	}
	r.prevSnap = append([]string(nil), current...)

	if time.Since(r.lastScreen) >= screenWriteGate {
		if err := r.writeScreenSnapshot(current); err != nil {
			return err
		}
		r.lastScreen = time.Now()
	}
	return nil
}

func (r *Recorder) appendScrollback(rows []string) error {
	if len(rows) == 0 || r.logFile == nil {
		return nil
	}
	var b strings.Builder
	for _, row := range rows {
		trimmed := strings.TrimRight(row, " \t")
		if trimmed == "" {
			continue
		}
		b.WriteString(trimmed)
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return nil
	}
	_, err := r.logFile.WriteString(b.String())
	return err
}

func (r *Recorder) writeScreenSnapshot(rows []string) error {
	path := filepath.Join(r.dir, "screen.txt")
	tmp := path + ".tmp"
	content := strings.Join(rows, "\n")
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Close releases the scrollback.log handle.
func (r *Recorder) Close() error {
	if r.logFile == nil {
		return nil
	}
	return r.logFile.Close()
}
