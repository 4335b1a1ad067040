// Package statusband renders the three-widget status band (stats, git,
// changes) that occupies the bottom rows of the host terminal, below the
// child's scroll region.
package statusband

import (
	"fmt"
	"io"
	"strings"

	"github.com/crabigator/crabigator/internal/diffengine"
	"github.com/crabigator/crabigator/internal/escseq"
	"github.com/crabigator/crabigator/internal/gitstate"
	"github.com/crabigator/crabigator/internal/ideurl"
	"github.com/crabigator/crabigator/internal/statsreader"
)

// Layout describes where the band sits within the host terminal.
type Layout struct {
	PtyRows    int
	TotalCols  int
	StatusRows int
}

// Model bundles everything a render needs to read; the supervisor refreshes
// it on its own cadence and redraws only when something in here changed.
type Model struct {
	Stats *statsreader.SessionStats
	Git   *gitstate.State
	Diff  diffengine.Summary
	IDE   ideurl.Scheme
	Cwd   string
}

// Render draws the entire status band: a separator line, then StatusRows-1
// content rows split into stats/git/changes columns. Writes are bracketed
// by cursor save/restore so the child's own cursor position is preserved.
func Render(w io.Writer, layout Layout, model Model) error {
	var b strings.Builder

	b.WriteString(escseq.CursorSave)
	b.WriteString(escseq.CursorTo(layout.PtyRows+1, 1))

	b.WriteString(escseq.Bg(escseq.ColorBgDark))
	b.WriteString(escseq.Fg(escseq.ColorDarkGray))
	b.WriteString(strings.Repeat("─", layout.TotalCols))
	b.WriteString(escseq.Reset)

	statsWidth := int(float64(layout.TotalCols) * 0.15)
	if statsWidth < 22 {
		statsWidth = 22
	}
	remaining := layout.TotalCols - statsWidth - 2
	if remaining < 0 {
		remaining = 0
	}
	gitWidth := remaining / 2
	changesWidth := remaining - gitWidth

	gitContent := gitRows(model.Git, gitWidth, layout.StatusRows-1, model.IDE, model.Cwd)
	changesContent := changesRows(model.Diff, changesWidth, layout.StatusRows-1)

	for row := 1; row < layout.StatusRows; row++ {
		b.WriteString(escseq.CursorTo(layout.PtyRows+1+row, 1))

		b.WriteString(statsRow(row, statsWidth, model.Stats))
		b.WriteString(fmt.Sprintf("%s│%s", escseq.Fg(escseq.ColorDarkGray), escseq.Reset))

		idx := row - 1
		if idx < len(gitContent) {
			b.WriteString(gitContent[idx])
		}
		b.WriteString(fmt.Sprintf("%s│%s", escseq.Fg(escseq.ColorDarkGray), escseq.Reset))

		if idx < len(changesContent) {
			b.WriteString(changesContent[idx])
		}
	}

	b.WriteString(escseq.CursorRestore)

	_, err := io.WriteString(w, b.String())
	return err
}

// EnterAltRegion sets the scroll region to the PTY rows and homes the
// cursor, so child output never scrolls into the status band.
func EnterAltRegion(w io.Writer, ptyRows int) error {
	_, err := io.WriteString(w, escseq.SetScrollRegion(1, ptyRows)+escseq.CursorTo(1, 1))
	return err
}

// ExitAltRegion restores the full-screen scroll region and parks the
// cursor below the last content row, for a clean exit.
func ExitAltRegion(w io.Writer, totalRows int) error {
	_, err := io.WriteString(w, escseq.ResetScrollRegion()+escseq.CursorTo(totalRows, 1)+"\n")
	return err
}
