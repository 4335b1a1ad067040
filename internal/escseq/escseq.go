// Package escseq centralizes the raw ANSI/VT escape sequences the status
// band and terminal host need: cursor save/restore, cursor addressing,
// scroll-region control and OSC 8 hyperlinks. No pack dependency targets
// this (ratatui/termenv-style libraries manage cursor addressing internally
// and don't expose raw DECSTBM scroll-region control), so these stay plain
// string constants and formatting helpers.
package escseq

import "fmt"

const (
	CursorSave    = "\x1b7"
	CursorRestore = "\x1b8"
	Reset         = "\x1b[0m"
)

// CursorTo moves the cursor to the given 1-indexed row/column.
func CursorTo(row, col int) string {
	return fmt.Sprintf("\x1b[%d;%dH", row, col)
}

// SetScrollRegion constrains scrolling to rows top..bottom (1-indexed,
// inclusive), per DECSTBM.
func SetScrollRegion(top, bottom int) string {
	return fmt.Sprintf("\x1b[%d;%dr", top, bottom)
}

// ResetScrollRegion restores the scroll region to the full screen.
func ResetScrollRegion() string {
	return "\x1b[r"
}

// Fg returns the SGR sequence selecting an xterm 256-color foreground.
func Fg(code int) string {
	return fmt.Sprintf("\x1b[38;5;%dm", code)
}

// Bg returns the SGR sequence selecting an xterm 256-color background.
func Bg(code int) string {
	return fmt.Sprintf("\x1b[48;5;%dm", code)
}

// Hyperlink wraps text in an OSC 8 hyperlink pointing at target.
func Hyperlink(target, text string) string {
	return "\x1b]8;;" + target + "\x1b\\" + text + "\x1b]8;;\x1b\\"
}

// Color codes used by the status band widgets (xterm 256-color palette).
const (
	ColorGray       = 245
	ColorDarkGray   = 240
	ColorBgDark     = 235
	ColorGreen      = 2
	ColorLightGreen = 10
	ColorYellow     = 3
	ColorCyan       = 6
	ColorPurple     = 5
	ColorBlue       = 4
	ColorLightBlue  = 12
	ColorOrange     = 208
	ColorPink       = 13
	ColorRed        = 1
	ColorFaint      = 244
)
