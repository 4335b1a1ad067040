// Package ideurl builds OSC 8 hyperlink targets for file paths, choosing a
// URL scheme auto-detected from the host environment. The wrapper has no
// configuration setting that selects or overrides the scheme.
package ideurl

import (
	"fmt"
	"net/url"
	"os"
)

// Scheme names the IDE URL convention used to build file hyperlinks.
type Scheme string

const (
	SchemeVSCode Scheme = "vscode"
	SchemeCursor Scheme = "cursor"
	SchemeIdea   Scheme = "idea"
	SchemeZed    Scheme = "zed"
	SchemeSublime Scheme = "sublime"
	SchemeFile   Scheme = "file"
)

// Detect inspects environment variables IDE terminals commonly set and
// returns the matching scheme, falling back to SchemeFile.
func Detect() Scheme {
	switch {
	case os.Getenv("CURSOR_TRACE_ID") != "" || os.Getenv("CURSOR_EDITOR") != "":
		return SchemeCursor
	case os.Getenv("TERM_PROGRAM") == "vscode", os.Getenv("VSCODE_PID") != "":
		return SchemeVSCode
	case os.Getenv("TERMINAL_EMULATOR") == "JetBrains-JediTerm":
		return SchemeIdea
	case os.Getenv("ZED_TERM") != "":
		return SchemeZed
	default:
		return SchemeFile
	}
}

// Build returns the URL an OSC 8 hyperlink should target for the given
// absolute file path, optionally positioned at a line number (0 = none).
func Build(scheme Scheme, path string, line int) string {
	switch scheme {
	case SchemeVSCode:
		return fmt.Sprintf("vscode://file%s", withLine(path, line, ":"))
	case SchemeCursor:
		return fmt.Sprintf("cursor://file%s", withLine(path, line, ":"))
	case SchemeIdea:
		return fmt.Sprintf("idea://open?file=%s%s", url.PathEscape(path), ideaLineSuffix(line))
	case SchemeZed:
		return fmt.Sprintf("zed://file%s", withLine(path, line, ":"))
	case SchemeSublime:
		return fmt.Sprintf("subl://open?url=file://%s%s", url.PathEscape(path), ideaLineSuffix(line))
	default:
		return fmt.Sprintf("file://%s", path)
	}
}

func withLine(path string, line int, sep string) string {
	if line <= 0 {
		return path
	}
	return fmt.Sprintf("%s%s%d", path, sep, line)
}

func ideaLineSuffix(line int) string {
	if line <= 0 {
		return ""
	}
	return fmt.Sprintf("&line=%d", line)
}

// Hyperlink wraps text in an OSC 8 escape sequence pointing at target. An
// empty target closes an open hyperlink.
func Hyperlink(target, text string) string {
	return fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", target, text)
}
