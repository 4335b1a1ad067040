package ideurl

import "testing"

func TestBuildVSCodeWithLine(t *testing.T) {
	got := Build(SchemeVSCode, "/repo/main.go", 42)
	want := "vscode://file/repo/main.go:42"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestBuildFileFallback(t *testing.T) {
	got := Build(SchemeFile, "/repo/main.go", 0)
	if got != "file:///repo/main.go" {
		t.Fatalf("got %q", got)
	}
}

func TestDetectDefaultsToFile(t *testing.T) {
	t.Setenv("CURSOR_TRACE_ID", "")
	t.Setenv("CURSOR_EDITOR", "")
	t.Setenv("TERM_PROGRAM", "")
	t.Setenv("VSCODE_PID", "")
	t.Setenv("TERMINAL_EMULATOR", "")
	t.Setenv("ZED_TERM", "")

	if got := Detect(); got != SchemeFile {
		t.Fatalf("expected SchemeFile, got %s", got)
	}
}

func TestHyperlinkWrapsOSC8(t *testing.T) {
	got := Hyperlink("file:///x", "x")
	if got[:5] != "\x1b]8;;" {
		t.Fatalf("missing OSC 8 open sequence: %q", got)
	}
}
