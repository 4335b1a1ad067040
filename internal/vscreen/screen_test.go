package vscreen

import "testing"

func TestWriteAndSnapshotPlainText(t *testing.T) {
	s := New(10, 2, nil)
	s.Write([]byte("hi"))

	lines := s.Snapshot()
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(lines))
	}
	if lines[0][:2] != "hi" {
		t.Fatalf("expected first row to start with 'hi', got %q", lines[0])
	}
}

func TestWriteSurvivesMalformedSequence(t *testing.T) {
	s := New(10, 2, nil)
	s.Write([]byte("\x1b[999;999;999;999;999m\x1b[<garbage"))
	// No panic should escape; a further write must still work normally.
	s.Write([]byte("ok"))
	lines := s.Snapshot()
	if len(lines) != 2 {
		t.Fatalf("expected screen to remain usable, got %d rows", len(lines))
	}
}

func TestResizeChangesSnapshotDimensions(t *testing.T) {
	s := New(5, 3, nil)
	s.Resize(8, 4)
	lines := s.Snapshot()
	if len(lines) != 4 {
		t.Fatalf("expected 4 rows after resize, got %d", len(lines))
	}
}
