package session

import (
	"testing"

	"github.com/crabigator/crabigator/internal/config"
)

func TestNewLayoutReservesMinimumStatusRows(t *testing.T) {
	l := NewLayout(80, 10)
	if l.StatusRows != minStatusRows {
		t.Fatalf("expected %d status rows on a short terminal, got %d", minStatusRows, l.StatusRows)
	}
	if l.PtyRows != 7 {
		t.Fatalf("expected 7 pty rows, got %d", l.PtyRows)
	}
}

func TestNewLayoutScalesWithHeight(t *testing.T) {
	l := NewLayout(80, 50)
	if l.StatusRows != 10 {
		t.Fatalf("expected 10 status rows (20%% of 50), got %d", l.StatusRows)
	}
	if l.PtyRows != 40 {
		t.Fatalf("expected 40 pty rows, got %d", l.PtyRows)
	}
}

func TestGenerateIDIsUniqueAndLowercaseHex(t *testing.T) {
	a := GenerateID()
	b := GenerateID()
	if a == b {
		t.Fatal("expected distinct ids across consecutive calls")
	}
	for _, r := range a {
		if !(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'f') {
			t.Fatalf("id %q contains a non-hex character %q", a, r)
		}
	}
}

func TestNewPopulatesSessionFromLayout(t *testing.T) {
	s := New(config.PlatformClaude, "/tmp/work", 100, 40)
	if s.Platform != config.PlatformClaude {
		t.Fatalf("expected platform to be preserved, got %v", s.Platform)
	}
	if s.Cwd != "/tmp/work" {
		t.Fatalf("expected cwd to be preserved, got %q", s.Cwd)
	}
	if s.Layout.Cols != 100 || s.Layout.Rows != 40 {
		t.Fatalf("expected layout to match requested size, got %+v", s.Layout)
	}
	if s.ID == "" {
		t.Fatal("expected a non-empty generated id")
	}
}
