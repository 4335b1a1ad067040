package mirror

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/crabigator/crabigator/internal/diffengine"
	"github.com/crabigator/crabigator/internal/gitstate"
	"github.com/crabigator/crabigator/internal/statsreader"
)

func TestDisabledPublisherNeverWrites(t *testing.T) {
	p := New(false, "test-session", "/tmp/repo", false)
	ok, err := p.MaybePublish(statsreader.NewSessionStats(), &gitstate.State{}, diffengine.Summary{}, "", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected disabled publisher to skip publishing")
	}
}

func TestMaybePublishWritesAtomicFile(t *testing.T) {
	sessionID := "unit-test-session"
	p := New(true, sessionID, "/tmp/repo", false)
	t.Cleanup(func() { os.RemoveAll(p.SessionDir()) })

	ok, err := p.MaybePublish(statsreader.NewSessionStats(), &gitstate.State{Branch: "main", InRepo: true}, diffengine.Summary{}, "my title", nil, nil)
	if err != nil {
		t.Fatalf("MaybePublish error: %v", err)
	}
	if !ok {
		t.Fatal("expected first publish to occur")
	}

	if _, err := os.Stat(filepath.Join(p.SessionDir(), "inspect.json.tmp")); !os.IsNotExist(err) {
		t.Fatal("expected temp file to be renamed away")
	}

	data, err := os.ReadFile(p.MirrorPath())
	if err != nil {
		t.Fatalf("expected mirror file to exist: %v", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("invalid JSON written: %v", err)
	}
	if state.TerminalTitle != "my title" {
		t.Fatalf("unexpected terminal title: %q", state.TerminalTitle)
	}
}

func TestMaybePublishThrottlesUnchangedContent(t *testing.T) {
	p := New(true, "throttle-session", "/tmp/repo", false)
	t.Cleanup(func() { os.RemoveAll(p.SessionDir()) })

	stats := statsreader.NewSessionStats()
	git := &gitstate.State{Branch: "main"}
	diff := diffengine.Summary{}

	ok, err := p.MaybePublish(stats, git, diff, "", nil, nil)
	if err != nil || !ok {
		t.Fatalf("expected first publish to succeed, ok=%v err=%v", ok, err)
	}

	ok, err = p.MaybePublish(stats, git, diff, "", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected throttled publish to be skipped")
	}
}

func TestCleanupRemovesMirrorFile(t *testing.T) {
	p := New(true, "cleanup-session", "/tmp/repo", false)
	t.Cleanup(func() { os.RemoveAll(p.SessionDir()) })

	if _, err := p.MaybePublish(statsreader.NewSessionStats(), &gitstate.State{}, diffengine.Summary{}, "", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Cleanup()
	if _, err := os.Stat(p.MirrorPath()); !os.IsNotExist(err) {
		t.Fatal("expected mirror file to be removed after cleanup")
	}
}

func TestRenderChangesPreviewEmptySummary(t *testing.T) {
	lines := renderChangesPreview(diffengine.Summary{})
	if len(lines) != 1 || lines[0] != "No changes" {
		t.Fatalf("expected single 'No changes' line, got %v", lines)
	}
}
