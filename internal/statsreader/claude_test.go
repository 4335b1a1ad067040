package statsreader

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeSidecar(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
}

func TestClaudeReaderDropsUnchangedTimestamp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.json")
	r := &ClaudeReader{path: path, stats: emptyStats()}

	writeSidecar(t, path, `{"prompts":1,"state":"thinking","last_updated":100}`)
	stats, changed := r.Poll()
	if !changed || stats.Prompts != 1 {
		t.Fatalf("expected first poll to register change, got %+v changed=%v", stats, changed)
	}

	stats, changed = r.Poll()
	if changed {
		t.Fatalf("expected second poll on same file to be dropped")
	}
	if stats.Prompts != 1 {
		t.Fatalf("expected stats preserved, got %+v", stats)
	}
}

func TestClaudeReaderAdvancesOnNewTimestamp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.json")
	r := &ClaudeReader{path: path, stats: emptyStats()}

	writeSidecar(t, path, `{"prompts":1,"last_updated":100}`)
	r.Poll()

	writeSidecar(t, path, `{"prompts":2,"last_updated":200}`)
	stats, changed := r.Poll()
	if !changed || stats.Prompts != 2 {
		t.Fatalf("expected advance to be picked up, got %+v changed=%v", stats, changed)
	}
}

func TestClaudeReaderMissingFileIsNotError(t *testing.T) {
	r := NewClaudeReader("nonexistent-session")
	stats, changed := r.Poll()
	if changed {
		t.Fatalf("expected no change for missing sidecar")
	}
	if stats.State != StateReady {
		t.Fatalf("expected default ready state, got %s", stats.State)
	}
}

func ExampleNewClaudeReader() {
	r := NewClaudeReader("abc123")
	fmt.Println(r.path)
	// Output: /tmp/crabigator-stats-abc123.json
}
