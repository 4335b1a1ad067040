package cloud

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestQueue(t *testing.T) *OfflineQueue {
	t.Helper()
	dir := t.TempDir()
	return &OfflineQueue{path: filepath.Join(dir, "offline_queue.json"), maxSize: maxQueueSize, lastPersist: time.Now()}
}

func TestEnqueueSkipsScreenAndScrollback(t *testing.T) {
	q := newTestQueue(t)
	q.Enqueue(kindScreen, ScreenEvent{Type: kindScreen, Content: "x"})
	q.Enqueue(kindScrollback, ScrollbackEvent{Type: kindScrollback, Diff: "x"})
	if q.Len() != 0 {
		t.Fatalf("expected 0 queued events, got %d", q.Len())
	}
}

func TestEnqueueAddsOtherKinds(t *testing.T) {
	q := newTestQueue(t)
	q.Enqueue("state", StateEvent{Type: "state", State: "ready"})
	if q.Len() != 1 {
		t.Fatalf("expected 1 queued event, got %d", q.Len())
	}
}

func TestEnqueueDropsOldestAtCapacity(t *testing.T) {
	q := newTestQueue(t)
	q.maxSize = 2
	q.Enqueue("state", StateEvent{Type: "state", State: "ready"})
	q.Enqueue("state", StateEvent{Type: "state", State: "thinking"})
	q.Enqueue("state", StateEvent{Type: "state", State: "complete"})
	if q.Len() != 2 {
		t.Fatalf("expected queue capped at 2, got %d", q.Len())
	}
	var last StateEvent
	if err := json.Unmarshal(q.items[len(q.items)-1].Payload, &last); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if last.State != "complete" {
		t.Fatalf("expected newest event retained, got %q", last.State)
	}
}

func TestDrainEmptiesQueue(t *testing.T) {
	q := newTestQueue(t)
	q.Enqueue("state", StateEvent{Type: "state", State: "ready"})
	q.Enqueue("state", StateEvent{Type: "state", State: "thinking"})

	drained := q.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained events, got %d", len(drained))
	}
	if !q.IsEmpty() {
		t.Fatal("expected queue to be empty after drain")
	}
}

func TestFlushPersistsDirtyQueue(t *testing.T) {
	q := newTestQueue(t)
	q.lastPersist = time.Now()
	q.mu.Lock()
	q.items = append(q.items, queuedEvent{Kind: "state", Payload: json.RawMessage(`{"type":"state"}`), QueuedAt: 1})
	q.dirty = true
	q.mu.Unlock()

	q.Flush()

	if _, err := os.Stat(q.path); err != nil {
		t.Fatalf("expected persisted file, got error: %v", err)
	}
}

func TestNewOfflineQueueReloadsPersistedItems(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, ".crabigator", "offline_queue.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("setup mkdir failed: %v", err)
	}
	data, _ := json.Marshal([]queuedEvent{{Kind: "state", Payload: json.RawMessage(`{"type":"state"}`), QueuedAt: 1}})
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}

	q, err := NewOfflineQueue()
	if err != nil {
		t.Fatalf("NewOfflineQueue: %v", err)
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 reloaded event, got %d", q.Len())
	}
}
