package cloud

import (
	"encoding/json"
	"testing"

	"github.com/crabigator/crabigator/internal/diffengine"
	"github.com/crabigator/crabigator/internal/gitstate"
	"github.com/crabigator/crabigator/internal/statsreader"
)

func TestNewGitEventMapsFiles(t *testing.T) {
	state := &gitstate.State{
		Branch: "main",
		Files:  []gitstate.FileStatus{{Path: "a.go", Status: "modified", Additions: 2, Deletions: 1}},
	}
	kind, payload := NewGitEvent(state)
	if kind != "git" {
		t.Fatalf("expected kind 'git', got %q", kind)
	}
	event := payload.(GitEvent)
	if len(event.Files) != 1 || event.Files[0].Path != "a.go" {
		t.Fatalf("unexpected git event payload: %+v", event)
	}
}

func TestNewChangesEventFlattensFiles(t *testing.T) {
	summary := diffengine.Summary{
		Languages: []diffengine.LanguageChanges{
			{
				Language: "Rust",
				Files: []diffengine.FileChanges{
					{Path: "a.rs", Changes: []diffengine.ChangeNode{
						{Kind: diffengine.KindFunction, Name: "run", ChangeType: diffengine.Added},
					}},
				},
			},
		},
	}
	kind, payload := NewChangesEvent(summary)
	if kind != "changes" {
		t.Fatalf("expected kind 'changes', got %q", kind)
	}
	event := payload.(ChangesEvent)
	if len(event.ByLanguage) != 1 || len(event.ByLanguage[0].Changes) != 1 {
		t.Fatalf("unexpected changes event payload: %+v", event)
	}
	if event.ByLanguage[0].Changes[0].Name != "run" {
		t.Fatalf("unexpected change name: %+v", event.ByLanguage[0].Changes[0])
	}
}

func TestNewStatsEventSumsTools(t *testing.T) {
	stats := statsreader.NewSessionStats()
	stats.Apply(statsreader.Stats{Prompts: 3, Completions: 2, Tools: map[string]int{"grep": 4}, LastUpdated: 1}, true)
	kind, payload := NewStatsEvent(stats)
	if kind != "stats" {
		t.Fatalf("expected kind 'stats', got %q", kind)
	}
	event := payload.(StatsEvent)
	if event.Tools != 4 {
		t.Fatalf("expected 4 tool calls, got %d", event.Tools)
	}
}

func TestStateEventMarshalsLowercaseState(t *testing.T) {
	_, payload := NewStateEvent(statsreader.StateThinking)
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["state"] != "thinking" {
		t.Fatalf("expected state 'thinking', got %v", decoded["state"])
	}
}
