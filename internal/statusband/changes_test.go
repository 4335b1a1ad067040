package statusband

import (
	"strings"
	"testing"

	"github.com/crabigator/crabigator/internal/diffengine"
)

func TestChangesRowsEmptySummaryPadsBlank(t *testing.T) {
	rows := changesRows(diffengine.Summary{}, 20, 3)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if strings.TrimSpace(r) != "" {
			t.Fatalf("expected blank row, got %q", r)
		}
	}
}

func TestChangesRowsHeaderShowsLanguageAndCount(t *testing.T) {
	summary := diffengine.Summary{
		Languages: []diffengine.LanguageChanges{
			{
				Language: "Rust",
				Files: []diffengine.FileChanges{
					{
						Path:     "main.rs",
						Language: "Rust",
						Changes: []diffengine.ChangeNode{
							{Kind: diffengine.KindFunction, Name: "run", ChangeType: diffengine.Added},
						},
					},
				},
			},
		},
	}
	rows := changesRows(summary, 30, 4)
	if !strings.Contains(rows[0], "Rust") {
		t.Fatalf("expected language name in header row, got %q", rows[0])
	}
	if !strings.Contains(rows[0], "1 change") {
		t.Fatalf("expected singular change count, got %q", rows[0])
	}
}

func TestFormatChangeItemAddedUsesGreenModifier(t *testing.T) {
	change := diffengine.ChangeNode{Kind: diffengine.KindFunction, Name: "run", ChangeType: diffengine.Added}
	item := formatChangeItem(change)
	if !strings.Contains(item.text, "run") {
		t.Fatalf("expected name in item text, got %q", item.text)
	}
	if !strings.Contains(item.text, "+") {
		t.Fatalf("expected '+' modifier for added change, got %q", item.text)
	}
}

func TestChangeIconColorKnownKinds(t *testing.T) {
	icon, _ := changeIconColor(diffengine.KindStruct)
	if icon != "▣" {
		t.Fatalf("expected struct icon, got %q", icon)
	}
}
