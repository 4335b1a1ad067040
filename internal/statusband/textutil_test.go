package statusband

import "testing"

func TestDisplayWidthSkipsAnsiEscapes(t *testing.T) {
	s := "\x1b[38;5;2mhello\x1b[0m"
	if got := displayWidth(s); got != 5 {
		t.Fatalf("expected width 5, got %d", got)
	}
}

func TestTruncatePathKeepsTail(t *testing.T) {
	got := truncatePath("internal/statusband/textutil.go", 10)
	if got != "…xtutil.go" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if displayWidth(got) != 10 {
		t.Fatalf("expected width 10, got %d", displayWidth(got))
	}
}

func TestTruncatePathNoopWhenShort(t *testing.T) {
	if got := truncatePath("short.go", 20); got != "short.go" {
		t.Fatalf("expected unchanged, got %q", got)
	}
}

func TestTruncateMiddleElidesCenter(t *testing.T) {
	got := truncateMiddle("computeSomethingVeryLongName", 10)
	if []rune(got)[2] != '…' {
		t.Fatalf("expected ellipsis near 30%% mark, got %q", got)
	}
	if len([]rune(got)) != 10 {
		t.Fatalf("expected length 10, got %d (%q)", len([]rune(got)), got)
	}
}

func TestComputeUniqueDisplayNamesDisambiguates(t *testing.T) {
	names := computeUniqueDisplayNames([]string{"internal/a/main.go", "internal/b/main.go"})
	if names[0] == names[1] {
		t.Fatalf("expected distinct names, got %q and %q", names[0], names[1])
	}
	if names[0] != "a/main.go" || names[1] != "b/main.go" {
		t.Fatalf("unexpected display names: %v", names)
	}
}

func TestComputeUniqueDisplayNamesLeavesUniqueAlone(t *testing.T) {
	names := computeUniqueDisplayNames([]string{"internal/a/main.go", "internal/b/other.go"})
	if names[0] != "main.go" || names[1] != "other.go" {
		t.Fatalf("unexpected display names: %v", names)
	}
}

func TestFormatDiffStatsZeroChanges(t *testing.T) {
	got := formatDiffStats(0, 0)
	if got == "" {
		t.Fatal("expected placeholder output")
	}
}

func TestFormatDiffStatsAdditionsOnly(t *testing.T) {
	got := formatDiffStats(12, 0)
	if !containsRune(got, '+') {
		t.Fatalf("expected '+' marker in %q", got)
	}
	if containsRune(got, '−') {
		t.Fatalf("did not expect deletion marker in %q", got)
	}
}

func TestPadToExtendsShortContent(t *testing.T) {
	got := padTo("ab", 5)
	if displayWidth(got) != 5 {
		t.Fatalf("expected width 5, got %d (%q)", displayWidth(got), got)
	}
}

func TestPadToLeavesLongContentAlone(t *testing.T) {
	got := padTo("abcdef", 3)
	if got != "abcdef" {
		t.Fatalf("expected unchanged, got %q", got)
	}
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}
