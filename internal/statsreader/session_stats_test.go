package statsreader

import (
	"testing"
	"time"
)

func TestSessionStatsFormatWorkUnderMinute(t *testing.T) {
	s := NewSessionStats()
	s.WorkSeconds = 30
	if got := s.FormatWork(); got != "just now" {
		t.Fatalf("expected 'just now', got %q", got)
	}
}

func TestSessionStatsFormatWorkHoursMinutes(t *testing.T) {
	s := NewSessionStats()
	s.WorkSeconds = 3*3600 + 5*60
	if got := s.FormatWork(); got != "3h 5m" {
		t.Fatalf("expected '3h 5m', got %q", got)
	}
}

func TestSessionStatsApplyIgnoresStaleUpdate(t *testing.T) {
	s := NewSessionStats()
	s.Apply(Stats{Prompts: 1, LastUpdated: 5}, true)
	if s.Platform.Prompts != 1 {
		t.Fatalf("expected first apply to take effect, got %+v", s.Platform)
	}
	s.Apply(Stats{Prompts: 2, LastUpdated: 5}, true)
	if s.Platform.Prompts != 1 {
		t.Fatalf("expected stale update to be ignored, got %+v", s.Platform)
	}
}

func TestSessionStatsTotalToolCalls(t *testing.T) {
	s := NewSessionStats()
	s.Apply(Stats{Tools: map[string]int{"grep": 2, "edit": 3}, LastUpdated: 1}, true)
	if s.TotalToolCalls() != 5 {
		t.Fatalf("expected 5 total tool calls, got %d", s.TotalToolCalls())
	}
}

func TestSessionStatsTickAccumulatesThinkingTime(t *testing.T) {
	s := NewSessionStats()
	s.Platform.State = StateThinking
	s.lastTick = time.Now().Add(-2 * time.Second)

	s.Tick()

	if s.ThinkingSeconds < 1 {
		t.Fatalf("expected thinking time to accumulate while state is thinking, got %d", s.ThinkingSeconds)
	}
	if got := s.FormatThinking(); got == "none" {
		t.Fatalf("expected a non-zero thinking duration, got %q", got)
	}
}

func TestSessionStatsTickIgnoresNonThinkingState(t *testing.T) {
	s := NewSessionStats()
	s.Platform.State = StateReady
	s.lastTick = time.Now().Add(-2 * time.Second)

	s.Tick()

	if s.ThinkingSeconds != 0 {
		t.Fatalf("expected no thinking time outside the thinking state, got %d", s.ThinkingSeconds)
	}
	if got := s.FormatThinking(); got != "none" {
		t.Fatalf("expected 'none', got %q", got)
	}
}
