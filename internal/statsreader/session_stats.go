package statsreader

import (
	"fmt"
	"time"
)

// SessionStats wraps the raw platform Stats with wall-clock session timing
// and change-detection timestamps the status band needs for idle display.
type SessionStats struct {
	WorkSeconds     uint64
	ThinkingSeconds uint64
	Platform        Stats

	lastStatsCheck   float64
	sessionStart     time.Time
	lastTick         time.Time
	thinkingAccum    float64
	lastPrompts      int
	lastCompletions  int
	PromptsChangedAt *float64
	CompletionsChangedAt *float64
}

// NewSessionStats starts a session clock at the current time.
func NewSessionStats() *SessionStats {
	now := time.Now()
	return &SessionStats{
		Platform:     emptyStats(),
		sessionStart: now,
		lastTick:     now,
	}
}

// Tick updates the elapsed work time and, treating the interval since the
// last tick as having been spent in whatever state was last polled, adds it
// to ThinkingSeconds when that state was "thinking". Call once per
// supervisor iteration.
func (s *SessionStats) Tick() {
	now := time.Now()
	s.WorkSeconds = uint64(now.Sub(s.sessionStart).Seconds())

	if s.Platform.State == StateThinking {
		s.thinkingAccum += now.Sub(s.lastTick).Seconds()
	}
	s.lastTick = now
	s.ThinkingSeconds = uint64(s.thinkingAccum)
}

// Apply merges freshly polled stats in, provided they actually advanced,
// and records when prompts/completions counters last changed.
func (s *SessionStats) Apply(stats Stats, changed bool) {
	if !changed || stats.LastUpdated <= s.lastStatsCheck {
		return
	}
	s.lastStatsCheck = stats.LastUpdated
	now := float64(time.Now().UnixMilli()) / 1000.0

	if stats.Prompts != s.lastPrompts {
		s.lastPrompts = stats.Prompts
		n := now
		s.PromptsChangedAt = &n
	}
	if stats.Completions != s.lastCompletions {
		s.lastCompletions = stats.Completions
		n := now
		s.CompletionsChangedAt = &n
	}
	s.Platform = stats
}

// TotalToolCalls sums tool invocation counts across every tool name.
func (s *SessionStats) TotalToolCalls() int {
	total := 0
	for _, n := range s.Platform.Tools {
		total += n
	}
	return total
}

// FormatThinking renders accumulated thinking time in the same "Xd Yh Zm"
// format FormatWork uses, without the "just now" case (under a minute it
// renders "0m"), or "none" if the session hasn't spent any time thinking yet.
func (s *SessionStats) FormatThinking() string {
	if s.ThinkingSeconds == 0 {
		return "none"
	}
	return formatDuration(s.ThinkingSeconds)
}

// FormatWork renders the session duration the way the status band shows it:
// "just now" under a minute, otherwise a compact "Xd Yh Zm" breakdown.
func (s *SessionStats) FormatWork() string {
	if s.WorkSeconds < 60 {
		return "just now"
	}
	return formatDuration(s.WorkSeconds)
}

func formatDuration(seconds uint64) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	mins := (seconds % 3600) / 60

	switch {
	case days > 0 && hours > 0 && mins > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	case days > 0 && hours > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case days > 0 && mins > 0:
		return fmt.Sprintf("%dd %dm", days, mins)
	case days > 0:
		return fmt.Sprintf("%dd", days)
	case hours > 0 && mins > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}
