package cloud

import (
	"time"

	"github.com/crabigator/crabigator/internal/diffengine"
	"github.com/crabigator/crabigator/internal/gitstate"
	"github.com/crabigator/crabigator/internal/statsreader"
)

// ScrollbackEvent carries newly appended scrollback lines since the last
// update, rather than the full buffer.
type ScrollbackEvent struct {
	Type       string `json:"type"`
	Diff       string `json:"diff"`
	TotalLines int    `json:"total_lines"`
}

// StateEvent reports a session state machine transition.
type StateEvent struct {
	Type      string          `json:"type"`
	State     statsreader.State `json:"state"`
	Timestamp int64           `json:"timestamp"`
}

// GitFile is one changed file in a GitEvent.
type GitFile struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// GitEvent reports the working tree's current branch and changed files.
type GitEvent struct {
	Type   string    `json:"type"`
	Branch string    `json:"branch"`
	Files  []GitFile `json:"files"`
}

// CodeChange is one symbol-level change within a ChangesEvent.
type CodeChange struct {
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	ChangeType string `json:"change_type"`
	Additions  int    `json:"additions"`
	Deletions  int    `json:"deletions"`
	FilePath   string `json:"file_path,omitempty"`
	LineNumber int    `json:"line_number,omitempty"`
}

// LanguageChanges groups CodeChanges by language for a ChangesEvent.
type LanguageChanges struct {
	Language string       `json:"language"`
	Changes  []CodeChange `json:"changes"`
}

// ChangesEvent reports the semantic diff engine's latest summary.
type ChangesEvent struct {
	Type       string            `json:"type"`
	ByLanguage []LanguageChanges `json:"by_language"`
}

// StatsEvent reports session activity counters.
type StatsEvent struct {
	Type            string `json:"type"`
	Prompts         int    `json:"prompts"`
	Completions     int    `json:"completions"`
	Tools           int    `json:"tools"`
	ThinkingSeconds uint64 `json:"thinking_seconds"`
	WorkSeconds     uint64 `json:"work_seconds"`
}

// ScreenEvent carries a full ANSI screen snapshot, for clients that join a
// session mid-stream.
type ScreenEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// TitleEvent reports a terminal title change observed via OSC sequences.
type TitleEvent struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

// ToDesktopMessage is a message the cloud forwards down to this desktop
// session, typically a mobile-originated answer to a pending question.
type ToDesktopMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Scrollback does not get queued while offline (see queue.go): it's large
// and ephemeral, and replaying a stale diff after reconnecting would desync
// the server's view of the buffer.
const (
	kindScrollback = "scrollback"
	kindScreen     = "screen"
)

// NewScrollbackEvent builds a scrollback append event.
func NewScrollbackEvent(diff string, totalLines int) (string, any) {
	return kindScrollback, ScrollbackEvent{Type: kindScrollback, Diff: diff, TotalLines: totalLines}
}

// NewStateEvent builds a session state transition event.
func NewStateEvent(state statsreader.State) (string, any) {
	return "state", StateEvent{Type: "state", State: state, Timestamp: time.Now().UnixMilli()}
}

// NewScreenEvent builds a full-screen snapshot event.
func NewScreenEvent(content string) (string, any) {
	return kindScreen, ScreenEvent{Type: kindScreen, Content: content}
}

// NewTitleEvent builds a terminal title event.
func NewTitleEvent(title string) (string, any) {
	return "title", TitleEvent{Type: "title", Title: title}
}

// NewGitEvent builds a git status event from a gitstate snapshot.
func NewGitEvent(state *gitstate.State) (string, any) {
	files := make([]GitFile, len(state.Files))
	for i, f := range state.Files {
		files[i] = GitFile{Path: f.Path, Status: f.Status, Additions: f.Additions, Deletions: f.Deletions}
	}
	return "git", GitEvent{Type: "git", Branch: state.Branch, Files: files}
}

// NewChangesEvent builds a code-changes event from a diff engine summary.
func NewChangesEvent(summary diffengine.Summary) (string, any) {
	byLanguage := make([]LanguageChanges, 0, len(summary.Languages))
	for _, lc := range summary.Languages {
		var changes []CodeChange
		for _, f := range lc.Files {
			for _, c := range f.Changes {
				changes = append(changes, CodeChange{
					Kind:       string(c.Kind),
					Name:       c.Name,
					ChangeType: string(c.ChangeType),
					Additions:  c.Additions,
					Deletions:  c.Deletions,
					FilePath:   c.FilePath,
					LineNumber: c.LineNumber,
				})
			}
		}
		byLanguage = append(byLanguage, LanguageChanges{Language: lc.Language, Changes: changes})
	}
	return "changes", ChangesEvent{Type: "changes", ByLanguage: byLanguage}
}

// NewStatsEvent builds a session stats event.
func NewStatsEvent(stats *statsreader.SessionStats) (string, any) {
	return "stats", StatsEvent{
		Type:            "stats",
		Prompts:         stats.Platform.Prompts,
		Completions:     stats.Platform.Completions,
		Tools:           stats.TotalToolCalls(),
		ThinkingSeconds: stats.ThinkingSeconds,
		WorkSeconds:     stats.WorkSeconds,
	}
}
