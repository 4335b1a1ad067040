// Package mirror publishes a throttled JSON snapshot of the status band's
// widget state to /tmp/crabigator-<session>/inspect.json, so a second
// crabigator process can inspect a running session via `crabigator inspect`.
package mirror

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"time"

	"github.com/crabigator/crabigator/internal/diffengine"
	"github.com/crabigator/crabigator/internal/gitstate"
	"github.com/crabigator/crabigator/internal/statsreader"
)

// publishInterval is the minimum gap between two writes, independent of
// how often the caller calls MaybePublish.
const publishInterval = time.Second

// State is the full snapshot written to inspect.json.
type State struct {
	SessionID     string        `json:"session_id"`
	Cwd           string        `json:"cwd"`
	TerminalTitle string        `json:"terminal_title,omitempty"`
	LastUpdated   float64       `json:"last_updated"`
	Capture       Capture       `json:"capture"`
	LaunchTiming  LaunchTiming  `json:"launch_timing"`
	Widgets       Widgets       `json:"widgets"`
}

// Capture describes where the scrollback/screen capture files live.
type Capture struct {
	Enabled        bool   `json:"enabled"`
	Directory      string `json:"directory"`
	ScrollbackPath string `json:"scrollback_path"`
	ScreenPath     string `json:"screen_path"`
}

// LaunchTiming reports how long startup phases took, for `inspect`'s
// diagnostic view.
type LaunchTiming struct {
	UptimeSecs uint64 `json:"uptime_secs"`
	GitTimeMs  *int64 `json:"git_time_ms,omitempty"`
	DiffTimeMs *int64 `json:"diff_time_ms,omitempty"`
}

// Widgets bundles each widget's raw data plus an ANSI-free rendered
// preview, so `inspect` can show something readable without re-deriving
// layout logic.
type Widgets struct {
	Stats   WidgetMirror[StatsData]   `json:"stats"`
	Git     WidgetMirror[GitData]     `json:"git"`
	Changes WidgetMirror[ChangesData] `json:"changes"`
}

// WidgetMirror pairs one widget's structured data with its text preview.
type WidgetMirror[T any] struct {
	Data     T        `json:"data"`
	Rendered []string `json:"rendered"`
}

type StatsData struct {
	WorkSeconds     uint64 `json:"work_seconds"`
	ThinkingSeconds uint64 `json:"thinking_seconds"`
	State           string `json:"state"`
	Prompts         int    `json:"prompts"`
	Completions     int    `json:"completions"`
	Tools           int    `json:"tools"`
	Compressions    int    `json:"compressions"`
}

type GitData struct {
	Branch string         `json:"branch"`
	InRepo bool           `json:"is_repo"`
	Files  []GitFileMirror `json:"files"`
}

type GitFileMirror struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

type ChangesData struct {
	ByLanguage []LanguageChangesMirror `json:"by_language"`
	Total      int                     `json:"total"`
}

type LanguageChangesMirror struct {
	Language string          `json:"language"`
	Changes  []ChangeMirror  `json:"changes"`
}

type ChangeMirror struct {
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	ChangeType string `json:"change_type"`
	Additions  int    `json:"additions"`
	Deletions  int    `json:"deletions"`
}

// Publisher throttles and hash-gates writes of State to disk.
type Publisher struct {
	enabled   bool
	sessionID string
	cwd       string
	capture   Capture

	lastPublish time.Time
	lastHash    uint64
	appStart    time.Time
}

// New builds a Publisher. Passing enabled=false makes every MaybePublish
// call a no-op.
func New(enabled bool, sessionID, cwd string, captureEnabled bool) *Publisher {
	dir := sessionDir(sessionID)
	return &Publisher{
		enabled:   enabled,
		sessionID: sessionID,
		cwd:       cwd,
		capture: Capture{
			Enabled:        captureEnabled,
			Directory:      dir,
			ScrollbackPath: filepath.Join(dir, "scrollback.log"),
			ScreenPath:     filepath.Join(dir, "screen.txt"),
		},
		// backdated so the very first call is never throttled
		lastPublish: time.Now().Add(-10 * time.Second),
		appStart:    time.Now(),
	}
}

func sessionDir(sessionID string) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("crabigator-%s", sessionID))
}

// SessionDir returns the directory this publisher writes into.
func (p *Publisher) SessionDir() string {
	return sessionDir(p.sessionID)
}

// MirrorPath returns the inspect.json path this publisher writes to.
func (p *Publisher) MirrorPath() string {
	return filepath.Join(p.SessionDir(), "inspect.json")
}

// MaybePublish writes a fresh snapshot if enabled, the throttle interval
// has elapsed, and the content actually changed since the last publish.
// Returns whether a write occurred.
func (p *Publisher) MaybePublish(stats *statsreader.SessionStats, git *gitstate.State, diff diffengine.Summary, terminalTitle string, gitTimeMs, diffTimeMs *int64) (bool, error) {
	if !p.enabled {
		return false, nil
	}
	if time.Since(p.lastPublish) < publishInterval {
		return false, nil
	}

	hash := computeHash(stats, git, diff, terminalTitle)
	if hash == p.lastHash {
		return false, nil
	}

	state := p.buildState(stats, git, diff, terminalTitle, gitTimeMs, diffTimeMs)
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return false, err
	}

	dir := p.SessionDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}
	if err := atomicWrite(p.MirrorPath(), data); err != nil {
		return false, err
	}

	p.lastPublish = time.Now()
	p.lastHash = hash
	return true, nil
}

// Cleanup removes the mirror file on a clean exit.
func (p *Publisher) Cleanup() {
	if p.enabled {
		_ = os.Remove(p.MirrorPath())
	}
}

func atomicWrite(path string, content []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func computeHash(stats *statsreader.SessionStats, git *gitstate.State, diff diffengine.Summary, terminalTitle string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%d|%d|%d|%d|%d|%s|",
		terminalTitle, stats.WorkSeconds, stats.ThinkingSeconds, stats.Platform.Prompts, stats.Platform.Completions,
		stats.TotalToolCalls(), stats.Platform.Compressions, stats.Platform.State)

	fmt.Fprintf(h, "%s|%d|", git.Branch, len(git.Files))
	for _, f := range git.Files {
		fmt.Fprintf(h, "%s|%s|%d|%d|", f.Path, f.Status, f.Additions, f.Deletions)
	}

	total := 0
	for _, lc := range diff.Languages {
		for _, fc := range lc.Files {
			total += len(fc.Changes)
			for _, c := range fc.Changes {
				fmt.Fprintf(h, "%s|%d|%d|", c.Name, c.Additions, c.Deletions)
			}
		}
	}
	fmt.Fprintf(h, "%d", total)

	return h.Sum64()
}

func (p *Publisher) buildState(stats *statsreader.SessionStats, git *gitstate.State, diff diffengine.Summary, terminalTitle string, gitTimeMs, diffTimeMs *int64) State {
	return State{
		SessionID:     p.sessionID,
		Cwd:           p.cwd,
		TerminalTitle: terminalTitle,
		LastUpdated:   float64(time.Now().UnixNano()) / 1e9,
		Capture:       p.capture,
		LaunchTiming: LaunchTiming{
			UptimeSecs: uint64(time.Since(p.appStart).Seconds()),
			GitTimeMs:  gitTimeMs,
			DiffTimeMs: diffTimeMs,
		},
		Widgets: Widgets{
			Stats: WidgetMirror[StatsData]{
				Data: StatsData{
					WorkSeconds:     stats.WorkSeconds,
					ThinkingSeconds: stats.ThinkingSeconds,
					State:           string(stats.Platform.State),
					Prompts:         stats.Platform.Prompts,
					Completions:     stats.Platform.Completions,
					Tools:           stats.TotalToolCalls(),
					Compressions:    stats.Platform.Compressions,
				},
				Rendered: renderStatsPreview(stats),
			},
			Git: WidgetMirror[GitData]{
				Data:     buildGitData(git),
				Rendered: renderGitPreview(git),
			},
			Changes: WidgetMirror[ChangesData]{
				Data:     buildChangesData(diff),
				Rendered: renderChangesPreview(diff),
			},
		},
	}
}

func buildGitData(git *gitstate.State) GitData {
	files := make([]GitFileMirror, len(git.Files))
	for i, f := range git.Files {
		files[i] = GitFileMirror{Path: f.Path, Status: f.Status, Additions: f.Additions, Deletions: f.Deletions}
	}
	return GitData{Branch: git.Branch, InRepo: git.InRepo, Files: files}
}

func buildChangesData(diff diffengine.Summary) ChangesData {
	var byLanguage []LanguageChangesMirror
	total := 0
	for _, lc := range diff.Languages {
		var changes []ChangeMirror
		for _, fc := range lc.Files {
			for _, c := range fc.Changes {
				changes = append(changes, ChangeMirror{
					Kind:       string(c.Kind),
					Name:       c.Name,
					ChangeType: string(c.ChangeType),
					Additions:  c.Additions,
					Deletions:  c.Deletions,
				})
				total++
			}
		}
		byLanguage = append(byLanguage, LanguageChangesMirror{Language: lc.Language, Changes: changes})
	}
	return ChangesData{ByLanguage: byLanguage, Total: total}
}

func renderStatsPreview(stats *statsreader.SessionStats) []string {
	lines := []string{
		fmt.Sprintf("Stats - %s", stats.Platform.State),
		fmt.Sprintf("Session: %s", stats.FormatWork()),
		fmt.Sprintf("Thinking: %s", stats.FormatThinking()),
		fmt.Sprintf("Prompts: %d", stats.Platform.Prompts),
		fmt.Sprintf("Completions: %d", stats.Platform.Completions),
		fmt.Sprintf("Tools: %d", stats.TotalToolCalls()),
	}
	if stats.Platform.Compressions > 0 {
		lines = append(lines, fmt.Sprintf("Compressions: %d", stats.Platform.Compressions))
	}
	if stats.Platform.IdleSince != nil {
		now := float64(time.Now().UnixMilli()) / 1000.0
		idleSecs := uint64(now - *stats.Platform.IdleSince)
		if idleSecs >= 60 {
			var idleStr string
			if idleSecs >= 3600 {
				idleStr = fmt.Sprintf("%dh%dm", idleSecs/3600, (idleSecs%3600)/60)
			} else {
				idleStr = fmt.Sprintf("%dm", idleSecs/60)
			}
			lines = append(lines, fmt.Sprintf("Idle: %s", idleStr))
		}
	}
	return lines
}

func renderGitPreview(git *gitstate.State) []string {
	var lines []string
	if git.Branch == "" {
		lines = append(lines, "Git (no branch)")
	} else {
		lines = append(lines, fmt.Sprintf("%s - %d files", git.Branch, len(git.Files)))
	}
	shown := git.Files
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for _, f := range shown {
		lines = append(lines, fmt.Sprintf("  %s %s +%d-%d", f.Status, f.Path, f.Additions, f.Deletions))
	}
	if len(git.Files) > 5 {
		lines = append(lines, fmt.Sprintf("  ... and %d more", len(git.Files)-5))
	}
	return lines
}

func renderChangesPreview(diff diffengine.Summary) []string {
	var lines []string
	for _, lc := range diff.Languages {
		count := 0
		for _, f := range lc.Files {
			count += len(f.Changes)
		}
		label := "changes"
		if count == 1 {
			label = "change"
		}
		lines = append(lines, fmt.Sprintf("%s - %d %s", lc.Language, count, label))

		var flat []diffengine.ChangeNode
		for _, f := range lc.Files {
			flat = append(flat, f.Changes...)
		}
		shown := flat
		if len(shown) > 3 {
			shown = shown[:3]
		}
		for _, c := range shown {
			modifier := "~"
			switch c.ChangeType {
			case diffengine.Added:
				modifier = "+"
			case diffengine.Deleted:
				modifier = "-"
			}
			stats := ""
			if c.Additions > 0 || c.Deletions > 0 {
				stats = fmt.Sprintf(" +%d-%d", c.Additions, c.Deletions)
			}
			lines = append(lines, fmt.Sprintf("  %s%s %s%s", modifier, c.Kind, c.Name, stats))
		}
		if len(flat) > 3 {
			lines = append(lines, fmt.Sprintf("  ... and %d more", len(flat)-3))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "No changes")
	}
	return lines
}
