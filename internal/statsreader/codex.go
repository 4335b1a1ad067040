package statsreader

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// CodexReader tails the Codex CLI's JSONL session log, resolving which file
// belongs to this wrapper's working directory.
type CodexReader struct {
	sessionsDir string
	cwd         string
	appStart    time.Time

	sessionPath    string
	sessionStarted time.Time
	offset         int64
	lastScan       time.Time

	stats Stats
}

// NewCodexReader roots discovery at ~/.codex/sessions for the given cwd.
func NewCodexReader(home, cwd string) *CodexReader {
	override := os.Getenv("CRABIGATOR_CODEX_SESSION_PATH")
	if override == "" {
		override = os.Getenv("CODEX_SESSION_PATH")
	}
	r := &CodexReader{
		sessionsDir: filepath.Join(home, ".codex", "sessions"),
		cwd:         cwd,
		appStart:    time.Now(),
		stats:       emptyStats(),
	}
	if override != "" {
		r.sessionPath = override
	}
	return r
}

const rescanInterval = 2 * time.Second

// resolveSessionPath finds (or keeps) the session log file to tail. Scans
// today's and yesterday's date-partitioned directories, preferring the
// candidate whose session start is closest to appStart.
func (r *CodexReader) resolveSessionPath() string {
	if r.sessionPath != "" {
		if _, err := os.Stat(r.sessionPath); err == nil {
			return r.sessionPath
		}
	}
	if time.Since(r.lastScan) < rescanInterval && r.sessionPath != "" {
		return r.sessionPath
	}
	r.lastScan = time.Now()

	type candidate struct {
		path    string
		start   time.Time
		modTime time.Time
	}
	var candidates []candidate

	now := time.Now()
	for offsetDays := 0; offsetDays <= 1; offsetDays++ {
		date := now.AddDate(0, 0, -offsetDays)
		dir := filepath.Join(r.sessionsDir,
			date.Format("2006"), date.Format("01"), date.Format("02"))
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if filepath.Ext(e.Name()) != ".jsonl" {
				continue
			}
			path := filepath.Join(dir, e.Name())
			start, matches := sessionMatchesCwd(path, r.cwd)
			if !matches {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			candidates = append(candidates, candidate{path: path, start: start, modTime: info.ModTime()})
		}
	}

	if len(candidates) == 0 {
		return r.sessionPath
	}

	sort.Slice(candidates, func(i, j int) bool {
		di := candidates[i].start.Sub(r.appStart)
		if di < 0 {
			di = -di
		}
		dj := candidates[j].start.Sub(r.appStart)
		if dj < 0 {
			dj = -dj
		}
		return di < dj
	})

	chosen := candidates[0]
	if chosen.path != r.sessionPath {
		r.sessionPath = chosen.path
		r.sessionStarted = chosen.start
		r.offset = 0
		r.stats = emptyStats()
	}
	return r.sessionPath
}

// sessionMatchesCwd scans the first few lines of a session file for a
// session_meta/turn_context payload whose cwd matches.
func sessionMatchesCwd(path, cwd string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for i := 0; i < 5 && scanner.Scan(); i++ {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entryType, _ := entry["type"].(string)
		if entryType != "session_meta" && entryType != "turn_context" {
			continue
		}
		payload, ok := entry["payload"].(map[string]any)
		if !ok {
			continue
		}
		entryCwd, _ := payload["cwd"].(string)
		if entryCwd != cwd {
			continue
		}
		started := time.Time{}
		if ts, ok := payload["timestamp"].(string); ok {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				started = t
			}
		}
		return started, true
	}
	return time.Time{}, false
}

// Poll tails the resolved session file from the last offset, mapping log
// entries to the shared state machine: user_message -> prompt,
// agent_message -> completion, function_call -> tool.
func (r *CodexReader) Poll() (Stats, bool) {
	path := r.resolveSessionPath()
	if path == "" {
		return r.stats, false
	}

	f, err := os.Open(path)
	if err != nil {
		return r.stats, false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return r.stats, false
	}
	if info.Size() < r.offset {
		r.offset = 0
		r.stats = emptyStats()
	}
	if info.Size() == r.offset {
		return r.stats, false
	}

	if _, err := f.Seek(r.offset, 0); err != nil {
		return r.stats, false
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	changed := false
	for scanner.Scan() {
		line := scanner.Bytes()
		r.offset += int64(len(line)) + 1
		if r.applyLogLine(line) {
			changed = true
		}
	}

	if changed {
		r.stats.LastUpdated = float64(time.Now().UnixNano()) / 1e9
	}
	return r.stats, changed
}

func (r *CodexReader) applyLogLine(line []byte) bool {
	var entry map[string]any
	if err := json.Unmarshal(line, &entry); err != nil {
		return false
	}
	entryType, _ := entry["type"].(string)
	payload, _ := entry["payload"].(map[string]any)

	switch entryType {
	case "session_meta":
		r.stats.State = StateReady
		return true
	case "event_msg":
		if payload == nil {
			return false
		}
		switch kind, _ := payload["type"].(string); kind {
		case "user_message":
			r.stats.Prompts++
			r.stats.State = StateThinking
			return true
		case "agent_message":
			r.stats.Completions++
			r.stats.State = StateComplete
			return true
		}
	case "response_item":
		if payload == nil {
			return false
		}
		if kind, _ := payload["type"].(string); kind == "function_call" {
			name, _ := payload["name"].(string)
			if name == "" {
				name = "unknown"
			}
			if r.stats.Tools == nil {
				r.stats.Tools = map[string]int{}
			}
			r.stats.Tools[name]++
			return true
		}
	}
	return false
}
