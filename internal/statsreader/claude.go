package statsreader

import (
	"encoding/json"
	"fmt"
	"os"
)

// ClaudeReader polls the sidecar file written by the Claude hook script.
type ClaudeReader struct {
	path        string
	lastUpdated float64
	stats       Stats
}

// NewClaudeReader builds a reader for the sidecar of the given session id.
func NewClaudeReader(sessionID string) *ClaudeReader {
	return &ClaudeReader{
		path:  fmt.Sprintf("/tmp/crabigator-stats-%s.json", sessionID),
		stats: emptyStats(),
	}
}

// Poll reads the sidecar file. A read whose last_updated timestamp has not
// advanced is dropped (returns false, previous Stats unchanged). Missing or
// malformed files are treated as "nothing new yet", not an error: the
// supervisor keeps running with the last known stats.
func (r *ClaudeReader) Poll() (Stats, bool) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return r.stats, false
	}

	var next Stats
	if err := json.Unmarshal(data, &next); err != nil {
		return r.stats, false
	}
	if next.Tools == nil {
		next.Tools = map[string]int{}
	}
	if next.State == "" {
		next.State = StateReady
	}

	if next.LastUpdated <= r.lastUpdated {
		return r.stats, false
	}

	r.lastUpdated = next.LastUpdated
	r.stats = next
	return r.stats, true
}
