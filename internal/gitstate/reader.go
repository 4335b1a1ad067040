// Package gitstate reads the working tree's version-control status: current
// branch and a typed list of changed files with line counts.
package gitstate

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// FileStatus is one VCS-reported changed file.
type FileStatus struct {
	Path       string `json:"path"`
	Status     string `json:"status"` // modified|added|deleted|untracked|renamed
	Additions  int    `json:"additions"`
	Deletions  int    `json:"deletions"`
	IsFolder   bool   `json:"isFolder,omitempty"`
	ChildCount int    `json:"childCount,omitempty"`
}

// State is the git snapshot the status band and cloud client consume.
type State struct {
	InRepo bool         `json:"inRepo"`
	Branch string       `json:"branch"`
	Files  []FileStatus `json:"files"`
}

// Read runs the VCS against dir and produces a typed snapshot. A non-repo
// directory is not an error: it yields an empty in-repo-false state.
func Read(dir string) (*State, error) {
	if !isWorkTree(dir) {
		return &State{InRepo: false}, nil
	}

	state := &State{InRepo: true, Branch: currentBranch(dir)}

	entries, err := porcelainEntries(dir)
	if err != nil {
		return nil, fmt.Errorf("gitstate: status: %w", err)
	}

	counts := numstatCounts(dir)
	files := make([]FileStatus, 0, len(entries))
	for _, e := range entries {
		if e.isFolder {
			files = append(files, FileStatus{
				Path:       e.path,
				Status:     "untracked",
				IsFolder:   true,
				ChildCount: countUntrackedFiles(dir, e.path),
			})
			continue
		}
		fs := FileStatus{Path: e.path, Status: e.status}
		if c, ok := counts[e.path]; ok {
			fs.Additions, fs.Deletions = c.additions, c.deletions
		}
		files = append(files, fs)
	}
	state.Files = files
	return state, nil
}

func isWorkTree(dir string) bool {
	cmd := command(dir, "rev-parse", "--is-inside-work-tree")
	out, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

func currentBranch(dir string) string {
	out, err := command(dir, "branch", "--show-current").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

type porcelainEntry struct {
	path     string
	status   string
	isFolder bool
}

// porcelainEntries parses `git status --porcelain`: the first two columns
// are the index/worktree status codes, the remainder is the path.
func porcelainEntries(dir string) ([]porcelainEntry, error) {
	out, err := command(dir, "status", "--porcelain").Output()
	if err != nil {
		return nil, err
	}

	var entries []porcelainEntry
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 4 {
			continue
		}
		x, y := line[0], line[1]
		rest := strings.TrimSpace(line[3:])
		if x == '?' && y == '?' {
			path := rest
			isFolder := strings.HasSuffix(path, "/")
			entries = append(entries, porcelainEntry{path: strings.TrimSuffix(path, "/"), status: "untracked", isFolder: isFolder})
			continue
		}
		path := rest
		status := classify(x, y)
		if arrow := strings.Index(rest, " -> "); arrow >= 0 {
			path = rest[arrow+4:]
			status = "renamed"
		}
		entries = append(entries, porcelainEntry{path: path, status: status})
	}
	return entries, scanner.Err()
}

func classify(x, y byte) string {
	switch {
	case x == 'A' || y == 'A':
		return "added"
	case x == 'D' || y == 'D':
		return "deleted"
	case x == 'R':
		return "renamed"
	default:
		return "modified"
	}
}

type lineCounts struct{ additions, deletions int }

// numstatCounts merges unstaged and staged `--numstat` passes keyed by path.
func numstatCounts(dir string) map[string]lineCounts {
	counts := make(map[string]lineCounts)
	for _, args := range [][]string{
		{"diff", "--numstat"},
		{"diff", "--cached", "--numstat"},
	} {
		out, err := command(dir, args...).Output()
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(strings.NewReader(string(out)))
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) < 3 {
				continue
			}
			add, _ := strconv.Atoi(fields[0])
			del, _ := strconv.Atoi(fields[1])
			path := fields[2]
			prior := counts[path]
			counts[path] = lineCounts{additions: prior.additions + add, deletions: prior.deletions + del}
		}
	}
	return counts
}

func countUntrackedFiles(dir, subdir string) int {
	out, err := command(dir, "ls-files", "--others", "--exclude-standard", "--", subdir).Output()
	if err != nil {
		return 0
	}
	n := 0
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

func command(dir string, args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_TERMINAL_PROMPT=0",
		"GIT_ASKPASS=",
		"SSH_ASKPASS=",
	)
	return cmd
}
