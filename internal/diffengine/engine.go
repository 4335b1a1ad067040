package diffengine

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/samber/lo"

	"github.com/crabigator/crabigator/internal/diffengine/parsers"
)

// Summary is the result of refreshing the working tree's diff: every changed
// file's symbol-level changes, grouped by language.
type Summary struct {
	Languages []LanguageChanges `json:"languages"`
}

type specParser struct {
	parsers.Spec
}

func (s specParser) Language() string { return s.Spec.Language }

var defaultParsers = buildParsers()

func buildParsers() []Parser {
	list := []Parser{
		specParser{parsers.RustSpec},
		specParser{parsers.TypeScriptSpec},
		specParser{parsers.PythonSpec},
		specParser{parsers.SwiftSpec},
		specParser{parsers.ObjCSpec},
	}
	return append(list, parsers.Generic{})
}

// Engine refreshes semantic diffs for a working tree by shelling out to git
// and dispatching each changed file's unified diff to the parser that
// understands its language.
type Engine struct {
	dir     string
	parsers []Parser
}

// New returns an Engine rooted at dir (the repository working directory).
func New(dir string) *Engine {
	return &Engine{dir: dir, parsers: defaultParsers}
}

// Refresh runs `git diff` for both unstaged and staged changes, parses the
// combined output, and returns per-language symbol changes. Files whose
// parser produces no changes are dropped.
func (e *Engine) Refresh(ctx context.Context) (Summary, error) {
	unstaged, err := e.runGitDiff(ctx, "diff", "--no-color")
	if err != nil {
		return Summary{}, err
	}
	staged, err := e.runGitDiff(ctx, "diff", "--cached", "--no-color")
	if err != nil {
		return Summary{}, err
	}

	combined := unstaged + "\n" + staged
	fileDiffs := splitDiffIntoFiles(combined)

	files := make([]FileChanges, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		parser := e.parserFor(fd.path)
		changes := parser.Parse(fd.diff, fd.path)
		if len(changes) == 0 {
			continue
		}
		files = append(files, FileChanges{
			Path:     fd.path,
			Language: parser.Language(),
			Changes:  changes,
		})
	}

	grouped := lo.GroupBy(files, func(f FileChanges) string { return f.Language })
	languages := lo.MapToSlice(grouped, func(lang string, files []FileChanges) LanguageChanges {
		return LanguageChanges{Language: lang, Files: files}
	})

	return Summary{Languages: languages}, nil
}

func (e *Engine) parserFor(filename string) Parser {
	for _, p := range e.parsers {
		if p.Supports(filename) {
			return p
		}
	}
	return e.parsers[len(e.parsers)-1]
}

func (e *Engine) runGitDiff(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS=")
	out, err := cmd.Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return "", nil
		}
		return "", err
	}
	return string(out), nil
}

type fileDiff struct {
	path string
	diff string
}

// splitDiffIntoFiles breaks a combined `git diff` output into one chunk per
// file, keyed by the "b/" side of each "diff --git a/... b/..." header.
func splitDiffIntoFiles(diff string) []fileDiff {
	var files []fileDiff
	var currentFile string
	var builder strings.Builder

	flush := func() {
		if currentFile != "" {
			files = append(files, fileDiff{path: currentFile, diff: builder.String()})
		}
	}

	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "diff --git") {
			flush()
			currentFile = ""
			if idx := strings.Index(line, " b/"); idx >= 0 {
				currentFile = line[idx+3:]
			}
			builder.Reset()
			continue
		}
		builder.WriteString(line)
		builder.WriteByte('\n')
	}
	flush()

	return files
}
