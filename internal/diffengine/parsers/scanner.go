// Package parsers implements the per-language definition scanners shared by
// every concrete diff parser: each supplies a set of regex definition
// patterns and the scanner walks hunks, tracking line numbers and the
// current enclosing scope.
package parsers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/crabigator/crabigator/internal/diffengine"
)

// DefPattern recognizes one kind of definition (class, function, struct...).
// Extract receives the regex submatches (index 0 is the full match) and
// returns the symbol name, or ok=false if this pattern didn't really match
// (used to implement dunder-method skipping etc).
type DefPattern struct {
	Kind    diffengine.NodeKind
	Re      *regexp.Regexp
	Extract func(groups []string) (name string, ok bool)
}

// Spec configures one language's scanner.
type Spec struct {
	Language   string
	Extensions []string
	Defs       []DefPattern
	HunkRe     *regexp.Regexp // group 1 = new-file start line, group 2 = context
}

type changeKey struct {
	kind diffengine.NodeKind
	name string
}

type changeEntry struct {
	changeType diffengine.ChangeType
	additions  int
	deletions  int
	line       int
}

// Supports reports whether filename ends in one of this language's
// registered extensions.
func (s Spec) Supports(filename string) bool {
	for _, ext := range s.Extensions {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

// Parse walks diff line by line: hunk headers seed the current line number
// and scope, context lines advance the line number and may update scope,
// +/- lines register or extend a ChangeNode for the current scope.
func (s Spec) Parse(diff, filename string) []diffengine.ChangeNode {
	changes := map[changeKey]*changeEntry{}
	order := []changeKey{}

	var currentScope *changeKey
	currentLine := 0

	register := func(key changeKey, defaultType diffengine.ChangeType, line int) *changeEntry {
		entry, ok := changes[key]
		if !ok {
			entry = &changeEntry{changeType: defaultType, line: line}
			changes[key] = entry
			order = append(order, key)
		}
		return entry
	}

	matchDef := func(content string) (changeKey, bool) {
		for _, def := range s.Defs {
			groups := def.Re.FindStringSubmatch(content)
			if groups == nil {
				continue
			}
			name, ok := def.Extract(groups)
			if !ok {
				continue
			}
			return changeKey{kind: def.Kind, name: name}, true
		}
		return changeKey{}, false
	}

	for _, line := range strings.Split(diff, "\n") {
		if s.HunkRe != nil {
			if m := s.HunkRe.FindStringSubmatch(line); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					currentLine = n
				}
				context := ""
				if len(m) > 2 {
					context = m[2]
				}
				if key, ok := matchDef(context); ok {
					register(key, diffengine.Modified, currentLine)
					currentScope = &key
				} else {
					currentScope = nil
				}
				continue
			}
		}

		isAdded := strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++")
		isRemoved := strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---")
		isContext := strings.HasPrefix(line, " ")

		if isContext {
			currentLine++
			content := line[1:]
			if key, ok := matchDef(content); ok {
				currentScope = &key
			}
			continue
		}

		if !isAdded && !isRemoved {
			continue
		}

		if isAdded {
			currentLine++
		}
		content := line[1:]

		if key, ok := matchDef(content); ok {
			defaultType := diffengine.Deleted
			defLine := 0
			if isAdded {
				defaultType = diffengine.Added
				defLine = currentLine
			}
			entry := register(key, defaultType, defLine)
			if isAdded {
				entry.additions++
			} else {
				entry.deletions++
			}
			currentScope = &key
			continue
		}

		if currentScope != nil {
			entry := register(*currentScope, diffengine.Modified, 0)
			if isAdded {
				entry.additions++
			} else {
				entry.deletions++
			}
		}
	}

	nodes := make([]diffengine.ChangeNode, 0, len(order))
	for _, key := range order {
		entry := changes[key]
		nodes = append(nodes, diffengine.ChangeNode{
			Kind:       key.kind,
			Name:       key.name,
			ChangeType: entry.changeType,
			Additions:  entry.additions,
			Deletions:  entry.deletions,
			FilePath:   filename,
			LineNumber: entry.line,
		})
	}
	return nodes
}
