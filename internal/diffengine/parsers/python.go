package parsers

import (
	"regexp"
	"strings"

	"github.com/crabigator/crabigator/internal/diffengine"
)

var pythonHunkRe = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@\s*(.*)$`)

func isDunderExceptInit(name string) bool {
	return strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") && name != "__init__"
}

func defName(groups []string) (string, bool) {
	name := groups[2]
	if name == "" || isDunderExceptInit(name) {
		return "", false
	}
	return name, true
}

// PythonSpec recognizes class/def constructs and attributes line numbers
// from the hunk header the same way the Rust parser does.
var PythonSpec = Spec{
	Language:   "Python",
	Extensions: []string{".py"},
	HunkRe:     pythonHunkRe,
	Defs: []DefPattern{
		{Kind: diffengine.KindClass, Re: regexp.MustCompile(`^class\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindFunction, Re: regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+(\w+)`), Extract: defName},
	},
}
