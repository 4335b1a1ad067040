package parsers

import (
	"regexp"

	"github.com/crabigator/crabigator/internal/diffengine"
)

var rustHunkRe = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@\s*(.*)$`)

var rustImplRe = regexp.MustCompile(`^\s*impl(?:<[^>]*>)?\s+(?:(\w+)\s+for\s+)?(\w+)`)

func implName(groups []string) (string, bool) {
	traitName := groups[1]
	typeName := groups[2]
	if typeName == "" {
		typeName = "Unknown"
	}
	if traitName != "" {
		return traitName + " for " + typeName, true
	}
	return typeName, true
}

func simpleName(idx int) func([]string) (string, bool) {
	return func(groups []string) (string, bool) {
		if idx >= len(groups) || groups[idx] == "" {
			return "", false
		}
		return groups[idx], true
	}
}

// RustSpec parses Rust diffs: fn/impl/struct/enum/trait/mod/const.
var RustSpec = Spec{
	Language:   "Rust",
	Extensions: []string{".rs"},
	HunkRe:     rustHunkRe,
	Defs: []DefPattern{
		{Kind: diffengine.KindImpl, Re: rustImplRe, Extract: implName},
		{Kind: diffengine.KindFunction, Re: regexp.MustCompile(`^\s*(?:pub\s+)?(?:async\s+)?fn\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindStruct, Re: regexp.MustCompile(`^\s*(?:pub\s+)?struct\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindEnum, Re: regexp.MustCompile(`^\s*(?:pub\s+)?enum\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindTrait, Re: regexp.MustCompile(`^\s*(?:pub\s+)?trait\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindModule, Re: regexp.MustCompile(`^\s*(?:pub\s+)?mod\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindConst, Re: regexp.MustCompile(`^\s*(?:pub\s+)?const\s+(\w+)`), Extract: simpleName(1)},
	},
}
