package parsers

import (
	"regexp"

	"github.com/crabigator/crabigator/internal/diffengine"
)

var swiftHunkRe = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@\s*(.*)$`)

const swiftVisibility = `(?:(?:public|private|internal|fileprivate|open)\s+)?`

// SwiftSpec recognizes class/struct/enum/protocol/extension/func constructs,
// checked in that precedence order so a nested func inside a type still
// resolves to the narrower match.
var SwiftSpec = Spec{
	Language:   "Swift",
	Extensions: []string{".swift"},
	HunkRe:     swiftHunkRe,
	Defs: []DefPattern{
		{Kind: diffengine.KindClass, Re: regexp.MustCompile(`^\s*` + swiftVisibility + `(?:final\s+)?class\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindStruct, Re: regexp.MustCompile(`^\s*` + swiftVisibility + `struct\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindEnum, Re: regexp.MustCompile(`^\s*` + swiftVisibility + `enum\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindTrait, Re: regexp.MustCompile(`^\s*` + swiftVisibility + `protocol\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindImpl, Re: regexp.MustCompile(`^\s*extension\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindFunction, Re: regexp.MustCompile(`^\s*` + swiftVisibility + `(?:static\s+)?(?:override\s+)?func\s+(\w+)`), Extract: simpleName(1)},
	},
}
