package parsers

import (
	"regexp"

	"github.com/crabigator/crabigator/internal/diffengine"
)

var tsHunkRe = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@\s*(.*)$`)

// TypeScriptSpec covers TypeScript and JavaScript: class/function/interface/
// const-arrow-function/export forms.
var TypeScriptSpec = Spec{
	Language:   "TypeScript",
	Extensions: []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"},
	HunkRe:     tsHunkRe,
	Defs: []DefPattern{
		{Kind: diffengine.KindClass, Re: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindTrait, Re: regexp.MustCompile(`^\s*(?:export\s+)?interface\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindFunction, Re: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindFunction, Re: regexp.MustCompile(`^\s*(?:export\s+)?const\s+(\w+)\s*=\s*(?:async\s*)?\(`), Extract: simpleName(1)},
		{Kind: diffengine.KindMethod, Re: regexp.MustCompile(`^\s*(?:public|private|protected|static|async)\s+(\w+)\s*\(`), Extract: simpleName(1)},
	},
}
