package parsers

import (
	"regexp"

	"github.com/crabigator/crabigator/internal/diffengine"
)

var objcHunkRe = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@\s*(.*)$`)

// ObjCSpec recognizes @interface/@implementation/@protocol and +/- method
// declarations, checked in that precedence order.
var ObjCSpec = Spec{
	Language:   "Objective-C",
	Extensions: []string{".m", ".mm", ".h"},
	HunkRe:     objcHunkRe,
	Defs: []DefPattern{
		{Kind: diffengine.KindClass, Re: regexp.MustCompile(`^\s*@interface\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindImpl, Re: regexp.MustCompile(`^\s*@implementation\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindTrait, Re: regexp.MustCompile(`^\s*@protocol\s+(\w+)`), Extract: simpleName(1)},
		{Kind: diffengine.KindMethod, Re: regexp.MustCompile(`^\s*[-+]\s*\([^)]+\)\s*(\w+)`), Extract: simpleName(1)},
	},
}
