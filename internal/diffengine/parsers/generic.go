package parsers

import "github.com/crabigator/crabigator/internal/diffengine"

// Generic is the fallback parser for any file extension not covered by a
// language-specific Spec. It matches every filename but never emits a
// ChangeNode: semantic changes are only meaningful when a language parser
// actually understands the syntax, and raw line counts are already shown by
// the git widget.
type Generic struct{}

func (Generic) Language() string { return "Generic" }

func (Generic) Supports(string) bool { return true }

func (Generic) Parse(string, string) []diffengine.ChangeNode { return nil }
