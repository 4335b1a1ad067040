// Package diffengine classifies unified diff hunks into per-symbol changes,
// dispatching to a language-specific parser by file extension.
package diffengine

// NodeKind identifies the kind of symbol a ChangeNode describes.
type NodeKind string

const (
	KindClass    NodeKind = "class"
	KindFunction NodeKind = "function"
	KindMethod   NodeKind = "method"
	KindStruct   NodeKind = "struct"
	KindEnum     NodeKind = "enum"
	KindTrait    NodeKind = "trait"
	KindImpl     NodeKind = "impl"
	KindModule   NodeKind = "module"
	KindConst    NodeKind = "const"
	KindOther    NodeKind = "other"
)

// ChangeType classifies how a symbol changed within a diff.
type ChangeType string

const (
	Added    ChangeType = "added"
	Modified ChangeType = "modified"
	Deleted  ChangeType = "deleted"
)

// ChangeNode is one symbol-level change, attributed to a line number when
// the owning hunk's header or an added/deleted line established one.
type ChangeNode struct {
	Kind       NodeKind   `json:"kind"`
	Name       string     `json:"name"`
	ChangeType ChangeType `json:"change_type"`
	Additions  int        `json:"additions"`
	Deletions  int        `json:"deletions"`
	FilePath   string     `json:"file_path,omitempty"`
	LineNumber int        `json:"line_number,omitempty"`
}

// FileChanges groups every ChangeNode parsed out of one file's diff.
type FileChanges struct {
	Path     string       `json:"path"`
	Language string       `json:"language"`
	Changes  []ChangeNode `json:"changes"`
}

// LanguageChanges groups FileChanges by the parser's declared language tag,
// preserving file order within each group.
type LanguageChanges struct {
	Language string        `json:"language"`
	Files    []FileChanges `json:"files"`
}

// Parser dispatches on a filename and turns one file's unified diff text
// into symbol-level ChangeNodes.
type Parser interface {
	Language() string
	Supports(filename string) bool
	Parse(diff, filename string) []ChangeNode
}
