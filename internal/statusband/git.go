package statusband

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/crabigator/crabigator/internal/escseq"
	"github.com/crabigator/crabigator/internal/gitstate"
	"github.com/crabigator/crabigator/internal/ideurl"
)

func statusIconColor(status string) (string, int) {
	switch status {
	case "modified":
		return "●", escseq.ColorYellow
	case "added":
		return "+", escseq.ColorGreen
	case "deleted":
		return "−", escseq.ColorRed
	case "untracked":
		return "?", escseq.ColorCyan
	default:
		return "•", escseq.ColorFaint
	}
}

// gitRows renders the git column's content rows: row 1 is the branch/status
// header, the rest list changed files one per row (wrapping multiple
// entries onto a row when there's more width than files, the same packing
// strategy the changes widget uses for its item overflow).
func gitRows(state *gitstate.State, width, height int, scheme ideurl.Scheme, cwd string) []string {
	rows := make([]string, 0, height)
	rows = append(rows, gitHeaderRow(state, width))
	if height <= 1 {
		return rows
	}

	files := state.Files
	if len(files) == 0 {
		for i := 1; i < height; i++ {
			rows = append(rows, padTo("", width))
		}
		return rows
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	displayNames := computeUniqueDisplayNames(paths)

	maxChanges := 1
	for _, f := range files {
		n := f.Additions + f.Deletions
		if f.IsFolder {
			n = f.ChildCount
		}
		if n > maxChanges {
			maxChanges = n
		}
	}

	items := make([]formattedItem, len(files))
	for i, f := range files {
		items[i] = formatFileEntry(f, displayNames[i], maxChanges, scheme, cwd)
	}

	itemRows := packItemsIntoRows(items, width)
	available := height - 1
	for i := 0; i < available; i++ {
		if i < len(itemRows) {
			rows = append(rows, padTo(itemRows[i], width))
		} else {
			rows = append(rows, padTo("", width))
		}
	}
	return rows
}

func gitHeaderRow(state *gitstate.State, width int) string {
	branch := state.Branch
	if branch == "" {
		branch = "Git"
	}
	left := fmt.Sprintf("%s %s%s", escseq.Fg(escseq.ColorLightGreen), truncatePath(branch, 15), escseq.Reset)

	var right string
	switch {
	case len(state.Files) == 0:
		right = fmt.Sprintf("%s✓ Clean%s", escseq.Fg(escseq.ColorGreen), escseq.Reset)
	default:
		label := "files"
		if len(state.Files) == 1 {
			label = "file"
		}
		right = fmt.Sprintf("%s%d %s%s", escseq.Fg(escseq.ColorYellow), len(state.Files), label, escseq.Reset)
	}

	gap := width - displayWidth(left) - displayWidth(right)
	if gap < 0 {
		gap = 0
	}
	return left + spaces(gap) + right
}

type formattedItem struct {
	text  string
	width int
}

func formatFileEntry(f gitstate.FileStatus, displayName string, maxChanges int, scheme ideurl.Scheme, cwd string) formattedItem {
	icon, iconColor := statusIconColor(f.Status)

	if f.IsFolder {
		name := strings.TrimSuffix(f.Path, "/")
		name = filename(name)
		bar := createFolderBar(f.ChildCount, maxChanges, 4)
		text := fmt.Sprintf("%s%s%s%s/ %d files %s", escseq.Fg(iconColor), icon, escseq.Reset, name, f.ChildCount, bar)
		return formattedItem{text: text, width: displayWidth(text)}
	}

	stats := formatDiffStats(f.Additions, f.Deletions)
	abs := filepath.Join(cwd, f.Path)
	url := ideurl.Build(scheme, abs, 0)
	linked := escseq.Hyperlink(url, displayName)
	text := fmt.Sprintf("%s%s%s%s %s", escseq.Fg(iconColor), icon, escseq.Reset, linked, stats)
	width := 1 + 1 + displayWidth(displayName) + 1 + displayWidth(stats)
	return formattedItem{text: text, width: width}
}

// packItemsIntoRows greedily wraps items left to right, starting a new row
// once the next item would overflow the available width.
func packItemsIntoRows(items []formattedItem, maxWidth int) []string {
	var rows []string
	var current strings.Builder
	currentWidth := 0

	for _, item := range items {
		needed := item.width
		if current.Len() > 0 {
			needed++
		}
		if currentWidth+needed <= maxWidth {
			if current.Len() > 0 {
				current.WriteByte(' ')
			}
			current.WriteString(item.text)
			currentWidth += needed
			continue
		}
		if current.Len() > 0 {
			rows = append(rows, current.String())
		}
		current.Reset()
		current.WriteString(item.text)
		currentWidth = item.width
	}
	if current.Len() > 0 {
		rows = append(rows, current.String())
	}
	return rows
}
