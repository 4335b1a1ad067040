package statusband

import (
	"fmt"

	"github.com/crabigator/crabigator/internal/diffengine"
	"github.com/crabigator/crabigator/internal/escseq"
)

func changeIconColor(kind diffengine.NodeKind) (string, int) {
	switch kind {
	case diffengine.KindClass, diffengine.KindStruct:
		return "▣", escseq.ColorBlue
	case diffengine.KindFunction, diffengine.KindMethod:
		return "ƒ", escseq.ColorCyan
	case diffengine.KindEnum:
		return "◇", escseq.ColorPurple
	case diffengine.KindTrait:
		return "◈", escseq.ColorPink
	case diffengine.KindImpl:
		return "⊕", escseq.ColorOrange
	case diffengine.KindModule:
		return "▤", escseq.ColorGray
	case diffengine.KindConst:
		return "◆", escseq.ColorLightBlue
	default:
		return "•", escseq.ColorFaint
	}
}

// changesRows renders the changes column: a header per language with item
// count, then its symbol changes packed as many-per-row until the column
// runs out of height.
func changesRows(summary diffengine.Summary, width, height int) []string {
	if len(summary.Languages) == 0 {
		rows := make([]string, 0, height)
		for i := 0; i < height; i++ {
			rows = append(rows, padTo("", width))
		}
		return rows
	}

	var rows []string
	available := height - 1
	for _, lang := range summary.Languages {
		if len(rows) >= available {
			break
		}
		count := 0
		for _, f := range lang.Files {
			count += len(f.Changes)
		}
		label := "changes"
		if count == 1 {
			label = "change"
		}
		rows = append(rows, changeHeaderRow(lang.Language, count, label, width))
		if len(rows) >= available {
			break
		}

		var items []formattedItem
		for _, f := range lang.Files {
			for _, c := range f.Changes {
				items = append(items, formatChangeItem(c))
			}
		}
		for _, r := range packItemsIntoRows(items, width) {
			if len(rows) >= available {
				break
			}
			rows = append(rows, padTo(r, width))
		}
	}

	for len(rows) < height {
		rows = append(rows, padTo("", width))
	}
	return rows
}

func changeHeaderRow(language string, count int, label string, width int) string {
	left := fmt.Sprintf("%s%s%s", escseq.Fg(escseq.ColorOrange), language, escseq.Reset)
	right := fmt.Sprintf("%s%d %s%s", escseq.Fg(escseq.ColorOrange), count, label, escseq.Reset)
	gap := width - displayWidth(left) - displayWidth(right)
	if gap < 0 {
		gap = 0
	}
	return left + spaces(gap) + right
}

func formatChangeItem(change diffengine.ChangeNode) formattedItem {
	icon, iconColor := changeIconColor(change.Kind)

	var modifier string
	switch change.ChangeType {
	case diffengine.Added:
		modifier = fmt.Sprintf("%s+%s", escseq.Fg(escseq.ColorGreen), escseq.Reset)
	case diffengine.Deleted:
		modifier = fmt.Sprintf("%s-%s", escseq.Fg(escseq.ColorRed), escseq.Reset)
	default:
		modifier = fmt.Sprintf("%s~%s", escseq.Fg(escseq.ColorYellow), escseq.Reset)
	}

	name := truncateMiddle(change.Name, 25)
	text := fmt.Sprintf("%s%s%s%s %s", modifier, escseq.Fg(iconColor), icon, escseq.Reset, name)
	width := 1 + displayWidth(icon) + 1 + displayWidth(name)
	return formattedItem{text: text, width: width}
}
