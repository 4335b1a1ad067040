package statusband

import (
	"fmt"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/crabigator/crabigator/internal/escseq"
)

// displayWidth returns the terminal column width of s, skipping ANSI SGR/
// OSC 8 escape sequences and accounting for wide runes.
func displayWidth(s string) int {
	width := 0
	inEscape := false
	inOSC := false
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\x1b' {
			inEscape = true
			inOSC = i+1 < len(runes) && runes[i+1] == ']'
			// OSC 8 sequences terminate with ST (\x1b\\) rather than 'm';
			// skip to the next escape-introducer boundary either way.
			continue
		}
		if inEscape {
			if (c == 'm' && !inOSC) || c == '\\' {
				inEscape = false
			}
			continue
		}
		width += runewidth.RuneWidth(c)
	}
	return width
}

// truncatePath shows the tail of a path when it doesn't fit, since the tail
// (filename, nearest directory) is usually the more useful part.
func truncatePath(path string, maxLen int) string {
	runes := []rune(path)
	if len(runes) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return "..."
	}
	skip := len(runes) - (maxLen - 1)
	return "…" + string(runes[skip:])
}

// truncateMiddle elides the middle of a symbol name, keeping ~30% of the
// budget before the ellipsis and the rest after.
func truncateMiddle(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return "…"
	}
	available := maxLen - 1
	prefixLen := available * 30 / 100
	suffixLen := available - prefixLen
	prefix := string(runes[:prefixLen])
	suffix := string(runes[len(runes)-suffixLen:])
	return prefix + "…" + suffix
}

func filename(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// computeUniqueDisplayNames assigns each path the shortest suffix of its
// path components that disambiguates it from every other path in the list.
func computeUniqueDisplayNames(paths []string) []string {
	names := make([]string, len(paths))
	depth := make([]int, len(paths))
	for i, p := range paths {
		names[i] = filename(p)
	}

	for iter := 0; iter < 10; iter++ {
		counts := map[string][]int{}
		for i, n := range names {
			counts[n] = append(counts[n], i)
		}
		var needsExpansion []int
		for _, idxs := range counts {
			if len(idxs) > 1 {
				needsExpansion = append(needsExpansion, idxs...)
			}
		}
		if len(needsExpansion) == 0 {
			break
		}
		allMaxed := true
		for _, i := range needsExpansion {
			depth[i]++
			names[i] = pathSuffix(paths[i], depth[i]+1)
			if depth[i] < 10 {
				allMaxed = false
			}
		}
		if allMaxed {
			break
		}
	}
	return names
}

func pathSuffix(path string, n int) string {
	parts := strings.Split(path, "/")
	if n > len(parts) {
		n = len(parts)
	}
	tail := parts[len(parts)-n:]
	return strings.Join(tail, "/")
}

func digitCount(n int) int {
	if n <= 0 {
		return 1
	}
	return int(math.Floor(math.Log10(float64(n)))) + 1
}

// formatDiffStats renders "−D bar bar +A" with a log-scaled bar graph, or a
// dim dot when there are no changes at all.
func formatDiffStats(additions, deletions int) string {
	if additions == 0 && deletions == 0 {
		return escseq.Fg(escseq.ColorDarkGray) + "·" + escseq.Reset
	}

	var b strings.Builder
	delBar := 0
	if deletions > 0 {
		delBar = digitCount(deletions)
		fmt.Fprintf(&b, "%s−%d%s", escseq.Fg(escseq.ColorRed), deletions, escseq.Reset)
	}
	addBar := 0
	if additions > 0 {
		addBar = digitCount(additions)
	}
	if deletions > 0 {
		b.WriteByte(' ')
	}
	if delBar > 0 {
		fmt.Fprintf(&b, "%s%s%s", escseq.Fg(escseq.ColorRed), strings.Repeat("▓", delBar), escseq.Reset)
	}
	if addBar > 0 {
		fmt.Fprintf(&b, "%s%s%s", escseq.Fg(escseq.ColorGreen), strings.Repeat("█", addBar), escseq.Reset)
	}
	if additions > 0 {
		b.WriteByte(' ')
	}
	if additions > 0 {
		fmt.Fprintf(&b, "%s+%d%s", escseq.Fg(escseq.ColorGreen), additions, escseq.Reset)
	}
	return b.String()
}

// createFolderBar renders a small bar proportional to fileCount/maxCount,
// used for untracked-directory summary rows.
func createFolderBar(fileCount, maxCount, maxWidth int) string {
	if fileCount == 0 {
		n := maxWidth
		if n > 2 {
			n = 2
		}
		return escseq.Fg(escseq.ColorDarkGray) + strings.Repeat("·", n) + escseq.Reset
	}
	if maxCount < 1 {
		maxCount = 1
	}
	scaled := int(math.Ceil(float64(fileCount) / float64(maxCount) * float64(maxWidth)))
	if scaled > maxWidth {
		scaled = maxWidth
	}
	if scaled < 1 {
		scaled = 1
	}
	return escseq.Fg(escseq.ColorCyan) + strings.Repeat("+", scaled) + escseq.Reset
}

// padTo right-pads content with spaces until it reaches the given display
// width (ANSI-aware), never truncating content that's already wider.
func padTo(content string, width int) string {
	pad := width - displayWidth(content)
	if pad <= 0 {
		return content
	}
	return content + strings.Repeat(" ", pad)
}
