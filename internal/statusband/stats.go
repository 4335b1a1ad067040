package statusband

import (
	"fmt"
	"time"

	"github.com/crabigator/crabigator/internal/escseq"
	"github.com/crabigator/crabigator/internal/statsreader"
)

var throbberFrames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

func throbberFrame() rune {
	millis := time.Now().UnixMilli()
	return throbberFrames[(millis/100)%int64(len(throbberFrames))]
}

func formatStateIndicator(state statsreader.State) string {
	switch state {
	case statsreader.StateThinking:
		return fmt.Sprintf("%s%c%s", escseq.Fg(escseq.ColorGreen), throbberFrame(), escseq.Reset)
	case statsreader.StatePermission:
		return fmt.Sprintf("%s%c ?%s", escseq.Fg(escseq.ColorYellow), throbberFrame(), escseq.Reset)
	case statsreader.StateQuestion:
		return fmt.Sprintf("%s? Question%s", escseq.Fg(escseq.ColorCyan), escseq.Reset)
	case statsreader.StateComplete:
		return fmt.Sprintf("%s✓ Complete%s", escseq.Fg(escseq.ColorPurple), escseq.Reset)
	default:
		return fmt.Sprintf("%s○ Ready%s", escseq.Fg(escseq.ColorGray), escseq.Reset)
	}
}

func idleSeconds(idleSince *float64) (uint64, bool) {
	if idleSince == nil {
		return 0, false
	}
	now := float64(time.Now().UnixMilli()) / 1000.0
	secs := uint64(now - *idleSince)
	if secs >= 60 {
		return secs, true
	}
	return 0, false
}

func formatIdle(secs uint64) string {
	if secs >= 3600 {
		return fmt.Sprintf("%dh%dm", secs/3600, (secs%3600)/60)
	}
	return fmt.Sprintf("%dm", secs/60)
}

func formatNumber(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// statsRow renders one content row (1-indexed layout: 1=header, 2=session
// time, 3=messages, 4=tools, 5=compressions, 6=idle) of the stats column,
// already padded to width.
func statsRow(row, width int, stats *statsreader.SessionStats) string {
	var content string
	switch row {
	case 1:
		header := fmt.Sprintf("%s Stats%s", escseq.Fg(escseq.ColorPurple), escseq.Reset)
		state := formatStateIndicator(stats.Platform.State)
		gap := width - displayWidth(header) - displayWidth(state)
		if gap < 0 {
			gap = 0
		}
		content = header + spaces(gap) + state
	case 2:
		content = fmt.Sprintf("%s◆ Session%s %s%s%s",
			escseq.Fg(escseq.ColorGray), escseq.Reset,
			escseq.Fg(escseq.ColorBlue), stats.FormatWork(), escseq.Reset)
	case 3:
		content = fmt.Sprintf("%s✉ Messages%s %s%d%s",
			escseq.Fg(escseq.ColorGray), escseq.Reset,
			escseq.Fg(escseq.ColorLightBlue), stats.Platform.Completions, escseq.Reset)
	case 4:
		content = fmt.Sprintf("%s⚙ Tools%s %s%s%s",
			escseq.Fg(escseq.ColorGray), escseq.Reset,
			escseq.Fg(escseq.ColorOrange), formatNumber(stats.TotalToolCalls()), escseq.Reset)
	case 5:
		if stats.Platform.Compressions > 0 {
			content = fmt.Sprintf("%s⊜ Compact%s %s%d%s",
				escseq.Fg(escseq.ColorGray), escseq.Reset,
				escseq.Fg(escseq.ColorPink), stats.Platform.Compressions, escseq.Reset)
		}
	case 6:
		isIdleState := stats.Platform.State == statsreader.StateComplete || stats.Platform.State == statsreader.StateQuestion
		if isIdleState {
			if secs, ok := idleSeconds(stats.Platform.IdleSince); ok {
				content = fmt.Sprintf("%s◇ Idle%s %s%s%s",
					escseq.Fg(escseq.ColorGray), escseq.Reset,
					escseq.Fg(escseq.ColorGray), formatIdle(secs), escseq.Reset)
			}
		}
	}
	return padTo(content, width)
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
