package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// MaxContentWidth is the widest the content area grows.
const MaxContentWidth = 120

// chromeLines is the height taken by header, alert bar and footer.
const chromeLines = 6

// Panel renders a bordered panel with a title line.
func (t *Theme) Panel(title, content string, width int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.SecondaryColor).
		Padding(0, 1)
	if width > 2 {
		style = style.Width(width - 2)
	}

	if title != "" {
		content = t.Accent.Bold(true).Render(title) + "\n" + content
	}
	return style.Render(content)
}

// SideBySide renders two blocks side by side, stacking them when they do not
// fit in totalWidth.
func SideBySide(left, right string, totalWidth, gap int) string {
	if lipgloss.Width(left)+lipgloss.Width(right)+gap > totalWidth {
		return left + "\n" + right
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, strings.Repeat(" ", gap), right)
}

// ProgressBar renders a text bar of value out of max, colored by how full it is.
func (t *Theme) ProgressBar(value, max float64, width int) string {
	if max <= 0 {
		max = 1
	}
	ratio := value / max
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}

	barWidth := width - 2
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(ratio * float64(barWidth))
	bar := "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"

	switch {
	case ratio > 0.6:
		return t.Success.Render(bar)
	case ratio > 0.3:
		return t.Warning.Render(bar)
	default:
		return t.Error.Render(bar)
	}
}

// Truncate shortens s to maxWidth display columns, ending in "…" when cut.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}

	var b strings.Builder
	w := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if w+rw > maxWidth-1 {
			break
		}
		b.WriteRune(r)
		w += rw
	}
	return b.String() + "…"
}

// ContentWidth returns the usable content width, capped between min and max.
func ContentWidth(termWidth, minWidth, maxWidth int) int {
	w := termWidth
	if w < minWidth {
		w = minWidth
	}
	if maxWidth > 0 && w > maxWidth {
		w = maxWidth
	}
	return w
}

// ContentHeight returns the usable content height after subtracting chrome.
func ContentHeight(termHeight, chrome int) int {
	h := termHeight - chrome
	if h < 5 {
		h = 5
	}
	return h
}
