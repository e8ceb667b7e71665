package components

import "github.com/charmbracelet/lipgloss"

// Styles are the text styles views render with.
type Styles struct {
	Title   lipgloss.Style
	Section lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Warn    lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
}

// DefaultStyles returns the green phosphor styles.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true),
		Section: lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
		Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
	}
}

// Field renders "label value" with the label padded to width.
func (s Styles) Field(label, value string, width int) string {
	return s.Label.Width(width).Render(label) + " " + s.Value.Render(value)
}

// HelpLine picks the full help text, or the compact one below 60 columns.
func (s Styles) HelpLine(full, compact string, width int) string {
	if width > 0 && width < 60 {
		return s.Help.Render(compact)
	}
	return s.Help.Render(full)
}
