// Package tui provides the read-only warehouse console.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stockroom/warehouse/internal/config"
	"github.com/stockroom/warehouse/internal/tui/components"
)

// Theme contains the style definitions for the console.
type Theme struct {
	PrimaryColor    lipgloss.Color
	SecondaryColor  lipgloss.Color
	AccentColor     lipgloss.Color
	BackgroundColor lipgloss.Color
	MutedColor      lipgloss.Color
	ErrorColor      lipgloss.Color
	WarningColor    lipgloss.Color

	Base    lipgloss.Style
	Primary lipgloss.Style
	Accent  lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Box      lipgloss.Style
	Selected lipgloss.Style

	Alert     lipgloss.Style
	AlertWarn lipgloss.Style
	AlertCrit lipgloss.Style

	TableHeader lipgloss.Style
	TableRow    lipgloss.Style
	TableRowAlt lipgloss.Style
	TableMarked lipgloss.Style
	TableBorder lipgloss.Style

	StatusDivider lipgloss.Style
}

type palette struct {
	primary, secondary, accent, background, muted, err, warning, success lipgloss.Color
}

// NewTheme creates a theme for the configured color scheme.
func NewTheme(scheme config.ColorScheme) *Theme {
	switch scheme {
	case config.ColorSchemeAmber:
		return buildTheme(palette{
			primary: "#FFAA00", secondary: "#AA7700", accent: "#FFCC66", background: "#000000",
			muted: "#664400", err: "#FF4444", warning: "#FFFF00", success: "#FFAA00",
		})
	case config.ColorSchemeWhite:
		return buildTheme(palette{
			primary: "#FFFFFF", secondary: "#AAAAAA", accent: "#FFFFFF", background: "#000000",
			muted: "#666666", err: "#FF4444", warning: "#FFAA00", success: "#00FF00",
		})
	default:
		return buildTheme(palette{
			primary: "#00FF00", secondary: "#00AA00", accent: "#66FF66", background: "#000000",
			muted: "#006600", err: "#FF4444", warning: "#FFAA00", success: "#00FF00",
		})
	}
}

func buildTheme(p palette) *Theme {
	t := &Theme{
		PrimaryColor:    p.primary,
		SecondaryColor:  p.secondary,
		AccentColor:     p.accent,
		BackgroundColor: p.background,
		MutedColor:      p.muted,
		ErrorColor:      p.err,
		WarningColor:    p.warning,
	}

	t.Base = lipgloss.NewStyle().Foreground(p.primary)
	t.Primary = lipgloss.NewStyle().Foreground(p.primary)
	t.Accent = lipgloss.NewStyle().Foreground(p.accent)
	t.Error = lipgloss.NewStyle().Foreground(p.err)
	t.Warning = lipgloss.NewStyle().Foreground(p.warning)
	t.Success = lipgloss.NewStyle().Foreground(p.success)
	t.Muted = lipgloss.NewStyle().Foreground(p.muted)

	t.Header = lipgloss.NewStyle().
		Foreground(p.primary).
		Bold(true).
		Padding(0, 1)

	t.Footer = lipgloss.NewStyle().
		Foreground(p.secondary).
		Padding(0, 1)

	t.Title = lipgloss.NewStyle().
		Foreground(p.accent).
		Bold(true)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(p.primary)

	t.Label = lipgloss.NewStyle().Foreground(p.secondary)
	t.Value = lipgloss.NewStyle().Foreground(p.primary)

	t.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.secondary).
		Padding(0, 1)

	t.Selected = lipgloss.NewStyle().
		Foreground(p.background).
		Background(p.primary).
		Bold(true)

	t.Alert = lipgloss.NewStyle().Foreground(p.primary).Bold(true)
	t.AlertWarn = lipgloss.NewStyle().Foreground(p.warning).Bold(true)
	t.AlertCrit = lipgloss.NewStyle().Foreground(p.err).Bold(true).Blink(true)

	t.TableHeader = lipgloss.NewStyle().Foreground(p.accent).Bold(true)
	t.TableRow = lipgloss.NewStyle().Foreground(p.primary)
	t.TableRowAlt = lipgloss.NewStyle().Foreground(p.secondary)
	t.TableMarked = lipgloss.NewStyle().Foreground(p.warning)
	t.TableBorder = lipgloss.NewStyle().Foreground(p.secondary)

	t.StatusDivider = lipgloss.NewStyle().
		Foreground(p.muted).
		SetString(" │ ")

	return t
}

// Styles returns the view text styles for this theme.
func (t *Theme) Styles() components.Styles {
	return components.Styles{
		Title:   t.Title,
		Section: t.Subtitle,
		Label:   t.Label,
		Value:   t.Value,
		Warn:    t.Warning,
		Error:   t.Error,
		Help:    t.Label,
	}
}

// ApplyTable styles a table with this theme.
func (t *Theme) ApplyTable(tbl *components.Table) {
	tbl.SetStyles(t.TableHeader, t.TableRow, t.TableRowAlt, t.TableMarked, t.Selected, t.TableBorder)
}

const (
	boxHorizontal       = "─"
	boxDoubleHorizontal = "═"
)

// DrawHorizontalLine draws a horizontal line.
func (t *Theme) DrawHorizontalLine(width int) string {
	return t.Label.Render(strings.Repeat(boxHorizontal, max(width, 0)))
}

// DrawDoubleLine draws a double horizontal line.
func (t *Theme) DrawDoubleLine(width int) string {
	return t.Primary.Render(strings.Repeat(boxDoubleHorizontal, max(width, 0)))
}
