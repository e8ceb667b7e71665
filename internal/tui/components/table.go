// Package components provides reusable console widgets.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. Width is the preferred width; columns with
// a Weight share the space left over by fixed columns. When the terminal is
// too narrow, columns are dropped lowest Priority first.
type Column struct {
	Title    string
	Width    int
	Align    lipgloss.Position
	Weight   float64
	Priority int
}

const (
	separator = " | "
	rowPad    = 2
)

// Table is a scrolling, selectable table.
type Table struct {
	columns     []Column
	rows        [][]string
	marked      map[int]bool
	selected    int
	offset      int
	visibleRows int
	focused     bool

	headerStyle   lipgloss.Style
	rowStyle      lipgloss.Style
	rowAltStyle   lipgloss.Style
	markedStyle   lipgloss.Style
	selectedStyle lipgloss.Style
	borderStyle   lipgloss.Style
}

// NewTable creates a table with the given columns.
func NewTable(columns []Column) *Table {
	return &Table{
		columns:       columns,
		rows:          [][]string{},
		marked:        map[int]bool{},
		visibleRows:   10,
		headerStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#66FF66")),
		rowStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		rowAltStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
		markedStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00")).Bold(true),
		selectedStyle: lipgloss.NewStyle().Background(lipgloss.Color("#00FF00")).Foreground(lipgloss.Color("#000000")),
		borderStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
	}
}

// SetRows replaces the table data and keeps the selection in range.
func (t *Table) SetRows(rows [][]string) {
	t.rows = rows
	t.marked = map[int]bool{}
	if t.selected >= len(rows) {
		t.selected = len(rows) - 1
	}
	if t.selected < 0 {
		t.selected = 0
	}
	if t.offset > t.selected {
		t.offset = t.selected
	}
}

// Mark highlights row i, e.g. an item below its minimum stock.
func (t *Table) Mark(i int) {
	t.marked[i] = true
}

// SetVisibleRows sets the number of rows shown at once.
func (t *Table) SetVisibleRows(n int) {
	if n < 1 {
		n = 1
	}
	t.visibleRows = n
}

// SetStyles sets the table styles.
func (t *Table) SetStyles(header, row, rowAlt, marked, selected, border lipgloss.Style) {
	t.headerStyle = header
	t.rowStyle = row
	t.rowAltStyle = rowAlt
	t.markedStyle = marked
	t.selectedStyle = selected
	t.borderStyle = border
}

// Focus sets the table focus state.
func (t *Table) Focus(focused bool) {
	t.focused = focused
}

// Selected returns the selected row index.
func (t *Table) Selected() int {
	return t.selected
}

// SelectedRow returns the selected row data.
func (t *Table) SelectedRow() []string {
	if t.selected >= 0 && t.selected < len(t.rows) {
		return t.rows[t.selected]
	}
	return nil
}

// MoveUp moves the selection up.
func (t *Table) MoveUp() {
	if t.selected > 0 {
		t.selected--
		if t.selected < t.offset {
			t.offset = t.selected
		}
	}
}

// MoveDown moves the selection down.
func (t *Table) MoveDown() {
	if t.selected < len(t.rows)-1 {
		t.selected++
		if t.selected >= t.offset+t.visibleRows {
			t.offset = t.selected - t.visibleRows + 1
		}
	}
}

// PageUp moves up one screen.
func (t *Table) PageUp() {
	t.selected -= t.visibleRows
	if t.selected < 0 {
		t.selected = 0
	}
	t.offset = t.selected
}

// PageDown moves down one screen.
func (t *Table) PageDown() {
	t.selected += t.visibleRows
	if t.selected >= len(t.rows) {
		t.selected = len(t.rows) - 1
	}
	if t.selected < 0 {
		t.selected = 0
	}
	t.offset = t.selected - t.visibleRows + 1
	if t.offset < 0 {
		t.offset = 0
	}
}

// GoToTop selects the first row.
func (t *Table) GoToTop() {
	t.selected = 0
	t.offset = 0
}

// GoToBottom selects the last row.
func (t *Table) GoToBottom() {
	if len(t.rows) == 0 {
		return
	}
	t.selected = len(t.rows) - 1
	t.offset = t.selected - t.visibleRows + 1
	if t.offset < 0 {
		t.offset = 0
	}
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// computeWidths fits the columns into width. A zero width means "no limit":
// every column gets its preferred width. Dropped columns get width 0.
func (t *Table) computeWidths(width int) []int {
	widths := make([]int, len(t.columns))
	visible := make([]bool, len(t.columns))
	for i := range t.columns {
		visible[i] = true
	}

	if width <= 0 {
		for i, c := range t.columns {
			widths[i] = c.Width
		}
		return widths
	}

	need := func() int {
		n, count := 0, 0
		for i, c := range t.columns {
			if visible[i] {
				n += c.Width
				count++
			}
		}
		if count > 1 {
			n += (count - 1) * len(separator)
		}
		return n + rowPad
	}

	for need() > width {
		drop, count := -1, 0
		for i, c := range t.columns {
			if !visible[i] {
				continue
			}
			count++
			if drop < 0 || c.Priority < t.columns[drop].Priority {
				drop = i
			}
		}
		if count <= 1 {
			break
		}
		visible[drop] = false
	}

	spare := width - need()
	totalWeight := 0.0
	for i, c := range t.columns {
		if visible[i] {
			totalWeight += c.Weight
		}
	}

	for i, c := range t.columns {
		if !visible[i] {
			continue
		}
		widths[i] = c.Width
		if spare > 0 && totalWeight > 0 && c.Weight > 0 {
			widths[i] += int(float64(spare) * c.Weight / totalWeight)
		}
	}
	return widths
}

// Render renders the table at the columns' preferred widths.
func (t *Table) Render() string {
	return t.RenderResponsive(0)
}

// RenderResponsive renders the table fitted to width.
func (t *Table) RenderResponsive(width int) string {
	widths := t.computeWidths(width)

	total := rowPad
	shown := 0
	for _, w := range widths {
		if w > 0 {
			total += w
			shown++
		}
	}
	if shown > 1 {
		total += (shown - 1) * len(separator)
	}
	rule := t.borderStyle.Render(strings.Repeat("-", total))

	var b strings.Builder
	headers := make([]string, len(t.columns))
	for i, c := range t.columns {
		headers[i] = c.Title
	}
	b.WriteString(t.renderRow(headers, widths, t.headerStyle))
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")

	end := t.offset + t.visibleRows
	if end > len(t.rows) {
		end = len(t.rows)
	}
	for i := t.offset; i < end; i++ {
		style := t.rowStyle
		switch {
		case i == t.selected && t.focused:
			style = t.selectedStyle
		case t.marked[i]:
			style = t.markedStyle
		case (i-t.offset)%2 == 1:
			style = t.rowAltStyle
		}
		b.WriteString(t.renderRow(t.rows[i], widths, style))
		b.WriteString("\n")
	}

	if len(t.rows) > t.visibleRows {
		b.WriteString(rule)
		b.WriteString("\n")
		b.WriteString(t.borderStyle.Render(fmt.Sprintf("Rows %d-%d of %d", t.offset+1, end, len(t.rows))))
	}

	return b.String()
}

func (t *Table) renderRow(cells []string, widths []int, style lipgloss.Style) string {
	parts := make([]string, 0, len(t.columns))
	for i, col := range t.columns {
		w := widths[i]
		if w == 0 {
			continue
		}
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts = append(parts, style.Render(fit(cell, w, col.Align)))
	}
	return " " + strings.Join(parts, separator) + " "
}

// fit truncates or pads s to exactly w cells.
func fit(s string, w int, align lipgloss.Position) string {
	if lipgloss.Width(s) > w {
		runes := []rune(s)
		for lipgloss.Width(string(runes))+1 > w && len(runes) > 0 {
			runes = runes[:len(runes)-1]
		}
		s = string(runes) + "…"
	}

	pad := w - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	switch align {
	case lipgloss.Right:
		return strings.Repeat(" ", pad) + s
	case lipgloss.Center:
		left := pad / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
	default:
		return s + strings.Repeat(" ", pad)
	}
}
