// Package moves provides the console view of the stock ledger.
package moves

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/tui/components"
)

// Source returns the newest ledger entries.
type Source interface {
	RecentMoves(ctx context.Context, limit int) ([]models.StockMove, error)
}

// View lists the most recent stock moves.
type View struct {
	source Source
	limit  int
	table  *components.Table
	styles components.Styles
	moves  []models.StockMove
	err    error
}

// NewView creates a ledger view showing up to limit entries. A non-positive
// limit uses the service default.
func NewView(source Source, limit int) *View {
	table := components.NewTable([]components.Column{
		{Title: "Date", Width: 10, Priority: 8},
		{Title: "Type", Width: 6, Priority: 7},
		{Title: "Item", Width: 20, Weight: 1, Priority: 9},
		{Title: "Delta", Width: 7, Align: lipgloss.Right, Priority: 10},
		{Title: "Doc No", Width: 16, Priority: 4},
		{Title: "Operator", Width: 10, Priority: 3},
	})
	table.SetVisibleRows(20)
	table.Focus(true)

	return &View{source: source, limit: limit, table: table, styles: components.DefaultStyles()}
}

// SetStyles sets the text and table styles.
func (v *View) SetStyles(s components.Styles, table func(*components.Table)) {
	v.styles = s
	if table != nil {
		table(v.table)
	}
}

// SetVisibleRows sets how many table rows fit on screen.
func (v *View) SetVisibleRows(n int) {
	v.table.SetVisibleRows(n)
}

// Load fetches the newest moves.
func (v *View) Load(ctx context.Context) error {
	moves, err := v.source.RecentMoves(ctx, v.limit)
	v.SetError(err)
	if err != nil {
		return err
	}
	v.SetMoves(moves)
	return nil
}

// Limit returns how many entries the view asks for.
func (v *View) Limit() int {
	return v.limit
}

// SetError sets the load error; nil clears it.
func (v *View) SetError(err error) {
	v.err = err
}

// Moves returns the loaded entries.
func (v *View) Moves() []models.StockMove {
	return v.moves
}

// SetMoves replaces the displayed entries.
func (v *View) SetMoves(moves []models.StockMove) {
	v.moves = moves
	rows := make([][]string, len(moves))
	for i, m := range moves {
		doc := m.DocNo
		if doc == "" {
			doc = "-"
		}
		op := m.Operator
		if op == "" {
			op = "-"
		}
		rows[i] = []string{
			m.BizDate,
			string(m.MoveType),
			m.ItemName,
			fmt.Sprintf("%+d", m.QtyDelta),
			doc,
			op,
		}
	}
	v.table.SetRows(rows)
	for i, m := range moves {
		if m.MoveType == models.MoveTypeAdjust {
			v.table.Mark(i)
		}
	}
}

// MoveUp moves the selection up.
func (v *View) MoveUp() { v.table.MoveUp() }

// MoveDown moves the selection down.
func (v *View) MoveDown() { v.table.MoveDown() }

// Render renders the ledger list.
func (v *View) Render(width, height int) string {
	s := v.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("=== STOCK MOVES ==="))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(s.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.table.Empty() {
		b.WriteString(s.Label.Render("No stock moves recorded."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.table.RenderResponsive(width))
	}

	b.WriteString("\n")
	b.WriteString(s.HelpLine("Up/Down:Select  r:Refresh", "r:Refresh", width))
	return b.String()
}
