// Package stock provides the console views of balances and low-stock alerts.
package stock

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/tui/components"
)

// Source is the read side of the stock ledger.
type Source interface {
	ListBalances(ctx context.Context, filter models.StockFilter) ([]models.StockRow, error)
	ItemDetail(ctx context.Context, itemID int64) (*models.ItemDetail, error)
	Alerts(ctx context.Context) ([]models.StockAlert, error)
}

var sortCycle = []models.StockSort{
	models.StockSortName,
	models.StockSortQty,
	models.StockSortLastInDate,
}

// InventoryView lists item balances with search and sorting.
type InventoryView struct {
	source Source
	table  *components.Table
	styles components.Styles
	rows   []models.StockRow
	query  string
	sort   int
	err    error

	detail *models.ItemDetail
}

// NewInventoryView creates an inventory view over source.
func NewInventoryView(source Source) *InventoryView {
	columns := []components.Column{
		{Title: "Item", Width: 20, Weight: 2, Priority: 9},
		{Title: "Spec", Width: 12, Weight: 1, Priority: 4},
		{Title: "Category", Width: 12, Weight: 1, Priority: 3},
		{Title: "Qty", Width: 8, Align: lipgloss.Right, Priority: 8},
		{Title: "Unit", Width: 6, Priority: 6},
		{Title: "Min", Width: 6, Align: lipgloss.Right, Priority: 5},
		{Title: "Last In", Width: 10, Priority: 2},
	}

	table := components.NewTable(columns)
	table.SetVisibleRows(20)
	table.Focus(true)

	return &InventoryView{
		source: source,
		table:  table,
		styles: components.DefaultStyles(),
	}
}

// SetStyles sets the text and table styles.
func (v *InventoryView) SetStyles(s components.Styles, table func(*components.Table)) {
	v.styles = s
	if table != nil {
		table(v.table)
	}
}

// SetVisibleRows sets how many table rows fit on screen.
func (v *InventoryView) SetVisibleRows(n int) {
	v.table.SetVisibleRows(n)
}

// SetQuery filters items by name. An empty query lists everything.
func (v *InventoryView) SetQuery(q string) {
	v.query = strings.TrimSpace(q)
}

// Query returns the active name filter.
func (v *InventoryView) Query() string {
	return v.query
}

// CycleSort switches to the next sort column.
func (v *InventoryView) CycleSort() {
	v.sort = (v.sort + 1) % len(sortCycle)
}

// SortColumn returns the active sort column.
func (v *InventoryView) SortColumn() models.StockSort {
	return sortCycle[v.sort]
}

// Filter returns the balance query for the current name search and sort.
// Names sort ascending, quantities and dates newest or largest first.
func (v *InventoryView) Filter() models.StockFilter {
	filter := models.StockFilter{
		SortBy:    v.SortColumn(),
		SortOrder: models.SortAsc,
	}
	if v.SortColumn() != models.StockSortName {
		filter.SortOrder = models.SortDesc
	}
	if v.query != "" {
		filter.QField = models.StockQueryName
		filter.Q = v.query
	}
	return filter
}

// Load fetches balances for the current query and sort.
func (v *InventoryView) Load(ctx context.Context) error {
	rows, err := v.source.ListBalances(ctx, v.Filter())
	v.SetError(err)
	if err != nil {
		return err
	}
	v.SetRows(rows)
	return nil
}

// SetError sets the load error shown above the table; nil clears it.
func (v *InventoryView) SetError(err error) {
	v.err = err
}

// SetRows replaces the displayed balances.
func (v *InventoryView) SetRows(rows []models.StockRow) {
	v.rows = rows

	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{
			r.ItemName,
			dash(r.Spec),
			dash(r.CategoryName),
			fmt.Sprintf("%d", r.Qty),
			r.Unit,
			fmt.Sprintf("%d", r.MinStock),
			dash(r.LastInDate),
		}
	}
	v.table.SetRows(data)
	for i, r := range rows {
		if r.BelowMinimum() {
			v.table.Mark(i)
		}
	}
}

// LoadDetail fetches the position of the selected item.
func (v *InventoryView) LoadDetail(ctx context.Context) error {
	row := v.Selected()
	if row == nil {
		v.detail = nil
		return nil
	}
	detail, err := v.source.ItemDetail(ctx, row.ItemID)
	if err != nil {
		return err
	}
	v.SetDetail(detail)
	return nil
}

// SetDetail sets the item position RenderDetail shows.
func (v *InventoryView) SetDetail(d *models.ItemDetail) {
	v.detail = d
}

// MoveUp moves the selection up.
func (v *InventoryView) MoveUp() { v.table.MoveUp() }

// MoveDown moves the selection down.
func (v *InventoryView) MoveDown() { v.table.MoveDown() }

// PageUp moves the selection up one screen.
func (v *InventoryView) PageUp() { v.table.PageUp() }

// PageDown moves the selection down one screen.
func (v *InventoryView) PageDown() { v.table.PageDown() }

// Selected returns the selected balance row.
func (v *InventoryView) Selected() *models.StockRow {
	i := v.table.Selected()
	if i >= 0 && i < len(v.rows) {
		return &v.rows[i]
	}
	return nil
}

// Render renders the balance list.
func (v *InventoryView) Render(width, height int) string {
	s := v.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("=== INVENTORY ==="))
	b.WriteString("\n\n")

	b.WriteString(s.Label.Render("Sort: ") + s.Value.Render(string(v.SortColumn())))
	if v.query != "" {
		b.WriteString(s.Label.Render("   Name: ") + s.Value.Render(v.query))
	}
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(s.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.table.Empty() {
		b.WriteString(s.Label.Render("No items found."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.table.RenderResponsive(width))
	}

	b.WriteString("\n")
	b.WriteString(s.HelpLine(
		"Up/Down:Select  Enter:Details  /:Search  o:Sort  PgUp/Dn:Scroll  r:Refresh",
		"Enter:Det /:Find o:Sort",
		width))

	return b.String()
}

// RenderDetail renders the loaded item position with its recent outbounds.
func (v *InventoryView) RenderDetail(width int) string {
	s := v.styles
	d := v.detail
	if d == nil {
		return s.Label.Render("No item selected")
	}

	const labelWidth = 16
	var b strings.Builder

	b.WriteString(s.Title.Render("=== ITEM DETAIL ==="))
	b.WriteString("\n\n")

	b.WriteString(s.Section.Render("ITEM"))
	b.WriteString("\n")
	b.WriteString(s.Field("Name:", d.Item.Name, labelWidth) + "\n")
	b.WriteString(s.Field("Spec:", dash(d.Item.SpecDefault), labelWidth) + "\n")
	b.WriteString(s.Field("Unit:", d.Item.UnitDefault, labelWidth) + "\n")
	b.WriteString(s.Field("Category:", dash(d.Item.CategoryName), labelWidth) + "\n")
	if !d.Item.IsActive {
		b.WriteString(s.Warn.Render("Inactive") + "\n")
	}
	b.WriteString("\n")

	b.WriteString(s.Section.Render("STOCK"))
	b.WriteString("\n")
	qty := fmt.Sprintf("%d %s", d.Qty, d.Item.UnitDefault)
	if d.Item.IsActive && d.Item.MinStock > 0 && d.Qty < d.Item.MinStock {
		b.WriteString(s.Label.Width(labelWidth).Render("On hand:") + " " +
			s.Warn.Render(fmt.Sprintf("%s (min %d)", qty, d.Item.MinStock)) + "\n")
	} else {
		b.WriteString(s.Field("On hand:", qty, labelWidth) + "\n")
	}
	b.WriteString(s.Field("Last inbound:", dash(d.LastInboundDate), labelWidth) + "\n")
	b.WriteString("\n")

	b.WriteString(s.Section.Render("OUTBOUND HISTORY"))
	b.WriteString("\n")
	if len(d.Outbounds) == 0 {
		b.WriteString(s.Label.Render("  none") + "\n")
	}
	for i, m := range d.Outbounds {
		if i == 10 {
			b.WriteString(s.Label.Render(fmt.Sprintf("  ... %d more", len(d.Outbounds)-i)) + "\n")
			break
		}
		b.WriteString(s.Value.Render(fmt.Sprintf("  %s  %-14s %6d  %s",
			m.BizDate, dash(m.DocNo), -m.QtyDelta, m.Operator)) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(s.HelpLine("Esc:Back", "Esc:Back", width))
	return b.String()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
