package stock

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/tui/components"
)

// AlertsView lists active items below their minimum stock, largest gap first.
type AlertsView struct {
	source Source
	table  *components.Table
	styles components.Styles
	alerts []models.StockAlert
	err    error
}

// NewAlertsView creates an alert view over source.
func NewAlertsView(source Source) *AlertsView {
	table := components.NewTable([]components.Column{
		{Title: "Item", Width: 22, Weight: 1, Priority: 9},
		{Title: "Spec", Width: 12, Priority: 3},
		{Title: "Qty", Width: 8, Align: lipgloss.Right, Priority: 8},
		{Title: "Min", Width: 8, Align: lipgloss.Right, Priority: 7},
		{Title: "Short", Width: 8, Align: lipgloss.Right, Priority: 6},
		{Title: "Unit", Width: 6, Priority: 4},
	})
	table.SetVisibleRows(20)
	table.Focus(true)

	return &AlertsView{source: source, table: table, styles: components.DefaultStyles()}
}

// SetStyles sets the text and table styles.
func (v *AlertsView) SetStyles(s components.Styles, table func(*components.Table)) {
	v.styles = s
	if table != nil {
		table(v.table)
	}
}

// SetVisibleRows sets how many table rows fit on screen.
func (v *AlertsView) SetVisibleRows(n int) {
	v.table.SetVisibleRows(n)
}

// Count returns the number of loaded alerts.
func (v *AlertsView) Count() int {
	return len(v.alerts)
}

// Load fetches the current alerts.
func (v *AlertsView) Load(ctx context.Context) error {
	alerts, err := v.source.Alerts(ctx)
	v.SetError(err)
	if err != nil {
		return err
	}
	v.SetAlerts(alerts)
	return nil
}

// SetError sets the load error; nil clears it.
func (v *AlertsView) SetError(err error) {
	v.err = err
}

// SetAlerts replaces the displayed alerts.
func (v *AlertsView) SetAlerts(alerts []models.StockAlert) {
	v.alerts = alerts
	rows := make([][]string, len(alerts))
	for i, a := range alerts {
		rows[i] = []string{
			a.ItemName,
			dash(a.Spec),
			fmt.Sprintf("%d", a.Qty),
			fmt.Sprintf("%d", a.MinStock),
			fmt.Sprintf("%d", a.Gap),
			a.Unit,
		}
	}
	v.table.SetRows(rows)
}

// MoveUp moves the selection up.
func (v *AlertsView) MoveUp() { v.table.MoveUp() }

// MoveDown moves the selection down.
func (v *AlertsView) MoveDown() { v.table.MoveDown() }

// Render renders the alert list.
func (v *AlertsView) Render(width, height int) string {
	s := v.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("=== LOW STOCK ALERTS ==="))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(s.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.table.Empty() {
		b.WriteString(s.Label.Render("Every item is at or above its minimum."))
		b.WriteString("\n")
	} else {
		b.WriteString(s.Warn.Render(fmt.Sprintf("%d item(s) below minimum", len(v.alerts))))
		b.WriteString("\n\n")
		b.WriteString(v.table.RenderResponsive(width))
	}

	b.WriteString("\n")
	b.WriteString(s.HelpLine("Up/Down:Select  r:Refresh", "r:Refresh", width))
	return b.String()
}
