// Package documents provides the console views of claims, inbound and
// outbound documents.
package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/services/documents"
	"github.com/stockroom/warehouse/internal/tui/components"
)

// Source is the read side of the document service.
type Source interface {
	ListDocuments(ctx context.Context, filter models.DocFilter) ([]models.Doc, error)
	GetDocument(ctx context.Context, id int64) (*models.Doc, error)
	ClaimProgress(ctx context.Context, claimID int64) (*documents.ClaimSummary, error)
}

// typeCycle is the order the type filter steps through; "" is every type.
var typeCycle = []models.DocType{
	"",
	models.DocTypeClaim,
	models.DocTypeInbound,
	models.DocTypeOutbound,
}

// ListView lists document headers, newest business date first.
type ListView struct {
	source  Source
	table   *components.Table
	styles  components.Styles
	docs    []models.Doc
	typeIdx int
	err     error

	detail   *models.Doc
	progress map[int64]models.ClaimLineProgress
}

// NewListView creates a document list over source.
func NewListView(source Source) *ListView {
	table := components.NewTable([]components.Column{
		{Title: "Date", Width: 10, Priority: 8},
		{Title: "Type", Width: 8, Priority: 7},
		{Title: "Doc No", Width: 16, Weight: 1, Priority: 9},
		{Title: "Party", Width: 16, Weight: 1, Priority: 3},
		{Title: "Operator", Width: 10, Priority: 2},
		{Title: "Status", Width: 9, Priority: 5},
	})
	table.SetVisibleRows(20)
	table.Focus(true)

	return &ListView{source: source, table: table, styles: components.DefaultStyles()}
}

// SetStyles sets the text and table styles.
func (v *ListView) SetStyles(s components.Styles, table func(*components.Table)) {
	v.styles = s
	if table != nil {
		table(v.table)
	}
}

// SetVisibleRows sets how many table rows fit on screen.
func (v *ListView) SetVisibleRows(n int) {
	v.table.SetVisibleRows(n)
}

// CycleType switches the type filter.
func (v *ListView) CycleType() {
	v.typeIdx = (v.typeIdx + 1) % len(typeCycle)
}

// TypeFilter returns the active type filter, empty for all.
func (v *ListView) TypeFilter() models.DocType {
	return typeCycle[v.typeIdx]
}

// Filter returns the list query for the active type filter.
func (v *ListView) Filter() models.DocFilter {
	return models.DocFilter{
		Type:  v.TypeFilter(),
		Sort:  models.DocSortBizDate,
		Order: models.SortDesc,
	}
}

// Load fetches documents for the active filter.
func (v *ListView) Load(ctx context.Context) error {
	docs, err := v.source.ListDocuments(ctx, v.Filter())
	v.SetError(err)
	if err != nil {
		return err
	}
	v.SetDocs(docs)
	return nil
}

// SetError sets the load error; nil clears it.
func (v *ListView) SetError(err error) {
	v.err = err
}

// SetDocs replaces the displayed documents.
func (v *ListView) SetDocs(docs []models.Doc) {
	v.docs = docs
	rows := make([][]string, len(docs))
	for i, d := range docs {
		party := d.CompanyName
		if d.DocType == models.DocTypeClaim {
			party = d.Requester
		}
		rows[i] = []string{
			d.BizDate,
			string(d.DocType),
			d.DocNo,
			dash(party),
			dash(d.Operator),
			dash(string(d.Status)),
		}
	}
	v.table.SetRows(rows)
}

// MoveUp moves the selection up.
func (v *ListView) MoveUp() { v.table.MoveUp() }

// MoveDown moves the selection down.
func (v *ListView) MoveDown() { v.table.MoveDown() }

// PageUp moves the selection up one screen.
func (v *ListView) PageUp() { v.table.PageUp() }

// PageDown moves the selection down one screen.
func (v *ListView) PageDown() { v.table.PageDown() }

// Selected returns the selected document header.
func (v *ListView) Selected() *models.Doc {
	i := v.table.Selected()
	if i >= 0 && i < len(v.docs) {
		return &v.docs[i]
	}
	return nil
}

// LoadDetail fetches the selected document's lines, and for a claim its
// fulfilment.
func (v *ListView) LoadDetail(ctx context.Context) error {
	sel := v.Selected()
	if sel == nil {
		v.SetDetail(nil, nil)
		return nil
	}
	doc, summary, err := FetchDetail(ctx, v.source, sel.ID)
	if err != nil {
		return err
	}
	v.SetDetail(doc, summary)
	return nil
}

// FetchDetail loads a document and, for a claim, its per-line receipts.
func FetchDetail(ctx context.Context, source Source, id int64) (*models.Doc, *documents.ClaimSummary, error) {
	doc, err := source.GetDocument(ctx, id)
	if err != nil || doc == nil || doc.DocType != models.DocTypeClaim {
		return doc, nil, err
	}
	summary, err := source.ClaimProgress(ctx, doc.ID)
	if err != nil {
		return nil, nil, err
	}
	return doc, summary, nil
}

// SetDetail sets the document RenderDetail shows. summary may be nil.
func (v *ListView) SetDetail(doc *models.Doc, summary *documents.ClaimSummary) {
	v.detail, v.progress = doc, nil
	if summary == nil {
		return
	}
	v.progress = make(map[int64]models.ClaimLineProgress, len(summary.Lines))
	for _, p := range summary.Lines {
		v.progress[p.LineID] = p
	}
}

// Render renders the document list.
func (v *ListView) Render(width, height int) string {
	s := v.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("=== DOCUMENTS ==="))
	b.WriteString("\n\n")

	filter := "all"
	if t := v.TypeFilter(); t != "" {
		filter = string(t)
	}
	b.WriteString(s.Label.Render("Type: ") + s.Value.Render(filter))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(s.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.table.Empty() {
		b.WriteString(s.Label.Render("No documents found."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.table.RenderResponsive(width))
	}

	b.WriteString("\n")
	b.WriteString(s.HelpLine(
		"Up/Down:Select  Enter:Lines  t:Type  PgUp/Dn:Scroll  r:Refresh",
		"Enter:Lines t:Type",
		width))
	return b.String()
}

// RenderDetail renders the loaded document header and lines.
func (v *ListView) RenderDetail(width int) string {
	s := v.styles
	d := v.detail
	if d == nil {
		return s.Label.Render("No document selected")
	}

	const labelWidth = 14
	var b strings.Builder

	b.WriteString(s.Title.Render(fmt.Sprintf("=== %s %s ===", strings.ToUpper(string(d.DocType)), d.DocNo)))
	b.WriteString("\n\n")

	b.WriteString(s.Field("Date:", d.BizDate, labelWidth) + "\n")
	switch d.DocType {
	case models.DocTypeClaim:
		b.WriteString(s.Field("Requester:", dash(d.Requester), labelWidth) + "\n")
		b.WriteString(s.Field("Status:", string(d.Status), labelWidth) + "\n")
	default:
		b.WriteString(s.Field("Company:", dash(d.CompanyName), labelWidth) + "\n")
	}
	b.WriteString(s.Field("Operator:", dash(d.Operator), labelWidth) + "\n")
	if d.Remark != "" {
		b.WriteString(s.Field("Remark:", d.Remark, labelWidth) + "\n")
	}
	b.WriteString("\n")

	columns := []components.Column{
		{Title: "#", Width: 3, Align: lipgloss.Right, Priority: 5},
		{Title: "Item", Width: 20, Weight: 1, Priority: 9},
		{Title: "Spec", Width: 12, Priority: 3},
		{Title: "Qty", Width: 7, Align: lipgloss.Right, Priority: 8},
		{Title: "Unit", Width: 6, Priority: 4},
	}
	if d.DocType == models.DocTypeClaim {
		columns = append(columns, components.Column{Title: "Received", Width: 9, Align: lipgloss.Right, Priority: 7})
	}
	lines := components.NewTable(columns)
	lines.SetVisibleRows(len(d.Lines) + 1)

	rows := make([][]string, len(d.Lines))
	var total int64
	for i, l := range d.Lines {
		total += l.Qty
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			l.ItemName,
			dash(l.Spec),
			fmt.Sprintf("%d", l.Qty),
			l.Unit,
		}
		if p, ok := v.progress[l.ID]; ok {
			rows[i] = append(rows[i], fmt.Sprintf("%d", p.Received))
		}
	}
	lines.SetRows(rows)
	for i, l := range d.Lines {
		if p, ok := v.progress[l.ID]; ok && p.Outstanding() > 0 {
			lines.Mark(i)
		}
	}

	b.WriteString(lines.RenderResponsive(width))
	b.WriteString(s.Field("Total:", fmt.Sprintf("%d", total), labelWidth))
	b.WriteString("\n\n")
	b.WriteString(s.HelpLine("Esc:Back", "Esc:Back", width))
	return b.String()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
