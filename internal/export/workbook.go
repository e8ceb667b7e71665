// Package export renders inventory data as Excel workbooks.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/util"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	inventorySheet = "Inventory"
	documentSheet  = "Document"
)

var inventoryHeaders = []string{
	"Item", "Category", "Spec", "Unit", "Qty", "Min stock", "Last inbound", "Active",
}

var inventoryWidths = []float64{24, 14, 18, 8, 10, 10, 14, 8}

var lineHeaders = []string{"#", "Item", "Category", "Spec", "Qty", "Unit", "Remark"}

var lineWidths = []float64{5, 24, 14, 18, 10, 8, 30}

// InventoryWorkbook builds a balance sheet with one row per item. Rows below
// their minimum stock are highlighted. It returns the workbook and a
// suggested file name.
func InventoryWorkbook(rows []models.StockRow, now time.Time) (*excelize.File, string, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", inventorySheet); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("naming sheet: %w", err)
	}

	header, err := headerStyle(f)
	if err != nil {
		f.Close()
		return nil, "", err
	}
	alert, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#F8CBAD"}},
	})
	if err != nil {
		f.Close()
		return nil, "", fmt.Errorf("creating alert style: %w", err)
	}

	if err := writeHeader(f, inventorySheet, 1, inventoryHeaders, header); err != nil {
		f.Close()
		return nil, "", err
	}

	for i, r := range rows {
		row := i + 2
		active := "yes"
		if !r.IsActive {
			active = "no"
		}
		values := []any{r.ItemName, r.CategoryName, r.Spec, r.Unit, r.Qty, r.MinStock, r.LastInDate, active}
		if err := f.SetSheetRow(inventorySheet, fmt.Sprintf("A%d", row), &values); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("writing row %d: %w", row, err)
		}
		if r.BelowMinimum() {
			if err := f.SetCellStyle(inventorySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("H%d", row), alert); err != nil {
				f.Close()
				return nil, "", fmt.Errorf("styling row %d: %w", row, err)
			}
		}
	}

	setWidths(f, inventorySheet, inventoryWidths)

	return f, fmt.Sprintf("inventory_%s.xlsx", util.FormatDate(now)), nil
}

// DocumentWorkbook builds a sheet with a document's header fields followed
// by its lines in order.
func DocumentWorkbook(doc *models.Doc) (*excelize.File, string, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", documentSheet); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("naming sheet: %w", err)
	}

	header, err := headerStyle(f)
	if err != nil {
		f.Close()
		return nil, "", err
	}

	fields := [][2]string{
		{"Type", string(doc.DocType)},
		{"Doc no", doc.DocNo},
		{"Date", doc.BizDate},
		{"Company", doc.CompanyName},
		{"Requester", doc.Requester},
		{"Operator", doc.Operator},
		{"Status", string(doc.Status)},
		{"Remark", doc.Remark},
	}
	for i, kv := range fields {
		row := i + 1
		f.SetCellValue(documentSheet, fmt.Sprintf("A%d", row), kv[0])
		f.SetCellValue(documentSheet, fmt.Sprintf("B%d", row), kv[1])
		f.SetCellStyle(documentSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), header)
	}

	start := len(fields) + 2
	if err := writeHeader(f, documentSheet, start, lineHeaders, header); err != nil {
		f.Close()
		return nil, "", err
	}

	var total int64
	for i, line := range doc.Lines {
		row := start + i + 1
		values := []any{i + 1, line.ItemName, line.CategoryName, line.Spec, line.Qty, line.Unit, line.Remark}
		if err := f.SetSheetRow(documentSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("writing line %d: %w", i+1, err)
		}
		total += line.Qty
	}

	summary := start + len(doc.Lines) + 1
	f.SetCellValue(documentSheet, fmt.Sprintf("B%d", summary), "Total")
	f.SetCellValue(documentSheet, fmt.Sprintf("E%d", summary), total)
	f.SetCellStyle(documentSheet, fmt.Sprintf("A%d", summary), fmt.Sprintf("G%d", summary), header)

	setWidths(f, documentSheet, lineWidths)

	return f, fmt.Sprintf("%s_%s.xlsx", doc.DocType, doc.DocNo), nil
}

func headerStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("creating header style: %w", err)
	}
	return style, nil
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string, style int) error {
	for i, h := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		cell := fmt.Sprintf("%s%d", col, row)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}

func setWidths(f *excelize.File, sheet string, widths []float64) {
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
}
