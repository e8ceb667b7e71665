package components

import (
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func itemColumns() []Column {
	return []Column{
		{Title: "ID", Width: 5, Align: lipgloss.Right, Priority: 3},
		{Title: "Item", Width: 12, Weight: 1, Priority: 4},
		{Title: "Spec", Width: 10, Weight: 1, Priority: 1},
		{Title: "Qty", Width: 6, Align: lipgloss.Right, Priority: 5},
	}
}

func TestTable_SetRows(t *testing.T) {
	table := NewTable(itemColumns())
	if !table.Empty() {
		t.Fatal("expected new table to be empty")
	}

	table.SetRows([][]string{
		{"1", "Bolt", "M8x40", "10"},
		{"2", "Nut", "M8", "3"},
	})

	if table.RowCount() != 2 {
		t.Errorf("expected 2 rows, got %d", table.RowCount())
	}
	if table.Empty() {
		t.Error("table should not be empty after setting rows")
	}
}

func TestTable_SetRows_ClampsSelection(t *testing.T) {
	table := NewTable(itemColumns())
	table.SetRows([][]string{{"1"}, {"2"}, {"3"}})
	table.GoToBottom()

	table.SetRows([][]string{{"1"}})
	if table.Selected() != 0 {
		t.Errorf("expected selection clamped to 0, got %d", table.Selected())
	}

	table.SetRows(nil)
	if table.SelectedRow() != nil {
		t.Error("expected no selected row on empty table")
	}
}

func TestTable_Navigation(t *testing.T) {
	table := NewTable([]Column{{Title: "ID", Width: 5}})
	table.SetRows([][]string{{"1"}, {"2"}, {"3"}, {"4"}, {"5"}})

	steps := []struct {
		name string
		move func()
		want int
	}{
		{"down", table.MoveDown, 1},
		{"up", table.MoveUp, 0},
		{"up at top", table.MoveUp, 0},
		{"bottom", table.GoToBottom, 4},
		{"down at bottom", table.MoveDown, 4},
		{"top", table.GoToTop, 0},
	}

	for _, s := range steps {
		s.move()
		if got := table.Selected(); got != s.want {
			t.Errorf("%s: selected = %d, want %d", s.name, got, s.want)
		}
	}
}

func TestTable_PageNavigation(t *testing.T) {
	table := NewTable([]Column{{Title: "ID", Width: 5}})
	table.SetVisibleRows(3)

	rows := make([][]string, 10)
	for i := range rows {
		rows[i] = []string{fmt.Sprint(i)}
	}
	table.SetRows(rows)

	table.PageDown()
	if table.Selected() != 3 {
		t.Errorf("after PageDown expected selected=3, got %d", table.Selected())
	}

	table.PageUp()
	if table.Selected() != 0 {
		t.Errorf("after PageUp expected selected=0, got %d", table.Selected())
	}
}

func TestTable_SelectedRow(t *testing.T) {
	table := NewTable(itemColumns())
	table.SetRows([][]string{{"1", "Bolt"}, {"2", "Nut"}})

	table.MoveDown()
	row := table.SelectedRow()
	if row == nil || row[1] != "Nut" {
		t.Errorf("expected Nut row, got %v", row)
	}
}

func TestTable_ComputeWidths(t *testing.T) {
	table := NewTable(itemColumns())

	t.Run("unbounded uses preferred widths", func(t *testing.T) {
		widths := table.computeWidths(0)
		for i, c := range table.columns {
			if widths[i] != c.Width {
				t.Errorf("widths[%d] = %d, want %d", i, widths[i], c.Width)
			}
		}
	})

	t.Run("spare space goes to weighted columns", func(t *testing.T) {
		widths := table.computeWidths(100)
		if widths[0] != 5 || widths[3] != 6 {
			t.Errorf("unweighted columns changed: %v", widths)
		}
		if widths[1] <= 12 || widths[2] <= 10 {
			t.Errorf("weighted columns did not grow: %v", widths)
		}
	})

	t.Run("narrow drops lowest priority first", func(t *testing.T) {
		// All four need 5+12+10+6 + 3*3 + 2 = 44.
		widths := table.computeWidths(40)
		if widths[2] != 0 {
			t.Errorf("expected Spec dropped, widths = %v", widths)
		}
		if widths[3] == 0 || widths[1] == 0 {
			t.Errorf("high priority columns dropped: %v", widths)
		}
	})

	t.Run("never drops the last column", func(t *testing.T) {
		widths := table.computeWidths(3)
		kept := 0
		for _, w := range widths {
			if w > 0 {
				kept++
			}
		}
		if kept != 1 || widths[3] == 0 {
			t.Errorf("expected only Qty kept, widths = %v", widths)
		}
	})
}

func TestTable_RenderResponsive(t *testing.T) {
	table := NewTable(itemColumns())
	table.SetRows([][]string{{"1", "Bolt", "M8x40", "10"}})

	wide := table.RenderResponsive(100)
	for _, want := range []string{"ID", "Item", "Spec", "Qty", "Bolt", "M8x40"} {
		if !strings.Contains(wide, want) {
			t.Errorf("expected %q in wide output", want)
		}
	}

	narrow := table.RenderResponsive(40)
	if strings.Contains(narrow, "M8x40") {
		t.Error("expected Spec column hidden on narrow terminal")
	}
	if !strings.Contains(narrow, "Bolt") {
		t.Error("expected item name on narrow terminal")
	}
}

func TestTable_Render_ScrollFooter(t *testing.T) {
	table := NewTable([]Column{{Title: "ID", Width: 5}})
	table.SetVisibleRows(2)
	table.SetRows([][]string{{"1"}, {"2"}, {"3"}})

	output := table.Render()
	if !strings.Contains(output, "Rows 1-2 of 3") {
		t.Errorf("expected scroll footer, got:\n%s", output)
	}

	table.SetVisibleRows(5)
	if strings.Contains(table.Render(), "Rows") {
		t.Error("expected no footer when every row fits")
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		in    string
		width int
		align lipgloss.Position
		want  string
	}{
		{"42", 5, lipgloss.Right, "   42"},
		{"ab", 5, lipgloss.Left, "ab   "},
		{"ab", 6, lipgloss.Center, "  ab  "},
		{"Hex bolt", 5, lipgloss.Left, "Hex …"},
		{"螺丝钉", 4, lipgloss.Left, "螺… "},
	}

	for _, tt := range tests {
		got := fit(tt.in, tt.width, tt.align)
		if got != tt.want {
			t.Errorf("fit(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
