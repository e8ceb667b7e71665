package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stockroom/warehouse/internal/config"
	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/services"
	"github.com/stockroom/warehouse/internal/services/documents"
	"github.com/stockroom/warehouse/internal/services/masterdata"
	"github.com/stockroom/warehouse/internal/testutil"
	"github.com/stockroom/warehouse/internal/util"
)

// newTestServices opens a migrated in-memory store with a clock fixed at
// testutil.Epoch.
func newTestServices(t *testing.T) *services.Services {
	t.Helper()

	db := testutil.NewTestDB(t)
	cfg := config.Default()
	return services.New(db.DB, util.NewFixedClock(testutil.Epoch), cfg.Inventory)
}

// newTestApp creates an App over an empty store, sized 120x40 and ready.
func newTestApp(t *testing.T) *App {
	t.Helper()
	return newSizedApp(t, newTestServices(t))
}

func newSizedApp(t *testing.T, svc *services.Services) *App {
	t.Helper()

	app := New(svc, config.Default(), util.NewFixedClock(testutil.Epoch), "test")
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return app
}

// seedStock creates two items and posts an inbound for one of them, leaving
// "Washer" below its minimum.
func seedStock(t *testing.T, svc *services.Services) {
	t.Helper()
	ctx := context.Background()

	bolt, err := svc.Master.CreateItem(ctx, masterdata.CreateItemInput{
		Name: "Hex bolt", SpecDefault: "M8x40", UnitDefault: "pcs", MinStock: 10,
	})
	if err != nil {
		t.Fatalf("creating bolt: %v", err)
	}
	if _, err := svc.Master.CreateItem(ctx, masterdata.CreateItemInput{
		Name: "Washer", UnitDefault: "pcs", MinStock: 50,
	}); err != nil {
		t.Fatalf("creating washer: %v", err)
	}

	if _, err := svc.Documents.RecordMovement(ctx, models.DocTypeInbound, documents.MovementInput{
		ItemID: bolt.ID, Qty: 40, BizDate: "2024-01-15", Operator: "alice",
	}); err != nil {
		t.Fatalf("posting inbound: %v", err)
	}
}

// run feeds cmd's message back into the app until no command is left, so
// tests can settle a load without a running program. Init's tick is never
// passed here.
func run(a *App, cmd tea.Cmd) {
	for cmd != nil {
		_, cmd = a.Update(cmd())
	}
}

// press sends a key and settles whatever it loads.
func press(a *App, msg tea.KeyMsg) {
	_, cmd := a.Update(msg)
	run(a, cmd)
}

// keyMsg creates a tea.KeyMsg for a regular character key.
func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// specialKeyMsg creates a tea.KeyMsg for a special key type.
func specialKeyMsg(keyType tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: keyType}
}
