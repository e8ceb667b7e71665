package ledger

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stockroom/warehouse/internal/apperr"
	"github.com/stockroom/warehouse/internal/config"
	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/repository"
	"github.com/stockroom/warehouse/internal/testutil"
	"github.com/stockroom/warehouse/internal/util"
)

func setupLedger(t *testing.T) (*Service, *testutil.TestDB, context.Context) {
	t.Helper()
	db := testutil.NewTestDB(t)
	svc := NewService(db.DB, util.NewFixedClock(testutil.Epoch), config.Default().Inventory)
	return svc, db, context.Background()
}

func createItem(t *testing.T, db *testutil.TestDB, overrides ...func(*models.Item)) *models.Item {
	t.Helper()
	item := testutil.FixtureItem(overrides...)
	if err := repository.NewItemRepository(db.DB.DB).Create(context.Background(), nil, item); err != nil {
		t.Fatal(err)
	}
	return item
}

func post(t *testing.T, svc *Service, db *testutil.TestDB, move *models.StockMove) error {
	t.Helper()
	return db.WithTransaction(context.Background(), func(tx *sql.Tx) error {
		return svc.Post(context.Background(), tx, move)
	})
}

func TestApplyBalanceDelta(t *testing.T) {
	svc, db, ctx := setupLedger(t)
	item := createItem(t, db)

	if err := post(t, svc, db, testutil.FixtureMove(item.ID, 10)); err != nil {
		t.Fatalf("inbound: %v", err)
	}
	if err := post(t, svc, db, testutil.FixtureMove(item.ID, -4)); err != nil {
		t.Fatalf("outbound: %v", err)
	}

	stock, err := svc.GetBalance(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stock.Qty != 6 {
		t.Errorf("Qty = %d, want 6", stock.Qty)
	}
	db.AssertLedgerConsistent(t)

	t.Run("Negative balance rolls back the ledger entry", func(t *testing.T) {
		err := post(t, svc, db, testutil.FixtureMove(item.ID, -7))
		if !apperr.Is(err, apperr.KindInsufficientStock) {
			t.Fatalf("Post() = %v, want InsufficientStock", err)
		}
		db.AssertRowCount(t, "stock_moves", 2)
		db.AssertLedgerConsistent(t)

		stock, _ := svc.GetBalance(ctx, item.ID)
		if stock.Qty != 6 {
			t.Errorf("Qty = %d after rejected posting", stock.Qty)
		}
	})

	t.Run("Missing balance row counts as zero", func(t *testing.T) {
		db.ExecSQL(t, "DELETE FROM stocks WHERE item_id = ?", item.ID)
		err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
			next, err := svc.ApplyBalanceDelta(ctx, tx, item.ID, 3)
			if err == nil && next != 3 {
				t.Errorf("next = %d, want 3", next)
			}
			return err
		})
		if err != nil {
			t.Fatal(err)
		}
	})
}

func TestGetBalance(t *testing.T) {
	svc, db, ctx := setupLedger(t)
	item := createItem(t, db)

	db.ExecSQL(t, "DELETE FROM stocks WHERE item_id = ?", item.ID)
	stock, err := svc.GetBalance(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stock.Qty != 0 {
		t.Errorf("Qty = %d", stock.Qty)
	}

	if _, err := svc.GetBalance(ctx, 999); !apperr.IsNotFound(err) {
		t.Errorf("GetBalance(999) = %v, want NotFound", err)
	}
}

func TestAdjustStock(t *testing.T) {
	svc, db, ctx := setupLedger(t)
	item := createItem(t, db)

	move, err := svc.AdjustStock(ctx, AdjustInput{ItemID: item.ID, Delta: 5, BizDate: "2024-01-20", Operator: "dave", Remark: "stocktake"})
	if err != nil {
		t.Fatalf("AdjustStock() = %v", err)
	}
	if move.MoveType != models.MoveTypeAdjust || move.ID == 0 {
		t.Errorf("move = %+v", move)
	}

	tests := []struct {
		name  string
		input AdjustInput
		kind  apperr.Kind
	}{
		{"below zero", AdjustInput{ItemID: item.ID, Delta: -6, BizDate: "2024-01-21"}, apperr.KindInsufficientStock},
		{"zero delta", AdjustInput{ItemID: item.ID, Delta: 0, BizDate: "2024-01-21"}, apperr.KindValidation},
		{"bad date", AdjustInput{ItemID: item.ID, Delta: 1, BizDate: "21/01/2024"}, apperr.KindValidation},
		{"unknown item", AdjustInput{ItemID: 999, Delta: 1, BizDate: "2024-01-21"}, apperr.KindItemNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AdjustStock(ctx, tt.input)
			if got := apperr.KindOf(err); got != tt.kind {
				t.Errorf("kind = %s (%v), want %s", got, err, tt.kind)
			}
		})
	}

	db.AssertRowCount(t, "stock_moves", 1)
	db.AssertLedgerConsistent(t)

	diffs, err := svc.Reconcile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(diffs) != 0 {
		t.Errorf("Reconcile() = %+v", diffs)
	}
}

func TestItemDetailAndHistory(t *testing.T) {
	svc, db, ctx := setupLedger(t)
	item := createItem(t, db)

	for _, m := range []*models.StockMove{
		testutil.FixtureMove(item.ID, 20, func(m *models.StockMove) { m.BizDate = "2024-01-02" }),
		testutil.FixtureMove(item.ID, -5, func(m *models.StockMove) { m.BizDate = "2024-01-03" }),
		testutil.FixtureMove(item.ID, -2, func(m *models.StockMove) { m.BizDate = "2024-01-04" }),
	} {
		if err := post(t, svc, db, m); err != nil {
			t.Fatal(err)
		}
	}

	detail, err := svc.ItemDetail(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Qty != 13 || detail.LastInboundDate != "2024-01-02" || len(detail.Outbounds) != 2 {
		t.Errorf("detail = %+v", detail)
	}
	if detail.Outbounds[0].QtyDelta != -2 {
		t.Errorf("outbounds not newest first: %+v", detail.Outbounds)
	}

	history, err := svc.ItemHistory(ctx, item.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0].BizDate != "2024-01-04" {
		t.Errorf("history = %+v", history)
	}

	recent, err := svc.RecentMoves(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 {
		t.Errorf("RecentMoves() = %d rows", len(recent))
	}

	if _, err := svc.ItemDetail(ctx, 999); !apperr.IsNotFound(err) {
		t.Errorf("ItemDetail(999) = %v", err)
	}
}

func TestClampLimit(t *testing.T) {
	svc := &Service{}
	if got := svc.clampLimit(0, 50); got != 50 {
		t.Errorf("default = %d", got)
	}
	if got := svc.clampLimit(10000, 50); got != config.MaxItemMovesLimit {
		t.Errorf("cap = %d", got)
	}
	if got := svc.clampLimit(7, 50); got != 7 {
		t.Errorf("explicit = %d", got)
	}
}
