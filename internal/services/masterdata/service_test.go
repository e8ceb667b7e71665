package masterdata

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stockroom/warehouse/internal/apperr"
	"github.com/stockroom/warehouse/internal/config"
	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/testutil"
	"github.com/stockroom/warehouse/internal/util"
)

func setupService(t *testing.T) (*Service, *testutil.TestDB, context.Context) {
	t.Helper()
	db := testutil.NewTestDB(t)
	svc := NewService(db.DB, util.NewFixedClock(testutil.Epoch), config.Default().Inventory)
	return svc, db, context.Background()
}

func TestCreateItem(t *testing.T) {
	svc, db, ctx := setupService(t)

	item, err := svc.CreateItem(ctx, CreateItemInput{Name: " drill bit ", UnitDefault: " pcs ", SpecDefault: "6mm"})
	if err != nil {
		t.Fatalf("CreateItem() = %v", err)
	}
	if item.ID == 0 || item.Name != "drill bit" || item.UnitDefault != "pcs" || !item.IsActive {
		t.Errorf("item = %+v", item)
	}
	db.AssertRowCount(t, "stocks", 1)

	tests := []struct {
		name  string
		input CreateItemInput
		kind  apperr.Kind
	}{
		{"duplicate name", CreateItemInput{Name: "drill bit", UnitDefault: "box"}, apperr.KindDuplicateName},
		{"missing unit", CreateItemInput{Name: "saw", UnitDefault: "   "}, apperr.KindValidation},
		{"missing name", CreateItemInput{UnitDefault: "pcs"}, apperr.KindValidation},
		{"negative minimum", CreateItemInput{Name: "saw", UnitDefault: "pcs", MinStock: -1}, apperr.KindValidation},
		{"unknown category", CreateItemInput{Name: "saw", UnitDefault: "pcs", CategoryID: ptr(int64(42))}, apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateItem(ctx, tt.input)
			if got := apperr.KindOf(err); got != tt.kind {
				t.Errorf("CreateItem() kind = %s (%v), want %s", got, err, tt.kind)
			}
		})
	}

	db.AssertRowCount(t, "items", 1)
	db.AssertRowCount(t, "stocks", 1)
}

func TestUpdateItem(t *testing.T) {
	svc, _, ctx := setupService(t)

	cat, err := svc.CreateCategory(ctx, "tools")
	if err != nil {
		t.Fatal(err)
	}
	item, err := svc.CreateItem(ctx, CreateItemInput{Name: "hammer", UnitDefault: "pcs", SpecDefault: "500g"})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("Merges only provided fields", func(t *testing.T) {
		got, err := svc.UpdateItem(ctx, item.ID, models.ItemUpdate{
			CategoryID: models.Set(&cat.ID),
			MinStock:   models.Set[int64](3),
		})
		if err != nil {
			t.Fatalf("UpdateItem() = %v", err)
		}
		if got.CategoryName != "tools" || got.MinStock != 3 {
			t.Errorf("set fields: %+v", got)
		}
		if got.Name != "hammer" || got.SpecDefault != "500g" || got.UnitDefault != "pcs" || !got.IsActive {
			t.Errorf("untouched fields changed: %+v", got)
		}
	})

	t.Run("Deactivate", func(t *testing.T) {
		got, err := svc.UpdateItem(ctx, item.ID, models.ItemUpdate{IsActive: models.Set(false)})
		if err != nil {
			t.Fatal(err)
		}
		if got.IsActive {
			t.Error("item still active")
		}
	})

	t.Run("Not found", func(t *testing.T) {
		_, err := svc.UpdateItem(ctx, 999, models.ItemUpdate{MinStock: models.Set[int64](1)})
		if !apperr.IsNotFound(err) {
			t.Errorf("UpdateItem() = %v, want NotFound", err)
		}
	})

	t.Run("Rename onto existing", func(t *testing.T) {
		if _, err := svc.CreateItem(ctx, CreateItemInput{Name: "mallet", UnitDefault: "pcs"}); err != nil {
			t.Fatal(err)
		}
		_, err := svc.UpdateItem(ctx, item.ID, models.ItemUpdate{Name: models.Set("mallet")})
		if !apperr.Is(err, apperr.KindDuplicateName) {
			t.Errorf("UpdateItem() = %v, want DuplicateName", err)
		}
	})

	t.Run("Blank unit", func(t *testing.T) {
		_, err := svc.UpdateItem(ctx, item.ID, models.ItemUpdate{UnitDefault: models.Set(" ")})
		if !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("UpdateItem() = %v, want ValidationError", err)
		}
	})
}

func TestSearchItems(t *testing.T) {
	db := testutil.NewTestDB(t)
	limits := config.Default().Inventory
	limits.SearchLimit = 3
	svc := NewService(db.DB, util.NewFixedClock(testutil.Epoch), limits)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.CreateItem(ctx, CreateItemInput{Name: fmt.Sprintf("screw %d", i), UnitDefault: "pcs"}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := svc.SearchItems(ctx, "   ")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("blank query = %v, want empty slice", got)
	}

	got, err = svc.SearchItems(ctx, "screw")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("SearchItems() returned %d rows, want cap of 3", len(got))
	}
}

func TestCreateCategoryNameExists(t *testing.T) {
	svc, _, ctx := setupService(t)

	first, err := svc.CreateCategory(ctx, "paint")
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.CreateCategory(ctx, "paint")
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind != apperr.KindNameExists {
		t.Fatalf("CreateCategory() = %v, want NameExists", err)
	}
	if e.ExistingID != first.ID {
		t.Errorf("ExistingID = %d, want %d", e.ExistingID, first.ID)
	}
}

func TestCreateOperatorIdempotent(t *testing.T) {
	svc, db, ctx := setupService(t)

	for i := 0; i < 2; i++ {
		if err := svc.CreateOperator(ctx, "carol"); err != nil {
			t.Fatalf("CreateOperator() #%d = %v", i+1, err)
		}
	}
	db.AssertRowCount(t, "operators", 1)

	if err := svc.CreateOperator(ctx, ""); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("blank operator = %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
