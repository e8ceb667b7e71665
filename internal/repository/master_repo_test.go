package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/testutil"
)

func setupRepoTest(t *testing.T) (*testutil.TestDB, context.Context) {
	t.Helper()
	return testutil.NewTestDB(t), context.Background()
}

func TestCategoryRepository(t *testing.T) {
	db, ctx := setupRepoTest(t)
	repo := NewCategoryRepository(db.DB.DB)

	tools := testutil.FixtureCategory(func(c *models.Category) { c.Name = "tools" })
	if err := repo.Create(ctx, nil, tools); err != nil {
		t.Fatalf("Create() = %v", err)
	}
	if tools.ID == 0 {
		t.Fatal("Create() did not set ID")
	}

	t.Run("Duplicate name", func(t *testing.T) {
		err := repo.Create(ctx, nil, testutil.FixtureCategory(func(c *models.Category) { c.Name = "tools" }))
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("Create() = %v, want ErrDuplicate", err)
		}
	})

	t.Run("Get by name", func(t *testing.T) {
		got, err := repo.GetByName(ctx, nil, "tools")
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != tools.ID {
			t.Errorf("ID = %d, want %d", got.ID, tools.ID)
		}
		if !got.CreatedAt.Equal(testutil.Epoch) {
			t.Errorf("CreatedAt = %v", got.CreatedAt)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := repo.GetByID(ctx, nil, 999); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetByID() = %v, want ErrNotFound", err)
		}
	})

	t.Run("List ordered by name", func(t *testing.T) {
		if err := repo.Create(ctx, nil, testutil.FixtureCategory(func(c *models.Category) { c.Name = "adhesives" })); err != nil {
			t.Fatal(err)
		}
		list, err := repo.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 || list[0].Name != "adhesives" || list[1].Name != "tools" {
			t.Errorf("List() = %+v", list)
		}
	})
}

func TestItemRepository_Create(t *testing.T) {
	db, ctx := setupRepoTest(t)
	repo := NewItemRepository(db.DB.DB)
	cats := NewCategoryRepository(db.DB.DB)

	cat := testutil.FixtureCategory()
	if err := cats.Create(ctx, nil, cat); err != nil {
		t.Fatal(err)
	}

	item := testutil.FixtureItem(func(i *models.Item) {
		i.Name = "hex bolt"
		i.CategoryID = &cat.ID
		i.MinStock = 5
	})
	if err := repo.Create(ctx, nil, item); err != nil {
		t.Fatalf("Create() = %v", err)
	}

	t.Run("Stock row initialised", func(t *testing.T) {
		db.AssertRowCount(t, "stocks", 1)
		var qty int64
		if err := db.QueryRow("SELECT qty FROM stocks WHERE item_id = ?", item.ID).Scan(&qty); err != nil {
			t.Fatal(err)
		}
		if qty != 0 {
			t.Errorf("qty = %d, want 0", qty)
		}
	})

	t.Run("Read back", func(t *testing.T) {
		got, err := repo.GetByID(ctx, nil, item.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Name != "hex bolt" || got.UnitDefault != "pcs" || got.SpecDefault != "M8x40" {
			t.Errorf("got %+v", got)
		}
		if got.CategoryID == nil || *got.CategoryID != cat.ID || got.CategoryName != cat.Name {
			t.Errorf("category = %v %q", got.CategoryID, got.CategoryName)
		}
		if !got.IsActive || got.MinStock != 5 {
			t.Errorf("IsActive=%v MinStock=%d", got.IsActive, got.MinStock)
		}
	})

	t.Run("Duplicate name", func(t *testing.T) {
		err := repo.Create(ctx, nil, testutil.FixtureItem(func(i *models.Item) { i.Name = "hex bolt" }))
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("Create() = %v, want ErrDuplicate", err)
		}
		db.AssertRowCount(t, "stocks", 1)
	})
}

func TestItemRepository_Update(t *testing.T) {
	db, ctx := setupRepoTest(t)
	repo := NewItemRepository(db.DB.DB)

	item := testutil.FixtureItem(func(i *models.Item) { i.Name = "washer" })
	if err := repo.Create(ctx, nil, item); err != nil {
		t.Fatal(err)
	}

	later := testutil.Epoch.Add(1e9)
	err := repo.Update(ctx, nil, item.ID, models.ItemUpdate{
		MinStock: models.Set[int64](12),
		IsActive: models.Set(false),
	}, later)
	if err != nil {
		t.Fatalf("Update() = %v", err)
	}

	got, err := repo.GetByID(ctx, nil, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.MinStock != 12 || got.IsActive {
		t.Errorf("set fields not applied: %+v", got)
	}
	if got.Name != "washer" || got.UnitDefault != "pcs" || got.SpecDefault != "M8x40" {
		t.Errorf("unset fields changed: %+v", got)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
	}

	t.Run("Clear category", func(t *testing.T) {
		if err := repo.Update(ctx, nil, item.ID, models.ItemUpdate{CategoryID: models.Set[*int64](nil)}, later); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("Missing item", func(t *testing.T) {
		err := repo.Update(ctx, nil, 999, models.ItemUpdate{MinStock: models.Set[int64](1)}, later)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Update() = %v, want ErrNotFound", err)
		}
	})
}

func TestItemRepository_ListAndSearch(t *testing.T) {
	db, ctx := setupRepoTest(t)
	repo := NewItemRepository(db.DB.DB)

	for _, item := range []*models.Item{
		testutil.FixtureItem(func(i *models.Item) { i.Name = "bolt"; i.SpecDefault = "M6" }),
		testutil.FixtureItem(func(i *models.Item) { i.Name = "anchor"; i.IsActive = false }),
		testutil.FixtureItem(func(i *models.Item) { i.Name = "cable tie"; i.SpecDefault = "200mm bolt-safe" }),
		testutil.FixtureItem(func(i *models.Item) { i.Name = "sealant"; i.SpecDefault = "100%_silicone" }),
	} {
		if err := repo.Create(ctx, nil, item); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("Active first", func(t *testing.T) {
		list, err := repo.List(ctx, false)
		if err != nil {
			t.Fatal(err)
		}
		names := []string{}
		for _, i := range list {
			names = append(names, i.Name)
		}
		want := []string{"bolt", "cable tie", "sealant", "anchor"}
		if len(names) != 4 || names[0] != want[0] || names[1] != want[1] || names[2] != want[2] || names[3] != want[3] {
			t.Errorf("List(false) = %v, want %v", names, want)
		}
	})

	t.Run("Active only", func(t *testing.T) {
		list, err := repo.List(ctx, true)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 3 {
			t.Errorf("List(true) returned %d items", len(list))
		}
	})

	t.Run("Search name or spec", func(t *testing.T) {
		list, err := repo.Search(ctx, "bolt", 200)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 {
			t.Errorf("Search() returned %d items, want 2", len(list))
		}
	})

	t.Run("Search wildcards are literal", func(t *testing.T) {
		tests := []struct {
			q    string
			want int
		}{
			{"_", 1},
			{"%", 1},
			{"0%_s", 1},
			{"0__s", 0},
			{"b%t", 0},
		}
		for _, tt := range tests {
			list, err := repo.Search(ctx, tt.q, 200)
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != tt.want {
				t.Errorf("Search(%q) returned %d items, want %d", tt.q, len(list), tt.want)
			}
		}
	})

	t.Run("Search limit", func(t *testing.T) {
		list, err := repo.Search(ctx, "o", 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 1 {
			t.Errorf("Search() returned %d items, want 1", len(list))
		}
	})
}

func TestOperatorRepository_EnsureIsIdempotent(t *testing.T) {
	db, ctx := setupRepoTest(t)
	repo := NewOperatorRepository(db.DB.DB)

	for i := 0; i < 2; i++ {
		if err := repo.Ensure(ctx, nil, "bob", testutil.Epoch); err != nil {
			t.Fatalf("Ensure() #%d = %v", i+1, err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "bob" {
		t.Errorf("List() = %+v", list)
	}
}
