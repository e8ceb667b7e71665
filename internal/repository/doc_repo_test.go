package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/testutil"
)

func TestDocRepository_CreateAndLines(t *testing.T) {
	db, ctx := setupRepoTest(t)
	docs := NewDocRepository(db.DB.DB)
	items := NewItemRepository(db.DB.DB)

	a := testutil.FixtureItem()
	b := testutil.FixtureItem()
	for _, item := range []*models.Item{a, b} {
		if err := items.Create(ctx, nil, item); err != nil {
			t.Fatal(err)
		}
	}

	doc := testutil.FixtureDoc(models.DocTypeInbound, func(d *models.Doc) {
		d.DocNo = "IN-2024-01-15-1"
		d.CompanyName = "Acme"
	})
	if err := docs.Create(ctx, nil, doc); err != nil {
		t.Fatalf("Create() = %v", err)
	}

	// Insert out of order; Lines must come back by sort_no.
	for _, line := range []*models.DocLine{
		{DocID: doc.ID, ItemID: b.ID, ItemName: b.Name, Qty: 3, Unit: "box", SortNo: 1, CreatedAt: testutil.Epoch},
		{DocID: doc.ID, ItemID: a.ID, ItemName: a.Name, Qty: 7, Unit: "pcs", Spec: "M8", SortNo: 0, CreatedAt: testutil.Epoch},
	} {
		if err := docs.CreateLine(ctx, nil, line); err != nil {
			t.Fatalf("CreateLine() = %v", err)
		}
	}

	got, err := docs.GetByID(ctx, nil, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DocNo != doc.DocNo || got.CompanyName != "Acme" || got.DocType != models.DocTypeInbound {
		t.Errorf("header = %+v", got)
	}
	if got.Status != "" {
		t.Errorf("inbound status = %q, want empty", got.Status)
	}

	lines, err := docs.Lines(ctx, nil, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0].ItemID != a.ID || lines[0].Qty != 7 || lines[0].Spec != "M8" {
		t.Errorf("line 0 = %+v", lines[0])
	}
	if lines[1].ItemID != b.ID || lines[1].Qty != 3 || lines[1].Unit != "box" {
		t.Errorf("line 1 = %+v", lines[1])
	}

	t.Run("Doc number scoped by type", func(t *testing.T) {
		exists, err := docs.DocNoExists(ctx, nil, models.DocTypeInbound, "IN-2024-01-15-1")
		if err != nil || !exists {
			t.Errorf("DocNoExists(inbound) = %v, %v", exists, err)
		}
		exists, err = docs.DocNoExists(ctx, nil, models.DocTypeClaim, "IN-2024-01-15-1")
		if err != nil || exists {
			t.Errorf("DocNoExists(claim) = %v, %v", exists, err)
		}

		claim := testutil.FixtureDoc(models.DocTypeClaim, func(d *models.Doc) { d.DocNo = "IN-2024-01-15-1" })
		if err := docs.Create(ctx, nil, claim); err != nil {
			t.Errorf("claim with inbound number: %v", err)
		}

		dup := testutil.FixtureDoc(models.DocTypeInbound, func(d *models.Doc) { d.DocNo = "IN-2024-01-15-1" })
		if err := docs.Create(ctx, nil, dup); !errors.Is(err, ErrDuplicate) {
			t.Errorf("duplicate inbound = %v, want ErrDuplicate", err)
		}
	})

	t.Run("Zero quantity rejected by schema", func(t *testing.T) {
		err := docs.CreateLine(ctx, nil, &models.DocLine{DocID: doc.ID, ItemID: a.ID, ItemName: a.Name, Qty: 0, Unit: "pcs"})
		if err == nil {
			t.Error("expected CHECK constraint failure")
		}
	})
}

func TestDocRepository_ListAndUpdate(t *testing.T) {
	db, ctx := setupRepoTest(t)
	docs := NewDocRepository(db.DB.DB)

	specs := []struct {
		docType models.DocType
		date    string
		status  models.ClaimStatus
	}{
		{models.DocTypeClaim, "2024-01-03", models.ClaimSubmitted},
		{models.DocTypeClaim, "2024-01-01", models.ClaimPartial},
		{models.DocTypeInbound, "2024-01-02", ""},
		{models.DocTypeClaim, "2024-01-02", models.ClaimClosed},
	}
	created := make([]*models.Doc, len(specs))
	for i, s := range specs {
		doc := testutil.FixtureDoc(s.docType, func(d *models.Doc) {
			d.BizDate = s.date
			d.Status = s.status
			d.CreatedAt = testutil.Epoch.Add(time.Duration(i) * time.Minute)
		})
		if err := docs.Create(ctx, nil, doc); err != nil {
			t.Fatal(err)
		}
		created[i] = doc
	}

	t.Run("Default newest created first", func(t *testing.T) {
		list, err := docs.List(ctx, models.DocFilter{})
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 4 || list[0].ID != created[3].ID || list[3].ID != created[0].ID {
			t.Errorf("List() order wrong: %+v", list)
		}
	})

	t.Run("Claims by biz date ascending", func(t *testing.T) {
		list, err := docs.List(ctx, models.DocFilter{
			Type:  models.DocTypeClaim,
			Sort:  models.DocSortBizDate,
			Order: models.SortAsc,
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 3 {
			t.Fatalf("got %d claims", len(list))
		}
		if list[0].BizDate != "2024-01-01" || list[2].BizDate != "2024-01-03" {
			t.Errorf("order = %s, %s, %s", list[0].BizDate, list[1].BizDate, list[2].BizDate)
		}
	})

	t.Run("Status filter", func(t *testing.T) {
		list, err := docs.List(ctx, models.DocFilter{
			Type:     models.DocTypeClaim,
			Statuses: []models.ClaimStatus{models.ClaimSubmitted, models.ClaimPartial},
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 {
			t.Errorf("got %d claims open for receipt, want 2", len(list))
		}
	})

	t.Run("Partial header update", func(t *testing.T) {
		target := created[0]
		err := docs.UpdateHeader(ctx, nil, target.ID, models.DocUpdate{
			Remark: models.Set("urgent"),
		}, testutil.Epoch.Add(time.Hour))
		if err != nil {
			t.Fatal(err)
		}

		got, err := docs.GetByID(ctx, nil, target.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Remark != "urgent" || got.BizDate != target.BizDate || got.Status != target.Status {
			t.Errorf("after update: %+v", got)
		}
	})

	t.Run("Update missing", func(t *testing.T) {
		err := docs.UpdateHeader(ctx, nil, 999, models.DocUpdate{Remark: models.Set("x")}, testutil.Epoch)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateHeader() = %v, want ErrNotFound", err)
		}
	})
}

func TestDocRepository_ClaimProgress(t *testing.T) {
	db, ctx := setupRepoTest(t)
	docs := NewDocRepository(db.DB.DB)
	items := NewItemRepository(db.DB.DB)

	a, b := testutil.FixtureItem(), testutil.FixtureItem()
	for _, item := range []*models.Item{a, b} {
		if err := items.Create(ctx, nil, item); err != nil {
			t.Fatal(err)
		}
	}

	claim := testutil.FixtureDoc(models.DocTypeClaim, func(d *models.Doc) { d.Status = models.ClaimSubmitted })
	if err := docs.Create(ctx, nil, claim); err != nil {
		t.Fatal(err)
	}
	for i, l := range []struct {
		item *models.Item
		qty  int64
	}{{a, 10}, {b, 5}} {
		line := &models.DocLine{DocID: claim.ID, ItemID: l.item.ID, ItemName: l.item.Name, Qty: l.qty, Unit: "pcs", SortNo: i}
		if err := docs.CreateLine(ctx, nil, line); err != nil {
			t.Fatal(err)
		}
	}

	inbound := testutil.FixtureDoc(models.DocTypeInbound)
	if err := docs.Create(ctx, nil, inbound); err != nil {
		t.Fatal(err)
	}
	receipt := &models.DocLine{DocID: inbound.ID, ItemID: a.ID, ItemName: a.Name, Qty: 4, Unit: "pcs", ClaimID: &claim.ID}
	if err := docs.CreateLine(ctx, nil, receipt); err != nil {
		t.Fatal(err)
	}

	progress, err := docs.ClaimProgress(ctx, nil, claim.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(progress) != 2 {
		t.Fatalf("got %d progress rows", len(progress))
	}
	if progress[0].Requested != 10 || progress[0].Received != 4 {
		t.Errorf("line a = %+v", progress[0])
	}
	if progress[1].Requested != 5 || progress[1].Received != 0 {
		t.Errorf("line b = %+v", progress[1])
	}

	lines, err := docs.Lines(ctx, nil, inbound.ID)
	if err != nil {
		t.Fatal(err)
	}
	if lines[0].ClaimID == nil || *lines[0].ClaimID != claim.ID {
		t.Errorf("ClaimID = %v", lines[0].ClaimID)
	}
}

func TestDocRepository_ClaimProgressRepeatedItem(t *testing.T) {
	db, ctx := setupRepoTest(t)
	docs := NewDocRepository(db.DB.DB)
	items := NewItemRepository(db.DB.DB)

	item := testutil.FixtureItem()
	if err := items.Create(ctx, nil, item); err != nil {
		t.Fatal(err)
	}

	claim := testutil.FixtureDoc(models.DocTypeClaim, func(d *models.Doc) { d.Status = models.ClaimSubmitted })
	if err := docs.Create(ctx, nil, claim); err != nil {
		t.Fatal(err)
	}
	for i, qty := range []int64{10, 5} {
		line := &models.DocLine{DocID: claim.ID, ItemID: item.ID, ItemName: item.Name, Qty: qty, Unit: "pcs", SortNo: i}
		if err := docs.CreateLine(ctx, nil, line); err != nil {
			t.Fatal(err)
		}
	}

	inbound := testutil.FixtureDoc(models.DocTypeInbound)
	if err := docs.Create(ctx, nil, inbound); err != nil {
		t.Fatal(err)
	}
	receive := func(qty int64) {
		t.Helper()
		line := &models.DocLine{DocID: inbound.ID, ItemID: item.ID, ItemName: item.Name, Qty: qty, Unit: "pcs", ClaimID: &claim.ID}
		if err := docs.CreateLine(ctx, nil, line); err != nil {
			t.Fatal(err)
		}
	}
	received := func() []int64 {
		t.Helper()
		progress, err := docs.ClaimProgress(ctx, nil, claim.ID)
		if err != nil {
			t.Fatal(err)
		}
		out := make([]int64, len(progress))
		for i, p := range progress {
			out[i] = p.Received
		}
		return out
	}

	tests := []struct {
		name    string
		receive int64
		want    []int64
	}{
		{"First line fills first", 10, []int64{10, 0}},
		{"Second line takes the rest", 3, []int64{10, 3}},
		{"Surplus stays on the last line", 4, []int64{10, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			receive(tt.receive)
			got := received()
			if len(got) != 2 || got[0] != tt.want[0] || got[1] != tt.want[1] {
				t.Errorf("received = %v, want %v", got, tt.want)
			}
		})
	}
}
