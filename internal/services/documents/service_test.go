package documents

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stockroom/warehouse/internal/apperr"
	"github.com/stockroom/warehouse/internal/config"
	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/repository"
	"github.com/stockroom/warehouse/internal/services/ledger"
	"github.com/stockroom/warehouse/internal/testutil"
	"github.com/stockroom/warehouse/internal/util"
)

type fixture struct {
	svc    *Service
	ledger *ledger.Service
	db     *testutil.TestDB
	ctx    context.Context
}

func setupDocuments(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	clock := util.NewFixedClock(testutil.Epoch)
	ledgerSvc := ledger.NewService(db.DB, clock, config.Default().Inventory)
	return &fixture{
		svc:    NewService(db.DB, ledgerSvc, clock),
		ledger: ledgerSvc,
		db:     db,
		ctx:    context.Background(),
	}
}

func (f *fixture) item(t *testing.T, overrides ...func(*models.Item)) *models.Item {
	t.Helper()
	item := testutil.FixtureItem(overrides...)
	if err := repository.NewItemRepository(f.db.DB.DB).Create(f.ctx, nil, item); err != nil {
		t.Fatal(err)
	}
	return item
}

func (f *fixture) receive(t *testing.T, itemID, qty int64) {
	t.Helper()
	_, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
		Type:    models.DocTypeInbound,
		DocNo:   fmt.Sprintf("IN-%d-%d", itemID, qty),
		BizDate: "2024-01-10",
		Lines:   []LineInput{{ItemID: itemID, Qty: qty}},
	})
	if err != nil {
		t.Fatalf("receiving %d of item %d: %v", qty, itemID, err)
	}
}

func (f *fixture) qty(t *testing.T, itemID int64) int64 {
	t.Helper()
	stock, err := f.ledger.GetBalance(f.ctx, itemID)
	if err != nil {
		t.Fatal(err)
	}
	return stock.Qty
}

func TestCreateDocumentRoundTrip(t *testing.T) {
	f := setupDocuments(t)
	bolt := f.item(t, func(i *models.Item) { i.Name = "bolt"; i.UnitDefault = "box"; i.SpecDefault = "M6" })
	nut := f.item(t, func(i *models.Item) { i.Name = "nut" })

	id, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
		Type:     models.DocTypeInbound,
		DocNo:    "IN-2024-01-01-1",
		BizDate:  "2024-01-01",
		Operator: " alice ",
		Lines: []LineInput{
			{ItemID: nut.ID, Qty: 7, Remark: "first"},
			{ItemID: bolt.ID, Qty: 3, Unit: "pcs", Spec: "M6x20"},
			{ItemID: bolt.ID, Qty: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateDocument() = %v", err)
	}

	doc, err := f.svc.GetDocument(f.ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if doc == nil {
		t.Fatal("GetDocument() = nil")
	}
	if doc.Status != "" || doc.Operator != "alice" {
		t.Errorf("header = %+v", doc)
	}
	if len(doc.Lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(doc.Lines))
	}

	want := []struct {
		itemID int64
		qty    int64
		unit   string
		spec   string
	}{
		{nut.ID, 7, "pcs", "M8x40"},
		{bolt.ID, 3, "pcs", "M6x20"},
		{bolt.ID, 2, "box", "M6"},
	}
	for i, w := range want {
		got := doc.Lines[i]
		if got.ItemID != w.itemID || got.Qty != w.qty || got.Unit != w.unit || got.Spec != w.spec || got.SortNo != i {
			t.Errorf("line %d = %+v, want %+v", i, got, w)
		}
	}
	if doc.Lines[0].ItemName != "nut" {
		t.Errorf("item name not copied: %q", doc.Lines[0].ItemName)
	}

	if got := f.qty(t, bolt.ID); got != 5 {
		t.Errorf("bolt qty = %d, want 5", got)
	}
	f.db.AssertRowCount(t, "stock_moves", 3)
	f.db.AssertLedgerConsistent(t)

	missing, err := f.svc.GetDocument(f.ctx, 999)
	if err != nil || missing != nil {
		t.Errorf("GetDocument(999) = %v, %v; want nil, nil", missing, err)
	}
}

func TestCreateDocumentValidation(t *testing.T) {
	f := setupDocuments(t)
	item := f.item(t)
	line := []LineInput{{ItemID: item.ID, Qty: 1}}

	tests := []struct {
		name  string
		input CreateDocumentInput
		kind  apperr.Kind
	}{
		{"unknown type", CreateDocumentInput{Type: "transfer", DocNo: "X", BizDate: "2024-01-01", Lines: line}, apperr.KindValidation},
		{"missing doc_no", CreateDocumentInput{Type: models.DocTypeInbound, DocNo: " ", BizDate: "2024-01-01", Lines: line}, apperr.KindValidation},
		{"bad date", CreateDocumentInput{Type: models.DocTypeInbound, DocNo: "X", BizDate: "01/01/2024", Lines: line}, apperr.KindValidation},
		{"no lines", CreateDocumentInput{Type: models.DocTypeInbound, DocNo: "X", BizDate: "2024-01-01"}, apperr.KindValidation},
		{"zero qty", CreateDocumentInput{Type: models.DocTypeInbound, DocNo: "X", BizDate: "2024-01-01",
			Lines: []LineInput{{ItemID: item.ID, Qty: 0}}}, apperr.KindValidation},
		{"status on inbound", CreateDocumentInput{Type: models.DocTypeInbound, DocNo: "X", BizDate: "2024-01-01",
			Status: models.ClaimSubmitted, Lines: line}, apperr.KindValidation},
		{"claim created arrived", CreateDocumentInput{Type: models.DocTypeClaim, DocNo: "X", BizDate: "2024-01-01",
			Status: models.ClaimArrived, Lines: line}, apperr.KindValidation},
		{"claim link on outbound", CreateDocumentInput{Type: models.DocTypeOutbound, DocNo: "X", BizDate: "2024-01-01",
			Lines: []LineInput{{ItemID: item.ID, Qty: 1, ClaimID: &item.ID}}}, apperr.KindValidation},
		{"unknown item", CreateDocumentInput{Type: models.DocTypeClaim, DocNo: "X", BizDate: "2024-01-01",
			Lines: []LineInput{{ItemID: 999, Qty: 1}}}, apperr.KindItemNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateDocument(f.ctx, tt.input)
			if got := apperr.KindOf(err); got != tt.kind {
				t.Errorf("kind = %s (%v), want %s", got, err, tt.kind)
			}
		})
	}

	f.db.AssertRowCount(t, "docs", 0)
	f.db.AssertRowCount(t, "doc_lines", 0)
}

func TestDocNoScopedByType(t *testing.T) {
	f := setupDocuments(t)
	item := f.item(t)

	create := func(docType models.DocType) error {
		_, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
			Type:    docType,
			DocNo:   "IN-2024-01-01-1",
			BizDate: "2024-01-01",
			Lines:   []LineInput{{ItemID: item.ID, Qty: 1}},
		})
		return err
	}

	if err := create(models.DocTypeInbound); err != nil {
		t.Fatalf("inbound: %v", err)
	}
	if err := create(models.DocTypeClaim); err != nil {
		t.Fatalf("claim with same number: %v", err)
	}
	if err := create(models.DocTypeInbound); !apperr.Is(err, apperr.KindDuplicateDocNo) {
		t.Fatalf("second inbound = %v, want DuplicateDocNo", err)
	}

	f.db.AssertRowCount(t, "docs", 2)
	if got := f.qty(t, item.ID); got != 1 {
		t.Errorf("qty = %d after duplicate was rejected", got)
	}
}

func TestOutboundAtomicity(t *testing.T) {
	f := setupDocuments(t)
	plenty := f.item(t)
	scarce := f.item(t)
	f.receive(t, plenty.ID, 10)
	f.receive(t, scarce.ID, 2)

	f.db.AssertRowCount(t, "docs", 2)
	f.db.AssertRowCount(t, "stock_moves", 2)

	_, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
		Type:    models.DocTypeOutbound,
		DocNo:   "OUT-1",
		BizDate: "2024-01-11",
		Lines: []LineInput{
			{ItemID: plenty.ID, Qty: 4},
			{ItemID: scarce.ID, Qty: 3},
		},
	})
	if !apperr.Is(err, apperr.KindInsufficientStock) {
		t.Fatalf("CreateDocument() = %v, want InsufficientStock", err)
	}

	f.db.AssertRowCount(t, "docs", 2)
	f.db.AssertRowCount(t, "doc_lines", 2)
	f.db.AssertRowCount(t, "stock_moves", 2)
	if got := f.qty(t, plenty.ID); got != 10 {
		t.Errorf("first line leaked: qty = %d, want 10", got)
	}
	if got := f.qty(t, scarce.ID); got != 2 {
		t.Errorf("scarce qty = %d, want 2", got)
	}
	f.db.AssertLedgerConsistent(t)

	docs, err := f.svc.ListDocuments(f.ctx, models.DocFilter{Type: models.DocTypeOutbound})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Errorf("outbound documents = %d, want 0", len(docs))
	}

	t.Run("Exact balance may be issued", func(t *testing.T) {
		_, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
			Type:    models.DocTypeOutbound,
			DocNo:   "OUT-2",
			BizDate: "2024-01-11",
			Lines:   []LineInput{{ItemID: scarce.ID, Qty: 2}},
		})
		if err != nil {
			t.Fatal(err)
		}
		if got := f.qty(t, scarce.ID); got != 0 {
			t.Errorf("qty = %d, want 0", got)
		}
		f.db.AssertLedgerConsistent(t)
	})
}

func TestClaimFulfilment(t *testing.T) {
	f := setupDocuments(t)
	gloves := f.item(t)
	masks := f.item(t)

	claimID, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
		Type:      models.DocTypeClaim,
		DocNo:     "CL-1",
		BizDate:   "2024-01-02",
		Requester: "bob",
		Lines: []LineInput{
			{ItemID: gloves.ID, Qty: 10},
			{ItemID: masks.ID, Qty: 5},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	f.db.AssertRowCount(t, "stock_moves", 0)

	status := func() models.ClaimStatus {
		t.Helper()
		doc, err := f.svc.GetDocument(f.ctx, claimID)
		if err != nil || doc == nil {
			t.Fatalf("GetDocument() = %v, %v", doc, err)
		}
		return doc.Status
	}
	receive := func(docNo string, itemID, qty int64) error {
		_, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
			Type:    models.DocTypeInbound,
			DocNo:   docNo,
			BizDate: "2024-01-05",
			Lines:   []LineInput{{ItemID: itemID, Qty: qty, ClaimID: &claimID}},
		})
		return err
	}

	if got := status(); got != models.ClaimDraft {
		t.Fatalf("new claim status = %s", got)
	}

	t.Run("Draft claims do not accept receipts", func(t *testing.T) {
		if err := receive("IN-DRAFT", gloves.ID, 1); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("receive() = %v, want ValidationError", err)
		}
	})

	t.Run("Cannot force ARRIVED", func(t *testing.T) {
		err := f.svc.UpdateDocumentHeader(f.ctx, claimID, models.DocUpdate{Status: models.Set(models.ClaimArrived)})
		if !apperr.Is(err, apperr.KindInvalidTransition) {
			t.Errorf("UpdateDocumentHeader() = %v, want InvalidTransition", err)
		}
	})

	if err := f.svc.UpdateDocumentHeader(f.ctx, claimID, models.DocUpdate{Status: models.Set(models.ClaimSubmitted)}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	open, err := f.svc.ClaimsForInbound(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 || open[0].ID != claimID {
		t.Errorf("ClaimsForInbound() = %+v", open)
	}

	if err := receive("IN-1", gloves.ID, 10); err != nil {
		t.Fatal(err)
	}
	if got := status(); got != models.ClaimPartial {
		t.Errorf("after first line: %s, want PARTIAL", got)
	}

	if err := receive("IN-2", masks.ID, 5); err != nil {
		t.Fatal(err)
	}
	if got := status(); got != models.ClaimArrived {
		t.Errorf("after second line: %s, want ARRIVED", got)
	}

	summary, err := f.svc.ClaimProgress(f.ctx, claimID)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range summary.Lines {
		if line.Outstanding() != 0 {
			t.Errorf("line %d outstanding %d", line.LineID, line.Outstanding())
		}
	}

	open, err = f.svc.ClaimsForInbound(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 0 {
		t.Errorf("arrived claim still offered for inbound: %+v", open)
	}

	// Over-delivery against an arrived claim is still a receipt.
	if err := receive("IN-3", masks.ID, 1); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.UpdateDocumentHeader(f.ctx, claimID, models.DocUpdate{Status: models.Set(models.ClaimClosed)}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := receive("IN-4", masks.ID, 1); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("receipt against closed claim = %v, want ValidationError", err)
	}
	if got := status(); got != models.ClaimClosed {
		t.Errorf("closed claim became %s", got)
	}

	err = f.svc.UpdateDocumentHeader(f.ctx, claimID, models.DocUpdate{Status: models.Set(models.ClaimSubmitted)})
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Errorf("reopen = %v, want InvalidTransition", err)
	}

	f.db.AssertLedgerConsistent(t)
}

func TestClaimReferenceChecks(t *testing.T) {
	f := setupDocuments(t)
	item := f.item(t)

	inboundID, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
		Type:    models.DocTypeInbound,
		DocNo:   "IN-1",
		BizDate: "2024-01-01",
		Lines:   []LineInput{{ItemID: item.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	other := f.item(t)
	openClaimID, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
		Type:    models.DocTypeClaim,
		DocNo:   "CL-OTHER",
		BizDate: "2024-01-01",
		Status:  models.ClaimSubmitted,
		Lines:   []LineInput{{ItemID: other.ID, Qty: 5}},
	})
	if err != nil {
		t.Fatal(err)
	}

	missing := int64(999)
	for name, ref := range map[string]*int64{
		"not a claim":        &inboundID,
		"missing":            &missing,
		"item not requested": &openClaimID,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
				Type:    models.DocTypeInbound,
				DocNo:   "IN-" + name,
				BizDate: "2024-01-01",
				Lines:   []LineInput{{ItemID: item.ID, Qty: 1, ClaimID: ref}},
			})
			if !apperr.Is(err, apperr.KindValidation) {
				t.Errorf("CreateDocument() = %v, want ValidationError", err)
			}
		})
	}

	f.db.AssertRowCount(t, "docs", 2)
	f.db.AssertLedgerConsistent(t)

	if _, err := f.svc.ClaimProgress(f.ctx, inboundID); !apperr.IsNotFound(err) {
		t.Errorf("ClaimProgress(inbound) = %v, want NotFound", err)
	}
}

func TestClaimRepeatedItem(t *testing.T) {
	f := setupDocuments(t)
	item := f.item(t)

	claimID, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
		Type:    models.DocTypeClaim,
		DocNo:   "CL-1",
		BizDate: "2024-01-02",
		Status:  models.ClaimSubmitted,
		Lines: []LineInput{
			{ItemID: item.ID, Qty: 10},
			{ItemID: item.ID, Qty: 5},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	receive := func(docNo string, qty int64) *ClaimSummary {
		t.Helper()
		_, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
			Type:    models.DocTypeInbound,
			DocNo:   docNo,
			BizDate: "2024-01-05",
			Lines:   []LineInput{{ItemID: item.ID, Qty: qty, ClaimID: &claimID}},
		})
		if err != nil {
			t.Fatal(err)
		}
		summary, err := f.svc.ClaimProgress(f.ctx, claimID)
		if err != nil {
			t.Fatal(err)
		}
		return summary
	}

	summary := receive("IN-1", 10)
	if summary.Claim.Status != models.ClaimPartial {
		t.Errorf("after 10 of 15: status = %s, want PARTIAL", summary.Claim.Status)
	}
	if got := summary.Lines[1].Received; got != 0 {
		t.Errorf("second line received %d, want 0", got)
	}

	summary = receive("IN-2", 5)
	if summary.Claim.Status != models.ClaimArrived {
		t.Errorf("after 15 of 15: status = %s, want ARRIVED", summary.Claim.Status)
	}
	f.db.AssertLedgerConsistent(t)
}

func TestLineCategoryOverride(t *testing.T) {
	f := setupDocuments(t)
	item := f.item(t)

	cat := testutil.FixtureCategory()
	if err := repository.NewCategoryRepository(f.db.DB.DB).Create(f.ctx, nil, cat); err != nil {
		t.Fatal(err)
	}

	id, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
		Type:    models.DocTypeInbound,
		DocNo:   "IN-1",
		BizDate: "2024-01-01",
		Lines:   []LineInput{{ItemID: item.ID, Qty: 3, CategoryID: &cat.ID}},
	})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := f.svc.GetDocument(f.ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Lines[0].CategoryID; got == nil || *got != cat.ID {
		t.Errorf("line category = %v, want %d", got, cat.ID)
	}

	t.Run("Unknown category", func(t *testing.T) {
		missing := int64(9999)
		_, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
			Type:    models.DocTypeInbound,
			DocNo:   "IN-2",
			BizDate: "2024-01-01",
			Lines:   []LineInput{{ItemID: item.ID, Qty: 1, CategoryID: &missing}},
		})
		if !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("CreateDocument() = %v, want ValidationError", err)
		}
		f.db.AssertRowCount(t, "docs", 1)
		if got := f.qty(t, item.ID); got != 3 {
			t.Errorf("qty = %d, want 3", got)
		}
	})
}

func TestConcurrentOutbounds(t *testing.T) {
	f := setupDocuments(t)
	item := f.item(t)

	const stocked = 10
	f.receive(t, item.ID, stocked)

	var (
		wg               sync.WaitGroup
		mu               sync.Mutex
		issued, rejected int
		unexpected       []error
	)
	for i := 0; i < 2*stocked; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
				Type:    models.DocTypeOutbound,
				DocNo:   fmt.Sprintf("OUT-%d", i),
				BizDate: "2024-01-11",
				Lines:   []LineInput{{ItemID: item.ID, Qty: 1}},
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				issued++
			case apperr.Is(err, apperr.KindInsufficientStock):
				rejected++
			default:
				unexpected = append(unexpected, err)
			}
		}(i)
	}
	wg.Wait()

	if len(unexpected) > 0 {
		t.Fatalf("unexpected errors: %v", unexpected)
	}
	if issued != stocked || rejected != stocked {
		t.Errorf("issued %d, rejected %d; want %d each", issued, rejected, stocked)
	}
	if got := f.qty(t, item.ID); got != 0 {
		t.Errorf("qty = %d, want 0", got)
	}
	f.db.AssertRowCount(t, "docs", 1+stocked)
	f.db.AssertLedgerConsistent(t)
}

func TestUpdateDocumentHeader(t *testing.T) {
	f := setupDocuments(t)
	item := f.item(t)

	id, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
		Type:     models.DocTypeInbound,
		DocNo:    "IN-1",
		BizDate:  "2024-01-01",
		Operator: "alice",
		Lines:    []LineInput{{ItemID: item.ID, Qty: 4}},
	})
	if err != nil {
		t.Fatal(err)
	}

	err = f.svc.UpdateDocumentHeader(f.ctx, id, models.DocUpdate{
		BizDate: models.Set("2024-01-03"),
		Remark:  models.Set("late paperwork"),
	})
	if err != nil {
		t.Fatalf("UpdateDocumentHeader() = %v", err)
	}

	doc, err := f.svc.GetDocument(f.ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if doc.BizDate != "2024-01-03" || doc.Remark != "late paperwork" || doc.Operator != "alice" {
		t.Errorf("header = %+v", doc)
	}
	if len(doc.Lines) != 1 || doc.Lines[0].Qty != 4 {
		t.Errorf("lines changed: %+v", doc.Lines)
	}
	if got := f.qty(t, item.ID); got != 4 {
		t.Errorf("qty = %d", got)
	}

	tests := []struct {
		name string
		id   int64
		upd  models.DocUpdate
		kind apperr.Kind
	}{
		{"status on inbound", id, models.DocUpdate{Status: models.Set(models.ClaimClosed)}, apperr.KindValidation},
		{"unknown status", id, models.DocUpdate{Status: models.Set(models.ClaimStatus("LOST"))}, apperr.KindValidation},
		{"bad date", id, models.DocUpdate{BizDate: models.Set("2024-13-01")}, apperr.KindValidation},
		{"missing document", 999, models.DocUpdate{Remark: models.Set("x")}, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.UpdateDocumentHeader(f.ctx, tt.id, tt.upd)
			if got := apperr.KindOf(err); got != tt.kind {
				t.Errorf("kind = %s (%v), want %s", got, err, tt.kind)
			}
		})
	}
}

func TestRecordMovement(t *testing.T) {
	f := setupDocuments(t)
	item := f.item(t)

	in, err := f.svc.RecordMovement(f.ctx, models.DocTypeInbound, MovementInput{
		ItemID: item.ID, Qty: 8, BizDate: "2024-02-01", Operator: "erin", Note: "restock",
	})
	if err != nil {
		t.Fatalf("inbound: %v", err)
	}
	if !strings.HasPrefix(in.DocNo, "IN-2024-02-01-") || in.DocType != models.DocTypeInbound {
		t.Errorf("inbound doc = %+v", in)
	}
	if len(in.Lines) != 1 || in.Lines[0].Remark != "restock" {
		t.Errorf("inbound lines = %+v", in.Lines)
	}

	out, err := f.svc.RecordMovement(f.ctx, models.DocTypeOutbound, MovementInput{
		ItemID: item.ID, Qty: 3, BizDate: "2024-02-01", Operator: "erin",
	})
	if err != nil {
		t.Fatalf("outbound: %v", err)
	}
	if !strings.HasPrefix(out.DocNo, "OUT-2024-02-01-") {
		t.Errorf("outbound doc_no = %q", out.DocNo)
	}

	second, err := f.svc.RecordMovement(f.ctx, models.DocTypeInbound, MovementInput{
		ItemID: item.ID, Qty: 1, BizDate: "2024-02-01",
	})
	if err != nil {
		t.Fatal(err)
	}
	if second.DocNo == in.DocNo {
		t.Errorf("doc_no reused: %q", second.DocNo)
	}

	if got := f.qty(t, item.ID); got != 6 {
		t.Errorf("qty = %d, want 6", got)
	}

	_, err = f.svc.RecordMovement(f.ctx, models.DocTypeOutbound, MovementInput{ItemID: item.ID, Qty: 7, BizDate: "2024-02-02"})
	if !apperr.Is(err, apperr.KindInsufficientStock) {
		t.Errorf("over-issue = %v", err)
	}
	_, err = f.svc.RecordMovement(f.ctx, models.DocTypeClaim, MovementInput{ItemID: item.ID, Qty: 1, BizDate: "2024-02-02"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("claim movement = %v", err)
	}

	f.db.AssertLedgerConsistent(t)
}

func TestListDocuments(t *testing.T) {
	f := setupDocuments(t)
	item := f.item(t)

	for i, date := range []string{"2024-03-02", "2024-03-01", "2024-03-03"} {
		_, err := f.svc.CreateDocument(f.ctx, CreateDocumentInput{
			Type:    models.DocTypeClaim,
			DocNo:   "CL-" + date,
			BizDate: date,
			Lines:   []LineInput{{ItemID: item.ID, Qty: int64(i + 1)}},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	docs, err := f.svc.ListDocuments(f.ctx, models.DocFilter{Sort: models.DocSortBizDate, Order: models.SortAsc})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 || docs[0].BizDate != "2024-03-01" || docs[2].BizDate != "2024-03-03" {
		t.Errorf("biz_date asc = %+v", docs)
	}

	docs, err = f.svc.ListDocuments(f.ctx, models.DocFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 || docs[0].DocNo != "CL-2024-03-03" {
		t.Errorf("default order should be newest id first: %+v", docs)
	}

	if _, err := f.svc.ListDocuments(f.ctx, models.DocFilter{Sort: "doc_no"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("bad sort = %v", err)
	}
}
