package server

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/services/documents"
	"github.com/stockroom/warehouse/internal/services/masterdata"
	"github.com/stockroom/warehouse/internal/util"
)

var validatorsOnce sync.Once

// registerValidators adds the bizdate rule and reports fields by their wire
// names.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(wireName)
		_ = v.RegisterValidation("bizdate", func(fl validator.FieldLevel) bool {
			return util.ValidDate(fl.Field().String())
		})
	})
}

func wireName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// ============================================================================
// MASTER DATA
// ============================================================================

// createItemRequest accepts both the short and the _default field spellings.
type createItemRequest struct {
	Name        string `json:"name" binding:"required"`
	CategoryID  *int64 `json:"category_id"`
	Spec        string `json:"spec"`
	SpecDefault string `json:"spec_default"`
	Unit        string `json:"unit"`
	UnitDefault string `json:"unit_default"`
	MinStock    int64  `json:"min_stock" binding:"gte=0"`
}

func (r createItemRequest) input() masterdata.CreateItemInput {
	return masterdata.CreateItemInput{
		Name:        r.Name,
		CategoryID:  r.CategoryID,
		SpecDefault: firstNonEmpty(r.Spec, r.SpecDefault),
		UnitDefault: firstNonEmpty(r.Unit, r.UnitDefault),
		MinStock:    r.MinStock,
	}
}

type updateItemRequest struct {
	Name        models.Field[string] `json:"name"`
	CategoryID  models.Field[*int64] `json:"category_id"`
	Spec        models.Field[string] `json:"spec"`
	SpecDefault models.Field[string] `json:"spec_default"`
	Unit        models.Field[string] `json:"unit"`
	UnitDefault models.Field[string] `json:"unit_default"`
	MinStock    models.Field[int64]  `json:"min_stock"`
	IsActive    models.Field[bool]   `json:"is_active"`
}

func (r updateItemRequest) update() models.ItemUpdate {
	return models.ItemUpdate{
		Name:        r.Name,
		CategoryID:  r.CategoryID,
		SpecDefault: eitherField(r.Spec, r.SpecDefault),
		UnitDefault: eitherField(r.Unit, r.UnitDefault),
		MinStock:    r.MinStock,
		IsActive:    r.IsActive,
	}
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

type itemsQuery struct {
	ActiveOnly bool `form:"activeOnly"`
}

type searchQuery struct {
	Q string `form:"q"`
}

// ============================================================================
// DOCUMENTS
// ============================================================================

type lineRequest struct {
	ItemID     int64  `json:"item_id" binding:"required,gt=0"`
	Qty        int64  `json:"qty" binding:"required,gte=1"`
	Unit       string `json:"unit"`
	Spec       string `json:"spec"`
	Remark     string `json:"remark"`
	CategoryID *int64 `json:"category_id"`
	ClaimID    *int64 `json:"claim_id"`
}

type createDocRequest struct {
	DocType     string        `json:"doc_type" binding:"required,oneof=claim inbound outbound"`
	DocNo       string        `json:"doc_no" binding:"required"`
	BizDate     string        `json:"biz_date" binding:"required,bizdate"`
	CompanyName string        `json:"company_name"`
	Requester   string        `json:"requester"`
	Operator    string        `json:"operator"`
	Status      string        `json:"status"`
	Remark      string        `json:"remark"`
	Lines       []lineRequest `json:"lines" binding:"required,min=1,dive"`
}

func (r createDocRequest) input() documents.CreateDocumentInput {
	lines := make([]documents.LineInput, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = documents.LineInput{
			ItemID:     l.ItemID,
			Qty:        l.Qty,
			Unit:       l.Unit,
			Spec:       l.Spec,
			Remark:     l.Remark,
			CategoryID: l.CategoryID,
			ClaimID:    l.ClaimID,
		}
	}
	return documents.CreateDocumentInput{
		Type:        models.DocType(r.DocType),
		DocNo:       r.DocNo,
		BizDate:     r.BizDate,
		CompanyName: r.CompanyName,
		Requester:   r.Requester,
		Operator:    r.Operator,
		Status:      models.ClaimStatus(r.Status),
		Remark:      r.Remark,
		Lines:       lines,
	}
}

type updateDocRequest struct {
	BizDate     models.Field[string]             `json:"biz_date"`
	CompanyName models.Field[string]             `json:"company_name"`
	Requester   models.Field[string]             `json:"requester"`
	Operator    models.Field[string]             `json:"operator"`
	Remark      models.Field[string]             `json:"remark"`
	Status      models.Field[models.ClaimStatus] `json:"status"`
}

func (r updateDocRequest) update() models.DocUpdate {
	return models.DocUpdate{
		BizDate:     r.BizDate,
		CompanyName: r.CompanyName,
		Requester:   r.Requester,
		Operator:    r.Operator,
		Remark:      r.Remark,
		Status:      r.Status,
	}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type docsQuery struct {
	Type  string `form:"type" binding:"omitempty,oneof=claim inbound outbound"`
	Sort  string `form:"sort" binding:"omitempty,oneof=biz_date created_at"`
	Order string `form:"order" binding:"omitempty,oneof=asc desc"`
}

type claimItemRequest struct {
	ItemID       int64  `json:"item_id" binding:"required,gt=0"`
	RequestedQty int64  `json:"requested_qty" binding:"required,gte=1"`
	Unit         string `json:"unit"`
	Spec         string `json:"spec"`
	Remark       string `json:"remark"`
	CategoryID   *int64 `json:"category_id"`
}

type claimRequest struct {
	ClaimNo   string             `json:"claim_no" binding:"required"`
	BizDate   string             `json:"biz_date" binding:"required,bizdate"`
	Requester string             `json:"requester"`
	Status    string             `json:"status"`
	Note      string             `json:"note"`
	Items     []claimItemRequest `json:"items" binding:"required,min=1,dive"`
}

func (r claimRequest) input() documents.CreateDocumentInput {
	lines := make([]documents.LineInput, len(r.Items))
	for i, it := range r.Items {
		lines[i] = documents.LineInput{
			ItemID:     it.ItemID,
			Qty:        it.RequestedQty,
			Unit:       it.Unit,
			Spec:       it.Spec,
			Remark:     it.Remark,
			CategoryID: it.CategoryID,
		}
	}
	return documents.CreateDocumentInput{
		Type:      models.DocTypeClaim,
		DocNo:     r.ClaimNo,
		BizDate:   r.BizDate,
		Requester: r.Requester,
		Status:    models.ClaimStatus(r.Status),
		Remark:    r.Note,
		Lines:     lines,
	}
}

type movementRequest struct {
	ItemID     int64  `json:"item_id" binding:"required,gt=0"`
	Qty        int64  `json:"qty" binding:"required,gte=1"`
	BizDate    string `json:"biz_date" binding:"required,bizdate"`
	Operator   string `json:"operator"`
	Note       string `json:"note"`
	ClaimID    *int64 `json:"claim_id"`
	CategoryID *int64 `json:"category_id"`
}

func (r movementRequest) input() documents.MovementInput {
	return documents.MovementInput{
		ItemID:     r.ItemID,
		Qty:        r.Qty,
		BizDate:    r.BizDate,
		Operator:   r.Operator,
		Note:       r.Note,
		ClaimID:    r.ClaimID,
		CategoryID: r.CategoryID,
	}
}

// ============================================================================
// STOCK AND REPORTS
// ============================================================================

type stocksQuery struct {
	QField    string `form:"qField" binding:"omitempty,oneof=name spec category_name in_date"`
	Q         string `form:"q"`
	DateFrom  string `form:"date_from" binding:"omitempty,bizdate"`
	DateTo    string `form:"date_to" binding:"omitempty,bizdate"`
	SortBy    string `form:"sortBy" binding:"omitempty,oneof=name category spec qty last_in_date"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

func (q stocksQuery) filter() models.StockFilter {
	return models.StockFilter{
		QField:    models.StockQueryField(q.QField),
		Q:         q.Q,
		DateFrom:  q.DateFrom,
		DateTo:    q.DateTo,
		SortBy:    models.StockSort(q.SortBy),
		SortOrder: models.ParseSortDirection(q.SortOrder, models.SortAsc),
	}
}

type itemDetailQuery struct {
	ItemID int64 `form:"item_id" binding:"required,gt=0"`
}

type movesQuery struct {
	ItemID int64  `form:"item_id" binding:"gte=0"`
	Start  string `form:"start" binding:"omitempty,bizdate"`
	End    string `form:"end" binding:"omitempty,bizdate"`
	Limit  int    `form:"limit" binding:"gte=0"`
}

type limitQuery struct {
	Limit int `form:"limit" binding:"gte=0"`
}

type reportQuery struct {
	Start    string `form:"start" binding:"omitempty,bizdate"`
	End      string `form:"end" binding:"omitempty,bizdate"`
	ItemID   int64  `form:"itemId" binding:"gte=0"`
	Operator string `form:"operator"`
}

type topItemsQuery struct {
	reportQuery
	Type  string `form:"type" binding:"omitempty,oneof=in out"`
	Limit int    `form:"limit" binding:"gte=0"`
}

type adjustRequest struct {
	ItemID   int64  `json:"item_id" binding:"required,gt=0"`
	Delta    int64  `json:"delta" binding:"required"`
	BizDate  string `json:"biz_date" binding:"required,bizdate"`
	Operator string `json:"operator"`
	Remark   string `json:"remark"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// eitherField prefers a non-empty short spelling, then whichever was sent.
func eitherField(short, long models.Field[string]) models.Field[string] {
	if short.Set && strings.TrimSpace(short.Value) != "" {
		return short
	}
	if long.Set {
		return long
	}
	return short
}
