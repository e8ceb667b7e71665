package models

import "time"

// DocType is the kind of a document.
type DocType string

const (
	DocTypeClaim    DocType = "claim"
	DocTypeInbound  DocType = "inbound"
	DocTypeOutbound DocType = "outbound"
)

// Valid reports whether t is a known document type.
func (t DocType) Valid() bool {
	switch t {
	case DocTypeClaim, DocTypeInbound, DocTypeOutbound:
		return true
	}
	return false
}

// Posts reports whether documents of this type move stock.
func (t DocType) Posts() bool {
	return t == DocTypeInbound || t == DocTypeOutbound
}

// MoveType returns the ledger move type written for this document type.
func (t DocType) MoveType() MoveType {
	if t == DocTypeOutbound {
		return MoveTypeOut
	}
	return MoveTypeIn
}

// Doc is a document header with its lines.
type Doc struct {
	ID          int64       `json:"id"`
	DocType     DocType     `json:"doc_type"`
	DocNo       string      `json:"doc_no"`
	BizDate     string      `json:"biz_date"`
	CompanyName string      `json:"company_name"`
	Requester   string      `json:"requester"`
	Operator    string      `json:"operator"`
	Status      ClaimStatus `json:"status,omitempty"`
	Remark      string      `json:"remark"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Lines []DocLine `json:"lines,omitempty"`
}

// DocLine is one item row of a document. Item name and unit are copied at
// write time so later item edits do not rewrite history.
type DocLine struct {
	ID         int64     `json:"id"`
	DocID      int64     `json:"doc_id"`
	ItemID     int64     `json:"item_id"`
	ItemName   string    `json:"item_name"`
	Spec       string    `json:"spec"`
	Qty        int64     `json:"qty"`
	Unit       string    `json:"unit"`
	Remark     string    `json:"remark"`
	CategoryID *int64    `json:"category_id"`
	ClaimID    *int64    `json:"claim_id,omitempty"`
	SortNo     int       `json:"sort_no"`
	CreatedAt  time.Time `json:"created_at"`

	// Joined fields
	CategoryName string `json:"category_name,omitempty"`
}

// DocUpdate lists the header fields a partial update may change.
type DocUpdate struct {
	BizDate     Field[string]
	CompanyName Field[string]
	Requester   Field[string]
	Operator    Field[string]
	Remark      Field[string]
	Status      Field[ClaimStatus]
}

// Empty reports whether no field is set.
func (u DocUpdate) Empty() bool {
	return !u.BizDate.Set && !u.CompanyName.Set && !u.Requester.Set &&
		!u.Operator.Set && !u.Remark.Set && !u.Status.Set
}

// DocSort is the column documents are listed by.
type DocSort string

const (
	DocSortCreatedAt DocSort = "created_at"
	DocSortBizDate   DocSort = "biz_date"
)

// DocFilter selects documents for listing.
type DocFilter struct {
	Type     DocType
	Statuses []ClaimStatus
	Sort     DocSort
	Order    SortDirection
	Limit    int
}
