package models

import "time"

// MoveType is the kind of a ledger entry.
type MoveType string

const (
	MoveTypeIn     MoveType = "in"
	MoveTypeOut    MoveType = "out"
	MoveTypeAdjust MoveType = "adjust"
)

// Valid reports whether t is a known move type.
func (t MoveType) Valid() bool {
	return t == MoveTypeIn || t == MoveTypeOut || t == MoveTypeAdjust
}

// StockMove is an immutable ledger entry.
type StockMove struct {
	ID        int64     `json:"id"`
	MoveType  MoveType  `json:"move_type"`
	BizDate   string    `json:"biz_date"`
	ItemID    int64     `json:"item_id"`
	QtyDelta  int64     `json:"qty_delta"`
	DocID     *int64    `json:"doc_id"`
	Operator  string    `json:"operator"`
	Remark    string    `json:"remark"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields
	ItemName string `json:"item_name,omitempty"`
	Unit     string `json:"unit,omitempty"`
	DocNo    string `json:"doc_no,omitempty"`
}

// Stock is the cached balance of one item.
type Stock struct {
	ItemID    int64     `json:"item_id"`
	Qty       int64     `json:"qty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockRow is a balance joined with its item for display.
type StockRow struct {
	ItemID       int64     `json:"item_id"`
	ItemName     string    `json:"name"`
	Spec         string    `json:"spec"`
	Unit         string    `json:"unit"`
	CategoryID   *int64    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	MinStock     int64     `json:"min_stock"`
	IsActive     bool      `json:"is_active"`
	Qty          int64     `json:"qty"`
	LastInDate   string    `json:"last_in_date"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BelowMinimum reports whether the row should raise a low-stock alert.
func (r StockRow) BelowMinimum() bool {
	return r.IsActive && r.MinStock > 0 && r.Qty < r.MinStock
}

// StockAlert is an active item below its minimum stock.
type StockAlert struct {
	StockRow
	Gap int64 `json:"gap"`
}

// StockQueryField selects what the free-text stock query matches against.
type StockQueryField string

const (
	StockQueryName     StockQueryField = "name"
	StockQuerySpec     StockQueryField = "spec"
	StockQueryCategory StockQueryField = "category_name"
	StockQueryInDate   StockQueryField = "in_date"
)

// StockSort is the column balances are listed by.
type StockSort string

const (
	StockSortName       StockSort = "name"
	StockSortCategory   StockSort = "category"
	StockSortSpec       StockSort = "spec"
	StockSortQty        StockSort = "qty"
	StockSortLastInDate StockSort = "last_in_date"
)

// StockFilter selects balances for listing. With QField in_date, DateFrom and
// DateTo keep items that had an inbound move within the range.
type StockFilter struct {
	QField    StockQueryField
	Q         string
	DateFrom  string
	DateTo    string
	SortBy    StockSort
	SortOrder SortDirection
}

// MoveFilter selects ledger entries.
type MoveFilter struct {
	ItemID   int64
	Start    string
	End      string
	Operator string
	MoveType MoveType
	Limit    int
}

// ItemDetail summarises one item's stock position.
type ItemDetail struct {
	Item            Item        `json:"item"`
	Qty             int64       `json:"qty"`
	LastInboundDate string      `json:"last_inbound_at"`
	Outbounds       []StockMove `json:"outbounds"`
}

// Discrepancy is an item whose cached balance differs from its ledger sum.
type Discrepancy struct {
	ItemID    int64 `json:"item_id"`
	Balance   int64 `json:"balance"`
	LedgerSum int64 `json:"ledger_sum"`
}
