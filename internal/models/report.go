package models

// DailyTotal is the inbound and outbound quantity booked on one business date.
type DailyTotal struct {
	Date   string `json:"date"`
	InQty  int64  `json:"in_qty"`
	OutQty int64  `json:"out_qty"`
}

// ItemTotal is the quantity moved for one item over a period.
type ItemTotal struct {
	ItemID   int64  `json:"item_id"`
	ItemName string `json:"item_name"`
	Unit     string `json:"unit"`
	TotalQty int64  `json:"total_qty"`
}
