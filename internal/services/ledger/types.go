package ledger

// AdjustInput contains data for a manual stock correction.
type AdjustInput struct {
	ItemID   int64
	Delta    int64
	BizDate  string
	Operator string
	Remark   string
}
