package masterdata

// CreateItemInput contains data for creating an item.
type CreateItemInput struct {
	Name        string
	CategoryID  *int64
	SpecDefault string
	UnitDefault string
	MinStock    int64
}
