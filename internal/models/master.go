package models

import "time"

// Category groups items. Names are unique.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Item is a stock-keeping unit. Items are deactivated, never deleted.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	CategoryID  *int64    `json:"category_id"`
	SpecDefault string    `json:"spec_default"`
	UnitDefault string    `json:"unit_default"`
	MinStock    int64     `json:"min_stock"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined fields
	CategoryName string `json:"category_name,omitempty"`
}

// ItemUpdate lists the item fields a partial update may change.
type ItemUpdate struct {
	Name        Field[string]
	CategoryID  Field[*int64]
	SpecDefault Field[string]
	UnitDefault Field[string]
	MinStock    Field[int64]
	IsActive    Field[bool]
}

// Empty reports whether no field is set.
func (u ItemUpdate) Empty() bool {
	return !u.Name.Set && !u.CategoryID.Set && !u.SpecDefault.Set &&
		!u.UnitDefault.Set && !u.MinStock.Set && !u.IsActive.Set
}

// Operator is a free-text name offered when recording movements.
type Operator struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
