package models

import (
	"encoding/json"
	"strings"
)

// SortDirection represents the sort direction.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// ParseSortDirection accepts asc/desc in any case and falls back to def.
func ParseSortDirection(s string, def SortDirection) SortDirection {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASC":
		return SortAsc
	case "DESC":
		return SortDesc
	default:
		return def
	}
}

// Field is one optional value in a partial update. Set is false when the
// caller did not supply the field, so it must be left untouched.
type Field[T any] struct {
	Value T
	Set   bool
}

// Set returns a Field carrying v.
func Set[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// UnmarshalJSON marks the field as supplied. JSON null decodes to the zero value.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	return json.Unmarshal(b, &f.Value)
}
