// Package apperr defines the error kinds surfaced by the inventory services.
// Every failure a caller is expected to handle carries a Kind and a message;
// anything else is an internal error.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindDuplicateName     Kind = "DUPLICATE_NAME"
	KindDuplicateDocNo    Kind = "DUPLICATE_DOC_NO"
	KindNameExists        Kind = "NAME_EXISTS"
	KindNotFound          Kind = "NOT_FOUND"
	KindItemNotFound      Kind = "ITEM_NOT_FOUND"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindIO                Kind = "IO_ERROR"
	KindInternal          Kind = "INTERNAL"
)

// Error is a classified error.
type Error struct {
	Kind    Kind
	Message string

	// ExistingID is set for KindNameExists.
	ExistingID int64

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports a missing or malformed field.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports a claim status change that is not allowed.
func InvalidTransition(from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot change claim status from %s to %s", from, to),
	}
}

// DuplicateName reports an item name already in use.
func DuplicateName(name string) *Error {
	return &Error{Kind: KindDuplicateName, Message: fmt.Sprintf("name %q already exists", name)}
}

// DuplicateDocNo reports a document number already used by a document of the same type.
func DuplicateDocNo(docType, docNo string) *Error {
	return &Error{
		Kind:    KindDuplicateDocNo,
		Message: fmt.Sprintf("%s document %q already exists", docType, docNo),
	}
}

// NameExists reports a recoverable name collision; the caller may adopt existingID.
func NameExists(name string, existingID int64) *Error {
	return &Error{
		Kind:       KindNameExists,
		Message:    fmt.Sprintf("name %q already exists", name),
		ExistingID: existingID,
	}
}

// NotFound reports a missing entity that the operation required.
func NotFound(entity string, id int64) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %d not found", entity, id)}
}

// ItemNotFound reports a document line referencing an unknown item.
func ItemNotFound(itemID int64) *Error {
	return &Error{Kind: KindItemNotFound, Message: fmt.Sprintf("item %d not found", itemID)}
}

// InsufficientStock reports a posting that would drive a balance negative.
func InsufficientStock(itemID, available, delta int64) *Error {
	return &Error{
		Kind: KindInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for item %d: have %d, change %d",
			itemID, available, delta),
	}
}

// IO wraps a storage or file failure.
func IO(op string, err error) *Error {
	return &Error{Kind: KindIO, Message: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsNotFound reports whether err is a NotFound or ItemNotFound error.
func IsNotFound(err error) bool {
	k := KindOf(err)
	return err != nil && (k == KindNotFound || k == KindItemNotFound)
}
