package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

const (
	ReasonMissingBank      = "missing_bank"
	ReasonEmptyBody        = "empty_body"
	ReasonTooShort         = "too_short"
	ReasonRatingOutOfRange = "rating_out_of_range"
	ReasonInvalidDate      = "invalid_date"
)

// CollectionError: fetching one bank failed; the bank is skipped.
type CollectionError struct {
	Bank  string
	AppID string
	Err   error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collect %s (%s): %v", e.Bank, e.AppID, e.Err)
}
func (e *CollectionError) Unwrap() error { return e.Err }

// ValidationError: one malformed row; the row is dropped and counted.
type ValidationError struct {
	Field  string
	Reason string
	Value  any
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("invalid %s (%s): %v", e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("invalid %s (%s)", e.Field, e.Reason)
}

// ClassificationError: the model failed on a record; it falls back to neutral/0.0.
type ClassificationError struct {
	ReviewID string
	Err      error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify %s: %v", e.ReviewID, e.Err)
}
func (e *ClassificationError) Unwrap() error { return e.Err }

// PersistenceError aborts the run.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persist %s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// ForeignKeyError: a review references a bank that was never upserted.
type ForeignKeyError struct {
	ReviewID string
	Bank     string
	Err      error
}

func (e *ForeignKeyError) Error() string {
	msg := fmt.Sprintf("review %s references unknown bank %q", e.ReviewID, e.Bank)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}
func (e *ForeignKeyError) Unwrap() error { return e.Err }

// QueryError aborts the report stage.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string { return fmt.Sprintf("query %s: %v", e.Query, e.Err) }
func (e *QueryError) Unwrap() error { return e.Err }
