package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrFormat      = errors.New("unexpected document format")
	ErrParse       = errors.New("parse error")
	ErrPersistence = errors.New("persistence unavailable")
	ErrConflict    = errors.New("conflict")
)

// RecordExtractionError reports a single record that could not be turned into
// an artwork. The parser logs it and moves on.
type RecordExtractionError struct {
	Index int
	Err   error
}

func (e *RecordExtractionError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordExtractionError) Unwrap() error { return e.Err }

// EntityUpsertError reports a single entity that the store refused.
type EntityUpsertError struct {
	Kind string
	Key  string
	Err  error
}

func (e *EntityUpsertError) Error() string {
	return fmt.Sprintf("upsert %s %q: %v", e.Kind, e.Key, e.Err)
}

func (e *EntityUpsertError) Unwrap() error { return e.Err }
