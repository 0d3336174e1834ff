package pauldb

import (
	"errors"

	"pauldb/internal/agg"
	"pauldb/internal/catalog"
	"pauldb/internal/expr"
	"pauldb/internal/storage"
	"pauldb/internal/table"
	"pauldb/internal/types"
)

// The error taxonomy below is a typed struct per error kind, each
// wrapping the internal sentinel that actually triggered it so
// errors.Is/errors.As keep working against both the typed wrapper and
// the underlying cause.

// InvalidRecordError is returned inserting or updating a record with a
// value that fails its column's validation.
type InvalidRecordError struct{ Cause error }

func (e *InvalidRecordError) Error() string { return "pauldb: invalid record: " + e.Cause.Error() }
func (e *InvalidRecordError) Unwrap() error { return e.Cause }

// UniqueViolationError is returned when a unique index already
// contains the key being inserted or updated to.
type UniqueViolationError struct{ Cause error }

func (e *UniqueViolationError) Error() string { return "pauldb: unique violation: " + e.Cause.Error() }
func (e *UniqueViolationError) Unwrap() error { return e.Cause }

// NotFoundError is returned by "...OrThrow" lookups against a row that
// does not exist.
type NotFoundError struct{ Cause error }

func (e *NotFoundError) Error() string { return "pauldb: not found: " + e.Cause.Error() }
func (e *NotFoundError) Unwrap() error { return e.Cause }

// TableNotFoundError is returned referencing an unknown (db, table)
// pair without create permission.
type TableNotFoundError struct{ Cause error }

func (e *TableNotFoundError) Error() string { return "pauldb: table not found: " + e.Cause.Error() }
func (e *TableNotFoundError) Unwrap() error { return e.Cause }

// DroppedError is returned when a Model method (such as Query) reaches
// a table handle superseded by a migration. Calls made directly on a
// *table.Handle return the unwrapped catalog.ErrDropped instead.
type DroppedError struct{ Cause error }

func (e *DroppedError) Error() string { return "pauldb: table dropped: " + e.Cause.Error() }
func (e *DroppedError) Unwrap() error { return e.Cause }

// TypeMismatchError is returned when an expression's operands are not
// type-compatible.
type TypeMismatchError struct{ Cause error }

func (e *TypeMismatchError) Error() string { return "pauldb: type mismatch: " + e.Cause.Error() }
func (e *TypeMismatchError) Unwrap() error { return e.Cause }

// SubQueryShapeError is returned when a sub-query expression's plan
// yields zero rows, more than one row, or a row that does not hold
// exactly one cell.
type SubQueryShapeError struct{ Cause error }

func (e *SubQueryShapeError) Error() string { return "pauldb: sub-query shape: " + e.Cause.Error() }
func (e *SubQueryShapeError) Unwrap() error { return e.Cause }

// NoMinValueError is returned building a Max/Min aggregation over a
// type that carries no minimum value.
type NoMinValueError struct{ Cause error }

func (e *NoMinValueError) Error() string { return "pauldb: no min value: " + e.Cause.Error() }
func (e *NoMinValueError) Unwrap() error { return e.Cause }

// CorruptPageError is returned when a page's header or magic fails to
// validate on read. Unlike the rest of this taxonomy it is fatal: the
// Open call that surfaces it must be treated as failed outright.
type CorruptPageError struct{ Cause error }

func (e *CorruptPageError) Error() string { return "pauldb: corrupt page: " + e.Cause.Error() }
func (e *CorruptPageError) Unwrap() error { return e.Cause }

// ErrClosed is returned by DB.Model and Model.Query after Shutdown.
var ErrClosed = errors.New("pauldb: database is closed")

// wrapErr classifies an internal error against every sentinel/typed
// cause the engine's lower layers can produce and returns the matching
// taxonomy wrapper. Errors this function does not recognize are
// returned unchanged — callers should not assume every error from the
// engine is one of the typed wrappers.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, table.ErrInvalidRecord):
		return &InvalidRecordError{Cause: err}
	case errors.Is(err, table.ErrUniqueViolation):
		return &UniqueViolationError{Cause: err}
	case errors.Is(err, table.ErrNotFound):
		return &NotFoundError{Cause: err}
	case errors.Is(err, catalog.ErrTableNotFound):
		return &TableNotFoundError{Cause: err}
	case errors.Is(err, catalog.ErrDropped), errors.Is(err, storage.ErrDropped):
		return &DroppedError{Cause: err}
	}
	var typeMismatch *expr.ErrTypeMismatch
	if errors.As(err, &typeMismatch) {
		return &TypeMismatchError{Cause: err}
	}
	var unbound *expr.ErrColumnUnbound
	if errors.As(err, &unbound) {
		return &TypeMismatchError{Cause: err}
	}
	var subQueryShape *expr.ErrSubQueryShape
	if errors.As(err, &subQueryShape) {
		return &SubQueryShapeError{Cause: err}
	}
	var noMinValue *agg.ErrNoMinValue
	if errors.As(err, &noMinValue) {
		return &NoMinValueError{Cause: err}
	}
	var invalidValue *types.ErrInvalidValue
	if errors.As(err, &invalidValue) {
		return &InvalidRecordError{Cause: err}
	}
	var corruptPage *storage.CorruptPageError
	if errors.As(err, &corruptPage) {
		return &CorruptPageError{Cause: err}
	}
	return err
}
