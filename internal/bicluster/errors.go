package bicluster

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/mixclust/internal/profile"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrNotFitted        = errors.New("model not fitted")
	ErrInvalidTable     = errors.New("invalid table")
	ErrDegenerateColumn = profile.ErrDegenerateColumn
)

// DegenerateColumnError is a non-fatal warning for a zero-variance numeric column.
type DegenerateColumnError = profile.DegenerateColumnError

// InsufficientDataError reports too few rows or columns for the requested
// cluster count.
type InsufficientDataError struct {
	Axis string
	Have int
	Want int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data on %s axis: have %d, need at least %d", e.Axis, e.Have, e.Want)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// NotFittedError is returned by queries made without a fitted model.
type NotFittedError struct {
	Op string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: call Fit first", e.Op)
}

func (e *NotFittedError) Is(target error) bool { return target == ErrNotFitted }

// InvalidTableError reports a malformed or empty table, or one that does
// not match the fitted model.
type InvalidTableError struct {
	Reason string
	Err    error
}

func (e *InvalidTableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid table: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid table: %s", e.Reason)
}

func (e *InvalidTableError) Is(target error) bool { return target == ErrInvalidTable }

func (e *InvalidTableError) Unwrap() error { return e.Err }

// errorKind labels err for metrics.
func errorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrInvalidTable):
		return "invalid_table"
	case errors.Is(err, ErrNotFitted):
		return "not_fitted"
	default:
		return "error"
	}
}
