package booking

import (
	"errors"
	"fmt"
)

// ErrReservationCancelled is returned when cancelling a reservation that is no longer active.
var ErrReservationCancelled = errors.New("reservation already cancelled")

// ValidationError rejects a request before anything is written.
// Index is the position in the batch, or -1 for request-level problems.
type ValidationError struct {
	Index   int
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("reservas[%d].%s: %s", e.Index, e.Field, e.Message)
}

// ConflictError reports a batch item that overlaps an active reservation
// or another item of the same batch.
type ConflictError struct {
	Index      int
	Room       string
	Date       string
	StartTime  string
	ExistingID string
}

func (e *ConflictError) Error() string {
	if e.ExistingID == "" {
		return fmt.Sprintf("reservas[%d]: sala %s on %s at %s overlaps another item of the batch", e.Index, e.Room, e.Date, e.StartTime)
	}
	return fmt.Sprintf("reservas[%d]: sala %s on %s at %s overlaps reservation %s", e.Index, e.Room, e.Date, e.StartTime, e.ExistingID)
}

func invalid(index int, field, format string, args ...any) *ValidationError {
	return &ValidationError{Index: index, Field: field, Message: fmt.Sprintf(format, args...)}
}
