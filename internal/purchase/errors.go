package purchase

import (
	"errors"

	"ticketly-client/internal/api"
)

var (
	ErrNothingSelected      = errors.New("no entries selected")
	ErrSubmissionInFlight   = errors.New("a purchase is already being submitted")
	ErrAbandoned            = errors.New("purchase abandoned")
	ErrNotCancellable       = errors.New("only active tickets can be cancelled")
	ErrCancellationInFlight = errors.New("ticket cancellation already in progress")
)

const (
	FallbackPurchaseReason = "No se pudo completar la compra"
	FallbackCancelReason   = "Error al cancelar el ticket"
)

// Error is a failed request turned into something a user can read.
type Error struct {
	Op     string
	Reason string
	Err    error
}

func (e *Error) Error() string { return e.Reason }

func (e *Error) Unwrap() error { return e.Err }

func newError(op string, err error, fallback string) *Error {
	return &Error{Op: op, Reason: api.Reason(err, fallback), Err: err}
}
