package models

import (
	"errors"
	"fmt"
)

// Failure kinds returned by the service layer. All of them are recoverable:
// the transport maps them to a response code and the caller moves on.
var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrMealNotFound            = errors.New("meal not found")
	ErrTableNotAcceptingOrders = errors.New("table is not accepting orders")
	ErrDuplicateOrder          = errors.New("order id already exists")
)

// InvalidTransitionError reports a table lifecycle change that violates the
// forward cycle, naming both the current and the requested state.
type InvalidTransitionError struct {
	Table  TableID
	From   TableState
	To     TableState
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("table %d: invalid transition %s -> %s", e.Table, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
