package models

// TableID identifies a seating table. Tables are created implicitly on first
// reference and live for the whole process.
type TableID = int

// TableState represents where a table is in its service lifecycle.
type TableState string

const (
	TableEmpty    TableState = "EMPTY"
	TableOrdering TableState = "ORDERING"
	TableEating   TableState = "EATING"
	TableComplete TableState = "COMPLETE"
)

// Next returns the only legal successor state. The lifecycle is a strict
// forward cycle: EMPTY -> ORDERING -> EATING -> COMPLETE -> EMPTY.
func (s TableState) Next() TableState {
	switch s {
	case TableEmpty:
		return TableOrdering
	case TableOrdering:
		return TableEating
	case TableEating:
		return TableComplete
	case TableComplete:
		return TableEmpty
	}
	return s
}

// AcceptsOrders reports whether an order may be placed while the table is in
// this state. EMPTY also accepts: the first placement moves it to ORDERING.
func (s TableState) AcceptsOrders() bool {
	return s == TableEmpty || s == TableOrdering || s == TableEating
}

// ParseTableState converts the wire representation of a state.
func ParseTableState(v string) (TableState, bool) {
	switch TableState(v) {
	case TableEmpty, TableOrdering, TableEating, TableComplete:
		return TableState(v), true
	}
	return "", false
}

// TableStatus is the API view of a table.
type TableStatus struct {
	TableID      TableID    `json:"table_id"`
	State        TableState `json:"state"`
	ActiveOrders int        `json:"active_orders"`
}

// AdvanceTableRequest asks the service to move a table to the given state.
type AdvanceTableRequest struct {
	State string `json:"state"`
}
