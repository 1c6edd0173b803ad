package models

import "time"

// Table event names published to the tables_topic exchange.
const (
	EventOrderPlaced       = "order_placed"
	EventOrderDeleted      = "order_deleted"
	EventTableStateChanged = "table_state_changed"
)

// TableEvent is the message emitted whenever an order is placed or deleted,
// or a table changes state. OrderID and MealID are set for order events only.
type TableEvent struct {
	Event     string     `json:"event"`
	TableID   TableID    `json:"table_id"`
	State     TableState `json:"state"`
	OrderID   OrderID    `json:"order_id,omitempty"`
	MealID    MealID     `json:"meal_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewOrderEvent builds an event for a placed or deleted order.
func NewOrderEvent(event string, order *Order, state TableState) *TableEvent {
	return &TableEvent{
		Event:     event,
		TableID:   order.TableID,
		State:     state,
		OrderID:   order.ID,
		MealID:    order.MealID,
		Timestamp: time.Now().UTC(),
	}
}

// NewStateEvent builds an event for a table lifecycle change.
func NewStateEvent(tableID TableID, state TableState) *TableEvent {
	return &TableEvent{
		Event:     EventTableStateChanged,
		TableID:   tableID,
		State:     state,
		Timestamp: time.Now().UTC(),
	}
}
