// Package storage holds the in-memory state of the restaurant: the order
// store and the table registry. Both are safe for concurrent use; the
// service layer is their only writer.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"wheres-my-table/internal/models"
)

// OrderStore keeps orders keyed by id under one coarse lock. All methods
// operate on copies, callers never share memory with the store.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[models.OrderID]storedOrder
	seq    uint64
}

// storedOrder carries the insertion sequence so that ListByTable can order
// entries created within the same clock tick.
type storedOrder struct {
	order models.Order
	seq   uint64
}

// NewOrderStore creates an empty order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[models.OrderID]storedOrder)}
}

// Put inserts a new order and returns its id. An empty id is filled in with
// a generated one; a caller-supplied id that already exists fails with
// ErrDuplicateOrder and leaves the store unchanged.
func (s *OrderStore) Put(_ context.Context, order *models.Order) (models.OrderID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	} else if _, ok := s.orders[order.ID]; ok {
		return "", models.ErrDuplicateOrder
	}

	s.seq++
	s.orders[order.ID] = storedOrder{order: *order, seq: s.seq}
	return order.ID, nil
}

// Get returns the order with the given id, or ErrOrderNotFound.
func (s *OrderStore) Get(_ context.Context, id models.OrderID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	order := stored.order
	return &order, nil
}

// ListByTable returns a snapshot of the table's active orders in creation
// order. The slice is a copy, not a live view; it is empty when the table
// has no orders.
func (s *OrderStore) ListByTable(_ context.Context, tableID models.TableID) ([]models.Order, error) {
	s.mu.RLock()
	matched := make([]storedOrder, 0)
	for _, stored := range s.orders {
		if stored.order.TableID == tableID {
			matched = append(matched, stored)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	out := make([]models.Order, len(matched))
	for i, stored := range matched {
		out[i] = stored.order
	}
	return out, nil
}

// Delete removes the order with the given id. Deletion is not idempotent: a
// second delete of the same id fails with ErrOrderNotFound.
func (s *OrderStore) Delete(_ context.Context, id models.OrderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return models.ErrOrderNotFound
	}
	delete(s.orders, id)
	return nil
}

// DeleteByTable removes every order belonging to the table and returns how
// many were removed. Used by the COMPLETE -> EMPTY cascade.
func (s *OrderStore) DeleteByTable(_ context.Context, tableID models.TableID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, stored := range s.orders {
		if stored.order.TableID == tableID {
			delete(s.orders, id)
			removed++
		}
	}
	return removed, nil
}
