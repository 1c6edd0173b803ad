// Package dining is the service layer of the table service: the only writer
// of table and order state. Every operation that touches a table runs under
// that table's lock, so the check-then-act sequences here stay atomic no
// matter how many waiters and API clients hit the same table.
package dining

import (
	"context"
	"time"

	"wheres-my-table/internal/logger"
	"wheres-my-table/internal/menu"
	"wheres-my-table/internal/models"
	"wheres-my-table/internal/storage"
)

// EventPublisher receives table events. A nil publisher disables events.
type EventPublisher interface {
	PublishTableEvent(ctx context.Context, event *models.TableEvent) error
}

// Service wires the menu catalog, the table registry and the order store
// behind the API boundary.
type Service struct {
	catalog *menu.Catalog
	tables  *storage.TableRegistry
	orders  *storage.OrderStore
	events  EventPublisher
	logger  *logger.Logger
}

// NewService creates the service. events may be nil.
func NewService(catalog *menu.Catalog, tables *storage.TableRegistry, orders *storage.OrderStore, events EventPublisher, log *logger.Logger) *Service {
	return &Service{
		catalog: catalog,
		tables:  tables,
		orders:  orders,
		events:  events,
		logger:  log,
	}
}

// ListMeals returns the meal catalog.
func (s *Service) ListMeals(_ context.Context) []models.Meal {
	return s.catalog.All()
}

// PlaceOrder creates an order for a meal on a table. An EMPTY table moves to
// ORDERING as part of the same atomic step; ORDERING and EATING tables accept
// directly; a COMPLETE table fails with ErrTableNotAcceptingOrders. A failed
// placement leaves neither a new order nor a changed table state.
func (s *Service) PlaceOrder(ctx context.Context, tableID models.TableID, mealID models.MealID) (*models.Order, error) {
	meal, ok := s.catalog.Get(mealID)
	if !ok {
		return nil, models.ErrMealNotFound
	}

	table := s.tables.Lock(tableID)
	defer table.Unlock()

	state := table.State()
	if !state.AcceptsOrders() {
		return nil, models.ErrTableNotAcceptingOrders
	}

	now := time.Now().UTC()
	order := &models.Order{
		TableID:   tableID,
		MealID:    mealID,
		CreatedAt: now,
		ReadyAt:   now.Add(meal.CookingTime()),
	}
	if _, err := s.orders.Put(ctx, order); err != nil {
		return nil, err
	}

	if state == models.TableEmpty {
		// Cannot fail: EMPTY -> ORDERING is the forward edge.
		if err := table.Advance(models.TableOrdering); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, models.NewOrderEvent(models.EventOrderPlaced, order, table.State()))
	return order, nil
}

// ListOrders returns the table's active orders in creation order.
func (s *Service) ListOrders(ctx context.Context, tableID models.TableID) ([]models.Order, error) {
	table := s.tables.Lock(tableID)
	defer table.Unlock()

	return s.orders.ListByTable(ctx, tableID)
}

// GetOrder returns a single order by id.
func (s *Service) GetOrder(ctx context.Context, orderID models.OrderID) (*models.Order, error) {
	return s.orders.Get(ctx, orderID)
}

// DeleteOrder removes a single order by id. Deleting it again fails with
// ErrOrderNotFound.
func (s *Service) DeleteOrder(ctx context.Context, orderID models.OrderID) error {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}

	table := s.tables.Lock(order.TableID)
	defer table.Unlock()

	// Re-check under the lock; a concurrent delete or cascade may have won.
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return err
	}

	s.publish(ctx, models.NewOrderEvent(models.EventOrderDeleted, order, table.State()))
	return nil
}

// GetTable returns the table's current state and active order count.
func (s *Service) GetTable(ctx context.Context, tableID models.TableID) (*models.TableStatus, error) {
	table := s.tables.Lock(tableID)
	defer table.Unlock()

	orders, err := s.orders.ListByTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return &models.TableStatus{
		TableID:      tableID,
		State:        table.State(),
		ActiveOrders: len(orders),
	}, nil
}

// AdvanceTable moves a table to the requested next state. ORDERING -> EATING
// additionally requires at least one active order; COMPLETE -> EMPTY clears
// all of the table's orders in the same atomic step.
func (s *Service) AdvanceTable(ctx context.Context, tableID models.TableID, next models.TableState) (*models.TableStatus, error) {
	table := s.tables.Lock(tableID)
	defer table.Unlock()

	from := table.State()
	if from == models.TableOrdering && next == models.TableEating {
		orders, err := s.orders.ListByTable(ctx, tableID)
		if err != nil {
			return nil, err
		}
		if len(orders) == 0 {
			return nil, &models.InvalidTransitionError{
				Table:  tableID,
				From:   from,
				To:     next,
				Reason: "no active orders",
			}
		}
	}

	if err := table.Advance(next); err != nil {
		return nil, err
	}

	active := 0
	if from == models.TableComplete {
		if _, err := s.orders.DeleteByTable(ctx, tableID); err != nil {
			return nil, err
		}
	} else {
		orders, err := s.orders.ListByTable(ctx, tableID)
		if err != nil {
			return nil, err
		}
		active = len(orders)
	}

	s.publish(ctx, models.NewStateEvent(tableID, next))
	return &models.TableStatus{
		TableID:      tableID,
		State:        next,
		ActiveOrders: active,
	}, nil
}

// publish sends an event when a publisher is configured. Publish failures
// are logged and swallowed, events never fail an operation.
func (s *Service) publish(ctx context.Context, event *models.TableEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTableEvent(ctx, event); err != nil {
		s.logger.Error("event_publish_failed", "Failed to publish table event", "", err, map[string]any{
			"event":    event.Event,
			"table_id": event.TableID,
		})
	}
}
