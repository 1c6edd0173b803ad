package dining

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheres-my-table/internal/logger"
	"wheres-my-table/internal/menu"
	"wheres-my-table/internal/models"
	"wheres-my-table/internal/storage"
)

// recordingPublisher captures table events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.TableEvent
}

func (p *recordingPublisher) PublishTableEvent(_ context.Context, event *models.TableEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

func (p *recordingPublisher) byName(event string) []models.TableEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.TableEvent
	for _, e := range p.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(events EventPublisher) *Service {
	return NewService(menu.Default(), storage.NewTableRegistry(), storage.NewOrderStore(), events, logger.New("test"))
}

func TestPlaceOrderMovesEmptyTableToOrdering(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, 1, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, 1, order.TableID)

	status, err := svc.GetTable(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.TableOrdering, status.State)
	assert.Equal(t, 1, status.ActiveOrders)
}

func TestPlaceOrderUnknownMeal(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, 1, 42)
	assert.ErrorIs(t, err, models.ErrMealNotFound)

	// The failed placement left the table untouched.
	status, err := svc.GetTable(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.TableEmpty, status.State)
	assert.Zero(t, status.ActiveOrders)
}

func TestPlaceOrderOnCompleteTable(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, 1, 1)
	require.NoError(t, err)
	_, err = svc.AdvanceTable(ctx, 1, models.TableEating)
	require.NoError(t, err)
	_, err = svc.AdvanceTable(ctx, 1, models.TableComplete)
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx, 1, 1)
	assert.ErrorIs(t, err, models.ErrTableNotAcceptingOrders)

	// No order leaked in.
	orders, err := svc.ListOrders(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestPlaceManyOrders(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	const n = 10
	seen := make(map[models.OrderID]bool)
	for i := 0; i < n; i++ {
		order, err := svc.PlaceOrder(ctx, 3, i%6+1)
		require.NoError(t, err)
		assert.False(t, seen[order.ID], "order ids must be distinct")
		seen[order.ID] = true
	}

	orders, err := svc.ListOrders(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, orders, n)
}

func TestAdvanceToEatingRequiresOrders(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	// Drive the table to ORDERING, then make it empty of orders again.
	order, err := svc.PlaceOrder(ctx, 1, 1)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteOrder(ctx, order.ID))

	_, err = svc.AdvanceTable(ctx, 1, models.TableEating)
	var invalid *models.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.TableOrdering, invalid.From)
	assert.Equal(t, models.TableEating, invalid.To)

	// With an order in place the edge opens up.
	_, err = svc.PlaceOrder(ctx, 1, 2)
	require.NoError(t, err)
	status, err := svc.AdvanceTable(ctx, 1, models.TableEating)
	require.NoError(t, err)
	assert.Equal(t, models.TableEating, status.State)
}

func TestAdvanceRejectsNonAdjacent(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	_, err := svc.AdvanceTable(ctx, 1, models.TableComplete)
	var invalid *models.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.TableEmpty, invalid.From)
	assert.Equal(t, models.TableComplete, invalid.To)
}

func TestCompleteToEmptyClearsOrders(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.PlaceOrder(ctx, 2, i+1)
		require.NoError(t, err)
	}
	_, err := svc.AdvanceTable(ctx, 2, models.TableEating)
	require.NoError(t, err)
	_, err = svc.AdvanceTable(ctx, 2, models.TableComplete)
	require.NoError(t, err)

	status, err := svc.AdvanceTable(ctx, 2, models.TableEmpty)
	require.NoError(t, err)
	assert.Equal(t, models.TableEmpty, status.State)
	assert.Zero(t, status.ActiveOrders)

	orders, err := svc.ListOrders(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestDeleteOrderNotIdempotent(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, 1, 1)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))

	orders, err := svc.ListOrders(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = svc.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
	assert.ErrorIs(t, svc.DeleteOrder(ctx, order.ID), models.ErrOrderNotFound)
}

func TestConcurrentPlacementsOnEmptyTable(t *testing.T) {
	events := &recordingPublisher{}
	svc := newTestService(events)
	ctx := context.Background()

	const k = 32
	var wg sync.WaitGroup
	wg.Add(k)
	for i := 0; i < k; i++ {
		mealID := i%6 + 1
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(ctx, 5, mealID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	status, err := svc.GetTable(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, models.TableOrdering, status.State)
	assert.Equal(t, k, status.ActiveOrders)

	orders, err := svc.ListOrders(ctx, 5)
	require.NoError(t, err)
	require.Len(t, orders, k)
	seen := make(map[models.OrderID]bool)
	for _, order := range orders {
		assert.False(t, seen[order.ID], "duplicate order id under concurrency")
		seen[order.ID] = true
	}

	// Exactly one EMPTY -> ORDERING transition happened.
	stateChanges := events.byName(models.EventTableStateChanged)
	assert.Empty(t, stateChanges, "place_order does not emit state events")
	assert.Len(t, events.byName(models.EventOrderPlaced), k)
}

func TestEndToEndScenario(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	status, err := svc.GetTable(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, models.TableEmpty, status.State)

	order, err := svc.PlaceOrder(ctx, 1, 4)
	require.NoError(t, err)

	status, err = svc.GetTable(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.TableOrdering, status.State)

	orders, err := svc.ListOrders(ctx, 1)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	for _, next := range []models.TableState{models.TableEating, models.TableComplete, models.TableEmpty} {
		_, err = svc.AdvanceTable(ctx, 1, next)
		require.NoError(t, err, "advance to %s", next)
	}

	orders, err = svc.ListOrders(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestEmptyTableHasNoOrders(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	// Run several tables through full cycles concurrently, then check the
	// invariant: EMPTY implies no active orders.
	var wg sync.WaitGroup
	for tableID := 1; tableID <= 8; tableID++ {
		wg.Add(1)
		go func(id models.TableID) {
			defer wg.Done()
			for cycle := 0; cycle < 5; cycle++ {
				if _, err := svc.PlaceOrder(ctx, id, cycle%6+1); err != nil {
					t.Errorf("table %d: place: %v", id, err)
					return
				}
				for _, next := range []models.TableState{models.TableEating, models.TableComplete, models.TableEmpty} {
					if _, err := svc.AdvanceTable(ctx, id, next); err != nil {
						t.Errorf("table %d: advance to %s: %v", id, next, err)
						return
					}
				}
			}
		}(tableID)
	}
	wg.Wait()

	for tableID := 1; tableID <= 8; tableID++ {
		status, err := svc.GetTable(ctx, tableID)
		require.NoError(t, err)
		assert.Equal(t, models.TableEmpty, status.State)
		assert.Zero(t, status.ActiveOrders, "EMPTY table %d must have no orders", tableID)
	}
}

func TestEventsPublished(t *testing.T) {
	events := &recordingPublisher{}
	svc := newTestService(events)
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, 1, 1)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteOrder(ctx, order.ID))

	placed := events.byName(models.EventOrderPlaced)
	require.Len(t, placed, 1)
	assert.Equal(t, order.ID, placed[0].OrderID)
	assert.Equal(t, models.TableOrdering, placed[0].State)

	deleted := events.byName(models.EventOrderDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, order.ID, deleted[0].OrderID)
}

func TestServiceErrorsAreRecoverable(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	// A batch of bad requests followed by a good one; the service keeps
	// working after each failure.
	_, err := svc.GetOrder(ctx, "missing")
	assert.True(t, errors.Is(err, models.ErrOrderNotFound))

	_, err = svc.PlaceOrder(ctx, 1, 999)
	assert.True(t, errors.Is(err, models.ErrMealNotFound))

	_, err = svc.AdvanceTable(ctx, 1, models.TableEating)
	var invalid *models.InvalidTransitionError
	assert.True(t, errors.As(err, &invalid))

	_, err = svc.PlaceOrder(ctx, 1, 1)
	assert.NoError(t, err)
}
