// Package simulation exercises the table service as a pool of concurrent
// waiters serving a pool of tables over the HTTP API.
package simulation

import (
	"context"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"wheres-my-table/internal/logger"
	"wheres-my-table/internal/models"
)

// Action is what a waiter decides to do with a table this visit.
type Action int

const (
	// ActionWait leaves the table alone this iteration.
	ActionWait Action = iota
	// ActionPlaceOrder orders a random meal for the table.
	ActionPlaceOrder
	// ActionAdvance moves the table to the next lifecycle state.
	ActionAdvance
)

// Decide picks the action for a table in the given state. roll is a uniform
// draw from [0, 1); injecting it keeps the policy deterministic under test.
func Decide(state models.TableState, roll float64) Action {
	switch state {
	case models.TableEmpty:
		if roll < 0.3 {
			return ActionPlaceOrder
		}
		return ActionWait
	case models.TableOrdering:
		if roll < 0.5 {
			return ActionPlaceOrder
		}
		return ActionAdvance
	case models.TableEating:
		if roll < 0.3 {
			return ActionAdvance
		}
		return ActionWait
	case models.TableComplete:
		return ActionAdvance
	}
	return ActionWait
}

// Config holds the simulation parameters.
type Config struct {
	Tables     int
	Waiters    int
	Iterations int
	Seed       int64
}

// Simulation runs waiter loops against the table service.
type Simulation struct {
	config Config
	client *Client
	pool   *Pool
	meals  []models.Meal
	logger *logger.Logger
}

// New creates a simulation. The meal catalog is fetched from the server so
// the simulation only ever sees what the API exposes.
func New(ctx context.Context, config Config, client *Client, log *logger.Logger) (*Simulation, error) {
	meals, err := client.Meals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch meal catalog: %w", err)
	}
	if len(meals) == 0 {
		return nil, fmt.Errorf("meal catalog is empty")
	}

	return &Simulation{
		config: config,
		client: client,
		pool:   NewPool(config.Tables),
		meals:  meals,
		logger: log,
	}, nil
}

// Run starts the waiters and blocks until each has finished its iterations
// or the context is cancelled. Cancellation stops new pool acquisitions and
// lets in-flight iterations drain.
func (s *Simulation) Run(ctx context.Context) error {
	s.logger.Info("simulation_started", "Simulation starting", "", map[string]any{
		"tables":     s.config.Tables,
		"waiters":    s.config.Waiters,
		"iterations": s.config.Iterations,
	})

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.config.Waiters; i++ {
		waiterID := i + 1
		rng := rand.New(rand.NewSource(s.config.Seed + int64(waiterID)))
		g.Go(func() error {
			return s.runWaiter(ctx, waiterID, rng)
		})
	}
	return g.Wait()
}

// runWaiter is one waiter loop: acquire a table, act on it, release it.
func (s *Simulation) runWaiter(ctx context.Context, waiterID int, rng *rand.Rand) error {
	for i := 0; i < s.config.Iterations; i++ {
		tableID, err := s.pool.Acquire(ctx)
		if err != nil {
			// Context cancelled while waiting, shut down quietly.
			return nil
		}

		err = s.serve(ctx, waiterID, tableID, rng)
		s.pool.Release(tableID)

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// Action failures are not fatal and are not retried; log,
			// release the table and move on.
			s.logger.Error("serve_failed", "Waiter action failed", "", err, map[string]any{
				"waiter_id": waiterID,
				"table_id":  tableID,
			})
		}
	}
	return nil
}

// serve consults the table's state through the API and applies one action.
func (s *Simulation) serve(ctx context.Context, waiterID int, tableID models.TableID, rng *rand.Rand) error {
	status, err := s.client.Table(ctx, tableID)
	if err != nil {
		return err
	}

	switch Decide(status.State, rng.Float64()) {
	case ActionPlaceOrder:
		meal := s.meals[rng.Intn(len(s.meals))]
		order, err := s.client.PlaceOrder(ctx, tableID, meal.ID)
		if err != nil {
			return err
		}
		s.logger.Debug("order_taken", "Waiter took an order", "", map[string]any{
			"waiter_id": waiterID,
			"table_id":  tableID,
			"meal":      meal.Name,
			"order_id":  order.ID,
		})
	case ActionAdvance:
		next := status.State.Next()
		if _, err := s.client.AdvanceTable(ctx, tableID, next); err != nil {
			return err
		}
		s.logger.Debug("table_advanced", "Waiter advanced a table", "", map[string]any{
			"waiter_id": waiterID,
			"table_id":  tableID,
			"state":     next,
		})
	case ActionWait:
	}
	return nil
}
