package simulation

import (
	"context"

	"wheres-my-table/internal/models"
)

// Pool is the bounded set of table ids available for waiters to check out.
// It is a channel sized exactly to the table count, so a table id is held by
// at most one waiter at a time and acquisition blocking is the only
// coordination primitive the waiters need.
type Pool struct {
	ids chan models.TableID
}

// NewPool creates a pool pre-filled with table ids 1..n.
func NewPool(n int) *Pool {
	ids := make(chan models.TableID, n)
	for id := 1; id <= n; id++ {
		ids <- id
	}
	return &Pool{ids: ids}
}

// Acquire checks a table id out, blocking until one is available or the
// context is done.
func (p *Pool) Acquire(ctx context.Context) (models.TableID, error) {
	// Cancellation wins over an available id, so shutdown is prompt even
	// while the pool is non-empty.
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	select {
	case id := <-p.ids:
		return id, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Release returns a table id to the pool. The pool never holds more ids than
// its capacity, so Release cannot block.
func (p *Pool) Release(id models.TableID) {
	p.ids <- id
}

// Size returns the number of ids currently checked in.
func (p *Pool) Size() int {
	return len(p.ids)
}
