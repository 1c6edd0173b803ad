package storage

import (
	"sync"

	"wheres-my-table/internal/models"
)

// TableRegistry holds per-table lifecycle state. Tables are created
// implicitly on first reference, starting EMPTY, and are never destroyed.
//
// Lock hands out the table's own mutex so that the service layer can run its
// whole "read state, decide, mutate state and orders" sequence atomically
// against both the simulation and external API callers. Only one table lock
// is ever held at a time, so there is no lock ordering to get wrong.
type TableRegistry struct {
	mu     sync.Mutex
	tables map[models.TableID]*tableEntry
}

type tableEntry struct {
	mu    sync.Mutex
	id    models.TableID
	state models.TableState
}

// NewTableRegistry creates an empty registry.
func NewTableRegistry() *TableRegistry {
	return &TableRegistry{tables: make(map[models.TableID]*tableEntry)}
}

// Lock returns the table locked for exclusive use. The caller must call
// Unlock on the returned handle when its check-then-act sequence is done.
func (r *TableRegistry) Lock(id models.TableID) *LockedTable {
	r.mu.Lock()
	entry, ok := r.tables[id]
	if !ok {
		entry = &tableEntry{id: id, state: models.TableEmpty}
		r.tables[id] = entry
	}
	r.mu.Unlock()

	entry.mu.Lock()
	return &LockedTable{entry: entry}
}

// LockedTable is a table held under its per-table lock.
type LockedTable struct {
	entry *tableEntry
}

// Unlock releases the table.
func (t *LockedTable) Unlock() {
	t.entry.mu.Unlock()
}

// State returns the table's current lifecycle state.
func (t *LockedTable) State() models.TableState {
	return t.entry.state
}

// Advance moves the table to next. Only the immediate successor in the
// forward cycle is legal; anything else fails with InvalidTransitionError
// and leaves the state untouched. The registry validates the edge only, when
// to advance is the caller's decision.
func (t *LockedTable) Advance(next models.TableState) error {
	if t.entry.state.Next() != next {
		return &models.InvalidTransitionError{
			Table: t.entry.id,
			From:  t.entry.state,
			To:    next,
		}
	}
	t.entry.state = next
	return nil
}
