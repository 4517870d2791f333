package reconcile

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/Tiliavir/timesheet/internal/model"
)

// State is the lifecycle position of the latest mutation on a target.
type State int

const (
	Idle State = iota
	Pending
	Applied
	RolledBack
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Applied:
		return "applied"
	case RolledBack:
		return "rolled-back"
	default:
		return "idle"
	}
}

// Target identifies what a mutation acts on. EntryID is empty for adds and
// Day is empty for whole-row targets used by bulk delete.
type Target struct {
	RowKey  string
	Day     model.DateKey
	EntryID string
}

type cellKey struct {
	row string
	day model.DateKey
}

func (t Target) cell() cellKey {
	return cellKey{row: t.RowKey, day: t.Day}
}

// State returns the state of the latest mutation on t.
func (r *Reconciler) State(t Target) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[t]
}

// Discard abandons a pending mutation on t: when its response arrives it is
// dropped instead of applied. It reports whether a pending mutation was found.
func (r *Reconciler) Discard(t Target) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states[t] != Pending {
		return false
	}
	r.discarded[t] = true
	return true
}

// cellLock serializes mutations on one cell. users counts the mutations
// holding or waiting for it; the lock is dropped when it reaches zero.
type cellLock struct {
	sem   *semaphore.Weighted
	users int
}

// begin waits until no other mutation runs on t's cell, then marks t pending.
// The returned func releases the cell.
func (r *Reconciler) begin(ctx context.Context, t Target) (func(), error) {
	key := t.cell()
	r.mu.Lock()
	cl, ok := r.cells[key]
	if !ok {
		cl = &cellLock{sem: semaphore.NewWeighted(1)}
		r.cells[key] = cl
	}
	cl.users++
	r.mu.Unlock()

	if err := cl.sem.Acquire(ctx, 1); err != nil {
		r.mu.Lock()
		r.leave(key, cl)
		r.mu.Unlock()
		return nil, err
	}

	r.mu.Lock()
	r.states[t] = Pending
	delete(r.discarded, t)
	r.mu.Unlock()
	return func() {
		cl.sem.Release(1)
		r.mu.Lock()
		r.leave(key, cl)
		r.mu.Unlock()
	}, nil
}

// leave drops one user of cl. Callers hold r.mu.
func (r *Reconciler) leave(key cellKey, cl *cellLock) {
	cl.users--
	if cl.users == 0 {
		delete(r.cells, key)
	}
}

// forgetSettled drops the state of every target that has no mutation in
// flight. Callers hold r.mu.
func (r *Reconciler) forgetSettled() {
	for t, s := range r.states {
		if s != Pending {
			delete(r.states, t)
			delete(r.discarded, t)
		}
	}
}

// settle records the outcome of t. Callers hold r.mu.
func (r *Reconciler) settle(t Target, s State) {
	r.states[t] = s
	delete(r.discarded, t)
}
