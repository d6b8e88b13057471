// Package txn provides an opaque transaction handle: an id plus an
// atomic lifecycle state. internal/execution does not take one.
package txn

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// State is a transaction's lifecycle state.
type State int32

const (
	StateActive State = iota
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Transaction is opaque to callers: they pass it through to mutating
// calls and otherwise only read its id/state. State is an atomic
// counter, same idiom as internal/lock.RefCount, so a concurrent
// reader (e.g. an admin stats poll) never races a Commit/Abort.
type Transaction struct {
	id    uuid.UUID
	state atomic.Int32
}

// Begin starts a new active transaction with a fresh random id.
func Begin() *Transaction {
	t := &Transaction{id: uuid.New()}
	t.state.Store(int32(StateActive))
	return t
}

func (t *Transaction) ID() uuid.UUID { return t.id }

func (t *Transaction) State() State { return State(t.state.Load()) }

// Commit transitions Active -> Committed. Reports whether it made the
// transition (false if the transaction was already committed/aborted).
func (t *Transaction) Commit() bool {
	return t.state.CompareAndSwap(int32(StateActive), int32(StateCommitted))
}

// Abort transitions Active -> Aborted.
func (t *Transaction) Abort() bool {
	return t.state.CompareAndSwap(int32(StateActive), int32(StateAborted))
}
