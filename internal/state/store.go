package state

import (
	"sync"
	"sync/atomic"
)

// Listener observes every successful dispatch with the snapshots before and after.
type Listener func(prev, next Snapshot)

// Store is the single shared mutable cell of the application.
// Readers load the current snapshot without locking; writers swap in a
// whole new snapshot, so a reader never sees a partial update.
type Store struct {
	current atomic.Pointer[Snapshot]

	// dispatchMu orders writers so listeners see transitions in the order
	// they were applied.
	dispatchMu sync.Mutex

	mu        sync.RWMutex
	listeners []Listener
}

// NewStore creates a store holding the initial snapshot.
func NewStore() *Store {
	return NewStoreFrom(Initial())
}

// NewStoreFrom creates a store holding s.
func NewStoreFrom(s Snapshot) *Store {
	st := &Store{}
	st.current.Store(&s)
	return st
}

// Snapshot returns the current snapshot.
func (st *Store) Snapshot() Snapshot {
	return *st.current.Load()
}

// Dispatch reduces a against the current snapshot, swaps the result in and
// notifies listeners. Dispatches are serialized: each listener call's prev is
// the next of the call before it.
func (st *Store) Dispatch(a Action) Snapshot {
	st.dispatchMu.Lock()
	defer st.dispatchMu.Unlock()

	prev := *st.current.Load()
	next := Reduce(prev, a)
	st.current.Store(&next)
	st.notify(prev, next)
	return next
}

// Subscribe registers fn to run after every dispatch. Listeners run on the
// dispatching goroutine with the store's write lock held; they must not block
// and must not call Dispatch.
func (st *Store) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.listeners = append(st.listeners, fn)
}

func (st *Store) notify(prev, next Snapshot) {
	st.mu.RLock()
	listeners := st.listeners
	st.mu.RUnlock()

	for _, fn := range listeners {
		fn(prev, next)
	}
}
