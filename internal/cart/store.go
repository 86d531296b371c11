// Package cart holds the stateful shopping-cart store: an in-memory snapshot
// mutated through the pure transitions in the domain package, persisted to a
// durable slot by a single background writer, and hydrated from that slot on
// open.
package cart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/velvetshop/storefront/internal/domain"
)

// saveTimeout bounds each snapshot write so a hung medium cannot stall the
// writer forever.
const saveTimeout = 5 * time.Second

// Store owns one cart. Mutations apply a pure transition under a lock and
// hand the resulting snapshot to a single write worker, so slot writes are
// applied in mutation order and a stale snapshot can never overwrite a newer
// one. A failed write is logged and dropped; the in-memory state stays
// authoritative for the session.
type Store struct {
	mu      sync.Mutex
	state   domain.CartState
	pending *domain.CartState

	adapter *Adapter
	logger  *slog.Logger

	notify    chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewStore creates a store that starts empty and never touches durable
// storage. This is the non-interactive rendering path: there is no medium to
// hydrate from and nothing to persist to.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		state:  domain.EmptyCart(),
		logger: logger,
	}
}

// Open hydrates a store from the adapter's slot and starts the write worker.
// Hydration completes before the store is returned, so no mutation can ever
// be applied to the pre-hydration empty placeholder.
func Open(ctx context.Context, adapter *Adapter, logger *slog.Logger) *Store {
	s := &Store{
		state:   adapter.Load(ctx),
		adapter: adapter,
		logger:  logger,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

// Snapshot returns the current cart state.
func (s *Store) Snapshot() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Add merges an item into the cart and returns the new snapshot.
func (s *Store) Add(item domain.LineItem) domain.CartState {
	state, _ := s.AddCapped(item, 0)
	return state
}

// AddCapped merges an item like Add, unless the item would create a new row
// in a cart that already holds maxItems rows (zero means no cap). The check
// and the merge run under the same lock, so concurrent adds cannot overshoot
// the cap. The second return value reports whether the add was applied.
func (s *Store) AddCapped(item domain.LineItem, maxItems int) (domain.CartState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if maxItems > 0 && len(s.state.Items) >= maxItems &&
		s.state.FindItemIndex(item.ProductID, item.Variant()) < 0 {
		return s.state, false
	}

	next, changed := s.state.Add(item)
	if changed {
		s.state = next
		s.scheduleWriteLocked()
	}
	return s.state, true
}

// SetQuantity replaces an item's quantity (zero removes it) and returns the
// new snapshot.
func (s *Store) SetQuantity(productID string, v domain.Variant, quantity int) domain.CartState {
	return s.apply(func(state domain.CartState) (domain.CartState, bool) {
		return state.SetQuantity(productID, v, quantity)
	})
}

// Remove deletes an item and returns the new snapshot.
func (s *Store) Remove(productID string, v domain.Variant) domain.CartState {
	return s.apply(func(state domain.CartState) (domain.CartState, bool) {
		return state.Remove(productID, v)
	})
}

// Clear empties the cart and returns the new snapshot.
func (s *Store) Clear() domain.CartState {
	return s.apply(func(state domain.CartState) (domain.CartState, bool) {
		return state.Clear()
	})
}

// apply runs one transition. Only a transition that actually changed the
// state schedules a persistence write; no-ops leave the slot untouched.
func (s *Store) apply(transition func(domain.CartState) (domain.CartState, bool)) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := transition(s.state)
	if !changed {
		return s.state
	}

	s.state = next
	s.scheduleWriteLocked()
	return next
}

// scheduleWriteLocked records the latest snapshot for the write worker.
// Pending snapshots coalesce: only the newest one is ever written.
func (s *Store) scheduleWriteLocked() {
	if s.adapter == nil {
		return
	}

	// Once Close has fired, the worker's final flush may already have run;
	// a pending snapshot set now would never be written.
	select {
	case <-s.done:
		s.logger.Warn("cart snapshot dropped, store is closed")
		return
	default:
	}

	snap := s.state
	s.pending = &snap

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Store) writeLoop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.notify:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

// flush writes the pending snapshot, if any. Write failures are logged and
// dropped; the next mutation will schedule a fresh snapshot anyway.
func (s *Store) flush() {
	s.mu.Lock()
	snap := s.pending
	s.pending = nil
	s.mu.Unlock()

	if snap == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := s.adapter.Save(ctx, *snap); err != nil {
		s.logger.Warn("cart snapshot write failed, keeping in-memory state",
			slog.String("error", err.Error()),
		)
	}
}

// Close stops the write worker after flushing any pending snapshot. It is
// safe to call more than once.
func (s *Store) Close(ctx context.Context) error {
	if s.adapter == nil {
		return nil
	}

	s.closeOnce.Do(func() { close(s.done) })

	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
