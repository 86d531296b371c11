package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/velvetshop/storefront/internal/cart"
	"github.com/velvetshop/storefront/internal/domain"
	"github.com/velvetshop/storefront/internal/event"
	"github.com/velvetshop/storefront/internal/storage"
	apperrors "github.com/velvetshop/storefront/pkg/errors"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single cart row.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct rows allowed in a cart.
	MaxItemsPerCart = 50
	// MaxPriceCents is the maximum unit price in cents (100,000.00) allowed per item.
	MaxPriceCents = 100_000_00
)

// Session stores are an in-memory cache over the durable slot. The session ID
// is client-supplied, so the set of open stores is capped and idle ones are
// closed; an evicted session rehydrates from the slot on its next mutation.
const (
	maxOpenStores = 1024
	storeIdleTTL  = 30 * time.Minute
)

// AddItemInput holds the parameters for adding an item to the cart.
type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Name      string `json:"name" validate:"required"`
	Thumbnail string `json:"thumbnail"`
	Price     int64  `json:"price" validate:"gte=0"`
	Quantity  int    `json:"quantity"`
}

// UpdateQuantityInput holds the parameters for updating an item quantity.
type UpdateQuantityInput struct {
	Color    string `json:"color"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// CartService implements the business logic for cart operations. Each session
// that mutates its cart gets its own store, hydrated from the durable slot on
// first use; stores idle past the TTL, or beyond the open-store cap, are
// flushed and closed, and the slot remains the source of truth for them.
type CartService struct {
	slot     storage.Slot
	producer *event.Producer
	logger   *slog.Logger

	mu     sync.Mutex
	stores map[string]*sessionStore

	maxOpen int
	idleTTL time.Duration
	now     func() time.Time
}

// sessionStore pairs an open store with the time it was last touched, for
// idle eviction.
type sessionStore struct {
	store    *cart.Store
	lastUsed time.Time
}

// NewCartService creates a new cart service backed by the given slot.
func NewCartService(slot storage.Slot, producer *event.Producer, logger *slog.Logger) *CartService {
	return &CartService{
		slot:     slot,
		producer: producer,
		logger:   logger,
		stores:   make(map[string]*sessionStore),
		maxOpen:  maxOpenStores,
		idleTTL:  storeIdleTTL,
		now:      time.Now,
	}
}

func (s *CartService) slotKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", cart.DefaultSlotKey, sessionID)
}

// storeFor returns the session's store, opening and hydrating it on first
// use. Open blocks until the persisted snapshot has been loaded, so a
// mutation issued right after a restart lands on the restored state. Opening
// a new store first evicts idle and over-cap ones.
func (s *CartService) storeFor(ctx context.Context, sessionID string) *cart.Store {
	s.mu.Lock()
	if e, ok := s.stores[sessionID]; ok {
		e.lastUsed = s.now()
		st := e.store
		s.mu.Unlock()
		return st
	}

	victims := s.evictLocked()

	st := cart.Open(ctx, cart.NewAdapter(s.slot, s.slotKey(sessionID), s.logger), s.logger)
	s.stores[sessionID] = &sessionStore{store: st, lastUsed: s.now()}
	s.mu.Unlock()

	s.closeStores(ctx, victims)
	return st
}

// evictLocked removes stores idle past the TTL, then the coldest ones until
// an open slot is free. The caller must hold s.mu and close the returned
// stores after releasing it.
func (s *CartService) evictLocked() []*cart.Store {
	var victims []*cart.Store

	cutoff := s.now().Add(-s.idleTTL)
	for id, e := range s.stores {
		if e.lastUsed.Before(cutoff) {
			victims = append(victims, e.store)
			delete(s.stores, id)
		}
	}

	for len(s.stores) >= s.maxOpen {
		var coldestID string
		var coldest *sessionStore
		for id, e := range s.stores {
			if coldest == nil || e.lastUsed.Before(coldest.lastUsed) {
				coldestID, coldest = id, e
			}
		}
		victims = append(victims, coldest.store)
		delete(s.stores, coldestID)
	}

	return victims
}

// closeStores flushes and closes evicted stores. Their carts stay in the
// durable slot; a returning session rehydrates from it.
func (s *CartService) closeStores(ctx context.Context, stores []*cart.Store) {
	for _, st := range stores {
		if err := st.Close(ctx); err != nil {
			s.logger.WarnContext(ctx, "evicted cart store close failed",
				slog.String("error", err.Error()),
			)
		}
	}
}

// GetCart returns the current cart snapshot for a session. A session that
// never added anything gets an empty cart. Reads go through an already open
// store when there is one, and straight to the slot otherwise; a read alone
// never opens a store.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (domain.CartState, error) {
	if sessionID == "" {
		return domain.CartState{}, apperrors.InvalidInput("session id is required")
	}

	s.mu.Lock()
	if e, ok := s.stores[sessionID]; ok {
		e.lastUsed = s.now()
		st := e.store
		s.mu.Unlock()
		return st.Snapshot(), nil
	}
	s.mu.Unlock()

	return cart.NewAdapter(s.slot, s.slotKey(sessionID), s.logger).Load(ctx), nil
}

// AddItem adds an item to the session's cart. An existing row with the same
// product and variant accumulates quantity and keeps its original price; a
// non-positive quantity is treated as one.
func (s *CartService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (domain.CartState, error) {
	if sessionID == "" {
		return domain.CartState{}, apperrors.InvalidInput("session id is required")
	}
	if input.ProductID == "" {
		return domain.CartState{}, apperrors.InvalidInput("product id is required")
	}
	if input.Price < 0 {
		return domain.CartState{}, apperrors.InvalidInput("price must not be negative")
	}
	if input.Price > MaxPriceCents {
		return domain.CartState{}, apperrors.InvalidInput(fmt.Sprintf("price must not exceed %d cents", MaxPriceCents))
	}
	if input.Quantity > MaxQuantityPerItem {
		return domain.CartState{}, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	state, ok := s.storeFor(ctx, sessionID).AddCapped(domain.LineItem{
		ProductID: input.ProductID,
		Color:     input.Color,
		Size:      input.Size,
		Name:      input.Name,
		Thumbnail: input.Thumbnail,
		UnitPrice: input.Price,
		Quantity:  input.Quantity,
	}, MaxItemsPerCart)
	if !ok {
		return domain.CartState{}, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
	}

	s.publishUpdated(ctx, sessionID, state)

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("session_id", sessionID),
		slog.String("product_id", input.ProductID),
		slog.Int("quantity", input.Quantity),
	)

	return state, nil
}

// UpdateItemQuantity sets the quantity of a cart row. Zero removes the row;
// a key that is not in the cart leaves the state untouched.
func (s *CartService) UpdateItemQuantity(ctx context.Context, sessionID, productID string, v domain.Variant, quantity int) (domain.CartState, error) {
	if sessionID == "" {
		return domain.CartState{}, apperrors.InvalidInput("session id is required")
	}
	if productID == "" {
		return domain.CartState{}, apperrors.InvalidInput("product id is required")
	}
	if quantity < 0 {
		return domain.CartState{}, apperrors.InvalidInput("quantity must not be negative")
	}
	if quantity > MaxQuantityPerItem {
		return domain.CartState{}, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	state := s.storeFor(ctx, sessionID).SetQuantity(productID, v, quantity)

	s.publishUpdated(ctx, sessionID, state)

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("session_id", sessionID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return state, nil
}

// RemoveItem removes a row from the cart. Removing a row that is not there
// is not an error.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string, v domain.Variant) (domain.CartState, error) {
	if sessionID == "" {
		return domain.CartState{}, apperrors.InvalidInput("session id is required")
	}
	if productID == "" {
		return domain.CartState{}, apperrors.InvalidInput("product id is required")
	}

	state := s.storeFor(ctx, sessionID).Remove(productID, v)

	s.publishUpdated(ctx, sessionID, state)

	s.logger.InfoContext(ctx, "cart item removed",
		slog.String("session_id", sessionID),
		slog.String("product_id", productID),
	)

	return state, nil
}

// ClearCart empties the session's cart.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) (domain.CartState, error) {
	if sessionID == "" {
		return domain.CartState{}, apperrors.InvalidInput("session id is required")
	}

	state := s.storeFor(ctx, sessionID).Clear()

	if s.producer != nil {
		if err := s.producer.PublishCartCleared(ctx, sessionID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("session_id", sessionID),
	)

	return state, nil
}

// publishUpdated emits a cart.updated event. Event delivery failures are
// logged and do not fail the cart operation.
func (s *CartService) publishUpdated(ctx context.Context, sessionID string, state domain.CartState) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishCartUpdated(ctx, sessionID, state); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}

// Close flushes and shuts down every open session store.
func (s *CartService) Close(ctx context.Context) error {
	s.mu.Lock()
	stores := make([]*cart.Store, 0, len(s.stores))
	for _, e := range s.stores {
		stores = append(stores, e.store)
	}
	s.stores = make(map[string]*sessionStore)
	s.mu.Unlock()

	var firstErr error
	for _, st := range stores {
		if err := st.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
