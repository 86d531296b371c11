package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/velvetshop/storefront/internal/domain"
	"github.com/velvetshop/storefront/internal/storage"
)

// DefaultSlotKey is the fixed storage key the cart snapshot lives under.
// Multi-session deployments suffix it with the session ID.
const DefaultSlotKey = "shoppingcart"

// persistedCart is the serialized shape written to the slot.
type persistedCart struct {
	Items []domain.LineItem `json:"cart_items"`
}

// Adapter serializes cart snapshots into a storage slot and back. Load never
// fails: an absent or corrupt snapshot degrades to an empty cart, because
// startup must not depend on the storage medium.
type Adapter struct {
	slot   storage.Slot
	key    string
	logger *slog.Logger
}

// NewAdapter creates an adapter bound to one slot key.
func NewAdapter(slot storage.Slot, key string, logger *slog.Logger) *Adapter {
	if key == "" {
		key = DefaultSlotKey
	}
	return &Adapter{slot: slot, key: key, logger: logger}
}

// Save writes the snapshot to the slot.
func (a *Adapter) Save(ctx context.Context, state domain.CartState) error {
	data, err := json.Marshal(persistedCart{Items: state.Items})
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	if err := a.slot.Write(ctx, a.key, string(data)); err != nil {
		return fmt.Errorf("write cart snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot back. An absent key, an unreadable medium, or a
// snapshot that fails to parse all yield an empty cart.
func (a *Adapter) Load(ctx context.Context) domain.CartState {
	raw, err := a.slot.Read(ctx, a.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.logger.WarnContext(ctx, "cart snapshot unreadable, starting empty",
				slog.String("key", a.key),
				slog.String("error", err.Error()),
			)
		}
		return domain.EmptyCart()
	}

	var p persistedCart
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		a.logger.WarnContext(ctx, "corrupt cart snapshot discarded",
			slog.String("key", a.key),
			slog.String("error", err.Error()),
		)
		return domain.EmptyCart()
	}

	// A snapshot written by an older or buggy client may carry rows that
	// violate the quantity invariant; drop them rather than let them into
	// the store.
	items := make([]domain.LineItem, 0, len(p.Items))
	for _, it := range p.Items {
		if it.ProductID == "" || it.Quantity < 1 {
			continue
		}
		items = append(items, it)
	}

	return domain.CartState{Items: items}
}
