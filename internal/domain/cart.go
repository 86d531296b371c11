package domain

// LineItem is one row in the cart: a product/variant pair, its quantity, and
// the display data cached when the item was first added so a disconnected
// client can still render the cart.
type LineItem struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// Variant is the optional color/size pair that, together with the product ID,
// identifies a line item. Two adds with the same triple coalesce into one row.
type Variant struct {
	Color string
	Size  string
}

// Variant returns the identity variant of the line item.
func (it LineItem) Variant() Variant {
	return Variant{Color: it.Color, Size: it.Size}
}

// CartState is an immutable snapshot of the shopping cart. Items keep
// insertion order. Transitions return a new snapshot and never touch the
// receiver, so a caller holding a stale reference can never observe a
// half-updated collection.
type CartState struct {
	Items []LineItem `json:"items"`
}

// EmptyCart returns a cart with no items.
func EmptyCart() CartState {
	return CartState{Items: []LineItem{}}
}

// ItemCount returns the total number of units across all line items.
func (s CartState) ItemCount() int {
	var count int
	for _, it := range s.Items {
		count += it.Quantity
	}
	return count
}

// TotalAmount returns the total price of the cart in cents, using the unit
// price locked at the time each item was added.
func (s CartState) TotalAmount() int64 {
	var total int64
	for _, it := range s.Items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total
}

// FindItemIndex returns the index of the line item matching the identity
// triple, or -1 if no such item exists.
func (s CartState) FindItemIndex(productID string, v Variant) int {
	for i := range s.Items {
		if s.Items[i].ProductID == productID && s.Items[i].Color == v.Color && s.Items[i].Size == v.Size {
			return i
		}
	}
	return -1
}

// Add merges the item into the cart. An item with the same identity triple
// accumulates quantity on the existing row; the unit price and display data
// of the first add win, which locks the price at the moment the item entered
// the cart. A new identity is appended at the end.
//
// A non-positive quantity is clamped to 1. The storefront has always treated
// "add nothing" as "add one" and callers rely on it.
func (s CartState) Add(item LineItem) (CartState, bool) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	if i := s.FindItemIndex(item.ProductID, item.Variant()); i >= 0 {
		items := make([]LineItem, len(s.Items))
		copy(items, s.Items)
		items[i].Quantity += item.Quantity
		return CartState{Items: items}, true
	}

	items := make([]LineItem, len(s.Items), len(s.Items)+1)
	copy(items, s.Items)
	items = append(items, item)
	return CartState{Items: items}, true
}

// SetQuantity replaces the quantity of the matching line item. A quantity of
// zero or less removes the row entirely; an absent identity is a no-op. The
// second return value reports whether the state actually changed.
func (s CartState) SetQuantity(productID string, v Variant, quantity int) (CartState, bool) {
	i := s.FindItemIndex(productID, v)
	if i < 0 {
		return s, false
	}
	if quantity <= 0 {
		return s.Remove(productID, v)
	}
	if s.Items[i].Quantity == quantity {
		return s, false
	}

	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	items[i].Quantity = quantity
	return CartState{Items: items}, true
}

// Remove deletes the matching line item. Removing an absent identity is a
// no-op, so removal is idempotent.
func (s CartState) Remove(productID string, v Variant) (CartState, bool) {
	i := s.FindItemIndex(productID, v)
	if i < 0 {
		return s, false
	}

	items := make([]LineItem, 0, len(s.Items)-1)
	items = append(items, s.Items[:i]...)
	items = append(items, s.Items[i+1:]...)
	return CartState{Items: items}, true
}

// Clear empties the cart. Clearing an already empty cart reports no change.
func (s CartState) Clear() (CartState, bool) {
	if len(s.Items) == 0 {
		return s, false
	}
	return EmptyCart(), true
}
