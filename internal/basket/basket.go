// Package basket holds the line-item aggregate attached to an active
// session. Totals are always the componentwise sum of the current
// items; removal is strictly LIFO.
package basket

// TaxCategoryGeneral is the tax category code the terminal host expects
// on every totals mutation.
const TaxCategoryGeneral = 108

// Item is one merchandise line. Amounts are in minor currency units.
type Item struct {
	Name     string
	Price    int64
	Tax      int64
	Gratuity int64
}

// Totals is the running aggregate over the current items. Amounts are
// in minor currency units.
type Totals struct {
	Subtotal    int64
	Tax         int64
	Gratuity    int64
	Discount    int64
	Surcharge   int64
	Rounding    int64
	TaxCategory int
}

// Total returns the payable amount.
func (t Totals) Total() int64 {
	return t.Subtotal + t.Tax + t.Gratuity + t.Surcharge + t.Rounding - t.Discount
}

// Basket is an ordered sequence of items plus lazily created totals.
// Not safe for concurrent use; the orchestrator serialises access.
type Basket struct {
	items  []Item
	totals *Totals
}

// New returns an empty basket with no totals yet.
func New() *Basket {
	return &Basket{}
}

// Add appends an item and folds its amounts into totals. The totals
// aggregate is created on the first add.
func (b *Basket) Add(it Item) {
	if b.totals == nil {
		b.totals = &Totals{TaxCategory: TaxCategoryGeneral}
	}
	b.totals.Subtotal += it.Price
	b.totals.Tax += it.Tax
	b.totals.Gratuity += it.Gratuity
	b.totals.TaxCategory = TaxCategoryGeneral
	b.items = append(b.items, it)
}

// RemoveLast removes the most recently added item and subtracts exactly
// its contribution from totals. Removing from an empty basket, or
// before totals exist, is a no-op.
func (b *Basket) RemoveLast() (Item, bool) {
	if len(b.items) == 0 || b.totals == nil {
		return Item{}, false
	}
	last := b.items[len(b.items)-1]
	b.items = b.items[:len(b.items)-1]
	b.totals.Subtotal -= last.Price
	b.totals.Tax -= last.Tax
	b.totals.Gratuity -= last.Gratuity
	return last, true
}

// Clear drops all items and the totals aggregate, returning the basket
// to its initial state. Used when a session ends.
func (b *Basket) Clear() {
	b.items = nil
	b.totals = nil
}

// Len returns the number of items.
func (b *Basket) Len() int {
	return len(b.items)
}

// Empty reports whether the basket has no items.
func (b *Basket) Empty() bool {
	return len(b.items) == 0
}

// Items returns a copy of the current items in insertion order.
func (b *Basket) Items() []Item {
	out := make([]Item, len(b.items))
	copy(out, b.items)
	return out
}

// Totals returns the current aggregate. ok is false until the first
// add has created it.
func (b *Basket) Totals() (Totals, bool) {
	if b.totals == nil {
		return Totals{}, false
	}
	return *b.totals, true
}
