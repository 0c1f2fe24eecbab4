package basket

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestAddInitialisesTotalsLazily(t *testing.T) {
	b := New()
	_, ok := b.Totals()
	require.False(t, ok, "totals must not exist before the first add")

	b.Add(Item{Name: "coffee", Price: 350, Tax: 35})

	got, ok := b.Totals()
	require.True(t, ok)
	want := Totals{Subtotal: 350, Tax: 35, TaxCategory: TaxCategoryGeneral}
	require.Empty(t, cmp.Diff(want, got))
	require.Equal(t, int64(385), got.Total())
}

func TestAddAccumulates(t *testing.T) {
	b := New()
	b.Add(Item{Price: 1000, Tax: 100})
	b.Add(Item{Price: 250, Tax: 25, Gratuity: 50})

	got, ok := b.Totals()
	require.True(t, ok)
	require.Equal(t, int64(1250), got.Subtotal)
	require.Equal(t, int64(125), got.Tax)
	require.Equal(t, int64(50), got.Gratuity)
	require.Equal(t, TaxCategoryGeneral, got.TaxCategory)
}

func TestRemoveLastIsLIFO(t *testing.T) {
	b := New()
	b.Add(Item{Name: "first", Price: 100, Tax: 10})
	b.Add(Item{Name: "second", Price: 200, Tax: 20})

	removed, ok := b.RemoveLast()
	require.True(t, ok)
	require.Equal(t, "second", removed.Name)

	got, _ := b.Totals()
	require.Equal(t, int64(100), got.Subtotal)
	require.Equal(t, int64(10), got.Tax)
	require.Equal(t, []Item{{Name: "first", Price: 100, Tax: 10}}, b.Items())
}

func TestRemoveFromEmptyIsNoOp(t *testing.T) {
	b := New()
	_, ok := b.RemoveLast()
	require.False(t, ok)
	_, hasTotals := b.Totals()
	require.False(t, hasTotals)

	// A second remove on the same empty basket must stay a no-op.
	_, ok = b.RemoveLast()
	require.False(t, ok)
}

func TestAddRemoveRoundTrip(t *testing.T) {
	b := New()
	items := []Item{
		{Price: 100, Tax: 10},
		{Price: 999, Tax: 0, Gratuity: 5},
		{Price: 1, Tax: 1},
		{Price: 42_00, Tax: 4_20},
	}
	for _, it := range items {
		b.Add(it)
	}
	for range items {
		_, ok := b.RemoveLast()
		require.True(t, ok)
	}

	require.True(t, b.Empty())
	got, ok := b.Totals()
	require.True(t, ok, "totals object survives, zeroed")
	require.Zero(t, got.Subtotal)
	require.Zero(t, got.Tax)
	require.Zero(t, got.Gratuity)
	require.Zero(t, got.Total())
}

func TestClearResetsToInitialState(t *testing.T) {
	b := New()
	b.Add(Item{Price: 100})
	b.Clear()

	require.True(t, b.Empty())
	_, ok := b.Totals()
	require.False(t, ok)
}

func TestItemsReturnsCopy(t *testing.T) {
	b := New()
	b.Add(Item{Name: "a", Price: 1})
	items := b.Items()
	items[0].Name = "mutated"
	require.Equal(t, "a", b.Items()[0].Name)
}
