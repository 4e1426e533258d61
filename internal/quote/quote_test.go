package quote

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietbiz/crm-api/internal/domain"
)

var errProductMissing = errors.New("product not found")

type fakeCatalog struct {
	products map[uuid.UUID]ProductSnapshot
}

func (f *fakeCatalog) LookupProduct(_ context.Context, id uuid.UUID) (*ProductSnapshot, error) {
	snap, ok := f.products[id]
	if !ok {
		return nil, errProductMissing
	}
	return &snap, nil
}

func newFakeCatalog(snaps ...ProductSnapshot) *fakeCatalog {
	f := &fakeCatalog{products: make(map[uuid.UUID]ProductSnapshot)}
	for _, s := range snaps {
		f.products[s.ID] = s
	}
	return f
}

func crmSnapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:           uuid.New(),
		Name:         "CRM Pro License",
		Category:     domain.ProductCategorySoftware,
		BillingCycle: domain.BillingYearly,
		UnitPrice:    12_000_000,
	}
}

func TestBuilderAddCatalogLine(t *testing.T) {
	snap := crmSnapshot()
	b := NewBuilder(newFakeCatalog(snap))

	idx, err := b.AddCatalogLine(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	line, err := b.Line(idx)
	require.NoError(t, err)
	assert.Equal(t, domain.LineItemSourceCatalog, line.Source)
	assert.Equal(t, snap.Name, line.Name)
	assert.Equal(t, snap.UnitPrice, line.UnitPrice)
	assert.Equal(t, 1, line.Quantity)
	require.NotNil(t, line.ProductID)
	assert.Equal(t, snap.ID, *line.ProductID)
}

func TestBuilderAddCatalogLineUnknownProduct(t *testing.T) {
	b := NewBuilder(newFakeCatalog())

	_, err := b.AddCatalogLine(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, errProductMissing)
	assert.Equal(t, 0, b.Len())
}

func TestBuilderTotal(t *testing.T) {
	snap := crmSnapshot()
	b := NewBuilder(newFakeCatalog(snap))

	idx, err := b.AddCatalogLine(context.Background(), snap.ID)
	require.NoError(t, err)
	require.NoError(t, b.SetQuantity(idx, 5))
	require.NoError(t, b.SetUnitPrice(idx, 50_000))

	custom := b.AddCustomLine()
	require.NoError(t, b.SetName(custom, "Onsite installation"))
	require.NoError(t, b.SetUnitPrice(custom, 100))

	// 5*50000 + 1*100
	assert.Equal(t, int64(250_100), b.Total())

	require.NoError(t, b.Remove(custom))
	assert.Equal(t, int64(250_000), b.Total())
}

func TestBuilderSetQuantity(t *testing.T) {
	b := NewBuilder(newFakeCatalog())
	idx := b.AddCustomLine()
	require.NoError(t, b.SetQuantity(idx, 3))

	t.Run("rejects zero and keeps prior value", func(t *testing.T) {
		err := b.SetQuantity(idx, 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		line, _ := b.Line(idx)
		assert.Equal(t, 3, line.Quantity)
	})

	t.Run("rejects negative", func(t *testing.T) {
		err := b.SetQuantity(idx, -2)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		line, _ := b.Line(idx)
		assert.Equal(t, 3, line.Quantity)
	})

	t.Run("unknown index", func(t *testing.T) {
		assert.ErrorIs(t, b.SetQuantity(99, 1), ErrLineNotFound)
	})
}

func TestBuilderSetUnitPrice(t *testing.T) {
	b := NewBuilder(newFakeCatalog())
	idx := b.AddCustomLine()
	require.NoError(t, b.SetUnitPrice(idx, 1_000))

	t.Run("rejects negative and keeps prior value", func(t *testing.T) {
		err := b.SetUnitPrice(idx, -1)
		assert.ErrorIs(t, err, ErrNegativePrice)
		line, _ := b.Line(idx)
		assert.Equal(t, int64(1_000), line.UnitPrice)
	})

	t.Run("zero is allowed", func(t *testing.T) {
		require.NoError(t, b.SetUnitPrice(idx, 0))
		line, _ := b.Line(idx)
		assert.Equal(t, int64(0), line.UnitPrice)
	})
}

func TestBuilderPriceOverride(t *testing.T) {
	snap := crmSnapshot()
	catalog := newFakeCatalog(snap)
	b := NewBuilder(catalog)

	idx, err := b.AddCatalogLine(context.Background(), snap.ID)
	require.NoError(t, err)

	// Sales override sticks on the line
	require.NoError(t, b.SetUnitPrice(idx, 9_500_000))
	line, _ := b.Line(idx)
	assert.Equal(t, int64(9_500_000), line.UnitPrice)

	// Overriding the line never touches the catalog snapshot
	assert.Equal(t, int64(12_000_000), catalog.products[snap.ID].UnitPrice)

	// Re-selecting the product discards the override
	require.NoError(t, b.SetProduct(context.Background(), idx, snap.ID))
	line, _ = b.Line(idx)
	assert.Equal(t, int64(12_000_000), line.UnitPrice)
}

func TestBuilderSetProductOnCustomLine(t *testing.T) {
	snap := crmSnapshot()
	b := NewBuilder(newFakeCatalog(snap))
	idx := b.AddCustomLine()

	err := b.SetProduct(context.Background(), idx, snap.ID)
	assert.ErrorIs(t, err, ErrNotCatalogLine)
}

func TestBuilderSnapshotSurvivesCatalogChange(t *testing.T) {
	snap := crmSnapshot()
	catalog := newFakeCatalog(snap)
	b := NewBuilder(catalog)

	idx, err := b.AddCatalogLine(context.Background(), snap.ID)
	require.NoError(t, err)

	// Catalog price changes after the line was added
	changed := snap
	changed.UnitPrice = 99_000_000
	catalog.products[snap.ID] = changed

	line, _ := b.Line(idx)
	assert.Equal(t, int64(12_000_000), line.UnitPrice)
	assert.Equal(t, int64(12_000_000), b.Total())
}

func TestBuilderRemoveShiftsIndexes(t *testing.T) {
	b := NewBuilder(newFakeCatalog())
	first := b.AddCustomLine()
	second := b.AddCustomLine()
	third := b.AddCustomLine()
	require.NoError(t, b.SetName(first, "A"))
	require.NoError(t, b.SetName(second, "B"))
	require.NoError(t, b.SetName(third, "C"))

	require.NoError(t, b.Remove(second))
	require.Equal(t, 2, b.Len())

	line, err := b.Line(1)
	require.NoError(t, err)
	assert.Equal(t, "C", line.Name)

	assert.ErrorIs(t, b.Remove(2), ErrLineNotFound)
}

func TestBuilderValidate(t *testing.T) {
	snap := crmSnapshot()

	t.Run("empty quote", func(t *testing.T) {
		b := NewBuilder(newFakeCatalog())
		assert.ErrorIs(t, b.Validate(), ErrEmptyQuote)
	})

	t.Run("blank custom name", func(t *testing.T) {
		b := NewBuilder(newFakeCatalog())
		idx := b.AddCustomLine()
		require.NoError(t, b.SetName(idx, "   "))
		assert.ErrorIs(t, b.Validate(), ErrUnnamedLine)
	})

	t.Run("valid quote", func(t *testing.T) {
		b := NewBuilder(newFakeCatalog(snap))
		_, err := b.AddCatalogLine(context.Background(), snap.ID)
		require.NoError(t, err)
		idx := b.AddCustomLine()
		require.NoError(t, b.SetName(idx, "Data migration"))
		assert.NoError(t, b.Validate())
	})
}

func TestBuilderLinesReturnsCopy(t *testing.T) {
	b := NewBuilder(newFakeCatalog())
	idx := b.AddCustomLine()
	require.NoError(t, b.SetName(idx, "original"))

	lines := b.Lines()
	lines[0].Name = "mutated"

	line, _ := b.Line(idx)
	assert.Equal(t, "original", line.Name)
}

func TestSumItemsMatchesSumLines(t *testing.T) {
	items := []domain.DealLineItem{
		{Name: "CRM Pro License", Source: domain.LineItemSourceCatalog, UnitPrice: 50_000, Quantity: 5},
		{Name: "Training day", Source: domain.LineItemSourceCustom, UnitPrice: 100, Quantity: 1},
	}
	assert.Equal(t, int64(250_100), SumItems(items))
	assert.Equal(t, SumItems(items), SumLines(FromItems(items)))
}

func TestNewBuilderFromLines(t *testing.T) {
	items := []domain.DealLineItem{
		{Name: "Server rack", Source: domain.LineItemSourceCustom, UnitPrice: 30_000_000, Quantity: 2, Position: 0},
		{Name: "Setup fee", Source: domain.LineItemSourceCustom, UnitPrice: 5_000_000, Quantity: 1, Position: 1},
	}
	b := NewBuilderFromLines(newFakeCatalog(), FromItems(items))
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, int64(65_000_000), b.Total())
	assert.NoError(t, b.Validate())
}
