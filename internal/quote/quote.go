// Package quote implements the in-memory quote editor behind deal pricing.
// All amounts are whole Vietnamese đồng held as int64, so sums are exact and
// never pass through floating point.
package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
)

var (
	ErrLineNotFound    = errors.New("line item not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNegativePrice   = errors.New("unit price must not be negative")
	ErrNotCatalogLine  = errors.New("line item is not linked to the catalog")
	ErrEmptyQuote      = errors.New("quote must contain at least one line item")
	ErrUnnamedLine     = errors.New("custom line items must have a name")
	ErrMissingProduct  = errors.New("catalog line items must reference a product")
)

// ProductSnapshot is the slice of a catalog product copied onto a line item
// when the product is selected. Later catalog edits never touch it.
type ProductSnapshot struct {
	ID           uuid.UUID
	Name         string
	Category     domain.ProductCategory
	BillingCycle domain.BillingCycle
	UnitPrice    int64
}

// CatalogLookup resolves a product ID to its current snapshot. Inactive or
// unknown products yield an error.
type CatalogLookup interface {
	LookupProduct(ctx context.Context, id uuid.UUID) (*ProductSnapshot, error)
}

// Line is one editable quote row. Catalog lines keep their product reference
// plus the snapshot taken at selection time; custom lines are typed in freely.
type Line struct {
	Source       domain.LineItemSource
	ProductID    *uuid.UUID
	Name         string
	Category     domain.ProductCategory
	BillingCycle domain.BillingCycle
	UnitPrice    int64
	Quantity     int
}

// Total returns unit price times quantity for the line.
func (l Line) Total() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Builder accumulates quote lines while a deal is being edited. It holds no
// database state of its own; a save hands the finished line set to the deal
// service, which replaces whatever was stored before.
type Builder struct {
	catalog CatalogLookup
	lines   []Line
}

// NewBuilder creates an empty quote editor backed by the given catalog.
func NewBuilder(catalog CatalogLookup) *Builder {
	return &Builder{catalog: catalog}
}

// NewBuilderFromLines creates a quote editor preloaded with existing lines,
// used when reopening a stored deal for editing.
func NewBuilderFromLines(catalog CatalogLookup, lines []Line) *Builder {
	b := &Builder{catalog: catalog}
	b.lines = append(b.lines, lines...)
	return b
}

// AddCatalogLine appends a line snapshotted from the given product with
// quantity 1. The returned index addresses the new line.
func (b *Builder) AddCatalogLine(ctx context.Context, productID uuid.UUID) (int, error) {
	snap, err := b.catalog.LookupProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up product: %w", err)
	}
	id := snap.ID
	b.lines = append(b.lines, Line{
		Source:       domain.LineItemSourceCatalog,
		ProductID:    &id,
		Name:         snap.Name,
		Category:     snap.Category,
		BillingCycle: snap.BillingCycle,
		UnitPrice:    snap.UnitPrice,
		Quantity:     1,
	})
	return len(b.lines) - 1, nil
}

// AddCustomLine appends a blank freeform line with quantity 1 and zero price.
func (b *Builder) AddCustomLine() int {
	b.lines = append(b.lines, Line{
		Source:   domain.LineItemSourceCustom,
		Quantity: 1,
	})
	return len(b.lines) - 1
}

// SetProduct re-snapshots a catalog line from the given product. Any manual
// price override on the line is discarded in favor of the fresh catalog
// price. Custom lines cannot be switched to a product.
func (b *Builder) SetProduct(ctx context.Context, index int, productID uuid.UUID) error {
	if index < 0 || index >= len(b.lines) {
		return ErrLineNotFound
	}
	if b.lines[index].Source != domain.LineItemSourceCatalog {
		return ErrNotCatalogLine
	}
	snap, err := b.catalog.LookupProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to look up product: %w", err)
	}
	id := snap.ID
	line := &b.lines[index]
	line.ProductID = &id
	line.Name = snap.Name
	line.Category = snap.Category
	line.BillingCycle = snap.BillingCycle
	line.UnitPrice = snap.UnitPrice
	return nil
}

// SetQuantity updates a line's quantity. Zero and negative values are
// rejected and the previous quantity stands.
func (b *Builder) SetQuantity(index, quantity int) error {
	if index < 0 || index >= len(b.lines) {
		return ErrLineNotFound
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	b.lines[index].Quantity = quantity
	return nil
}

// SetUnitPrice updates a line's unit price. On a catalog line this acts as a
// sales override that stays until the product is re-selected. Negative prices
// are rejected and the previous price stands; zero is allowed.
func (b *Builder) SetUnitPrice(index int, price int64) error {
	if index < 0 || index >= len(b.lines) {
		return ErrLineNotFound
	}
	if price < 0 {
		return ErrNegativePrice
	}
	b.lines[index].UnitPrice = price
	return nil
}

// SetName renames a line. Renaming does not detach a catalog line from its
// product.
func (b *Builder) SetName(index int, name string) error {
	if index < 0 || index >= len(b.lines) {
		return ErrLineNotFound
	}
	b.lines[index].Name = name
	return nil
}

// Remove deletes the line at index. Lines after it shift down by one.
func (b *Builder) Remove(index int) error {
	if index < 0 || index >= len(b.lines) {
		return ErrLineNotFound
	}
	b.lines = append(b.lines[:index], b.lines[index+1:]...)
	return nil
}

// Len returns the number of lines.
func (b *Builder) Len() int {
	return len(b.lines)
}

// Line returns a copy of the line at index.
func (b *Builder) Line(index int) (Line, error) {
	if index < 0 || index >= len(b.lines) {
		return Line{}, ErrLineNotFound
	}
	return b.lines[index], nil
}

// Lines returns a copy of the current line set in display order.
func (b *Builder) Lines() []Line {
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// Total returns the quote total: the sum of unit price times quantity over
// all lines. It only reads the line set and is the single source of every
// stored or rendered total.
func (b *Builder) Total() int64 {
	return SumLines(b.lines)
}

// Validate checks that the quote is saveable: at least one line, every custom
// line named, every catalog line still referencing a product.
func (b *Builder) Validate() error {
	if len(b.lines) == 0 {
		return ErrEmptyQuote
	}
	for i, line := range b.lines {
		switch line.Source {
		case domain.LineItemSourceCustom:
			if strings.TrimSpace(line.Name) == "" {
				return fmt.Errorf("line %d: %w", i+1, ErrUnnamedLine)
			}
		case domain.LineItemSourceCatalog:
			if line.ProductID == nil {
				return fmt.Errorf("line %d: %w", i+1, ErrMissingProduct)
			}
		default:
			return fmt.Errorf("line %d: unknown source %q", i+1, line.Source)
		}
	}
	return nil
}

// SumLines totals an arbitrary line set without a builder.
func SumLines(lines []Line) int64 {
	var total int64
	for _, line := range lines {
		total += line.Total()
	}
	return total
}

// SumItems totals stored deal line items. It must agree with SumLines for
// the same rows; the reconciliation job leans on that.
func SumItems(items []domain.DealLineItem) int64 {
	var total int64
	for i := range items {
		total += items[i].LineTotal()
	}
	return total
}

// FromItems converts stored deal line items back into editable lines,
// preserving display order.
func FromItems(items []domain.DealLineItem) []Line {
	lines := make([]Line, 0, len(items))
	for i := range items {
		it := items[i]
		lines = append(lines, Line{
			Source:       it.Source,
			ProductID:    it.ProductID,
			Name:         it.Name,
			Category:     it.Category,
			BillingCycle: it.BillingCycle,
			UnitPrice:    it.UnitPrice,
			Quantity:     it.Quantity,
		})
	}
	return lines
}
