package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a customer order with totals captured at creation time.
// TotalAmount and TotalItems are derived snapshots and are never recomputed
// after the order is persisted.
type Order struct {
	ID          string
	TotalAmount decimal.Decimal
	TotalItems  int
	Status      Status
	Paid        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []Item
}

// Item is a single line in an order. Price is the catalog price at the moment
// the order was created; later catalog price changes do not affect it.
type Item struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal

	// Name is display enrichment fetched from the catalog per request.
	// It is never persisted.
	Name string
}

// PageMeta describes the page of results returned by a list operation.
type PageMeta struct {
	Total    int
	Page     int
	LastPage int
}

// Repository defines persistence operations for orders and their items.
type Repository interface {
	// Create persists the order together with all of its items as one
	// atomic unit.
	Create(ctx context.Context, o *Order) error
	// Count returns the number of orders, optionally filtered by status.
	Count(ctx context.Context, status *Status) (int, error)
	// List returns one page of orders (without items) in a stable order.
	List(ctx context.Context, status *Status, page, limit int) ([]Order, error)
	// GetByID returns the order with its items, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Order, error)
	// UpdateStatus persists the new status and returns the updated order
	// (without items), or ErrNotFound.
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)
}
