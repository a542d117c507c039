package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/orders-service/internal/domain/product"
)

// Service implements the order workflow: creation with catalog validation,
// paginated listing, lookup with name enrichment, and status changes.
type Service struct {
	orders  Repository
	catalog product.Validator
	lg      *zap.Logger
}

// NewService creates an order Service with the required dependencies.
func NewService(orders Repository, catalog product.Validator, lg *zap.Logger) *Service {
	return &Service{
		orders:  orders,
		catalog: catalog,
		lg:      lg,
	}
}

// Create validates the requested products against the catalog, computes the
// order totals from catalog prices, persists the order with per-item price
// snapshots, and returns it with product names attached.
//
// Every failure inside this operation, whatever its origin, collapses into
// ErrCreationFailed. The cause is logged here and never surfaces to the
// caller.
func (s *Service) Create(ctx context.Context, items []Item) (*Order, error) {
	o, err := s.create(ctx, items)
	if err != nil {
		var cf *creationFailure
		if errors.As(err, &cf) {
			s.lg.Error("order creation failed",
				zap.String("phase", cf.phase), zap.Error(cf.err))
		} else {
			s.lg.Error("order creation failed", zap.Error(err))
		}
		return nil, ErrCreationFailed
	}
	return o, nil
}

func (s *Service) create(ctx context.Context, items []Item) (*Order, error) {
	if len(items) == 0 {
		return nil, failCreation("validate request", ErrEmptyItems)
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, failCreation("validate request",
				&InvalidQuantityError{ProductID: item.ProductID})
		}
	}

	// One batch request to the catalog with the distinct product ids.
	products, err := s.catalog.Validate(ctx, distinctProductIDs(items))
	if err != nil {
		return nil, failCreation("validate products", err)
	}

	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	totalAmount := decimal.Zero
	totalItems := 0
	orderItems := make([]Item, len(items))
	for i, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			// The catalog rejects the whole batch on any unknown id, so a
			// missing record here means the reply violated the contract.
			return nil, failCreation("validate products",
				errors.Errorf("product %q missing from catalog reply", item.ProductID))
		}
		totalAmount = totalAmount.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		totalItems += item.Quantity
		orderItems[i] = Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     p.Price,
		}
	}

	now := time.Now().UTC()
	o := &Order{
		ID:          uuid.New().String(),
		TotalAmount: totalAmount.Round(2),
		TotalItems:  totalItems,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       orderItems,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, failCreation("persist order", err)
	}

	// Names are response enrichment only; attached after the write so they
	// never reach the store.
	for i := range o.Items {
		o.Items[i].Name = byID[o.Items[i].ProductID].Name
	}
	return o, nil
}

// FindAll returns one page of orders plus paging metadata. Orders in the list
// carry no items and no catalog enrichment.
func (s *Service) FindAll(ctx context.Context, status *Status, page, limit int) ([]Order, PageMeta, error) {
	if page < 1 || limit < 1 {
		return nil, PageMeta{}, ErrInvalidPagination
	}

	total, err := s.orders.Count(ctx, status)
	if err != nil {
		return nil, PageMeta{}, errors.Wrap(err, "count orders")
	}
	data, err := s.orders.List(ctx, status, page, limit)
	if err != nil {
		return nil, PageMeta{}, errors.Wrap(err, "list orders")
	}

	return data, PageMeta{
		Total:    total,
		Page:     page,
		LastPage: (total + limit - 1) / limit,
	}, nil
}

// FindOne loads an order and re-validates its product ids against the live
// catalog to attach current product names. Prices stay the persisted
// snapshots. A catalog failure fails the lookup.
func (s *Service) FindOne(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, errors.Wrap(err, "get order")
	}

	products, err := s.catalog.Validate(ctx, distinctProductIDs(o.Items))
	if err != nil {
		return nil, errors.Wrap(err, "validate products")
	}

	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	for i := range o.Items {
		o.Items[i].Name = names[o.Items[i].ProductID]
	}
	return o, nil
}

// ChangeStatus moves an order to a new status. When the requested status
// equals the current one the already-loaded, enriched order is returned
// without touching the store. Otherwise the update result comes straight from
// the store, without catalog enrichment.
func (s *Service) ChangeStatus(ctx context.Context, id string, status Status) (*Order, error) {
	o, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == status {
		return o, nil
	}

	updated, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, errors.Wrap(err, "update order status")
	}
	return updated, nil
}

// distinctProductIDs returns the product ids of the items with duplicates
// removed, preserving first-seen order.
func distinctProductIDs(items []Item) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
