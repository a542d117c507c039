package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/orders-service/internal/domain/product"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	createCalls int
	lastCreated *Order
	createErr   error

	total    int
	countErr error

	listed  []Order
	listErr error

	byID   map[string]*Order
	getErr error

	updateCalls int
	lastStatus  Status
	updateErr   error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.createCalls++
	m.lastCreated = o
	return nil
}

func (m *mockOrderRepo) Count(_ context.Context, _ *Status) (int, error) {
	return m.total, m.countErr
}

func (m *mockOrderRepo) List(_ context.Context, _ *Status, _, _ int) ([]Order, error) {
	return m.listed, m.listErr
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	return &cp, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status Status) (*Order, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.updateCalls++
	m.lastStatus = status
	updated := *o
	updated.Status = status
	updated.Items = nil // store update returns the bare row
	return &updated, nil
}

type mockCatalog struct {
	products []product.Product
	err      error
	calls    int
	lastIDs  []string
}

func (m *mockCatalog) Validate(_ context.Context, ids []string) ([]product.Product, error) {
	m.calls++
	m.lastIDs = ids
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

// --- Helpers ---

func newTestService(repo *mockOrderRepo, cat *mockCatalog) *Service {
	return NewService(repo, cat, zap.NewNop())
}

func catalogWith(products ...product.Product) *mockCatalog {
	return &mockCatalog{products: products}
}

func testProduct(id, name string, price string) product.Product {
	return product.Product{ID: id, Name: name, Price: decimal.RequireFromString(price)}
}

func statusPtr(s Status) *Status {
	return &s
}

// --- Create ---

func TestCreate_TotalsFromCatalogPrices(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newTestService(repo, catalogWith(testProduct("p1", "Widget", "10")))

	o, err := svc.Create(context.Background(), []Item{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("20").Equal(o.TotalAmount), "totalAmount = %s", o.TotalAmount)
	assert.Equal(t, 2, o.TotalItems)
	assert.Equal(t, StatusPending, o.Status)
	assert.NotEmpty(t, o.ID)

	require.Len(t, o.Items, 1)
	assert.Equal(t, "p1", o.Items[0].ProductID)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("10").Equal(o.Items[0].Price))
	assert.Equal(t, "Widget", o.Items[0].Name)

	// The persisted order never carries product names.
	require.NotNil(t, repo.lastCreated)
	require.Len(t, repo.lastCreated.Items, 1)
}

func TestCreate_MultipleItemsSumTotals(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newTestService(repo, catalogWith(
		testProduct("p1", "Widget", "10.50"),
		testProduct("p2", "Gadget", "3.25"),
	))

	o, err := svc.Create(context.Background(), []Item{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 4},
	})
	require.NoError(t, err)

	// 2*10.50 + 4*3.25 = 34.00
	assert.True(t, decimal.RequireFromString("34").Equal(o.TotalAmount), "totalAmount = %s", o.TotalAmount)
	assert.Equal(t, 6, o.TotalItems)
}

func TestCreate_DistinctIDsSentToCatalog(t *testing.T) {
	cat := catalogWith(
		testProduct("p1", "Widget", "10"),
		testProduct("p2", "Gadget", "5"),
	)
	svc := newTestService(&mockOrderRepo{}, cat)

	_, err := svc.Create(context.Background(), []Item{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, cat.lastIDs)
}

func TestCreate_CatalogFailure(t *testing.T) {
	repo := &mockOrderRepo{}
	cat := &mockCatalog{err: errors.New("validation rejected")}
	svc := newTestService(repo, cat)

	_, err := svc.Create(context.Background(), []Item{{ProductID: "p1", Quantity: 1}})
	require.ErrorIs(t, err, ErrCreationFailed)
	assert.Zero(t, repo.createCalls, "no order must be persisted")
}

func TestCreate_ProductMissingFromReply(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newTestService(repo, catalogWith(testProduct("p1", "Widget", "10")))

	_, err := svc.Create(context.Background(), []Item{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "ghost", Quantity: 1},
	})
	require.ErrorIs(t, err, ErrCreationFailed)
	assert.Zero(t, repo.createCalls)
}

func TestCreate_EmptyItems(t *testing.T) {
	cat := &mockCatalog{}
	svc := newTestService(&mockOrderRepo{}, cat)

	_, err := svc.Create(context.Background(), nil)
	// Validation problems collapse into the same generic creation error.
	require.ErrorIs(t, err, ErrCreationFailed)
	assert.Zero(t, cat.calls)
}

func TestCreate_InvalidQuantity(t *testing.T) {
	cat := &mockCatalog{}
	svc := newTestService(&mockOrderRepo{}, cat)

	_, err := svc.Create(context.Background(), []Item{{ProductID: "p1", Quantity: 0}})
	require.ErrorIs(t, err, ErrCreationFailed)
	assert.Zero(t, cat.calls)
}

func TestCreate_PersistFailure(t *testing.T) {
	repo := &mockOrderRepo{createErr: errors.New("db write failed")}
	svc := newTestService(repo, catalogWith(testProduct("p1", "Widget", "10")))

	_, err := svc.Create(context.Background(), []Item{{ProductID: "p1", Quantity: 1}})
	require.ErrorIs(t, err, ErrCreationFailed)
}

// --- FindAll ---

func TestFindAll_PagingMeta(t *testing.T) {
	repo := &mockOrderRepo{total: 5, listed: []Order{{ID: "a"}, {ID: "b"}}}
	svc := newTestService(repo, &mockCatalog{})

	data, meta, err := svc.FindAll(context.Background(), nil, 1, 2)
	require.NoError(t, err)
	assert.Len(t, data, 2)
	assert.Equal(t, PageMeta{Total: 5, Page: 1, LastPage: 3}, meta)
}

func TestFindAll_PageBeyondLast(t *testing.T) {
	repo := &mockOrderRepo{total: 3, listed: nil}
	svc := newTestService(repo, &mockCatalog{})

	data, meta, err := svc.FindAll(context.Background(), statusPtr(StatusPending), 9, 2)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Equal(t, PageMeta{Total: 3, Page: 9, LastPage: 2}, meta)
}

func TestFindAll_ExactPageBoundary(t *testing.T) {
	repo := &mockOrderRepo{total: 6}
	svc := newTestService(repo, &mockCatalog{})

	_, meta, err := svc.FindAll(context.Background(), nil, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.LastPage)
}

func TestFindAll_InvalidPagination(t *testing.T) {
	svc := newTestService(&mockOrderRepo{}, &mockCatalog{})

	_, _, err := svc.FindAll(context.Background(), nil, 0, 10)
	require.ErrorIs(t, err, ErrInvalidPagination)

	_, _, err = svc.FindAll(context.Background(), nil, 1, 0)
	require.ErrorIs(t, err, ErrInvalidPagination)

	_, _, err = svc.FindAll(context.Background(), nil, 1, -5)
	require.ErrorIs(t, err, ErrInvalidPagination)
}

// --- FindOne ---

func storedOrder(id string, status Status) *Order {
	return &Order{
		ID:          id,
		TotalAmount: decimal.RequireFromString("20"),
		TotalItems:  2,
		Status:      status,
		Items: []Item{
			{ProductID: "p1", Quantity: 2, Price: decimal.RequireFromString("10")},
		},
	}
}

func TestFindOne_NotFound(t *testing.T) {
	svc := newTestService(&mockOrderRepo{byID: map[string]*Order{}}, &mockCatalog{})

	_, err := svc.FindOne(context.Background(), "missing-id")

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "missing-id", nfErr.ID)
	assert.Contains(t, err.Error(), "missing-id")
}

func TestFindOne_EnrichesNamesKeepsSnapshotPrice(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{"o1": storedOrder("o1", StatusPending)}}
	// Catalog now reports a different price; the snapshot must win.
	cat := catalogWith(testProduct("p1", "Widget", "99"))
	svc := newTestService(repo, cat)

	o, err := svc.FindOne(context.Background(), "o1")
	require.NoError(t, err)

	require.Len(t, o.Items, 1)
	assert.Equal(t, "Widget", o.Items[0].Name)
	assert.True(t, decimal.RequireFromString("10").Equal(o.Items[0].Price), "price must stay the snapshot")
	assert.Equal(t, []string{"p1"}, cat.lastIDs)
}

func TestFindOne_CatalogFailurePropagates(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{"o1": storedOrder("o1", StatusPending)}}
	svc := newTestService(repo, &mockCatalog{err: errors.New("catalog down")})

	_, err := svc.FindOne(context.Background(), "o1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate products")
}

// --- ChangeStatus ---

func TestChangeStatus_SameStatusNoWrite(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{"o1": storedOrder("o1", StatusPending)}}
	svc := newTestService(repo, catalogWith(testProduct("p1", "Widget", "10")))

	o, err := svc.ChangeStatus(context.Background(), "o1", StatusPending)
	require.NoError(t, err)

	assert.Zero(t, repo.updateCalls, "same-status change must not write")
	assert.Equal(t, StatusPending, o.Status)
	// The no-op path returns the enriched order from the lookup.
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Widget", o.Items[0].Name)
}

func TestChangeStatus_PersistsNewStatus(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{"o1": storedOrder("o1", StatusPending)}}
	svc := newTestService(repo, catalogWith(testProduct("p1", "Widget", "10")))

	o, err := svc.ChangeStatus(context.Background(), "o1", StatusDelivered)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.updateCalls)
	assert.Equal(t, StatusDelivered, repo.lastStatus)
	assert.Equal(t, StatusDelivered, o.Status)
	// The update result is the raw store record, not re-enriched.
	assert.Empty(t, o.Items)
}

func TestChangeStatus_NotFound(t *testing.T) {
	svc := newTestService(&mockOrderRepo{byID: map[string]*Order{}}, &mockCatalog{})

	_, err := svc.ChangeStatus(context.Background(), "missing", StatusCancelled)

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

// --- Status parsing ---

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"PENDING", "DELIVERED", "CANCELLED"} {
		s, err := ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, s.String())
	}

	_, err := ParseStatus("SHIPPED")
	require.Error(t, err)
	_, err = ParseStatus("pending")
	require.Error(t, err)
}
