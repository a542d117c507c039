package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/orders-service/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, total_amount, total_items, status, paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	insertItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)`

	countOrdersSQL = `SELECT count(*) FROM orders
		WHERE $1::text IS NULL OR status = $1`

	listOrdersSQL = `SELECT id, total_amount, total_items, status, paid, created_at, updated_at
		FROM orders
		WHERE $1::text IS NULL OR status = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`

	getOrderSQL = `SELECT id, total_amount, total_items, status, paid, created_at, updated_at
		FROM orders WHERE id = $1`

	getItemsSQL = `SELECT product_id, quantity, price
		FROM order_items WHERE order_id = $1 ORDER BY id`

	updateStatusSQL = `UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, total_amount, total_items, status, paid, created_at, updated_at`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists an order and all of its items in a single transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.TotalAmount, o.TotalItems, string(o.Status), o.Paid, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(insertItemSQL, o.ID, item.ProductID, item.Quantity, item.Price)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("creating items for order %q: %w", o.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// Count returns the number of orders matching the optional status filter.
func (r *OrderRepository) Count(ctx context.Context, status *order.Status) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, countOrdersSQL, statusParam(status)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return total, nil
}

// List returns one page of orders without items, in insertion order.
func (r *OrderRepository) List(ctx context.Context, status *order.Status, page, limit int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, statusParam(status), limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// GetByID returns the order with its items, or order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	itemRows, err := r.pool.Query(ctx, getItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting items for order %q: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(itemRows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("getting items for order %q: %w", id, err)
	}
	return &o, nil
}

// UpdateStatus persists the new status and returns the updated order without
// items, or order.ErrNotFound when the order does not exist.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, updateStatusSQL, id, string(status))
	if err != nil {
		return nil, fmt.Errorf("updating status of order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("updating status of order %q: %w", id, err)
	}
	return &o, nil
}

func statusParam(status *order.Status) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.TotalAmount, &o.TotalItems, &status, &o.Paid, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}

func scanItem(row pgx.CollectableRow) (order.Item, error) {
	var item order.Item
	err := row.Scan(&item.ProductID, &item.Quantity, &item.Price)
	return item, err
}
