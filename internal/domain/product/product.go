// Package product holds the view of catalog products this service works with.
// The catalog service is the system of record; nothing here is stored locally.
package product

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is a catalog record as returned by the validate_product command.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// Validator checks a batch of product ids against the catalog service and
// returns the matching records. The remote side rejects the whole batch when
// any id is invalid; callers never deal with partial validation.
type Validator interface {
	Validate(ctx context.Context, ids []string) ([]Product, error)
}
