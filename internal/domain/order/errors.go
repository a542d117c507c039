package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for order operations.
var (
	// ErrNotFound is returned by the repository when an order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrCreationFailed is the only error Create surfaces to callers. The
	// real cause is logged server-side and deliberately not exposed.
	ErrCreationFailed = errors.New("order creation failed, check logs")

	// ErrEmptyItems indicates a create request without line items.
	ErrEmptyItems = errors.New("items required")

	// ErrInvalidPagination indicates a non-positive page or limit.
	ErrInvalidPagination = errors.New("page and limit must be positive")
)

// NotFoundError indicates a requested order does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order with id %s not found", e.ID)
}

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// creationFailure tags which phase of order creation failed, so the log line
// can distinguish causes that the caller never sees.
type creationFailure struct {
	phase string
	err   error
}

func (f *creationFailure) Error() string {
	return fmt.Sprintf("%s: %s", f.phase, f.err)
}

func (f *creationFailure) Unwrap() error {
	return f.err
}

func failCreation(phase string, err error) error {
	return &creationFailure{phase: phase, err: err}
}
