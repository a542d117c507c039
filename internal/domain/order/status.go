package order

import "github.com/go-faster/errors"

// Status is the lifecycle state of an order.
type Status string

// Valid order statuses. New orders always start as StatusPending.
const (
	StatusPending   Status = "PENDING"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus converts a wire string into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", errors.Errorf("invalid order status %q", s)
}

func (s Status) String() string {
	return string(s)
}
