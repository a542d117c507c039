// Package catalog bridges to the external product-catalog service over the
// message bus using request/reply.
package catalog

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"

	"github.com/xenking/orders-service/internal/domain/product"
)

// Subject is the catalog command for batch product validation.
const Subject = "validate_product"

// Requester is the request/reply capability the client needs from the bus
// connection. *nats.Conn satisfies it.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

var _ product.Validator = (*Client)(nil)

// Client implements product.Validator over the message bus.
type Client struct {
	bus Requester
}

// NewClient returns a Client that issues requests on the given bus connection.
func NewClient(bus Requester) *Client {
	return &Client{bus: bus}
}

type productPayload struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type errorEnvelope struct {
	Error *struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Validate sends the id batch as a single validate_product request and
// decodes the reply. The catalog rejects the whole batch when any id is
// invalid; that rejection, like any transport failure, is returned as an
// error with no retry.
func (c *Client) Validate(ctx context.Context, ids []string) ([]product.Product, error) {
	req, err := json.Marshal(ids)
	if err != nil {
		return nil, errors.Wrap(err, "encode product ids")
	}

	msg, err := c.bus.RequestWithContext(ctx, Subject, req)
	if err != nil {
		return nil, errors.Wrap(err, "request validate_product")
	}

	var env errorEnvelope
	if err := json.Unmarshal(msg.Data, &env); err == nil && env.Error != nil {
		return nil, errors.Errorf("catalog rejected batch: %s (status %d)",
			env.Error.Message, env.Error.Status)
	}

	var payload []productPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return nil, errors.Wrap(err, "decode validate_product reply")
	}

	products := make([]product.Product, len(payload))
	for i, p := range payload {
		products[i] = product.Product{
			ID:    p.ID,
			Name:  p.Name,
			Price: p.Price,
		}
	}
	return products, nil
}
