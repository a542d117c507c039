// Package endpoint exposes the order workflow as named commands on the
// message bus. It maps subjects to operations, decodes payloads, and encodes
// replies; no business logic lives here.
package endpoint

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/xenking/orders-service/internal/domain/order"
)

// Subjects handled by the orders service.
const (
	SubjectCreateOrder  = "create_order"
	SubjectFindAll      = "find_all_orders"
	SubjectFindOne      = "find_one_order"
	SubjectChangeStatus = "change_order_status"
)

// queue groups all service instances so each command is delivered to one.
const queue = "orders"

// Subjects returns every inbound subject the endpoint subscribes to.
func Subjects() []string {
	return []string{SubjectCreateOrder, SubjectFindAll, SubjectFindOne, SubjectChangeStatus}
}

// invalidRequestError marks a payload that failed to decode or validate.
type invalidRequestError struct {
	err error
}

func (e *invalidRequestError) Error() string {
	return e.err.Error()
}

func (e *invalidRequestError) Unwrap() error {
	return e.err
}

// handlerFunc decodes one command payload and returns the reply envelope.
type handlerFunc func(ctx context.Context, data []byte) (any, error)

// Endpoint subscribes to the order command subjects and dispatches to the
// workflow service.
type Endpoint struct {
	service *order.Service
	subs    []*nats.Subscription
}

// New constructs an Endpoint for the given workflow service.
func New(service *order.Service) *Endpoint {
	return &Endpoint{service: service}
}

// Start registers a queue subscription per command subject. The context
// carries the logger and is the parent of every per-message context.
func (e *Endpoint) Start(ctx context.Context, conn *nats.Conn) error {
	handlers := []struct {
		subject string
		handle  handlerFunc
	}{
		{SubjectCreateOrder, e.handleCreateOrder},
		{SubjectFindAll, e.handleFindAll},
		{SubjectFindOne, e.handleFindOne},
		{SubjectChangeStatus, e.handleChangeStatus},
	}

	for _, h := range handlers {
		sub, err := conn.QueueSubscribe(h.subject, queue, e.dispatch(ctx, h.subject, h.handle))
		if err != nil {
			return errors.Wrapf(err, "subscribe %s", h.subject)
		}
		e.subs = append(e.subs, sub)
	}
	return nil
}

// dispatch adapts a handlerFunc to a bus message handler: decode, invoke,
// encode the data or error envelope, respond.
func (e *Endpoint) dispatch(ctx context.Context, subject string, handle handlerFunc) nats.MsgHandler {
	lg := zctx.From(ctx).With(zap.String("subject", subject))

	return func(msg *nats.Msg) {
		reply, err := handle(ctx, msg.Data)
		if err != nil {
			reply = encodeError(lg, err)
		}

		out, err := json.Marshal(reply)
		if err != nil {
			lg.Error("encode reply", zap.Error(err))
			out, _ = json.Marshal(errorResponse{Error: errorBody{
				Status:  http.StatusInternalServerError,
				Message: "internal server error",
			}})
		}
		if err := msg.Respond(out); err != nil {
			lg.Error("respond", zap.Error(err))
		}
	}
}

func (e *Endpoint) handleCreateOrder(ctx context.Context, data []byte) (any, error) {
	var req createOrderRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &invalidRequestError{err: err}
	}

	items := make([]order.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	o, err := e.service.Create(ctx, items)
	if err != nil {
		return nil, err
	}
	return dataResponse{Data: toOrderResponse(o)}, nil
}

func (e *Endpoint) handleFindAll(ctx context.Context, data []byte) (any, error) {
	var req findAllRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &invalidRequestError{err: err}
	}

	var status *order.Status
	if req.Status != "" {
		s, err := order.ParseStatus(req.Status)
		if err != nil {
			return nil, &invalidRequestError{err: err}
		}
		status = &s
	}

	orders, meta, err := e.service.FindAll(ctx, status, req.Page, req.Limit)
	if err != nil {
		return nil, err
	}

	respData := make([]orderResponse, len(orders))
	for i := range orders {
		respData[i] = toOrderResponse(&orders[i])
	}
	return dataResponse{
		Data: respData,
		Meta: &pageMeta{Total: meta.Total, Page: meta.Page, LastPage: meta.LastPage},
	}, nil
}

func (e *Endpoint) handleFindOne(ctx context.Context, data []byte) (any, error) {
	var req findOneRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &invalidRequestError{err: err}
	}
	if req.ID == "" {
		return nil, &invalidRequestError{err: errors.New("id required")}
	}

	o, err := e.service.FindOne(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return dataResponse{Data: toOrderResponse(o)}, nil
}

func (e *Endpoint) handleChangeStatus(ctx context.Context, data []byte) (any, error) {
	var req changeStatusRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &invalidRequestError{err: err}
	}
	if req.ID == "" {
		return nil, &invalidRequestError{err: errors.New("id required")}
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, &invalidRequestError{err: err}
	}

	o, err := e.service.ChangeStatus(ctx, req.ID, status)
	if err != nil {
		return nil, err
	}
	return dataResponse{Data: toOrderResponse(o)}, nil
}

// encodeError maps workflow errors to the wire error envelope. Not-found,
// creation failures, and request validation problems are bad requests;
// anything else is reported as an opaque internal error and logged.
func encodeError(lg *zap.Logger, err error) errorResponse {
	badRequest := func(msg string) errorResponse {
		return errorResponse{Error: errorBody{
			Status:  http.StatusBadRequest,
			Message: msg,
		}}
	}

	var nfErr *order.NotFoundError
	if errors.As(err, &nfErr) {
		return badRequest(nfErr.Error())
	}

	var reqErr *invalidRequestError
	if errors.As(err, &reqErr) {
		return badRequest(reqErr.Error())
	}

	if errors.Is(err, order.ErrCreationFailed) || errors.Is(err, order.ErrInvalidPagination) {
		return badRequest(err.Error())
	}

	lg.Error("command failed", zap.Error(err))
	return errorResponse{Error: errorBody{
		Status:  http.StatusInternalServerError,
		Message: "internal server error",
	}}
}
