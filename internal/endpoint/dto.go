package endpoint

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/orders-service/internal/domain/order"
)

func init() {
	// Money fields travel as bare JSON numbers, matching the catalog service.
	decimal.MarshalJSONWithoutQuotes = true
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type findAllRequest struct {
	Status string `json:"status,omitempty"`
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
}

type findOneRequest struct {
	ID string `json:"id"`
}

type changeStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	TotalAmount decimal.Decimal     `json:"totalAmount"`
	TotalItems  int                 `json:"totalItems"`
	Status      string              `json:"status"`
	Paid        bool                `json:"paid"`
	CreatedAt   time.Time           `json:"createdAt"`
	Items       []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name,omitempty"`
}

type pageMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	LastPage int `json:"lastPage"`
}

type dataResponse struct {
	Data any       `json:"data"`
	Meta *pageMeta `json:"meta,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		TotalAmount: o.TotalAmount,
		TotalItems:  o.TotalItems,
		Status:      o.Status.String(),
		Paid:        o.Paid,
		CreatedAt:   o.CreatedAt,
	}
	if len(o.Items) > 0 {
		resp.Items = make([]orderItemResponse, len(o.Items))
		for i, item := range o.Items {
			resp.Items[i] = orderItemResponse{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
				Name:      item.Name,
			}
		}
	}
	return resp
}
