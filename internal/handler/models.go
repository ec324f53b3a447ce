package handler

import (
	"time"

	"github.com/govalues/decimal"
	"github.com/shopengine/order-service/internal/entities"
	"github.com/shopengine/order-service/internal/service"
)

// CreateOrderRequest is the canonical checkout payload. Alternate field
// spellings used by older storefront clients are not accepted.
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items"`
	Total float64            `json:"total"`
}

type OrderItemRequest struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type CreateOrderResponse struct {
	OrderID string `json:"order_id"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderSummary is one listing row
type OrderSummary struct {
	OrderID       string    `json:"order_id"`
	OwnerID       string    `json:"owner_id"`
	RequesterName string    `json:"requester_name,omitempty"`
	Total         float64   `json:"total"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Order is a full order with its lines
type Order struct {
	OrderID   string      `json:"order_id"`
	OwnerID   string      `json:"owner_id"`
	Total     float64     `json:"total"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	Items     []OrderLine `json:"items"`
}

type OrderLine struct {
	LineID    string  `json:"line_id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// ItemsToInput converts the request items to the engine's canonical
// shape. Prices arrive as JSON numbers; anything non-numeric already
// failed at decode, and NaN or infinity fails here.
func ItemsToInput(items []OrderItemRequest) ([]service.NewOrderItem, error) {
	input := make([]service.NewOrderItem, 0, len(items))
	for i, item := range items {
		price, err := decimal.NewFromFloat64(item.UnitPrice)
		if err != nil {
			return nil, &entities.LineItemError{Index: i + 1, Reason: "unit price is not a valid number"}
		}
		input = append(input, service.NewOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: price,
		})
	}
	return input, nil
}

func SummaryEntityToJSON(s entities.OrderSummary) OrderSummary {
	total, _ := s.Total.Float64()
	return OrderSummary{
		OrderID:       s.OrderID,
		OwnerID:       s.OwnerID,
		RequesterName: s.OwnerName,
		Total:         total,
		Status:        s.Status.String(),
		CreatedAt:     s.CreatedAt,
	}
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]OrderLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		price, _ := l.UnitPrice.Float64()
		items = append(items, OrderLine{
			LineID:    l.LineID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: price,
		})
	}

	total, _ := o.Total.Float64()
	return Order{
		OrderID:   o.OrderID,
		OwnerID:   o.OwnerID,
		Total:     total,
		Status:    o.Status.String(),
		CreatedAt: o.CreatedAt,
		Items:     items,
	}
}
