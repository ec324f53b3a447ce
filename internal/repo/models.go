package repo

import (
	"database/sql"
	"time"

	"github.com/govalues/decimal"
	"github.com/shopengine/order-service/internal/entities"
)

type Order struct {
	OrderID   string          `db:"order_id"`
	OwnerID   string          `db:"owner_id"`
	Total     decimal.Decimal `db:"total"`
	Status    string          `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
}

type OrderLine struct {
	LineID    string          `db:"line_id"`
	OrderID   string          `db:"order_id"`
	ProductID string          `db:"product_id"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}

// owner is a read-only projection of the identity service's users
// table; only the display name is consumed here.
type owner struct {
	ID   string         `db:"id"`
	Name sql.NullString `db:"name"`
}

func LineToEntity(l OrderLine) entities.OrderLine {
	return entities.OrderLine{
		LineID:    l.LineID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
	}
}

func OrderToEntity(o Order, lines []OrderLine) entities.Order {
	order := entities.Order{
		OrderID:   o.OrderID,
		OwnerID:   o.OwnerID,
		Total:     o.Total,
		Status:    entities.Status(o.Status),
		CreatedAt: o.CreatedAt,
	}

	if len(lines) > 0 {
		order.Lines = make([]entities.OrderLine, 0, len(lines))
		for _, l := range lines {
			order.Lines = append(order.Lines, LineToEntity(l))
		}
	}

	return order
}

func OrderToSummary(o Order, ownerName string) entities.OrderSummary {
	return entities.OrderSummary{
		OrderID:   o.OrderID,
		OwnerID:   o.OwnerID,
		OwnerName: ownerName,
		Total:     o.Total,
		Status:    entities.Status(o.Status),
		CreatedAt: o.CreatedAt,
	}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
