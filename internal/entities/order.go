package entities

import (
	"encoding/json"
	"time"

	"github.com/govalues/decimal"
)

// TotalTolerance is the maximum absolute difference allowed between the
// submitted order total and the sum of line totals. The value is a
// documented business artifact, not a tunable.
var TotalTolerance = decimal.MustParse("0.01")

type OrderLine struct {
	LineID    string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

type Order struct {
	OrderID   string
	OwnerID   string
	Total     decimal.Decimal
	Status    Status
	CreatedAt time.Time

	Lines []OrderLine
}

// OrderSummary is a listing row. OwnerName is populated only for
// admin-scoped listings.
type OrderSummary struct {
	OrderID   string
	OwnerID   string
	OwnerName string
	Total     decimal.Decimal
	Status    Status
	CreatedAt time.Time
}

// Requester is the already-authenticated actor invoking the engine.
type Requester struct {
	ID      string
	IsAdmin bool
}

func (o *Order) Marshal() ([]byte, error) {
	return json.Marshal(o)
}

func (o *Order) Unmarshal(data []byte) error {
	return json.Unmarshal(data, o)
}
