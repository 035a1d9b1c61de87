package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CartCheckedOutRoutingKey = "cart.checked_out.v1"
	CartCheckedOutType       = "CartCheckedOut"
)

type CartCheckedOut struct {
	EventType   string          `json:"event_type"`
	CheckoutID  uuid.UUID       `json:"checkout_id"`
	UserID      uuid.UUID       `json:"user_id"`
	Items       []CartItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Timestamp   time.Time       `json:"timestamp"`
}

type CartItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}
