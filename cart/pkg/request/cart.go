package request

import (
	"github.com/google/uuid"
)

type AddItem struct {
	ProductID uuid.UUID `validate:"required,uuid" json:"product_id"`
}

type CartItem struct {
	ProductID uuid.UUID `validate:"required,uuid" json:"product_id"`
}
