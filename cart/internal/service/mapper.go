package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/Alturino/storefront/cart/internal/event"
	"github.com/Alturino/storefront/cart/internal/store"
	"github.com/Alturino/storefront/cart/pkg/response"
)

func cartResponse(userID uuid.UUID, cart store.Cart) response.Cart {
	items := make([]response.CartItem, len(cart))
	for i, item := range cart {
		items[i] = response.CartItem{
			ID:          item.ID,
			Name:        item.Name,
			Price:       item.Price,
			Image:       item.Image,
			Description: item.Description,
			CategoryID:  item.CategoryID,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal(),
		}
	}
	return response.Cart{
		UserID:    userID,
		Items:     items,
		Total:     store.OrderTotal(cart),
		ItemCount: cart.Quantity(),
	}
}

func checkedOutEvent(
	checkoutID uuid.UUID,
	userID uuid.UUID,
	at time.Time,
	cart response.Cart,
) event.CartCheckedOut {
	items := make([]event.CartItem, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = event.CartItem{
			ProductID: item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}
	return event.CartCheckedOut{
		EventType:   event.CartCheckedOutType,
		CheckoutID:  checkoutID,
		UserID:      userID,
		Items:       items,
		TotalAmount: cart.Total,
		Timestamp:   at.UTC(),
	}
}
