// Package store holds the in-memory cart of one session.
//
// A Store is owned by a single session and is not safe for concurrent use; callers that
// share a Store between goroutines must serialise access themselves.
package store

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxQuantity caps a line; adding to a full line leaves it unchanged.
const MaxQuantity = math.MaxInt32

// Product is the catalog entry a line item is created from.
type Product struct {
	ID          uuid.UUID
	Name        string
	Price       decimal.Decimal
	Image       string
	Description string
	CategoryID  uuid.NullUUID
}

type LineItem struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	CategoryID  uuid.NullUUID   `json:"category_id"`
	Quantity    int32           `json:"quantity"`
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt32(l.Quantity))
}

// Cart is the ordered sequence of line items, first added first.
type Cart []LineItem

func (c Cart) Find(id uuid.UUID) (LineItem, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c[i], true
	}
	return LineItem{}, false
}

func (c Cart) Quantity() int64 {
	var n int64
	for _, item := range c {
		n += int64(item.Quantity)
	}
	return n
}

func (c Cart) indexOf(id uuid.UUID) int {
	for i, item := range c {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// OrderTotal is the sum of price x quantity over every line. It is recomputed on
// each call and not rounded.
func OrderTotal(c Cart) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.Subtotal())
	}
	return total
}

type Store struct {
	items Cart
}

func New() *Store {
	return &Store{items: Cart{}}
}

// Items returns a copy of the current cart.
func (s *Store) Items() Cart {
	return clone(s.items)
}

// AddItem increments the quantity of the line with the product id, or appends a new
// line with quantity 1. An existing line keeps the name and price it was added with.
func (s *Store) AddItem(p Product) Cart {
	next := clone(s.items)
	if i := next.indexOf(p.ID); i >= 0 {
		if next[i].Quantity < MaxQuantity {
			next[i].Quantity++
		}
	} else {
		next = append(next, LineItem{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Image:       p.Image,
			Description: p.Description,
			CategoryID:  p.CategoryID,
			Quantity:    1,
		})
	}
	s.items = next
	return s.Items()
}

// DecrementItem lowers the quantity of the line by one and drops the line when it
// reaches zero. Unknown ids are ignored.
func (s *Store) DecrementItem(id uuid.UUID) Cart {
	i := s.items.indexOf(id)
	if i < 0 {
		return s.Items()
	}
	if s.items[i].Quantity <= 1 {
		return s.RemoveItem(id)
	}
	next := clone(s.items)
	next[i].Quantity--
	s.items = next
	return s.Items()
}

// RemoveItem drops the line whatever its quantity. Unknown ids are ignored.
func (s *Store) RemoveItem(id uuid.UUID) Cart {
	next := make(Cart, 0, len(s.items))
	for _, item := range s.items {
		if item.ID != id {
			next = append(next, item)
		}
	}
	s.items = next
	return s.Items()
}

func (s *Store) Reset() {
	s.items = Cart{}
}

func (s *Store) Len() int {
	return len(s.items)
}

func clone(c Cart) Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
