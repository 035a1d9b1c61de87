package repository

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	cartResponse "github.com/Alturino/storefront/cart/pkg/response"
	productResponse "github.com/Alturino/storefront/product/pkg/response"
	userResponse "github.com/Alturino/storefront/user/pkg/response"
)

var hundred = decimal.NewFromInt(100)

func (p Product) Response() productResponse.Product {
	return productResponse.Product{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Image:       p.Image,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (c Category) Response() productResponse.Category {
	return productResponse.Category{ID: c.ID, Name: c.Name, Image: c.Image}
}

// Response prices the deal as price x (1 - discount/100), rounded to cents.
func (d FindDealsRow) Response() productResponse.Deal {
	factor := decimal.NewFromInt(1).Sub(d.DiscountPercentage.Div(hundred))
	return productResponse.Deal{
		ID:                 d.ID,
		ProductID:          d.ProductID,
		Name:               d.Name,
		Image:              d.Image,
		OriginalPrice:      d.Price,
		DiscountPercentage: d.DiscountPercentage,
		DiscountedPrice:    d.Price.Mul(factor).Round(2),
		StartsAt:           d.StartsAt,
		EndsAt:             d.EndsAt,
	}
}

// Response falls back to the local part of the e-mail when no username was chosen.
func (u User) Response() userResponse.User {
	username := u.Username.String
	if !u.Username.Valid || strings.TrimSpace(username) == "" {
		username, _, _ = strings.Cut(u.Email, "@")
	}
	return userResponse.User{
		ID:        u.ID,
		Username:  username,
		Email:     u.Email,
		ColorMode: string(u.ColorMode),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (c Checkout) Response() (cartResponse.Checkout, error) {
	items := []cartResponse.CartItem{}
	if err := json.Unmarshal(c.Items, &items); err != nil {
		return cartResponse.Checkout{}, err
	}
	return cartResponse.Checkout{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     items,
		Total:     c.Total,
		CreatedAt: c.CreatedAt,
	}, nil
}
