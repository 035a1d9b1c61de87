package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const findProducts = `-- name: FindProducts :many
select id, name, price, image, description, category_id, created_at, updated_at from products order by created_at, name
`

func (q *Queries) FindProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, findProducts)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

const findProductsByCategory = `-- name: FindProductsByCategory :many
select id, name, price, image, description, category_id, created_at, updated_at from products where category_id = $1 order by created_at, name
`

func (q *Queries) FindProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]Product, error) {
	rows, err := q.db.Query(ctx, findProductsByCategory, categoryID)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

const searchProductsByName = `-- name: SearchProductsByName :many
select id, name, price, image, description, category_id, created_at, updated_at from products where name ilike $1 order by name
`

// SearchProductsByName matches the name against an ILIKE pattern; the caller adds wildcards.
func (q *Queries) SearchProductsByName(ctx context.Context, pattern string) ([]Product, error) {
	rows, err := q.db.Query(ctx, searchProductsByName, pattern)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

const findProductById = `-- name: FindProductById :one
select id, name, price, image, description, category_id, created_at, updated_at from products where id = $1 limit 1
`

func (q *Queries) FindProductById(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, findProductById, id)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.Image,
		&i.Description,
		&i.CategoryID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findCategories = `-- name: FindCategories :many
select id, name, image from categories order by name
`

func (q *Queries) FindCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, findCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Category{}
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.Image); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const findDeals = `-- name: FindDeals :many
select d.id, d.product_id, d.discount_percentage, d.starts_at, d.ends_at, p.name, p.price, p.image
from deals d
join products p on p.id = d.product_id
order by d.ends_at, p.name
`

type FindDealsRow struct {
	ID                 uuid.UUID       `json:"id"`
	ProductID          uuid.UUID       `json:"product_id"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	StartsAt           time.Time       `json:"starts_at"`
	EndsAt             time.Time       `json:"ends_at"`
	Name               string          `json:"name"`
	Price              decimal.Decimal `json:"price"`
	Image              string          `json:"image"`
}

func (q *Queries) FindDeals(ctx context.Context) ([]FindDealsRow, error) {
	rows, err := q.db.Query(ctx, findDeals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []FindDealsRow{}
	for rows.Next() {
		var i FindDealsRow
		if err := rows.Scan(
			&i.ID,
			&i.ProductID,
			&i.DiscountPercentage,
			&i.StartsAt,
			&i.EndsAt,
			&i.Name,
			&i.Price,
			&i.Image,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type productRows interface {
	Close()
	Err() error
	Next() bool
	Scan(dest ...any) error
}

func scanProducts(rows productRows) ([]Product, error) {
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		var i Product
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Price,
			&i.Image,
			&i.Description,
			&i.CategoryID,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
