package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const insertCheckout = `-- name: InsertCheckout :one
insert into checkouts (id, user_id, items, total) values ($1, $2, $3, $4)
returning id, user_id, items, total, created_at
`

type InsertCheckoutParams struct {
	ID     uuid.UUID       `json:"id"`
	UserID uuid.UUID       `json:"user_id"`
	Items  []byte          `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

func (q *Queries) InsertCheckout(ctx context.Context, arg InsertCheckoutParams) (Checkout, error) {
	row := q.db.QueryRow(ctx, insertCheckout, arg.ID, arg.UserID, arg.Items, arg.Total)
	var i Checkout
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Items,
		&i.Total,
		&i.CreatedAt,
	)
	return i, err
}

const findCheckoutsByUserId = `-- name: FindCheckoutsByUserId :many
select id, user_id, items, total, created_at from checkouts where user_id = $1 order by created_at desc
`

func (q *Queries) FindCheckoutsByUserId(ctx context.Context, userID uuid.UUID) ([]Checkout, error) {
	rows, err := q.db.Query(ctx, findCheckoutsByUserId, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Checkout{}
	for rows.Next() {
		var i Checkout
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Items,
			&i.Total,
			&i.CreatedAt,
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

const deleteCheckout = `-- name: DeleteCheckout :exec
delete from checkouts where id = $1
`

func (q *Queries) DeleteCheckout(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteCheckout, id)
	return err
}
