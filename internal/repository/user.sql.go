package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const findUserByEmail = `-- name: FindUserByEmail :one
select id, username, email, password, color_mode, created_at, updated_at from users where email = $1 limit 1
`

func (q *Queries) FindUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, findUserByEmail, email)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.Email,
		&i.Password,
		&i.ColorMode,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findUserById = `-- name: FindUserById :one
select id, username, email, password, color_mode, created_at, updated_at from users where id = $1 limit 1
`

func (q *Queries) FindUserById(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, findUserById, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.Email,
		&i.Password,
		&i.ColorMode,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertUser = `-- name: InsertUser :one
insert into users (username, email, password) values ($1, $2, $3)
returning id, username, email, password, color_mode, created_at, updated_at
`

type InsertUserParams struct {
	Username pgtype.Text `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
}

func (q *Queries) InsertUser(ctx context.Context, arg InsertUserParams) (User, error) {
	row := q.db.QueryRow(ctx, insertUser, arg.Username, arg.Email, arg.Password)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.Email,
		&i.Password,
		&i.ColorMode,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateUserColorMode = `-- name: UpdateUserColorMode :one
update users set color_mode = $2, updated_at = now() where id = $1
returning id, username, email, password, color_mode, created_at, updated_at
`

type UpdateUserColorModeParams struct {
	ID        uuid.UUID `json:"id"`
	ColorMode ColorMode `json:"color_mode"`
}

func (q *Queries) UpdateUserColorMode(ctx context.Context, arg UpdateUserColorModeParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUserColorMode, arg.ID, arg.ColorMode)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.Email,
		&i.Password,
		&i.ColorMode,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
