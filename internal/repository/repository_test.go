package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productColumns = []string{"id", "name", "price", "image", "description", "category_id", "created_at", "updated_at"}

func TestFindProductById(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.New()
	categoryID := uuid.New()

	tests := []struct {
		name        string
		rows        func(mock pgxmock.PgxPoolIface)
		expected    Product
		expectedErr error
	}{
		{
			name: "given existing product should return product",
			rows: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("from products where id").
					WithArgs(id).
					WillReturnRows(
						pgxmock.NewRows(productColumns).AddRow(
							id, "Pen", decimal.NewFromInt(2), "pen.png", "blue ink",
							uuid.NullUUID{UUID: categoryID, Valid: true}, now, now,
						),
					)
			},
			expected: Product{
				ID:          id,
				Name:        "Pen",
				Price:       decimal.NewFromInt(2),
				Image:       "pen.png",
				Description: "blue ink",
				CategoryID:  uuid.NullUUID{UUID: categoryID, Valid: true},
				CreatedAt:   now,
				UpdatedAt:   now,
			},
		},
		{
			name: "given missing product should return pgx.ErrNoRows",
			rows: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("from products where id").
					WithArgs(id).
					WillReturnError(pgx.ErrNoRows)
			},
			expectedErr: pgx.ErrNoRows,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.rows(mock)

			actual, err := New(mock).FindProductById(context.Background(), id)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, actual)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFindProducts(t *testing.T) {
	now := time.Now().UTC()
	categoryID := uuid.New()

	tests := []struct {
		name        string
		call        func(q *Queries) ([]Product, error)
		rows        func(mock pgxmock.PgxPoolIface)
		expectedLen int
		expectedErr bool
	}{
		{
			name: "given products should return all of them",
			call: func(q *Queries) ([]Product, error) { return q.FindProducts(context.Background()) },
			rows: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("from products order by").
					WillReturnRows(
						pgxmock.NewRows(productColumns).
							AddRow(uuid.New(), "Pen", decimal.NewFromInt(2), "", "", uuid.NullUUID{}, now, now).
							AddRow(uuid.New(), "Book", decimal.NewFromInt(10), "", "", uuid.NullUUID{}, now, now),
					)
			},
			expectedLen: 2,
		},
		{
			name: "given no products should return empty slice",
			call: func(q *Queries) ([]Product, error) { return q.FindProducts(context.Background()) },
			rows: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("from products order by").WillReturnRows(pgxmock.NewRows(productColumns))
			},
		},
		{
			name: "given category should filter by category",
			call: func(q *Queries) ([]Product, error) {
				return q.FindProductsByCategory(context.Background(), categoryID)
			},
			rows: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("where category_id").
					WithArgs(categoryID).
					WillReturnRows(
						pgxmock.NewRows(productColumns).AddRow(
							uuid.New(), "Lamp", decimal.NewFromInt(30), "", "",
							uuid.NullUUID{UUID: categoryID, Valid: true}, now, now,
						),
					)
			},
			expectedLen: 1,
		},
		{
			name: "given pattern should search by name",
			call: func(q *Queries) ([]Product, error) {
				return q.SearchProductsByName(context.Background(), "%pen%")
			},
			rows: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("where name ilike").
					WithArgs("%pen%").
					WillReturnRows(
						pgxmock.NewRows(productColumns).
							AddRow(uuid.New(), "Pen", decimal.NewFromInt(2), "", "", uuid.NullUUID{}, now, now),
					)
			},
			expectedLen: 1,
		},
		{
			name: "given query failure should return error",
			call: func(q *Queries) ([]Product, error) { return q.FindProducts(context.Background()) },
			rows: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("from products order by").WillReturnError(errors.New("connection reset"))
			},
			expectedErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.rows(mock)

			actual, err := tt.call(New(mock))
			if tt.expectedErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, actual)
				assert.Len(t, actual, tt.expectedLen)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFindDeals(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	productID := uuid.New()
	mock.ExpectQuery("from deals d").
		WillReturnRows(
			pgxmock.NewRows([]string{"id", "product_id", "discount_percentage", "starts_at", "ends_at", "name", "price", "image"}).
				AddRow(uuid.New(), productID, decimal.NewFromInt(25), now, now.Add(time.Hour), "Pen", decimal.NewFromInt(4), "pen.png"),
		)

	deals, err := New(mock).FindDeals(context.Background())
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, productID, deals[0].ProductID)
	assert.True(t, decimal.NewFromInt(25).Equal(deals[0].DiscountPercentage))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCategories(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("from categories").
		WillReturnRows(
			pgxmock.NewRows([]string{"id", "name", "image"}).
				AddRow(uuid.New(), "Books", "books.png").
				AddRow(uuid.New(), "Stationery", "stationery.png"),
		)

	categories, err := New(mock).FindCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 2)
	assert.Equal(t, "Books", categories[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserQueries(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.New()
	userColumns := []string{"id", "username", "email", "password", "color_mode", "created_at", "updated_at"}

	tests := []struct {
		name     string
		call     func(q *Queries) (User, error)
		rows     func(mock pgxmock.PgxPoolIface)
		expected ColorMode
	}{
		{
			name: "given new user should insert user",
			call: func(q *Queries) (User, error) {
				return q.InsertUser(context.Background(), InsertUserParams{
					Username: pgtype.Text{},
					Email:    "jane@example.com",
					Password: "hashed",
				})
			},
			rows: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("insert into users").
					WithArgs(pgtype.Text{}, "jane@example.com", "hashed").
					WillReturnRows(pgxmock.NewRows(userColumns).
						AddRow(id, pgtype.Text{}, "jane@example.com", "hashed", ColorModeLight, now, now))
			},
			expected: ColorModeLight,
		},
		{
			name: "given email should find user",
			call: func(q *Queries) (User, error) {
				return q.FindUserByEmail(context.Background(), "jane@example.com")
			},
			rows: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("from users where email").
					WithArgs("jane@example.com").
					WillReturnRows(pgxmock.NewRows(userColumns).
						AddRow(id, pgtype.Text{String: "jane", Valid: true}, "jane@example.com", "hashed", ColorModeLight, now, now))
			},
			expected: ColorModeLight,
		},
		{
			name: "given dark color mode should update user",
			call: func(q *Queries) (User, error) {
				return q.UpdateUserColorMode(context.Background(), UpdateUserColorModeParams{ID: id, ColorMode: ColorModeDark})
			},
			rows: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("update users set color_mode").
					WithArgs(id, ColorModeDark).
					WillReturnRows(pgxmock.NewRows(userColumns).
						AddRow(id, pgtype.Text{}, "jane@example.com", "hashed", ColorModeDark, now, now))
			},
			expected: ColorModeDark,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.rows(mock)

			user, err := tt.call(New(mock))
			require.NoError(t, err)
			assert.Equal(t, id, user.ID)
			assert.Equal(t, tt.expected, user.ColorMode)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInsertCheckoutWithTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	id, userID := uuid.New(), uuid.New()
	items := []byte(`[{"id":"x","quantity":1}]`)

	mock.ExpectBegin()
	mock.ExpectQuery("insert into checkouts").
		WithArgs(id, userID, items, pgxmock.AnyArg()).
		WillReturnRows(
			pgxmock.NewRows([]string{"id", "user_id", "items", "total", "created_at"}).
				AddRow(id, userID, items, decimal.NewFromInt(14), now),
		)
	mock.ExpectCommit()

	c := context.Background()
	tx, err := mock.Begin(c)
	require.NoError(t, err)
	checkout, err := New(mock).WithTx(tx).InsertCheckout(c, InsertCheckoutParams{
		ID:     id,
		UserID: userID,
		Items:  items,
		Total:  decimal.NewFromInt(14),
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(c))

	assert.Equal(t, id, checkout.ID)
	assert.True(t, decimal.NewFromInt(14).Equal(checkout.Total))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCheckout(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec("delete from checkouts where id").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, New(mock).DeleteCheckout(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
