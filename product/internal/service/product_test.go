package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/product/pkg/request"
	"github.com/Alturino/storefront/product/pkg/response"
)

var productColumns = []string{"id", "name", "price", "image", "description", "category_id", "created_at", "updated_at"}

type fakeCache struct {
	mu       sync.Mutex
	products map[uuid.UUID]response.Product
	getErr   error
	sets     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{products: map[uuid.UUID]response.Product{}}
}

func (f *fakeCache) Get(_ context.Context, id uuid.UUID) (response.Product, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return response.Product{}, false, f.getErr
	}
	p, ok := f.products[id]
	return p, ok, nil
}

func (f *fakeCache) Set(_ context.Context, p response.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.products[p.ID] = p
	return nil
}

func newService(t *testing.T) (*ProductService, pgxmock.PgxPoolIface, *fakeCache) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	cache := newFakeCache()
	return NewProductService(repository.New(mock), cache), mock, cache
}

func TestFindProductById(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()

	tests := []struct {
		name         string
		cached       bool
		cacheErr     error
		expectations func(mock pgxmock.PgxPoolIface)
		expectedErr  error
		expectedSets int
	}{
		{
			name:         "given cached product should not query database",
			cached:       true,
			expectations: func(pgxmock.PgxPoolIface) {},
		},
		{
			name: "given cache miss should query database and fill cache",
			expectations: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("from products where id").WithArgs(id).
					WillReturnRows(pgxmock.NewRows(productColumns).
						AddRow(id, "Pen", decimal.NewFromInt(2), "", "", uuid.NullUUID{}, now, now))
			},
			expectedSets: 1,
		},
		{
			name:     "given broken cache should fall back to database",
			cacheErr: errors.New("connection refused"),
			expectations: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("from products where id").WithArgs(id).
					WillReturnRows(pgxmock.NewRows(productColumns).
						AddRow(id, "Pen", decimal.NewFromInt(2), "", "", uuid.NullUUID{}, now, now))
			},
			expectedSets: 1,
		},
		{
			name: "given unknown product should return ErrProductNotFound",
			expectations: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("from products where id").WithArgs(id).WillReturnError(pgx.ErrNoRows)
			},
			expectedErr: inErrors.ErrProductNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, cache := newService(t)
			cache.getErr = tt.cacheErr
			if tt.cached {
				cache.products[id] = response.Product{ID: id, Name: "Pen", Price: decimal.NewFromInt(2)}
			}
			tt.expectations(mock)

			product, err := svc.FindProductById(context.Background(), id)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, id, product.ID)
				assert.Equal(t, "Pen", product.Name)
			}
			assert.Equal(t, tt.expectedSets, cache.sets)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFindProductByIdSharedQueryOutlivesFirstCaller(t *testing.T) {
	svc, mock, cache := newService(t)
	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery("from products where id").WithArgs(id).
		WillReturnRows(pgxmock.NewRows(productColumns).
			AddRow(id, "Pen", decimal.NewFromInt(2), "", "", uuid.NullUUID{}, now, now)).
		WillDelayFor(100 * time.Millisecond)

	first, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var firstErr, secondErr error
	var second response.Product

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, firstErr = svc.FindProductById(first, id)
	}()
	time.Sleep(10 * time.Millisecond)
	go func() {
		defer wg.Done()
		second, secondErr = svc.FindProductById(context.Background(), id)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	wg.Wait()

	require.NoError(t, secondErr, "a caller joining the query is not failed by the first caller leaving")
	assert.Equal(t, id, second.ID)
	assert.NoError(t, firstErr)
	assert.Equal(t, 1, cache.sets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindProducts(t *testing.T) {
	now := time.Now().UTC()
	categoryID := uuid.New()

	tests := []struct {
		name         string
		param        request.FindProducts
		expectations func(mock pgxmock.PgxPoolIface)
		expectedLen  int
	}{
		{
			name: "given no category should return all products",
			expectations: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("from products order by").
					WillReturnRows(pgxmock.NewRows(productColumns).
						AddRow(uuid.New(), "Pen", decimal.NewFromInt(2), "", "", uuid.NullUUID{}, now, now).
						AddRow(uuid.New(), "Book", decimal.NewFromInt(10), "", "", uuid.NullUUID{}, now, now))
			},
			expectedLen: 2,
		},
		{
			name:  "given category should filter products",
			param: request.FindProducts{CategoryID: uuid.NullUUID{UUID: categoryID, Valid: true}},
			expectations: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("where category_id").WithArgs(categoryID).
					WillReturnRows(pgxmock.NewRows(productColumns))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, _ := newService(t)
			tt.expectations(mock)

			products, err := svc.FindProducts(context.Background(), tt.param)
			require.NoError(t, err)
			assert.NotNil(t, products)
			assert.Len(t, products, tt.expectedLen)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSearchProducts(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name         string
		query        string
		expectations func(mock pgxmock.PgxPoolIface)
		expectedLen  int
	}{
		{
			name:         "given blank query should return empty list without querying",
			query:        "   ",
			expectations: func(pgxmock.PgxPoolIface) {},
		},
		{
			name:  "given query should search with wildcards",
			query: " pen ",
			expectations: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("where name ilike").WithArgs("%pen%").
					WillReturnRows(pgxmock.NewRows(productColumns).
						AddRow(uuid.New(), "Pen", decimal.NewFromInt(2), "", "", uuid.NullUUID{}, now, now))
			},
			expectedLen: 1,
		},
		{
			name:  "given wildcard characters should escape them",
			query: "50%_off",
			expectations: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("where name ilike").WithArgs(`%50\%\_off%`).
					WillReturnRows(pgxmock.NewRows(productColumns))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, _ := newService(t)
			tt.expectations(mock)

			products, err := svc.SearchProducts(context.Background(), request.SearchProducts{Query: tt.query})
			require.NoError(t, err)
			assert.NotNil(t, products)
			assert.Len(t, products, tt.expectedLen)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFindDeals(t *testing.T) {
	svc, mock, _ := newService(t)
	now := time.Now().UTC()
	mock.ExpectQuery("from deals d").
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "discount_percentage", "starts_at", "ends_at", "name", "price", "image"}).
			AddRow(uuid.New(), uuid.New(), decimal.NewFromInt(15), now, now, "Book", decimal.NewFromInt(10), "book.png"))

	deals, err := svc.FindDeals(context.Background())
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.True(t, decimal.RequireFromString("8.5").Equal(deals[0].DiscountedPrice))
	assert.True(t, decimal.NewFromInt(10).Equal(deals[0].OriginalPrice))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCategories(t *testing.T) {
	svc, mock, _ := newService(t)
	mock.ExpectQuery("from categories").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "image"}).AddRow(uuid.New(), "Books", ""))

	categories, err := svc.FindCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Books", categories[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b\%c\_d`, escapeLike(`a\b%c_d`))
}
