package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/product/internal/otel"
	"github.com/Alturino/storefront/product/pkg/request"
	"github.com/Alturino/storefront/product/pkg/response"
)

type ProductCache interface {
	Get(c context.Context, id uuid.UUID) (response.Product, bool, error)
	Set(c context.Context, product response.Product) error
}

type ProductService struct {
	queries *repository.Queries
	cache   ProductCache
	group   singleflight.Group
}

func NewProductService(queries *repository.Queries, cache ProductCache) *ProductService {
	return &ProductService{queries: queries, cache: cache}
}

func (svc *ProductService) FindProducts(
	c context.Context,
	param request.FindProducts,
) ([]response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService FindProducts").
		Str(log.KeyProcess, "finding products in database").
		Logger()

	var (
		products []repository.Product
		err      error
	)
	logger.Trace().Msg("finding products in database")
	if param.CategoryID.Valid {
		logger = logger.With().Str(log.KeyCategoryID, param.CategoryID.UUID.String()).Logger()
		products, err = svc.queries.FindProductsByCategory(c, param.CategoryID.UUID)
	} else {
		products, err = svc.queries.FindProducts(c)
	}
	if err != nil {
		err = fmt.Errorf("failed finding products in database with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Int(log.KeyProducts, len(products)).Msg("found products in database")

	return productsResponse(products), nil
}

// FindProductById reads through the cache; concurrent misses for the same id share
// one database query.
func (svc *ProductService) FindProductById(c context.Context, id uuid.UUID) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindProductById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService FindProductById").
		Str(log.KeyProductID, id.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding product in cache").Logger()
	logger.Trace().Msg("finding product in cache")
	product, found, err := svc.cache.Get(c, id)
	if err != nil {
		logger.Warn().Err(err).Msg("failed finding product in cache, falling back to database")
	}
	if found {
		logger.Trace().Msg("found product in cache")
		return product, nil
	}

	logger = logger.With().Str(log.KeyProcess, "finding product in database").Logger()
	logger.Trace().Msg("finding product in database")
	v, err, shared := svc.group.Do(id.String(), func() (interface{}, error) {
		// the query is shared, so it must not end with the caller that started it
		detached := context.WithoutCancel(c)
		product, err := svc.queries.FindProductById(detached, id)
		if err != nil {
			return nil, err
		}
		resp := product.Response()
		if err := svc.cache.Set(detached, resp); err != nil {
			logger.Warn().Err(err).Msg("failed setting product to cache")
		}
		return resp, nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("productId=%s with error=%w", id, inErrors.ErrProductNotFound)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	if err != nil {
		err = fmt.Errorf("failed finding product in database with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Trace().Bool("shared", shared).Msg("found product in database")

	return v.(response.Product), nil
}

// SearchProducts matches names case-insensitively. A blank query matches nothing and
// never reaches the database.
func (svc *ProductService) SearchProducts(
	c context.Context,
	param request.SearchProducts,
) ([]response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService SearchProducts")
	defer span.End()

	query := strings.TrimSpace(param.Query)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService SearchProducts").
		Str(log.KeyQuery, query).
		Logger()

	if query == "" {
		logger.Trace().Msg("blank query, returning no products")
		return []response.Product{}, nil
	}

	logger = logger.With().Str(log.KeyProcess, "searching products in database").Logger()
	logger.Trace().Msg("searching products in database")
	products, err := svc.queries.SearchProductsByName(c, "%"+escapeLike(query)+"%")
	if err != nil {
		err = fmt.Errorf("failed searching products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Int(log.KeyProducts, len(products)).Msg("searched products in database")

	return productsResponse(products), nil
}

func (svc *ProductService) FindCategories(c context.Context) ([]response.Category, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindCategories")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService FindCategories").
		Str(log.KeyProcess, "finding categories in database").
		Logger()

	categories, err := svc.queries.FindCategories(c)
	if err != nil {
		err = fmt.Errorf("failed finding categories with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	resp := make([]response.Category, len(categories))
	for i, category := range categories {
		resp[i] = category.Response()
	}
	return resp, nil
}

func (svc *ProductService) FindDeals(c context.Context) ([]response.Deal, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindDeals")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService FindDeals").
		Str(log.KeyProcess, "finding deals in database").
		Logger()

	deals, err := svc.queries.FindDeals(c)
	if err != nil {
		err = fmt.Errorf("failed finding deals with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	resp := make([]response.Deal, len(deals))
	for i, deal := range deals {
		resp[i] = deal.Response()
	}
	return resp, nil
}

func productsResponse(products []repository.Product) []response.Product {
	resp := make([]response.Product, len(products))
	for i, product := range products {
		resp[i] = product.Response()
	}
	return resp
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
