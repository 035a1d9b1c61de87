package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Alturino/storefront/product/pkg/response"
)

const (
	KeyProducts = "products:"
	ProductTTL  = 10 * time.Minute
)

func ProductKey(id uuid.UUID) string {
	return KeyProducts + id.String()
}

type ProductCache struct {
	cache redis.Cmdable
	ttl   time.Duration
}

func NewProductCache(cache redis.Cmdable, ttl time.Duration) *ProductCache {
	return &ProductCache{cache: cache, ttl: ttl}
}

// Get reports false without error on a cache miss.
func (p *ProductCache) Get(c context.Context, id uuid.UUID) (response.Product, bool, error) {
	jsonCache, err := p.cache.Get(c, ProductKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return response.Product{}, false, nil
	}
	if err != nil {
		return response.Product{}, false, fmt.Errorf("failed getting product from cache with error=%w", err)
	}
	product := response.Product{}
	if err := json.Unmarshal(jsonCache, &product); err != nil {
		return response.Product{}, false, fmt.Errorf("failed unmarshaling product from cache with error=%w", err)
	}
	return product, true, nil
}

func (p *ProductCache) Set(c context.Context, product response.Product) error {
	jsonCache, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed marshaling product with error=%w", err)
	}
	if err := p.cache.Set(c, ProductKey(product.ID), jsonCache, p.ttl).Err(); err != nil {
		return fmt.Errorf("failed setting product to cache with error=%w", err)
	}
	return nil
}
