package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

const KeyCarts = "carts:"

func CartKey(userID uuid.UUID) string {
	return KeyCarts + userID.String()
}

type SnapshotStore struct {
	cache redis.Cmdable
	ttl   time.Duration
}

func NewSnapshotStore(cache redis.Cmdable, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{cache: cache, ttl: ttl}
}

func (s *SnapshotStore) Save(c context.Context, userID uuid.UUID, data []byte) error {
	c, span := otel.Tracer.Start(c, "SnapshotStore Save")
	defer span.End()

	cacheKey := CartKey(userID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SnapshotStore Save").
		Str(log.KeyCacheKey, cacheKey).
		Str(log.KeyProcess, "saving cart snapshot to cache").
		Logger()

	logger.Trace().Msg("saving cart snapshot to cache")
	if err := s.cache.Set(c, cacheKey, data, s.ttl).Err(); err != nil {
		err = fmt.Errorf("failed saving cart snapshot to cache with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("saved cart snapshot to cache")

	return nil
}

// Load returns nil data without error when no snapshot exists.
func (s *SnapshotStore) Load(c context.Context, userID uuid.UUID) ([]byte, error) {
	c, span := otel.Tracer.Start(c, "SnapshotStore Load")
	defer span.End()

	cacheKey := CartKey(userID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SnapshotStore Load").
		Str(log.KeyCacheKey, cacheKey).
		Str(log.KeyProcess, "loading cart snapshot from cache").
		Logger()

	logger.Trace().Msg("loading cart snapshot from cache")
	data, err := s.cache.Get(c, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Trace().Msg("cart snapshot not found in cache")
		return nil, nil
	}
	if err != nil {
		err = fmt.Errorf("failed loading cart snapshot from cache with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Msg("loaded cart snapshot from cache")

	return data, nil
}

func (s *SnapshotStore) Delete(c context.Context, userID uuid.UUID) error {
	c, span := otel.Tracer.Start(c, "SnapshotStore Delete")
	defer span.End()

	cacheKey := CartKey(userID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SnapshotStore Delete").
		Str(log.KeyCacheKey, cacheKey).
		Str(log.KeyProcess, "deleting cart snapshot from cache").
		Logger()

	logger.Trace().Msg("deleting cart snapshot from cache")
	if err := s.cache.Del(c, cacheKey).Err(); err != nil {
		err = fmt.Errorf("failed deleting cart snapshot from cache with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("deleted cart snapshot from cache")

	return nil
}
