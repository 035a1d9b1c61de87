package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyRevokedToken = "revoked_tokens:%s"

type RevocationStore struct {
	cache redis.Cmdable
}

func NewRevocationStore(cache redis.Cmdable) *RevocationStore {
	return &RevocationStore{cache: cache}
}

// Revoke marks the token id as revoked until expiresAt; nothing is stored for an
// already expired token.
func (s *RevocationStore) Revoke(c context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	err := s.cache.Set(c, fmt.Sprintf(keyRevokedToken, tokenID), "1", ttl).Err()
	if err != nil {
		return fmt.Errorf("failed revoking tokenId=%s with error=%w", tokenID, err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(c context.Context, tokenID string) (bool, error) {
	err := s.cache.Get(c, fmt.Sprintf(keyRevokedToken, tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed checking tokenId=%s with error=%w", tokenID, err)
	}
	return true, nil
}
