// Package session resolves bearer tokens issued by the user service into
// caller identities.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharonlnl728/content-audit-platform/internal/cache"
	"github.com/sharonlnl728/content-audit-platform/internal/model"
)

// ErrUnknownToken is returned for tokens that are absent or expired.
var ErrUnknownToken = errors.New("token expired or invalid")

// KeyPrefix is the namespace the user service writes sessions under.
const KeyPrefix = "token:"

// Store looks up the identity bound to a session token.
type Store interface {
	Lookup(ctx context.Context, token string) (model.Identity, error)
}

// CacheStore reads sessions from the shared cache.
type CacheStore struct {
	cache cache.Cache
}

func NewCacheStore(c cache.Cache) *CacheStore {
	return &CacheStore{cache: c}
}

var _ Store = (*CacheStore)(nil)

func (s *CacheStore) Lookup(ctx context.Context, token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, ErrUnknownToken
	}
	raw, err := s.cache.Get(ctx, KeyPrefix+token)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return model.Identity{}, ErrUnknownToken
		}
		return model.Identity{}, fmt.Errorf("session lookup: %w", err)
	}
	return model.DecodeIdentity(raw)
}
