package auth

import (
	"context"
	"time"

	"github.com/geocoder89/todolist/internal/cache"
)

// Revoker remembers logged-out token ids until the tokens would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const sweepThreshold = 10000

// CacheRevoker keeps revocations in process memory. Used when no redis is configured.
type CacheRevoker struct {
	c *cache.Cache
}

func NewCacheRevoker() *CacheRevoker {
	return &CacheRevoker{c: cache.New(AccessTokenTTL)}
}

func (r *CacheRevoker) Revoke(_ context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if r.c.Len() >= sweepThreshold {
		r.c.Sweep()
	}
	r.c.SetWithTTL(revokedKey(jti), true, ttl)
	return nil
}

func (r *CacheRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := r.c.Get(revokedKey(jti))
	return ok, nil
}

func revokedKey(jti string) string {
	return "revoked:" + jti
}
