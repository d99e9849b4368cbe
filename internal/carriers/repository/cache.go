package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"freightline/pkg/logger"
	"freightline/pkg/model"
)

// VerificationCache holds recent external registry answers so repeat callers
// within the TTL do not hit the registry again. Cache failures are logged and
// treated as misses.
type VerificationCache interface {
	Get(ctx context.Context, mcNumber string) (*model.Carrier, bool)
	Put(ctx context.Context, carrier *model.Carrier)
}

type redisVerificationCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewRedisVerificationCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) VerificationCache {
	return &redisVerificationCache{rdb: rdb, ttl: ttl, log: log}
}

func cacheKey(mcNumber string) string {
	return "verify:" + mcNumber
}

func (c *redisVerificationCache) Get(ctx context.Context, mcNumber string) (*model.Carrier, bool) {
	data, err := c.rdb.Get(ctx, cacheKey(mcNumber)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("Verification cache read failed", "mc_number", mcNumber, "error", err)
		}
		return nil, false
	}

	var carrier model.Carrier
	if err := json.Unmarshal(data, &carrier); err != nil {
		c.log.Warn("Verification cache entry corrupt", "mc_number", mcNumber, "error", err)
		return nil, false
	}

	return &carrier, true
}

func (c *redisVerificationCache) Put(ctx context.Context, carrier *model.Carrier) {
	data, err := json.Marshal(carrier)
	if err != nil {
		c.log.Warn("Failed to encode verification for cache", "mc_number", carrier.MCNumber, "error", err)
		return
	}

	if err := c.rdb.Set(ctx, cacheKey(carrier.MCNumber), data, c.ttl).Err(); err != nil {
		c.log.Warn("Verification cache write failed", "mc_number", carrier.MCNumber, "error", err)
	}
}
