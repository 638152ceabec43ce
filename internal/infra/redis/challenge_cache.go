package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"time"

	"gamified-learning/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ChallengeLoader fetches challenges from the backing store.
type ChallengeLoader interface {
	Get(ctx context.Context, id string) (domain.Challenge, error)
}

// ChallengeCache keeps challenges as JSON blobs in Redis and falls back to the loader on a miss.
// Entries live at challenge:{id} with a jittered TTL.
type ChallengeCache struct {
	client *redis.Client
	loader ChallengeLoader
	ttl    time.Duration
	log    *zap.Logger
	sf     singleflight.Group
}

func NewChallengeCache(client *redis.Client, loader ChallengeLoader, ttl time.Duration, log *zap.Logger) *ChallengeCache {
	return &ChallengeCache{client: client, loader: loader, ttl: ttl, log: log}
}

func (c *ChallengeCache) GetChallenge(ctx context.Context, id string) (domain.Challenge, error) {
	if ch, ok := c.read(ctx, id); ok {
		return ch, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if ch, ok := c.read(ctx, id); ok {
			return ch, nil
		}

		ch, err := c.loader.Get(ctx, id)
		if err != nil {
			return domain.Challenge{}, err
		}
		c.write(ctx, ch)
		return ch, nil
	})
	if err != nil {
		return domain.Challenge{}, err
	}
	return result.(domain.Challenge), nil
}

func (c *ChallengeCache) Invalidate(ctx context.Context, id string) error {
	c.sf.Forget(id)
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *ChallengeCache) read(ctx context.Context, id string) (domain.Challenge, bool) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("challenge cache read failed", zap.String("challengeId", id), zap.Error(err))
		}
		return domain.Challenge{}, false
	}
	var ch domain.Challenge
	if err := json.Unmarshal(raw, &ch); err != nil {
		c.log.Warn("challenge cache entry corrupt", zap.String("challengeId", id), zap.Error(err))
		return domain.Challenge{}, false
	}
	return ch, true
}

// write is best effort; a failed write only costs a reload.
func (c *ChallengeCache) write(ctx context.Context, ch domain.Challenge) {
	ttl := c.ttlWithJitter()
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(ch)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(ch.ID), raw, ttl).Err(); err != nil {
		c.log.Warn("challenge cache write failed", zap.String("challengeId", ch.ID), zap.Error(err))
	}
}

func (c *ChallengeCache) key(id string) string {
	return "challenge:" + id
}

func (c *ChallengeCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int64N(jitterMax+1))
}
