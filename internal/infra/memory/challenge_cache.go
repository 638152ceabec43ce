package memory

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"gamified-learning/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ChallengeLoader fetches challenges from the backing store.
type ChallengeLoader interface {
	Get(ctx context.Context, id string) (domain.Challenge, error)
}

// ChallengeCache caches challenges with TTL to avoid repeated store hits on the submit path.
type ChallengeCache struct {
	loader ChallengeLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedChallenge
}

type cachedChallenge struct {
	challenge domain.Challenge
	expiresAt time.Time
}

func NewChallengeCache(loader ChallengeLoader, ttl time.Duration) *ChallengeCache {
	return &ChallengeCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		cache:  make(map[string]cachedChallenge),
	}
}

func (c *ChallengeCache) GetChallenge(ctx context.Context, id string) (domain.Challenge, error) {
	if ch, ok := c.lookup(id); ok {
		return ch, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		if ch, ok := c.lookup(id); ok {
			return ch, nil
		}

		ch, err := c.loader.Get(ctx, id)
		if err != nil {
			return domain.Challenge{}, err
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			c.mu.Lock()
			c.cache[id] = cachedChallenge{challenge: ch, expiresAt: c.clock().Add(ttl)}
			c.mu.Unlock()
		}
		return ch, nil
	})
	if err != nil {
		return domain.Challenge{}, err
	}
	return result.(domain.Challenge), nil
}

// Invalidate drops the cached copy so the next read goes to the store.
func (c *ChallengeCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()
	c.sf.Forget(id)
	return nil
}

func (c *ChallengeCache) lookup(id string) (domain.Challenge, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[id]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Challenge{}, false
	}
	return entry.challenge, true
}

func (c *ChallengeCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int64N(jitterMax+1))
}
