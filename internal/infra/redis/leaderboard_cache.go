package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/heywon01/math-quiz/internal/domain"
)

const leaderboardKey = "leaderboard:ranked"

// RankedLister loads the ranked user list from the backing store.
type RankedLister interface {
	ListRanked(ctx context.Context) ([]domain.User, error)
}

// LeaderboardCache keeps the ranked user list in Redis as a JSON blob and
// falls back to the lister on cache miss. A shared cache keeps every
// instance serving the same ranking between refreshes.
type LeaderboardCache struct {
	client *redis.Client
	lister RankedLister
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewLeaderboardCache(client *redis.Client, lister RankedLister, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		lister: lister,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) Leaderboard(ctx context.Context) ([]domain.User, error) {
	if users, ok := c.cached(ctx); ok {
		return users, nil
	}

	result, err, _ := c.sf.Do(leaderboardKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if users, ok := c.cached(ctx); ok {
			return users, nil
		}

		users, err := c.lister.ListRanked(ctx)
		if err != nil {
			return nil, err
		}

		if payload, err := json.Marshal(users); err == nil {
			// best-effort write; a failed SET just means the next read reloads
			_ = c.client.Set(ctx, leaderboardKey, payload, c.ttlWithJitter()).Err()
		}
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.User), nil
}

// Invalidate drops the cached ranking so the next read reloads from the store.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, leaderboardKey).Err(); err != nil {
		return fmt.Errorf("invalidate leaderboard cache: %w", err)
	}
	return nil
}

func (c *LeaderboardCache) cached(ctx context.Context) ([]domain.User, bool) {
	payload, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		return nil, false
	}
	var users []domain.User
	if err := json.Unmarshal(payload, &users); err != nil {
		return nil, false
	}
	return users, true
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
