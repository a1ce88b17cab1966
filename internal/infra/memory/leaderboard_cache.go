package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/heywon01/math-quiz/internal/domain"
)

// RankedLister loads the ranked user list from the backing store.
type RankedLister interface {
	ListRanked(ctx context.Context) ([]domain.User, error)
}

// LeaderboardCache memoizes the ranked user list with a TTL so repeated
// leaderboard reads stay off the backing store.
type LeaderboardCache struct {
	lister RankedLister
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	snapshot  []domain.User
	expiresAt time.Time
	valid     bool
}

func NewLeaderboardCache(lister RankedLister, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		lister: lister,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) Leaderboard(ctx context.Context) ([]domain.User, error) {
	now := c.clock()

	c.mu.RLock()
	if c.valid && c.expiresAt.After(now) {
		users := append([]domain.User(nil), c.snapshot...)
		c.mu.RUnlock()
		return users, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("leaderboard", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.valid && c.expiresAt.After(now) {
			users := append([]domain.User(nil), c.snapshot...)
			c.mu.RUnlock()
			return users, nil
		}
		c.mu.RUnlock()

		users, err := c.lister.ListRanked(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.snapshot = users
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.valid = true
		c.mu.Unlock()
		return append([]domain.User(nil), users...), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.User), nil
}

// Invalidate drops the snapshot so the next read reloads from the store.
func (c *LeaderboardCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.valid = false
	c.snapshot = nil
	c.mu.Unlock()
	return nil
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
