package app

import (
	"sync"
	"time"

	"github.com/heywon01/math-quiz/internal/domain"
)

// LeaderboardHub fans leaderboard snapshots out to websocket subscribers.
type LeaderboardHub struct {
	now func() time.Time

	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardHub() *LeaderboardHub {
	return newLeaderboardHubWithClock(time.Now)
}

// newLeaderboardHubWithClock allows deterministic timestamps in tests.
func newLeaderboardHubWithClock(now func() time.Time) *LeaderboardHub {
	return &LeaderboardHub{
		now:         now,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe returns a channel that receives each published snapshot. The
// caller must invoke the returned cancel function to avoid leaks.
func (h *LeaderboardHub) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast stamps the entries into a snapshot and delivers it to every
// subscriber. Slow subscribers lose stale snapshots rather than blocking the
// solve path.
func (h *LeaderboardHub) Broadcast(entries []domain.User) domain.Leaderboard {
	lb := domain.Leaderboard{Entries: entries, UpdatedAt: h.now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
	return lb
}
