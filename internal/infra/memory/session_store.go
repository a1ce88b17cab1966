package memory

import (
	"context"
	"sync"
	"time"

	"github.com/heywon01/math-quiz/internal/domain"
)

// SessionStore keeps admin session tokens in memory with a TTL.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	sessions map[string]session
}

type session struct {
	userID    string
	expiresAt time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]session),
	}
}

func (s *SessionStore) Save(_ context.Context, token, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session{userID: userID, expiresAt: s.clock().Add(s.ttl)}
	return nil
}

func (s *SessionStore) Lookup(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[token]
	if !ok {
		return "", domain.ErrSessionExpired
	}
	if !entry.expiresAt.After(s.clock()) {
		delete(s.sessions, token)
		return "", domain.ErrSessionExpired
	}
	return entry.userID, nil
}
