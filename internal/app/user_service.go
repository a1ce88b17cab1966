package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/heywon01/math-quiz/internal/domain"
)

// UserRepository abstracts how users are stored (in-memory, SQLite, Postgres).
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByName(ctx context.Context, name string) (domain.User, error)
	GetByUserID(ctx context.Context, userID string) (domain.User, error)
	ListRanked(ctx context.Context) ([]domain.User, error)
}

// LeaderboardCache serves the ranked user list, reloading from the backing
// store when its snapshot is stale. Invalidate drops the snapshot after a
// score changes.
type LeaderboardCache interface {
	Leaderboard(ctx context.Context) ([]domain.User, error)
	Invalidate(ctx context.Context) error
}

// AdminBootstrap is the fixed credential set the reserved admin account is
// created with on its first login.
type AdminBootstrap struct {
	Name     string
	UserID   string
	Password string
}

// AdminSession is an authenticated admin login with its issued token.
type AdminSession struct {
	User      domain.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// UserService contains the account and leaderboard use cases.
type UserService struct {
	users       UserRepository
	leaderboard LeaderboardCache
	sessions    AdminSessionStore
	admin       AdminBootstrap
	sessionTTL  time.Duration
	now         func() time.Time
}

func NewUserService(users UserRepository, leaderboard LeaderboardCache, sessions AdminSessionStore, admin AdminBootstrap, sessionTTL time.Duration) *UserService {
	return &UserService{
		users:       users,
		leaderboard: leaderboard,
		sessions:    sessions,
		admin:       admin,
		sessionTTL:  sessionTTL,
		now:         time.Now,
	}
}

// LoginOrRegister resolves a display name to an account, creating one on
// first use. The reserved admin name only becomes an admin account when the
// client explicitly asks for admin initialization; the account is created at
// most once because names are unique.
func (s *UserService) LoginOrRegister(ctx context.Context, name string, adminInit bool) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, domain.ErrNameRequired
	}

	user, err := s.users.GetByName(ctx, name)
	if err == nil {
		return user.Sanitized(), nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}

	fresh := domain.User{ID: uuid.NewString(), Name: name}
	if adminInit && name == s.admin.Name {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.admin.Password), bcrypt.DefaultCost)
		if err != nil {
			return domain.User{}, fmt.Errorf("hash admin password: %w", err)
		}
		fresh.UserID = s.admin.UserID
		fresh.PasswordHash = string(hash)
		fresh.IsAdmin = true
	} else {
		fresh.UserID = fmt.Sprintf("%s-%d", name, s.now().UnixMilli())
	}

	created, err := s.users.Create(ctx, fresh)
	if errors.Is(err, domain.ErrNameTaken) {
		// Lost a concurrent registration for the same name; login is
		// get-or-create, so return the account that won.
		if existing, getErr := s.users.GetByName(ctx, name); getErr == nil {
			return existing.Sanitized(), nil
		}
	}
	if err != nil {
		return domain.User{}, err
	}
	return created.Sanitized(), nil
}

// AuthenticateAdmin checks an id/password pair against the stored admin
// account and issues a session token. All failure modes collapse into
// ErrBadCredentials.
func (s *UserService) AuthenticateAdmin(ctx context.Context, userID, password string) (AdminSession, error) {
	user, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return AdminSession{}, domain.ErrBadCredentials
		}
		return AdminSession{}, err
	}
	if !user.IsAdmin || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return AdminSession{}, domain.ErrBadCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return AdminSession{}, err
	}
	if err := s.sessions.Save(ctx, token, user.ID); err != nil {
		return AdminSession{}, err
	}
	return AdminSession{
		User:      user.Sanitized(),
		Token:     token,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}, nil
}

// VerifyAdmin resolves a bearer token to the admin account behind it.
func (s *UserService) VerifyAdmin(ctx context.Context, token string) (domain.User, error) {
	userID, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, domain.ErrSessionExpired
		}
		return domain.User{}, err
	}
	if !user.IsAdmin {
		return domain.User{}, domain.ErrSessionExpired
	}
	return user.Sanitized(), nil
}

// Leaderboard returns the current scoreboard, served through the cache.
func (s *UserService) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	users, err := s.leaderboard.Leaderboard(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	entries := make([]domain.User, 0, len(users))
	for _, u := range users {
		entries = append(entries, u.Sanitized())
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now()}, nil
}
