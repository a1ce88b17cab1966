package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/heywon01/math-quiz/internal/domain"
)

const userColumns = "id, user_id, name, password_hash, is_admin, score, latest_quiz_date_ms"

// Create inserts the user. Name collisions resolve through the UNIQUE
// constraint: the losing insert changes nothing and reports ErrNameTaken.
func (s *Store) Create(ctx context.Context, user domain.User) (domain.User, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (id, user_id, name, password_hash, is_admin, score, latest_quiz_date_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.UserID, user.Name, user.PasswordHash, boolToInt(user.IsAdmin), user.Score, timeToMillis(user.LatestQuizDate),
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	if inserted == 0 {
		return domain.User{}, domain.ErrNameTaken
	}
	return user, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (domain.User, error) {
	return s.userBy(ctx, "id", id)
}

func (s *Store) GetByName(ctx context.Context, name string) (domain.User, error) {
	return s.userBy(ctx, "name", name)
}

func (s *Store) GetByUserID(ctx context.Context, userID string) (domain.User, error) {
	return s.userBy(ctx, "user_id", userID)
}

func (s *Store) userBy(ctx context.Context, column, value string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+column+" = ?", value)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user by %s: %w", column, err)
	}
	return user, nil
}

// ListRanked returns non-admin users in leaderboard order. SQLite sorts NULL
// first on ASC, which puts users who never solved ahead on score ties.
func (s *Store) ListRanked(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE is_admin = 0
		 ORDER BY score DESC, latest_quiz_date_ms ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("select ranked users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ranked user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		user    domain.User
		isAdmin int64
		latest  sql.NullInt64
	)
	if err := row.Scan(&user.ID, &user.UserID, &user.Name, &user.PasswordHash, &isAdmin, &user.Score, &latest); err != nil {
		return domain.User{}, err
	}
	user.IsAdmin = isAdmin != 0
	user.LatestQuizDate = millisToTime(latest)
	return user, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func timeToMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func millisToTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}
