package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/heywon01/math-quiz/internal/domain"
)

const userColumns = "id, user_id, name, password_hash, is_admin, score, latest_quiz_date"

// Create inserts the user. The losing side of a concurrent registration for
// the same name inserts nothing and reports ErrNameTaken.
func (s *Store) Create(ctx context.Context, user domain.User) (domain.User, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, user_id, name, password_hash, is_admin, score, latest_quiz_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (name) DO NOTHING`,
		user.ID, user.UserID, user.Name, user.PasswordHash, user.IsAdmin, user.Score, user.LatestQuizDate)
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	if tag.RowsAffected() == 0 {
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
	row := s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+column+" = $1", value)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user by %s: %w", column, err)
	}
	return user, nil
}

// ListRanked returns non-admin users in leaderboard order. NULLS FIRST keeps
// users who never solved ahead on score ties, matching the other backends.
func (s *Store) ListRanked(ctx context.Context) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE NOT is_admin
		 ORDER BY score DESC, latest_quiz_date ASC NULLS FIRST, name ASC`)
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
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		user   domain.User
		latest *time.Time
	)
	if err := row.Scan(&user.ID, &user.UserID, &user.Name, &user.PasswordHash, &user.IsAdmin, &user.Score, &latest); err != nil {
		return domain.User{}, err
	}
	if latest != nil {
		utc := latest.UTC()
		user.LatestQuizDate = &utc
	}
	return user, nil
}
