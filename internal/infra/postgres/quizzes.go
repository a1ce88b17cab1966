package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/heywon01/math-quiz/internal/domain"
)

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO quizzes (date, question, answer) VALUES ($1, $2, $3)
		 ON CONFLICT (date) DO NOTHING`,
		quiz.Date, quiz.Question, quiz.Answer)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Quiz{}, domain.ErrQuizExists
	}
	if quiz.Solvers == nil {
		quiz.Solvers = []domain.Solver{}
	}
	return quiz, nil
}

func (s *Store) GetQuiz(ctx context.Context, date string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.pool.QueryRow(ctx,
		`SELECT date, question, answer FROM quizzes WHERE date = $1`, date).
		Scan(&quiz.Date, &quiz.Question, &quiz.Answer)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("select quiz: %w", err)
	}

	quiz.Solvers = []domain.Solver{}
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, name, is_correct, solved_at FROM quiz_solvers
		 WHERE quiz_date = $1 ORDER BY solved_at ASC, user_id ASC`, date)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("select solvers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var solver domain.Solver
		if err := rows.Scan(&solver.UserID, &solver.Name, &solver.IsCorrect, &solver.SolvedAt); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan solver: %w", err)
		}
		solver.SolvedAt = solver.SolvedAt.UTC()
		quiz.Solvers = append(quiz.Solvers, solver)
	}
	return quiz, rows.Err()
}

// ListQuizzes returns every quiz with its solvers, newest date first, in one
// join scan instead of a query per quiz.
func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT q.date, q.question, q.answer, s.user_id, s.name, s.is_correct, s.solved_at
		 FROM quizzes q
		 LEFT JOIN quiz_solvers s ON s.quiz_date = q.date
		 ORDER BY q.date DESC, s.solved_at ASC, s.user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("select quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		var (
			quiz      domain.Quiz
			userID    *string
			name      *string
			isCorrect *bool
			solvedAt  *time.Time
		)
		if err := rows.Scan(&quiz.Date, &quiz.Question, &quiz.Answer, &userID, &name, &isCorrect, &solvedAt); err != nil {
			return nil, fmt.Errorf("scan quiz row: %w", err)
		}
		if len(quizzes) == 0 || quizzes[len(quizzes)-1].Date != quiz.Date {
			quiz.Solvers = []domain.Solver{}
			quizzes = append(quizzes, quiz)
		}
		if userID != nil {
			current := &quizzes[len(quizzes)-1]
			current.Solvers = append(current.Solvers, domain.Solver{
				UserID:    *userID,
				Name:      *name,
				IsCorrect: *isCorrect,
				SolvedAt:  solvedAt.UTC(),
			})
		}
	}
	return quizzes, rows.Err()
}

// RecordSolve inserts the solver and applies the score change in one
// transaction. ON CONFLICT DO NOTHING on the (quiz_date, user_id) key
// arbitrates concurrent attempts: the loser changes no rows and is rejected.
func (s *Store) RecordSolve(ctx context.Context, date string, solver domain.Solver) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin solve tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists int
	err = tx.QueryRow(ctx, `SELECT 1 FROM quizzes WHERE date = $1`, date).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrQuizNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("check quiz: %w", err)
	}

	var score int
	err = tx.QueryRow(ctx, `SELECT score FROM users WHERE id = $1`, solver.UserID).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("check user: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO quiz_solvers (quiz_date, user_id, name, is_correct, solved_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (quiz_date, user_id) DO NOTHING`,
		date, solver.UserID, solver.Name, solver.IsCorrect, solver.SolvedAt)
	if err != nil {
		return 0, fmt.Errorf("insert solver: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, domain.ErrAlreadySolved
	}

	if solver.IsCorrect {
		if err := tx.QueryRow(ctx,
			`UPDATE users SET score = score + 1, latest_quiz_date = $1 WHERE id = $2 RETURNING score`,
			solver.SolvedAt, solver.UserID).Scan(&score); err != nil {
			return 0, fmt.Errorf("update score: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit solve tx: %w", err)
	}
	return score, nil
}
