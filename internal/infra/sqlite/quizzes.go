package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/heywon01/math-quiz/internal/domain"
)

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO quizzes (date, question, answer) VALUES (?, ?, ?)`,
		quiz.Date, quiz.Question, quiz.Answer)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	if inserted == 0 {
		return domain.Quiz{}, domain.ErrQuizExists
	}
	if quiz.Solvers == nil {
		quiz.Solvers = []domain.Solver{}
	}
	return quiz, nil
}

func (s *Store) GetQuiz(ctx context.Context, date string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.db.QueryRowContext(ctx,
		`SELECT date, question, answer FROM quizzes WHERE date = ?`, date).
		Scan(&quiz.Date, &quiz.Question, &quiz.Answer)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("select quiz: %w", err)
	}

	quiz.Solvers = []domain.Solver{}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, name, is_correct, solved_at_ms FROM quiz_solvers
		 WHERE quiz_date = ? ORDER BY solved_at_ms ASC, user_id ASC`, date)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("select solvers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		solver, err := scanSolver(rows)
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("scan solver: %w", err)
		}
		quiz.Solvers = append(quiz.Solvers, solver)
	}
	return quiz, rows.Err()
}

// ListQuizzes returns every quiz with its solvers, newest date first, in one
// join scan instead of a query per quiz.
func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT q.date, q.question, q.answer, s.user_id, s.name, s.is_correct, s.solved_at_ms
		 FROM quizzes q
		 LEFT JOIN quiz_solvers s ON s.quiz_date = q.date
		 ORDER BY q.date DESC, s.solved_at_ms ASC, s.user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("select quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		var (
			quiz      domain.Quiz
			userID    sql.NullString
			name      sql.NullString
			isCorrect sql.NullInt64
			solvedAt  sql.NullInt64
		)
		if err := rows.Scan(&quiz.Date, &quiz.Question, &quiz.Answer, &userID, &name, &isCorrect, &solvedAt); err != nil {
			return nil, fmt.Errorf("scan quiz row: %w", err)
		}
		if len(quizzes) == 0 || quizzes[len(quizzes)-1].Date != quiz.Date {
			quiz.Solvers = []domain.Solver{}
			quizzes = append(quizzes, quiz)
		}
		if userID.Valid {
			current := &quizzes[len(quizzes)-1]
			current.Solvers = append(current.Solvers, domain.Solver{
				UserID:    userID.String,
				Name:      name.String,
				IsCorrect: isCorrect.Int64 != 0,
				SolvedAt:  time.UnixMilli(solvedAt.Int64).UTC(),
			})
		}
	}
	return quizzes, rows.Err()
}

// RecordSolve inserts the solver and applies the score change in one
// transaction. The (quiz_date, user_id) primary key arbitrates concurrent
// attempts: the losing insert changes no rows and the attempt is rejected.
func (s *Store) RecordSolve(ctx context.Context, date string, solver domain.Solver) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin solve tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE date = ?`, date).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrQuizNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("check quiz: %w", err)
	}

	var score int
	err = tx.QueryRowContext(ctx, `SELECT score FROM users WHERE id = ?`, solver.UserID).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("check user: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO quiz_solvers (quiz_date, user_id, name, is_correct, solved_at_ms)
		 VALUES (?, ?, ?, ?, ?)`,
		date, solver.UserID, solver.Name, boolToInt(solver.IsCorrect), solver.SolvedAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert solver: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert solver: %w", err)
	}
	if inserted == 0 {
		return 0, domain.ErrAlreadySolved
	}

	if solver.IsCorrect {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET score = score + 1, latest_quiz_date_ms = ? WHERE id = ?`,
			solver.SolvedAt.UnixMilli(), solver.UserID); err != nil {
			return 0, fmt.Errorf("update score: %w", err)
		}
		score++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit solve tx: %w", err)
	}
	return score, nil
}

func scanSolver(rows *sql.Rows) (domain.Solver, error) {
	var (
		solver    domain.Solver
		isCorrect int64
		solvedAt  int64
	)
	if err := rows.Scan(&solver.UserID, &solver.Name, &isCorrect, &solvedAt); err != nil {
		return domain.Solver{}, err
	}
	solver.IsCorrect = isCorrect != 0
	solver.SolvedAt = time.UnixMilli(solvedAt).UTC()
	return solver, nil
}
