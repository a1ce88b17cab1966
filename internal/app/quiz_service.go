package app

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/heywon01/math-quiz/internal/domain"
)

// QuizRepository abstracts quiz storage. RecordSolve applies the one-attempt
// guard and any score change atomically and returns the solver's score after
// the attempt.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	GetQuiz(ctx context.Context, date string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	RecordSolve(ctx context.Context, date string, solver domain.Solver) (int, error)
}

// QuizService contains the quiz lifecycle use cases.
type QuizService struct {
	quizzes     QuizRepository
	users       UserRepository
	leaderboard LeaderboardCache
	hub         *LeaderboardHub
	now         func() time.Time
}

func NewQuizService(quizzes QuizRepository, users UserRepository, leaderboard LeaderboardCache, hub *LeaderboardHub) *QuizService {
	return &QuizService{
		quizzes:     quizzes,
		users:       users,
		leaderboard: leaderboard,
		hub:         hub,
		now:         time.Now,
	}
}

// Create stores a new quiz. The date is the identity: creating a second quiz
// for the same day fails with ErrQuizExists and leaves the stored one intact.
func (s *QuizService) Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	quiz.Date = strings.TrimSpace(quiz.Date)
	quiz.Question = strings.TrimSpace(quiz.Question)
	if quiz.Date == "" || quiz.Question == "" {
		return domain.Quiz{}, domain.ErrInvalidQuiz
	}
	if _, err := time.Parse("2006-01-02", quiz.Date); err != nil {
		return domain.Quiz{}, domain.ErrInvalidDate
	}
	quiz.Solvers = []domain.Solver{}
	return s.quizzes.CreateQuiz(ctx, quiz)
}

// List returns all quizzes with their solver lists, newest date first.
func (s *QuizService) List(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizzes.ListQuizzes(ctx)
}

// Get returns a single quiz by date.
func (s *QuizService) Get(ctx context.Context, date string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, date)
}

// Solve records a user's attempt on the quiz for the given date. The answer
// arrives as raw text; anything that does not parse as an integer counts as
// incorrect. A user gets exactly one attempt per quiz, and only a correct one
// moves their score.
func (s *QuizService) Solve(ctx context.Context, date, userID, answer string) (domain.SolveResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, date)
	if err != nil {
		return domain.SolveResult{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.SolveResult{}, err
	}

	parsed, parseErr := strconv.ParseInt(strings.TrimSpace(answer), 10, 64)
	correct := parseErr == nil && parsed == quiz.Answer

	solver := domain.Solver{
		UserID:    user.ID,
		Name:      user.Name,
		IsCorrect: correct,
		SolvedAt:  s.now(),
	}
	newScore, err := s.quizzes.RecordSolve(ctx, date, solver)
	if err != nil {
		return domain.SolveResult{}, err
	}

	if correct {
		s.publishLeaderboard(ctx)
	}
	return domain.SolveResult{Success: true, IsCorrect: correct, NewScore: newScore}, nil
}

// publishLeaderboard refreshes the cached ranking and pushes it to websocket
// subscribers. Failures are logged, not surfaced: the solve already happened.
func (s *QuizService) publishLeaderboard(ctx context.Context) {
	if err := s.leaderboard.Invalidate(ctx); err != nil {
		log.Printf("leaderboard invalidate failed: %v", err)
	}
	if s.hub == nil {
		return
	}
	users, err := s.leaderboard.Leaderboard(ctx)
	if err != nil {
		log.Printf("leaderboard reload failed: %v", err)
		return
	}
	entries := make([]domain.User, 0, len(users))
	for _, u := range users {
		entries = append(entries, u.Sanitized())
	}
	s.hub.Broadcast(entries)
}
