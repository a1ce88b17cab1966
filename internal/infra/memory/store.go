package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/heywon01/math-quiz/internal/domain"
)

// Store is the in-memory backend used for dev mode and tests. One mutex
// spans users and quizzes so RecordSolve stays atomic in-process.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*domain.User
	byName   map[string]string
	byUserID map[string]string
	quizzes  map[string]*quizRecord
}

type quizRecord struct {
	quiz   domain.Quiz
	solved map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]*domain.User),
		byName:   make(map[string]string),
		byUserID: make(map[string]string),
		quizzes:  make(map[string]*quizRecord),
	}
}

func (s *Store) Create(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[user.Name]; ok {
		return domain.User{}, domain.ErrNameTaken
	}
	stored := user
	s.users[user.ID] = &stored
	s.byName[user.Name] = user.ID
	s.byUserID[user.UserID] = user.ID
	return user, nil
}

func (s *Store) GetByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked(id)
}

func (s *Store) GetByName(_ context.Context, name string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked(s.byName[name])
}

func (s *Store) GetByUserID(_ context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked(s.byUserID[userID])
}

func (s *Store) userLocked(id string) (domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *user, nil
}

func (s *Store) ListRanked(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ranked := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		if user.IsAdmin {
			continue
		}
		ranked = append(ranked, *user)
	}
	domain.SortRanked(ranked)
	return ranked, nil
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.Date]; ok {
		return domain.Quiz{}, domain.ErrQuizExists
	}
	stored := quiz
	stored.Solvers = append([]domain.Solver(nil), quiz.Solvers...)
	s.quizzes[quiz.Date] = &quizRecord{quiz: stored, solved: make(map[string]struct{})}
	return quiz, nil
}

func (s *Store) GetQuiz(_ context.Context, date string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.quizzes[date]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return copyQuiz(record.quiz), nil
}

func (s *Store) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates := make([]string, 0, len(s.quizzes))
	for date := range s.quizzes {
		dates = append(dates, date)
	}
	// YYYY-MM-DD sorts chronologically as text; newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	quizzes := make([]domain.Quiz, 0, len(dates))
	for _, date := range dates {
		quizzes = append(quizzes, copyQuiz(s.quizzes[date].quiz))
	}
	return quizzes, nil
}

// RecordSolve appends the solver to the quiz unless they already attempted
// it, bumps the score on a correct answer, and returns the resulting score.
func (s *Store) RecordSolve(_ context.Context, date string, solver domain.Solver) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.quizzes[date]
	if !ok {
		return 0, domain.ErrQuizNotFound
	}
	user, ok := s.users[solver.UserID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	if _, dup := record.solved[solver.UserID]; dup {
		return 0, domain.ErrAlreadySolved
	}

	record.solved[solver.UserID] = struct{}{}
	record.quiz.Solvers = append(record.quiz.Solvers, solver)
	if solver.IsCorrect {
		user.Score++
		solvedAt := solver.SolvedAt
		user.LatestQuizDate = &solvedAt
	}
	return user.Score, nil
}

func copyQuiz(quiz domain.Quiz) domain.Quiz {
	out := quiz
	out.Solvers = append([]domain.Solver(nil), quiz.Solvers...)
	if out.Solvers == nil {
		out.Solvers = []domain.Solver{}
	}
	return out
}
