package domain

import (
	"sort"
	"time"
)

// User is a registered player identified by display name. The reserved admin
// account is the only user carrying a credential hash.
type User struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Name           string     `json:"name"`
	PasswordHash   string     `json:"-"`
	IsAdmin        bool       `json:"isAdmin"`
	Score          int        `json:"score"`
	LatestQuizDate *time.Time `json:"latestQuizDate"`
}

// Sanitized returns a copy of the user with the credential hash cleared.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// Solver is one recorded attempt on a quiz. A user appears at most once per
// quiz; the name is captured at solve time.
type Solver struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	IsCorrect bool      `json:"isCorrect"`
	SolvedAt  time.Time `json:"solvedAt"`
}

// Quiz is one day's problem, keyed by its YYYY-MM-DD date.
type Quiz struct {
	Date     string   `json:"date"`
	Question string   `json:"question"`
	Answer   int64    `json:"answer"`
	Solvers  []Solver `json:"solvers"`
}

// SolveResult summarizes the outcome of a solve attempt for a single user.
type SolveResult struct {
	Success   bool `json:"success"`
	IsCorrect bool `json:"isCorrect"`
	NewScore  int  `json:"newScore"`
}

// Leaderboard captures the ordered scoreboard of non-admin users.
type Leaderboard struct {
	Entries   []User    `json:"entries"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SortRanked orders users in leaderboard order: score descending, then
// earliest latest-quiz-date first (users who never solved rank ahead on ties),
// then name ascending.
func SortRanked(users []User) {
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Score != users[j].Score {
			return users[i].Score > users[j].Score
		}
		di, dj := users[i].LatestQuizDate, users[j].LatestQuizDate
		switch {
		case di == nil && dj != nil:
			return true
		case di != nil && dj == nil:
			return false
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.Before(*dj)
		}
		return users[i].Name < users[j].Name
	})
}
