// Package http exposes the quiz service over REST endpoints, a websocket
// leaderboard feed and the embedded static front-end.
package http

import (
	"io/fs"
	"net/http"

	"github.com/heywon01/math-quiz/internal/app"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	users   *app.UserService
	quizzes *app.QuizService
	hub     *app.LeaderboardHub
	static  fs.FS
}

func NewHandler(users *app.UserService, quizzes *app.QuizService, hub *app.LeaderboardHub, static fs.FS) *Handler {
	return &Handler{users: users, quizzes: quizzes, hub: hub, static: static}
}

// Register attaches all routes to the mux. API routes are method-scoped;
// anything else falls through to the static front-end.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users/login", h.handleLogin)
	mux.HandleFunc("POST /api/admin/auth", h.handleAdminAuth)
	mux.HandleFunc("GET /api/users", h.handleLeaderboard)

	mux.HandleFunc("GET /api/problems", h.handleListQuizzes)
	mux.HandleFunc("POST /api/problems", h.requireAdmin(h.handleCreateQuiz))
	mux.HandleFunc("POST /api/problems/{date}/solve", h.handleSolve)

	mux.HandleFunc("GET /ws", h.handleLeaderboardWS)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Unmatched /api/ paths must not fall through to the SPA index.
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("GET /", h.handleStatic)
}
