package http

import (
	"net/http"
	"strings"
)

type loginRequest struct {
	Name        string `json:"name"`
	IsAdminInit bool   `json:"isAdminInit"`
}

type adminAuthRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	user, err := h.users.LoginOrRegister(r.Context(), req.Name, req.IsAdminInit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleAdminAuth(w http.ResponseWriter, r *http.Request) {
	var req adminAuthRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	session, err := h.users.AuthenticateAdmin(r.Context(), req.ID, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	leaderboard, err := h.users.Leaderboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboard)
}

// requireAdmin guards a handler behind a bearer token issued by admin auth.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			unauthorized(w)
			return
		}
		if _, err := h.users.VerifyAdmin(r.Context(), token); err != nil {
			writeError(w, err)
			return
		}
		next(w, r)
	}
}
