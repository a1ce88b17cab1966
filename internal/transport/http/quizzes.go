package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/heywon01/math-quiz/internal/domain"
)

// Answers arrive as raw JSON so clients may send numbers or strings; both
// forms are normalized before scoring.
type createQuizRequest struct {
	Date     string          `json:"date"`
	Question string          `json:"question"`
	Answer   json.RawMessage `json:"answer"`
}

type solveRequest struct {
	UserID string          `json:"userId"`
	Answer json.RawMessage `json:"answer"`
}

func (h *Handler) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizzes.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	raw, ok := rawToString(req.Answer)
	if !ok {
		writeError(w, domain.ErrInvalidQuiz)
		return
	}
	answer, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, domain.ErrInvalidQuiz)
		return
	}
	quiz, err := h.quizzes.Create(r.Context(), domain.Quiz{
		Date:     req.Date,
		Question: req.Question,
		Answer:   answer,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *Handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	var req solveRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	// A missing or malformed answer still reaches the service: it scores as
	// incorrect rather than rejecting the attempt.
	answer, _ := rawToString(req.Answer)
	result, err := h.quizzes.Solve(r.Context(), date, req.UserID, answer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// rawToString renders a JSON scalar (number or quoted string) as plain text.
func rawToString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return string(trimmed), true
}
