package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/heywon01/math-quiz/internal/app"
	"github.com/heywon01/math-quiz/internal/domain"
	"github.com/heywon01/math-quiz/internal/infra/memory"
)

const indexBody = "<!doctype html><title>math quiz</title>"

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	cache := memory.NewLeaderboardCache(store, time.Minute)
	sessions := memory.NewSessionStore(30 * time.Minute)
	hub := app.NewLeaderboardHub()
	admin := app.AdminBootstrap{Name: "admin", UserID: "admin-id", Password: "hunter2!"}

	users := app.NewUserService(store, cache, sessions, admin, 30*time.Minute)
	quizzes := app.NewQuizService(store, store, cache, hub)

	static := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte(indexBody)},
	}
	mux := http.NewServeMux()
	NewHandler(users, quizzes, hub, static).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return &testServer{Server: server}
}

func (ts *testServer) postJSON(t *testing.T, path, token string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func (ts *testServer) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func wantStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d with body %s", want, resp.StatusCode, body)
	}
}

// login registers or resolves a user and returns it.
func (ts *testServer) login(t *testing.T, name string) domain.User {
	t.Helper()
	resp := ts.postJSON(t, "/api/users/login", "", map[string]interface{}{"name": name})
	wantStatus(t, resp, http.StatusOK)
	var user domain.User
	decodeBody(t, resp, &user)
	return user
}

// adminToken bootstraps the admin account and returns a session token.
func (ts *testServer) adminToken(t *testing.T) string {
	t.Helper()
	resp := ts.postJSON(t, "/api/users/login", "", map[string]interface{}{"name": "admin", "isAdminInit": true})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = ts.postJSON(t, "/api/admin/auth", "", map[string]interface{}{"id": "admin-id", "password": "hunter2!"})
	wantStatus(t, resp, http.StatusOK)
	var session app.AdminSession
	decodeBody(t, resp, &session)
	if session.Token == "" {
		t.Fatalf("expected session token, got empty")
	}
	return session.Token
}

func TestLoginEndpoint(t *testing.T) {
	ts := newTestServer(t)

	user := ts.login(t, "alice")
	if user.Name != "alice" || user.ID == "" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if !strings.HasPrefix(user.UserID, "alice-") {
		t.Fatalf("expected generated user id, got %q", user.UserID)
	}
	if user.IsAdmin {
		t.Fatalf("plain login must not create an admin")
	}

	again := ts.login(t, "alice")
	if again.ID != user.ID {
		t.Fatalf("second login created a new account: %s vs %s", again.ID, user.ID)
	}

	resp := ts.postJSON(t, "/api/users/login", "", map[string]interface{}{"name": "   "})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/users/login", strings.NewReader("not json"))
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestAdminAuthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.postJSON(t, "/api/users/login", "", map[string]interface{}{"name": "admin", "isAdminInit": true})
	wantStatus(t, resp, http.StatusOK)
	var admin domain.User
	decodeBody(t, resp, &admin)
	if !admin.IsAdmin || admin.UserID != "admin-id" {
		t.Fatalf("admin bootstrap failed: %+v", admin)
	}

	resp = ts.postJSON(t, "/api/admin/auth", "", map[string]interface{}{"id": "admin-id", "password": "hunter2!"})
	wantStatus(t, resp, http.StatusOK)
	var session app.AdminSession
	decodeBody(t, resp, &session)
	if session.Token == "" || !session.User.IsAdmin {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.ExpiresAt.IsZero() {
		t.Fatalf("expected expiry timestamp")
	}

	resp = ts.postJSON(t, "/api/admin/auth", "", map[string]interface{}{"id": "admin-id", "password": "wrong"})
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = ts.postJSON(t, "/api/admin/auth", "", map[string]interface{}{"id": "nobody", "password": "hunter2!"})
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestCreateQuizRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)
	quiz := map[string]interface{}{"date": "2025-08-10", "question": "3 + 4 = ?", "answer": 7}

	resp := ts.postJSON(t, "/api/problems", "", quiz)
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = ts.postJSON(t, "/api/problems", "bogus-token", quiz)
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	token := ts.adminToken(t)
	resp = ts.postJSON(t, "/api/problems", token, quiz)
	wantStatus(t, resp, http.StatusCreated)
	var created domain.Quiz
	decodeBody(t, resp, &created)
	if created.Date != "2025-08-10" || created.Answer != 7 {
		t.Fatalf("unexpected quiz: %+v", created)
	}

	resp = ts.postJSON(t, "/api/problems", token, quiz)
	wantStatus(t, resp, http.StatusConflict)
	resp.Body.Close()
}

func TestCreateQuizValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken(t)

	tests := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{"bad date format", map[string]interface{}{"date": "2025-8-1", "question": "q", "answer": 1}, http.StatusBadRequest},
		{"blank question", map[string]interface{}{"date": "2025-08-10", "question": "  ", "answer": 1}, http.StatusBadRequest},
		{"missing answer", map[string]interface{}{"date": "2025-08-10", "question": "q"}, http.StatusBadRequest},
		{"non-numeric answer", map[string]interface{}{"date": "2025-08-10", "question": "q", "answer": "seven"}, http.StatusBadRequest},
		{"string answer accepted", map[string]interface{}{"date": "2025-08-11", "question": "6 * 7 = ?", "answer": "42"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.postJSON(t, "/api/problems", token, tt.body)
			wantStatus(t, resp, tt.want)
			resp.Body.Close()
		})
	}
}

func TestSolveEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken(t)

	resp := ts.postJSON(t, "/api/problems", token, map[string]interface{}{"date": "2025-08-10", "question": "3 + 4 = ?", "answer": 7})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	ana := ts.login(t, "ana")
	bea := ts.login(t, "bea")

	resp = ts.postJSON(t, "/api/problems/2025-08-10/solve", "", map[string]interface{}{"userId": ana.ID, "answer": 7})
	wantStatus(t, resp, http.StatusOK)
	var result domain.SolveResult
	decodeBody(t, resp, &result)
	if !result.Success || !result.IsCorrect || result.NewScore != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// String answers are accepted; a wrong one records the attempt without scoring.
	resp = ts.postJSON(t, "/api/problems/2025-08-10/solve", "", map[string]interface{}{"userId": bea.ID, "answer": "8"})
	wantStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &result)
	if !result.Success || result.IsCorrect || result.NewScore != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	resp = ts.postJSON(t, "/api/problems/2025-08-10/solve", "", map[string]interface{}{"userId": ana.ID, "answer": 7})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = ts.postJSON(t, "/api/problems/2024-01-01/solve", "", map[string]interface{}{"userId": ana.ID, "answer": 7})
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	resp = ts.postJSON(t, "/api/problems/2025-08-10/solve", "", map[string]interface{}{"userId": "ghost", "answer": 7})
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestSolveWithoutAnswerScoresIncorrect(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken(t)

	resp := ts.postJSON(t, "/api/problems", token, map[string]interface{}{"date": "2025-08-10", "question": "3 + 4 = ?", "answer": 7})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	ana := ts.login(t, "ana")
	resp = ts.postJSON(t, "/api/problems/2025-08-10/solve", "", map[string]interface{}{"userId": ana.ID})
	wantStatus(t, resp, http.StatusOK)
	var result domain.SolveResult
	decodeBody(t, resp, &result)
	if !result.Success || result.IsCorrect {
		t.Fatalf("missing answer must record an incorrect attempt, got %+v", result)
	}

	// The blank attempt consumed the single try.
	resp = ts.postJSON(t, "/api/problems/2025-08-10/solve", "", map[string]interface{}{"userId": ana.ID, "answer": 7})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestLeaderboardEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken(t)

	resp := ts.postJSON(t, "/api/problems", token, map[string]interface{}{"date": "2025-08-10", "question": "3 + 4 = ?", "answer": 7})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	ana := ts.login(t, "ana")
	bea := ts.login(t, "bea")
	for _, id := range []string{ana.ID, bea.ID} {
		resp = ts.postJSON(t, "/api/problems/2025-08-10/solve", "", map[string]interface{}{"userId": id, "answer": 7})
		wantStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	}

	resp = ts.get(t, "/api/users")
	wantStatus(t, resp, http.StatusOK)
	var board domain.Leaderboard
	decodeBody(t, resp, &board)
	if len(board.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", board.Entries)
	}
	// Same score; ana solved first so she ranks ahead on the date tie break.
	if board.Entries[0].Name != "ana" || board.Entries[1].Name != "bea" {
		t.Fatalf("unexpected order: %s, %s", board.Entries[0].Name, board.Entries[1].Name)
	}
	for _, entry := range board.Entries {
		if entry.IsAdmin {
			t.Fatalf("admin leaked into leaderboard: %+v", entry)
		}
	}
	if board.UpdatedAt.IsZero() {
		t.Fatalf("expected updatedAt timestamp")
	}
}

func TestListQuizzesEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken(t)

	for _, quiz := range []map[string]interface{}{
		{"date": "2025-08-10", "question": "3 + 4 = ?", "answer": 7},
		{"date": "2025-08-11", "question": "6 * 7 = ?", "answer": 42},
	} {
		resp := ts.postJSON(t, "/api/problems", token, quiz)
		wantStatus(t, resp, http.StatusCreated)
		resp.Body.Close()
	}

	ana := ts.login(t, "ana")
	resp := ts.postJSON(t, "/api/problems/2025-08-10/solve", "", map[string]interface{}{"userId": ana.ID, "answer": 7})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = ts.get(t, "/api/problems")
	wantStatus(t, resp, http.StatusOK)
	var quizzes []domain.Quiz
	decodeBody(t, resp, &quizzes)
	if len(quizzes) != 2 || quizzes[0].Date != "2025-08-11" || quizzes[1].Date != "2025-08-10" {
		t.Fatalf("expected newest first, got %+v", quizzes)
	}
	if len(quizzes[1].Solvers) != 1 || quizzes[1].Solvers[0].Name != "ana" {
		t.Fatalf("expected ana in solver list, got %+v", quizzes[1].Solvers)
	}
}

func TestUnknownAPIRouteReturns404(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.get(t, "/api/nope")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(body), indexBody) {
		t.Fatalf("api route fell through to the front-end")
	}
}

func TestStaticFallback(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/", "/some/spa/route"} {
		resp := ts.get(t, path)
		wantStatus(t, resp, http.StatusOK)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if !strings.Contains(string(body), "math quiz") {
			t.Fatalf("expected index page for %s, got %s", path, body)
		}
	}

	resp := ts.get(t, "/healthz")
	wantStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("expected ok, got %s", body)
	}
}
