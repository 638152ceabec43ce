package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gamified-learning/internal/app"
	"gamified-learning/internal/domain"
	"gamified-learning/internal/evaluator"
	"gamified-learning/internal/gamification"
	"gamified-learning/internal/hint"
	"gamified-learning/internal/infra/memory"
	"gamified-learning/internal/sandbox"
	"go.uber.org/zap"
)

type harness struct {
	server *httptest.Server
	auth   *app.AuthService
	hub    *app.LeaderboardHub
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zap.NewNop()

	challengeRepo := memory.NewChallengeRepository()
	users := memory.NewUserRepository()
	submissions := memory.NewSubmissionRepository()

	tokens := NewTokenService("test-secret", time.Hour)
	auth := app.NewAuthService(users, tokens, 4, log)
	challenges := app.NewChallengeService(challengeRepo, memory.NewChallengeCache(challengeRepo, time.Minute), log)

	executor := sandbox.NewJSExecutor(log, sandbox.Options{Timeout: time.Second})
	eval := evaluator.New(log, evaluator.NewRunner(log, 2), map[string]sandbox.Executor{domain.LanguageJavaScript: executor})
	registry := gamification.DefaultRegistry()
	engine := gamification.NewEngine(users, registry, log, 0)
	board := app.NewLeaderboardService(users, registry)
	hub := app.NewLeaderboardHub(board, 10, log)

	svc := Services{
		Auth:        auth,
		Challenges:  challenges,
		Submissions: app.NewSubmissionService(challenges, challengeRepo, submissions, eval, engine, hub, log),
		Leaderboard: board,
		Hints:       app.NewHintService(challenges, hint.NewAdvisor(nil, log)),
		Hub:         hub,
	}
	server := httptest.NewServer(NewRouter(svc, tokens, log))
	t.Cleanup(server.Close)
	return &harness{server: server, auth: auth, hub: hub}
}

// register creates an account and returns its token and id.
func (h *harness) register(t *testing.T, username string) (string, string) {
	t.Helper()
	var out struct {
		Data app.Session `json:"data"`
	}
	code := h.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
		"fullName": "Test " + username,
	}, &out)
	if code != http.StatusCreated {
		t.Fatalf("register %s: status %d", username, code)
	}
	return out.Data.Token, out.Data.User.ID
}

func (h *harness) admin(t *testing.T) string {
	t.Helper()
	_, err := h.auth.CreateUser(context.Background(), app.Registration{
		Username: "root", Email: "root@example.com", Password: "rootpass",
	}, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	var out struct {
		Data app.Session `json:"data"`
	}
	if code := h.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"login": "root", "password": "rootpass"}, &out); code != http.StatusOK {
		t.Fatalf("admin login: status %d", code)
	}
	return out.Data.Token
}

func (h *harness) createSumChallenge(t *testing.T, adminToken string) string {
	t.Helper()
	var out struct {
		Data domain.Challenge `json:"data"`
	}
	code := h.do(t, http.MethodPost, "/api/challenges", adminToken, map[string]any{
		"title":       "Sum",
		"description": "Add a and b",
		"difficulty":  "easy",
		"points":      40,
		"testCases": []map[string]any{
			{"input": map[string]any{"a": 1, "b": 2}, "expectedOutput": 3},
			{"input": map[string]any{"a": 5, "b": 5}, "expectedOutput": 10, "hidden": true},
		},
	}, &out)
	if code != http.StatusCreated {
		t.Fatalf("create challenge: status %d", code)
	}
	return out.Data.ID
}

func (h *harness) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}
