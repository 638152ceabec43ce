package app_test

import (
	"context"
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

type staticTokens struct{}

func (staticTokens) Issue(userID string, role domain.Role) (string, error) {
	return "token-" + userID + "-" + string(role), nil
}

type fixture struct {
	challengeRepo *memory.ChallengeRepository
	users         *memory.UserRepository
	submissionsDB *memory.SubmissionRepository
	auth          *app.AuthService
	challenges    *app.ChallengeService
	submissions   *app.SubmissionService
	board         *app.LeaderboardService
	hub           *app.LeaderboardHub
	hints         *app.HintService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	f := &fixture{
		challengeRepo: memory.NewChallengeRepository(),
		users:         memory.NewUserRepository(),
		submissionsDB: memory.NewSubmissionRepository(),
	}
	f.auth = app.NewAuthService(f.users, staticTokens{}, 4, log)
	f.challenges = app.NewChallengeService(f.challengeRepo, memory.NewChallengeCache(f.challengeRepo, time.Minute), log)

	executor := sandbox.NewJSExecutor(log, sandbox.Options{Timeout: time.Second})
	eval := evaluator.New(log, evaluator.NewRunner(log, 2), map[string]sandbox.Executor{domain.LanguageJavaScript: executor})
	registry := gamification.DefaultRegistry()
	f.board = app.NewLeaderboardService(f.users, registry)
	f.hub = app.NewLeaderboardHub(f.board, 5, log)
	f.submissions = app.NewSubmissionService(f.challenges, f.challengeRepo, f.submissionsDB, eval,
		gamification.NewEngine(f.users, registry, log, 0), f.hub, log)
	f.hints = app.NewHintService(f.challenges, hint.NewAdvisor(nil, log))
	return f
}

func (f *fixture) user(t *testing.T, username string) domain.User {
	t.Helper()
	u, err := f.auth.CreateUser(context.Background(), app.Registration{
		Username: username, Email: username + "@example.com", Password: "secret123",
	}, domain.RoleUser)
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func (f *fixture) challenge(t *testing.T) domain.Challenge {
	t.Helper()
	c, err := f.challenges.Create(context.Background(), domain.Challenge{
		Title:       "Double",
		Description: "Return twice the input",
		Difficulty:  domain.DifficultyMedium,
		TestCases: []domain.TestCase{
			{Input: 2, ExpectedOutput: 4},
			{Input: 5, ExpectedOutput: 10},
			{Input: -1, ExpectedOutput: -2, Hidden: true},
			{Input: 0, ExpectedOutput: 0},
		},
	}, "admin")
	if err != nil {
		t.Fatalf("create challenge: %v", err)
	}
	return c
}

// setPoints overwrites a user's points through the version-checked path.
func (f *fixture) setPoints(t *testing.T, id string, points int) {
	t.Helper()
	u, err := f.users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	u.Points = points
	if err := f.users.SaveProgress(context.Background(), u); err != nil {
		t.Fatalf("save progress: %v", err)
	}
}
