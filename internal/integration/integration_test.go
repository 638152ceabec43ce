package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"gamified-learning/internal/app"
	"gamified-learning/internal/domain"
	"gamified-learning/internal/evaluator"
	"gamified-learning/internal/gamification"
	mongostore "gamified-learning/internal/infra/mongo"
	pgstore "gamified-learning/internal/infra/postgres"
	pgmigrations "gamified-learning/internal/infra/postgres/migrations"
	infraredis "gamified-learning/internal/infra/redis"
	"gamified-learning/internal/sandbox"
	"github.com/docker/go-connections/nat"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

func TestPostgresRedisEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	applyMigrations(t, ctx, pgURL)
	pool, err := pgstore.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	store := app.Store{
		Challenges:  pgstore.NewChallengeRepository(pool),
		Users:       pgstore.NewUserRepository(pool),
		Submissions: pgstore.NewSubmissionRepository(pool),
	}
	cache := infraredis.NewChallengeCache(redisClient, store.Challenges, 5*time.Minute, zap.NewNop())
	relay := infraredis.NewLeaderboardRelay(redisClient, zap.NewNop())
	exercise(t, ctx, store, cache, relay)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	ready := make(chan struct{})
	updates := make(chan struct{}, 1)
	go func() {
		_ = relay.Run(runCtx, ready, func(context.Context) error {
			select {
			case updates <- struct{}{}:
			default:
			}
			return nil
		})
	}()
	<-ready
	if err := relay.Publish(ctx); err != nil {
		t.Fatalf("relay publish: %v", err)
	}
	select {
	case <-updates:
	case <-time.After(5 * time.Second):
		t.Fatalf("relay did not deliver the update")
	}
}

func TestMongoEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	uri, cleanup := startMongo(t, ctx)
	defer cleanup()

	client, err := mongostore.Connect(ctx, uri)
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()
	db := client.Database("gamified_learning_test")
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	store := app.Store{
		Challenges:  mongostore.NewChallengeRepository(db),
		Users:       mongostore.NewUserRepository(db),
		Submissions: mongostore.NewSubmissionRepository(db),
	}
	exercise(t, ctx, store, nil, nil)
}

// exercise runs the submission pipeline and the concurrency guarantees against a real store.
func exercise(t *testing.T, ctx context.Context, store app.Store, cache app.ChallengeCache, publisher app.ProgressPublisher) {
	t.Helper()
	log := zap.NewNop()
	if cache == nil {
		cache = passthrough{store.Challenges}
	}

	auth := app.NewAuthService(store.Users, nil, 4, log)
	challenges := app.NewChallengeService(store.Challenges, cache, log)
	executor := sandbox.NewJSExecutor(log, sandbox.Options{Timeout: 2 * time.Second})
	eval := evaluator.New(log, evaluator.NewRunner(log, 2), map[string]sandbox.Executor{domain.LanguageJavaScript: executor})
	registry := gamification.DefaultRegistry()
	engine := gamification.NewEngine(store.Users, registry, log, 100)
	board := app.NewLeaderboardService(store.Users, registry)
	submissions := app.NewSubmissionService(challenges, store.Challenges, store.Submissions, eval, engine, publisher, log)

	alice, err := auth.CreateUser(ctx, app.Registration{Username: "alice", Email: "alice@example.com", Password: "secret123"}, domain.RoleUser)
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	if _, err := auth.CreateUser(ctx, app.Registration{Username: "bob", Email: "bob@example.com", Password: "secret123"}, domain.RoleUser); err != nil {
		t.Fatalf("create bob: %v", err)
	}
	if _, err := auth.CreateUser(ctx, app.Registration{Username: "carol", Email: "ALICE@example.com", Password: "secret123"}, domain.RoleUser); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected email conflict, got %v", err)
	}

	challenge, err := challenges.Create(ctx, domain.Challenge{
		Title:       "Sum",
		Description: "Add a and b",
		Difficulty:  domain.DifficultyEasy,
		Points:      30,
		TestCases: []domain.TestCase{
			{Input: map[string]any{"a": 1, "b": 2}, ExpectedOutput: 3},
			{Input: map[string]any{"a": 2, "b": 2}, ExpectedOutput: 4, Hidden: true},
		},
	}, "integration")
	if err != nil {
		t.Fatalf("create challenge: %v", err)
	}

	res, err := submissions.Submit(ctx, alice.ID, challenge.ID, "const solution = ({a, b}) => a + b;", "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Evaluation.Status != domain.EvaluationPass || res.Progress == nil || res.Progress.TotalPoints != 30+100+75 {
		t.Fatalf("unexpected result %+v / %+v", res.Evaluation, res.Progress)
	}

	stored, err := store.Submissions.Get(ctx, res.Submission.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if stored.Status != domain.SubmissionPassed || len(stored.TestResults) != 2 {
		t.Fatalf("unexpected stored submission %+v", stored)
	}
	if err := store.Submissions.Complete(ctx, stored); !errors.Is(err, domain.ErrSubmissionFinalized) {
		t.Fatalf("expected finalized error, got %v", err)
	}

	// concurrent applies for one user must all land
	const parallel = 10
	var wg sync.WaitGroup
	errs := make(chan error, parallel)
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := engine.Apply(ctx, gamification.SubmissionEvaluated{
				SubmissionID: fmt.Sprintf("concurrent-%d", i),
				UserID:       alice.ID,
				Evaluation:   domain.Evaluation{Status: domain.EvaluationFail, Score: 0, ExecutionTime: 3 * time.Second},
				Challenge:    challenge,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent apply: %v", err)
		}
	}
	reloaded, err := store.Users.GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("reload alice: %v", err)
	}
	if reloaded.Stats.TotalAttempts != parallel+1 || reloaded.Points != 205 {
		t.Fatalf("expected %d attempts and 205 points, got %+v / %d", parallel+1, reloaded.Stats, reloaded.Points)
	}

	entries, p, err := board.Page(ctx, 1, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if p.TotalUsers != 2 || entries[0].UserID != alice.ID || entries[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard %+v", entries)
	}
	standing, err := board.UserContext(ctx, alice.ID)
	if err != nil || standing.Rank != 1 || len(standing.Nearby) != 2 {
		t.Fatalf("unexpected standing %+v (%v)", standing, err)
	}

	updated, err := store.Challenges.Get(ctx, challenge.ID)
	if err != nil {
		t.Fatalf("reload challenge: %v", err)
	}
	if updated.TotalSubmissions != 1 {
		t.Fatalf("expected 1 submission counted, got %d", updated.TotalSubmissions)
	}
}

type passthrough struct {
	repo app.ChallengeRepository
}

func (p passthrough) GetChallenge(ctx context.Context, id string) (domain.Challenge, error) {
	return p.repo.Get(ctx, id)
}

func (passthrough) Invalidate(context.Context, string) error { return nil }

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest) tc.Container {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	return container
}

func endpoint(t *testing.T, ctx context.Context, container tc.Container, port string) (string, string) {
	t.Helper()
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return host, mapped.Port()
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	container := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "learn", "POSTGRES_PASSWORD": "learnpass", "POSTGRES_DB": "learndb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	})
	host, port := endpoint(t, ctx, container, "5432/tcp")
	dsn := fmt.Sprintf("postgres://learn:learnpass@%s:%s/learndb?sslmode=disable", host, port)
	return dsn, func() { _ = container.Terminate(ctx) }
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	container := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	})
	host, port := endpoint(t, ctx, container, "6379/tcp")
	return fmt.Sprintf("redis://%s:%s", host, port), func() { _ = container.Terminate(ctx) }
}

func startMongo(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	container := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	})
	host, port := endpoint(t, ctx, container, "27017/tcp")
	return fmt.Sprintf("mongodb://%s:%s", host, port), func() { _ = container.Terminate(ctx) }
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
