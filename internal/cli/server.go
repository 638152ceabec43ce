package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamified-learning/internal/app"
	"gamified-learning/internal/config"
	"gamified-learning/internal/domain"
	"gamified-learning/internal/evaluator"
	"gamified-learning/internal/gamification"
	"gamified-learning/internal/hint"
	"gamified-learning/internal/infra/memory"
	redisinfra "gamified-learning/internal/infra/redis"
	"gamified-learning/internal/logger"
	"gamified-learning/internal/sandbox"
	transport "gamified-learning/internal/transport/http"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides config)")
	return cmd
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, OutputPath: cfg.Log.Output})
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Error("open backend failed", zap.Error(err))
		return err
	}
	defer b.close()

	cacheTTL := config.TTLDuration(cfg.Challenge.CacheTTL, 10*time.Minute)
	var cache app.ChallengeCache
	if b.redis != nil {
		cache = redisinfra.NewChallengeCache(b.redis, b.store.Challenges, cacheTTL, log)
	} else {
		cache = memory.NewChallengeCache(b.store.Challenges, cacheTTL)
	}
	challenges := app.NewChallengeService(b.store.Challenges, cache, log)

	executor := sandbox.NewJSExecutor(log.Named("sandbox"), sandbox.Options{
		Timeout:      config.TTLDuration(cfg.Sandbox.Timeout, 5*time.Second),
		MaxLogLines:  cfg.Sandbox.MaxLogLines,
		MaxCallStack: cfg.Sandbox.MaxCallStack,
	})
	runner := evaluator.NewRunner(log, config.IntOr(cfg.Sandbox.Parallelism, 1)).
		WithBudget(config.TTLDuration(cfg.Sandbox.Budget, evaluator.DefaultBudget))
	eval := evaluator.New(log, runner, map[string]sandbox.Executor{domain.LanguageJavaScript: executor})

	registry := gamification.DefaultRegistry()
	engine := gamification.NewEngine(b.store.Users, registry, log, cfg.Gamification.MaxRetries)
	board := app.NewLeaderboardService(b.store.Users, registry)
	hub := app.NewLeaderboardHub(board, 10, log)

	var publisher app.ProgressPublisher = hub
	if b.redis != nil {
		relay := redisinfra.NewLeaderboardRelay(b.redis, log)
		publisher = relay
		go func() {
			if err := relay.Run(ctx, nil, hub.Publish); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("leaderboard relay stopped", zap.Error(err))
			}
		}()
	}

	var generator hint.Generator
	if gen := hint.NewOpenAIGenerator(hint.OpenAIConfig{
		APIKey:      cfg.Hint.APIKey,
		BaseURL:     cfg.Hint.BaseURL,
		Model:       cfg.Hint.Model,
		MaxTokens:   cfg.Hint.MaxTokens,
		Temperature: cfg.Hint.Temperature,
		Timeout:     config.TTLDuration(cfg.Hint.Timeout, 10*time.Second),
	}); gen != nil {
		generator = gen
	} else {
		log.Info("no hint API key configured, serving canned hints")
	}

	tokens := transport.NewTokenService(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 72*time.Hour))
	router := transport.NewRouter(transport.Services{
		Auth:        app.NewAuthService(b.store.Users, tokens, bcrypt.DefaultCost, log),
		Challenges:  challenges,
		Submissions: app.NewSubmissionService(challenges, b.store.Challenges, b.store.Submissions, eval, engine, publisher, log),
		Leaderboard: board,
		Hints:       app.NewHintService(challenges, hint.NewAdvisor(generator, log)),
		Hub:         hub,
	}, tokens, log)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: writeTimeoutFor(log, config.TTLDuration(cfg.Server.WriteTimeout, 30*time.Second), runner.Budget()),
	}

	go func() {
		log.Info("starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", zap.Error(err))
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// responseHeadroom is the time left after an evaluation to persist progress and write the response.
const responseHeadroom = 5 * time.Second

// writeTimeoutFor raises the configured write timeout when it could cut off a submission response.
func writeTimeoutFor(log *zap.Logger, configured, budget time.Duration) time.Duration {
	minimum := budget + responseHeadroom
	if configured >= minimum {
		return configured
	}
	log.Warn("server write timeout shorter than evaluation budget, raising it",
		zap.Duration("configured", configured),
		zap.Duration("budget", budget),
		zap.Duration("writeTimeout", minimum))
	return minimum
}
