package cli

import (
	"context"
	"fmt"

	"gamified-learning/internal/app"
	"gamified-learning/internal/config"
	"gamified-learning/internal/infra/memory"
	mongostore "gamified-learning/internal/infra/mongo"
	pgstore "gamified-learning/internal/infra/postgres"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// backend is the set of connections a process holds open.
type backend struct {
	store app.Store
	redis *redis.Client
	close func()
}

func openBackend(ctx context.Context, cfg config.Config, log *zap.Logger) (*backend, error) {
	b := &backend{close: func() {}}
	var closers []func()

	switch cfg.Store.Driver {
	case "", "memory":
		b.store = app.Store{
			Challenges:  memory.NewChallengeRepository(sampleChallenges()...),
			Users:       memory.NewUserRepository(),
			Submissions: memory.NewSubmissionRepository(),
		}
	case "mongo":
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		closers = append(closers, func() { _ = client.Disconnect(context.Background()) })
		db := client.Database(cfg.Mongo.Database)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		b.store = app.Store{
			Challenges:  mongostore.NewChallengeRepository(db),
			Users:       mongostore.NewUserRepository(db),
			Submissions: mongostore.NewSubmissionRepository(db),
		}
	case "postgres":
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return nil, err
		}
		pool, err := pgstore.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		b.store = app.Store{
			Challenges:  pgstore.NewChallengeRepository(pool),
			Users:       pgstore.NewUserRepository(pool),
			Submissions: pgstore.NewSubmissionRepository(pool),
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, continuing with it attached", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		closers = append(closers, func() { _ = client.Close() })
		b.redis = client
	}

	b.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	log.Info("store ready", zap.String("driver", driverName(cfg)), zap.Bool("redis", b.redis != nil))
	return b, nil
}

func driverName(cfg config.Config) string {
	if cfg.Store.Driver == "" {
		return "memory"
	}
	return cfg.Store.Driver
}
