package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const leaderboardChannel = "leaderboard:updated"

// LeaderboardRelay fans progress notifications out to every service instance over Redis pub/sub,
// so websocket subscribers connected to any instance see fresh snapshots.
type LeaderboardRelay struct {
	client *redis.Client
	log    *zap.Logger
}

func NewLeaderboardRelay(client *redis.Client, log *zap.Logger) *LeaderboardRelay {
	return &LeaderboardRelay{client: client, log: log}
}

// Publish announces that a user's progress changed.
func (r *LeaderboardRelay) Publish(ctx context.Context) error {
	return r.client.Publish(ctx, leaderboardChannel, "1").Err()
}

// Run invokes onUpdate for every announcement until ctx is done.
// ready is closed once the subscription is active.
func (r *LeaderboardRelay) Run(ctx context.Context, ready chan<- struct{}, onUpdate func(context.Context) error) error {
	sub := r.client.Subscribe(ctx, leaderboardChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			if err := onUpdate(ctx); err != nil {
				r.log.Warn("leaderboard relay update failed", zap.Error(err))
			}
		}
	}
}
