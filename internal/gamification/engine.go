package gamification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamified-learning/internal/domain"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// UserStore is the slice of user persistence the engine needs.
// SaveProgress must write only if the stored version still equals user.Version,
// returning domain.ErrVersionConflict otherwise, and bump the version on success.
type UserStore interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
	SaveProgress(ctx context.Context, user domain.User) error
}

const (
	defaultMaxRetries = 8
	retryInitial      = 2 * time.Millisecond
	retryMax          = 50 * time.Millisecond
)

// conflictBackOff spreads competing writers apart with randomized exponential waits.
func conflictBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitial
	b.MaxInterval = retryMax
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Engine owns every mutation of points, stats and badges.
type Engine struct {
	users      UserStore
	registry   *Registry
	maxRetries int
	log        *zap.Logger
	now        func() time.Time
	newBackOff func() backoff.BackOff
}

func NewEngine(users UserStore, registry *Registry, log *zap.Logger, maxRetries int) *Engine {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Engine{
		users:      users,
		registry:   registry,
		maxRetries: maxRetries,
		log:        log,
		now:        time.Now,
		newBackOff: conflictBackOff,
	}
}

// Registry exposes the badge table the engine awards from.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Apply folds one evaluated submission into the user's progress using optimistic concurrency:
// read, compute, compare-and-set, retry on conflict. Re-applying a submission is a no-op.
func (e *Engine) Apply(ctx context.Context, ev SubmissionEvaluated) (domain.Progress, error) {
	wait := e.newBackOff()
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, wait.NextBackOff()); err != nil {
				return domain.Progress{}, err
			}
		}
		if err := ctx.Err(); err != nil {
			return domain.Progress{}, err
		}

		user, err := e.users.GetByID(ctx, ev.UserID)
		if err != nil {
			return domain.Progress{}, err
		}
		if ev.SubmissionID != "" && containsID(user.RecentSubmissions, ev.SubmissionID) {
			return domain.Progress{NewBadges: []string{}, TotalPoints: user.Points, Stats: user.Stats}, nil
		}

		next, progress := advance(e.registry, user, ev, e.now())
		err = e.users.SaveProgress(ctx, next)
		if errors.Is(err, domain.ErrVersionConflict) {
			e.log.Debug("progress update conflict, retrying",
				zap.String("userId", ev.UserID),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return domain.Progress{}, fmt.Errorf("save progress: %w", err)
		}

		e.log.Info("user progress updated",
			zap.String("userId", ev.UserID),
			zap.String("submissionId", ev.SubmissionID),
			zap.Int("pointsEarned", progress.PointsEarned),
			zap.Strings("newBadges", progress.NewBadges),
			zap.Int("totalPoints", progress.TotalPoints),
			zap.Int("accuracy", progress.Stats.CurrentAccuracy))
		return progress, nil
	}
	return domain.Progress{}, fmt.Errorf("apply progress for user %s after %d attempts: %w",
		ev.UserID, e.maxRetries, domain.ErrVersionConflict)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d == backoff.Stop || d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
