package app

import (
	"context"

	"gamified-learning/internal/domain"
)

// ChallengeRepository persists challenge definitions.
type ChallengeRepository interface {
	List(ctx context.Context, filter domain.ChallengeFilter) ([]domain.Challenge, error)
	Get(ctx context.Context, id string) (domain.Challenge, error)
	Create(ctx context.Context, challenge domain.Challenge) error
	Update(ctx context.Context, challenge domain.Challenge) error
	Delete(ctx context.Context, id string) error
	IncrementSubmissions(ctx context.Context, id string) error
}

// ChallengeCache fronts challenge reads on the submission hot path (in-memory, Redis, etc).
type ChallengeCache interface {
	GetChallenge(ctx context.Context, id string) (domain.Challenge, error)
	Invalidate(ctx context.Context, id string) error
}

// UserRepository persists accounts and their gamification state.
// Ranked orders by points desc, then creation time, then id.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByLogin(ctx context.Context, login string) (domain.User, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (domain.User, error)
	SaveProgress(ctx context.Context, user domain.User) error
	Ranked(ctx context.Context, offset, limit int) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
	CountAbove(ctx context.Context, points int) (int64, error)
}

// SubmissionRepository persists submissions. Listings are newest first.
type SubmissionRepository interface {
	Create(ctx context.Context, submission domain.Submission) error
	Complete(ctx context.Context, submission domain.Submission) error
	Get(ctx context.Context, id string) (domain.Submission, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Submission, error)
	ListByChallenge(ctx context.Context, challengeID string) ([]domain.Submission, error)
}

// Store groups the repositories a backend provides.
type Store struct {
	Challenges  ChallengeRepository
	Users       UserRepository
	Submissions SubmissionRepository
}
