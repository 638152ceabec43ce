package app

import (
	"context"
	"math"
	"time"

	"gamified-learning/internal/domain"
	"gamified-learning/internal/gamification"
)

const (
	MaxPageLimit       = 100
	neighbourhoodReach = 2
)

// Standing places one user on the global leaderboard with the users ranked around them.
type Standing struct {
	User   domain.LeaderboardEntry   `json:"user"`
	Rank   int                       `json:"rank"`
	Nearby []domain.LeaderboardEntry `json:"nearbyUsers"`
}

// ProgressView is a user's own dashboard.
type ProgressView struct {
	Points              int                 `json:"points"`
	Badges              []domain.Badge      `json:"badges"`
	Stats               domain.Stats        `json:"stats"`
	Rank                int                 `json:"rank"`
	CompletedChallenges []domain.Completion `json:"completedChallenges"`
}

// LeaderboardService answers ranking queries over the user store.
type LeaderboardService struct {
	users    UserRepository
	registry *gamification.Registry
	now      func() time.Time
}

func NewLeaderboardService(users UserRepository, registry *gamification.Registry) *LeaderboardService {
	return &LeaderboardService{users: users, registry: registry, now: time.Now}
}

// Page returns one page of the global ranking. page starts at 1.
func (s *LeaderboardService) Page(ctx context.Context, page, limit int) ([]domain.LeaderboardEntry, domain.Pagination, error) {
	if page < 1 || limit < 1 || limit > MaxPageLimit {
		return nil, domain.Pagination{}, domain.NewValidationError("page must be >= 1 and limit between 1 and 100")
	}
	if page > math.MaxInt/limit {
		return nil, domain.Pagination{}, domain.NewValidationError("page is out of range")
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	offset := (page - 1) * limit
	entries, err := s.ranked(ctx, offset, limit)
	if err != nil {
		return nil, domain.Pagination{}, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return entries, domain.Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalUsers:  total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
		Limit:       limit,
	}, nil
}

// Top returns the first limit users as a snapshot.
func (s *LeaderboardService) Top(ctx context.Context, limit int) (domain.Leaderboard, error) {
	if limit < 1 || limit > MaxPageLimit {
		return domain.Leaderboard{}, domain.NewValidationError("limit must be between 1 and 100")
	}
	entries, err := s.ranked(ctx, 0, limit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now().UTC()}, nil
}

// Rank is one plus the number of users with strictly more points.
func (s *LeaderboardService) Rank(ctx context.Context, user domain.User) (int, error) {
	above, err := s.users.CountAbove(ctx, user.Points)
	if err != nil {
		return 0, err
	}
	return int(above) + 1, nil
}

// UserContext returns the user's rank and up to two neighbours on either side.
func (s *LeaderboardService) UserContext(ctx context.Context, userID string) (Standing, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Standing{}, err
	}
	rank, err := s.Rank(ctx, user)
	if err != nil {
		return Standing{}, err
	}
	offset := rank - 1 - neighbourhoodReach
	if offset < 0 {
		offset = 0
	}
	nearby, err := s.ranked(ctx, offset, 2*neighbourhoodReach+1)
	if err != nil {
		return Standing{}, err
	}
	return Standing{User: domain.EntryFromUser(user, rank), Rank: rank, Nearby: nearby}, nil
}

// Progress builds the dashboard view for a user.
func (s *LeaderboardService) Progress(ctx context.Context, userID string) (ProgressView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ProgressView{}, err
	}
	rank, err := s.Rank(ctx, user)
	if err != nil {
		return ProgressView{}, err
	}
	completed := user.CompletedChallenges
	if completed == nil {
		completed = []domain.Completion{}
	}
	return ProgressView{
		Points:              user.Points,
		Badges:              s.registry.Expand(user.Badges),
		Stats:               user.Stats,
		Rank:                rank,
		CompletedChallenges: completed,
	}, nil
}

func (s *LeaderboardService) ranked(ctx context.Context, offset, limit int) ([]domain.LeaderboardEntry, error) {
	users, err := s.users.Ranked(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, domain.EntryFromUser(u, offset+i+1))
	}
	return entries, nil
}
