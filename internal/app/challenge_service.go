package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gamified-learning/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxTestCases caps how many cases one challenge may carry.
const MaxTestCases = 50

// ChallengeService manages the challenge catalogue.
type ChallengeService struct {
	repo  ChallengeRepository
	cache ChallengeCache
	log   *zap.Logger
	now   func() time.Time
}

func NewChallengeService(repo ChallengeRepository, cache ChallengeCache, log *zap.Logger) *ChallengeService {
	return &ChallengeService{repo: repo, cache: cache, log: log, now: time.Now}
}

// List returns summaries without test cases, newest first. Inactive challenges need IncludeInactive.
func (s *ChallengeService) List(ctx context.Context, filter domain.ChallengeFilter) ([]domain.Challenge, error) {
	challenges, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Challenge, 0, len(challenges))
	for _, c := range challenges {
		out = append(out, c.Summary())
	}
	return out, nil
}

// Get returns the submitter-facing view with hidden test cases removed.
func (s *ChallengeService) Get(ctx context.Context, id string) (domain.Challenge, error) {
	c, err := s.Resolve(ctx, id)
	if err != nil {
		return domain.Challenge{}, err
	}
	return c.PublicView(), nil
}

// Resolve returns the full challenge, including hidden test cases, through the cache.
func (s *ChallengeService) Resolve(ctx context.Context, id string) (domain.Challenge, error) {
	return s.cache.GetChallenge(ctx, id)
}

func (s *ChallengeService) Create(ctx context.Context, c domain.Challenge, createdBy string) (domain.Challenge, error) {
	if msgs := validateChallenge(c); len(msgs) > 0 {
		return domain.Challenge{}, domain.NewValidationError(msgs...)
	}
	c.ID = uuid.NewString()
	c.CreatedBy = createdBy
	c.CreatedAt = s.now().UTC()
	c.Active = true
	c.TotalSubmissions = 0
	if c.Language == "" {
		c.Language = domain.LanguageJavaScript
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return domain.Challenge{}, err
	}
	s.log.Info("challenge created", zap.String("challengeId", c.ID), zap.String("createdBy", createdBy))
	return c, nil
}

// Update applies the non-empty fields of patch and drops the cached copy.
func (s *ChallengeService) Update(ctx context.Context, id string, patch domain.ChallengePatch) (domain.Challenge, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Challenge{}, err
	}
	next := current.Apply(patch)
	if msgs := validateChallenge(next); len(msgs) > 0 {
		return domain.Challenge{}, domain.NewValidationError(msgs...)
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return domain.Challenge{}, err
	}
	s.invalidate(ctx, id)
	return next, nil
}

func (s *ChallengeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.log.Info("challenge deleted", zap.String("challengeId", id))
	return nil
}

func (s *ChallengeService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("challenge cache invalidation failed", zap.String("challengeId", id), zap.Error(err))
	}
}

func validateChallenge(c domain.Challenge) []string {
	var msgs []string
	if strings.TrimSpace(c.Title) == "" {
		msgs = append(msgs, "Title is required")
	}
	if strings.TrimSpace(c.Description) == "" {
		msgs = append(msgs, "Description is required")
	}
	switch c.Difficulty {
	case domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard:
	default:
		msgs = append(msgs, "Difficulty must be easy, medium or hard")
	}
	if c.Points < 0 {
		msgs = append(msgs, "Points must not be negative")
	}
	switch {
	case len(c.TestCases) == 0:
		msgs = append(msgs, "At least one test case is required")
	case len(c.TestCases) > MaxTestCases:
		msgs = append(msgs, fmt.Sprintf("At most %d test cases are allowed", MaxTestCases))
	}
	return msgs
}
