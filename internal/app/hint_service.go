package app

import (
	"context"

	"gamified-learning/internal/hint"
)

// HintService resolves a challenge and asks the advisor for a hint about it.
type HintService struct {
	challenges *ChallengeService
	advisor    *hint.Advisor
}

func NewHintService(challenges *ChallengeService, advisor *hint.Advisor) *HintService {
	return &HintService{challenges: challenges, advisor: advisor}
}

func (s *HintService) Hint(ctx context.Context, challengeID, code, language string, level int) (hint.Hint, error) {
	challenge, err := s.challenges.Resolve(ctx, challengeID)
	if err != nil {
		return hint.Hint{}, err
	}
	if language == "" {
		language = challenge.Language
	}
	return s.advisor.Hint(ctx, hint.Request{
		Description: challenge.Title + ": " + challenge.Description,
		Difficulty:  challenge.Difficulty,
		Code:        code,
		Language:    language,
		Level:       level,
	}), nil
}
