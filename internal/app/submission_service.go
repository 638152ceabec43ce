package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"gamified-learning/internal/domain"
	"gamified-learning/internal/evaluator"
	"gamified-learning/internal/gamification"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProgressPublisher is notified after a user's progress changed.
type ProgressPublisher interface {
	Publish(ctx context.Context) error
}

// SubmitResult is the outcome of one submission. Progress is nil when the gamification
// step failed; the evaluation is still valid in that case and ProgressError says why.
type SubmitResult struct {
	Submission    domain.Submission `json:"submission"`
	Evaluation    domain.Evaluation `json:"evaluation"`
	Progress      *domain.Progress  `json:"progress"`
	ProgressError string            `json:"progressError,omitempty"`
}

// SubmissionService runs the evaluate-then-reward pipeline.
type SubmissionService struct {
	challenges  *ChallengeService
	catalogue   ChallengeRepository
	submissions SubmissionRepository
	evaluator   *evaluator.Evaluator
	engine      *gamification.Engine
	publisher   ProgressPublisher
	log         *zap.Logger
	now         func() time.Time
}

func NewSubmissionService(
	challenges *ChallengeService,
	catalogue ChallengeRepository,
	submissions SubmissionRepository,
	eval *evaluator.Evaluator,
	engine *gamification.Engine,
	publisher ProgressPublisher,
	log *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		challenges:  challenges,
		catalogue:   catalogue,
		submissions: submissions,
		evaluator:   eval,
		engine:      engine,
		publisher:   publisher,
		log:         log,
		now:         time.Now,
	}
}

// Submit evaluates code against a challenge, records the submission and updates the user's progress.
func (s *SubmissionService) Submit(ctx context.Context, userID, challengeID, code, language string) (SubmitResult, error) {
	if strings.TrimSpace(code) == "" {
		return SubmitResult{}, domain.NewValidationError("Code is required")
	}
	lang := evaluator.NormalizeLanguage(language)
	if !s.evaluator.Supports(lang) {
		return SubmitResult{}, domain.ErrUnsupportedLanguage
	}

	challenge, err := s.challenges.Resolve(ctx, challengeID)
	if err != nil {
		return SubmitResult{}, err
	}
	if len(challenge.TestCases) == 0 {
		return SubmitResult{}, domain.ErrInvalidChallenge
	}

	// Once persisted, the evaluation must finish even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	pending := domain.Submission{
		ID:          uuid.NewString(),
		UserID:      userID,
		ChallengeID: challenge.ID,
		Code:        code,
		Language:    lang,
		Status:      domain.SubmissionPending,
		TestResults: []domain.TestResult{},
		SubmittedAt: s.now().UTC(),
	}
	if err := s.submissions.Create(ctx, pending); err != nil {
		return SubmitResult{}, err
	}

	report, err := s.evaluator.Evaluate(ctx, challenge, code, lang)
	if err != nil {
		return SubmitResult{}, err
	}

	final, err := pending.Finalize(report.Evaluation, evaluator.TestResults(challenge.ID, report.Results))
	if err != nil {
		return SubmitResult{}, err
	}
	if err := s.submissions.Complete(ctx, final); err != nil {
		return SubmitResult{}, err
	}
	if err := s.catalogue.IncrementSubmissions(ctx, challenge.ID); err != nil {
		s.log.Warn("increment challenge submissions failed", zap.String("challengeId", challenge.ID), zap.Error(err))
	}

	result := SubmitResult{Submission: final, Evaluation: report.Evaluation}
	progress, err := s.engine.Apply(ctx, gamification.SubmissionEvaluated{
		SubmissionID: final.ID,
		UserID:       userID,
		Evaluation:   report.Evaluation,
		Challenge:    challenge,
	})
	if err != nil {
		s.log.Error("progress update failed",
			zap.String("userId", userID),
			zap.String("submissionId", final.ID),
			zap.Error(err))
		result.ProgressError = progressErrorMessage(err)
		return result, nil
	}
	result.Progress = &progress

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx); err != nil {
			s.log.Warn("leaderboard publish failed", zap.Error(err))
		}
	}
	return result, nil
}

func (s *SubmissionService) ListByUser(ctx context.Context, userID string) ([]domain.Submission, error) {
	return s.submissions.ListByUser(ctx, userID)
}

func (s *SubmissionService) ListByChallenge(ctx context.Context, challengeID string) ([]domain.Submission, error) {
	return s.submissions.ListByChallenge(ctx, challengeID)
}

func progressErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return "user not found"
	case errors.Is(err, domain.ErrVersionConflict):
		return "progress update contended, please retry"
	default:
		return "progress update failed"
	}
}
