package app_test

import (
	"context"
	"errors"
	"testing"

	"gamified-learning/internal/domain"
)

const doubleSolution = "function solution(n) { return n * 2; }"

func TestSubmitPassingAwardsProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "alice")
	c := f.challenge(t)

	res, err := f.submissions.Submit(ctx, u.ID, c.ID, doubleSolution, "js")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if res.Evaluation.Status != domain.EvaluationPass || res.Evaluation.Score != 100 {
		t.Fatalf("expected pass, got %+v", res.Evaluation)
	}
	if res.Submission.Status != domain.SubmissionPassed || res.Submission.Language != domain.LanguageJavaScript {
		t.Fatalf("unexpected submission %+v", res.Submission)
	}
	if res.Progress == nil || res.Progress.PointsEarned != 50+100+75 {
		t.Fatalf("unexpected progress %+v", res.Progress)
	}

	stored, err := f.submissionsDB.Get(ctx, res.Submission.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if stored.Status != domain.SubmissionPassed || len(stored.TestResults) != 4 {
		t.Fatalf("expected finalized submission, got %+v", stored)
	}
	if stored.TestResults[2].TestCaseID != c.ID+"_test_2" {
		t.Fatalf("unexpected test case id %q", stored.TestResults[2].TestCaseID)
	}

	reloaded, err := f.challengeRepo.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get challenge: %v", err)
	}
	if reloaded.TotalSubmissions != 1 {
		t.Fatalf("expected submission counter 1, got %d", reloaded.TotalSubmissions)
	}
}

func TestSubmitFailingCountsAttemptOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "bob")
	c := f.challenge(t)

	res, err := f.submissions.Submit(ctx, u.ID, c.ID, "function solution(n) { return n + n > 4 ? n * 2 : 0; }", "")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	// 2 -> 0 and -1 -> 0 fail, 5 and 0 pass
	if res.Evaluation.Score != 50 || res.Submission.Status != domain.SubmissionFailed {
		t.Fatalf("unexpected evaluation %+v", res.Evaluation)
	}
	if len(res.Evaluation.FailedTests) != 2 || !res.Evaluation.FailedTests[1].Hidden {
		t.Fatalf("expected second failure to be hidden, got %+v", res.Evaluation.FailedTests)
	}

	user, _ := f.users.GetByID(ctx, u.ID)
	if user.Stats.TotalAttempts != 1 || user.Stats.SuccessfulAttempts != 0 || len(user.CompletedChallenges) != 0 {
		t.Fatalf("unexpected stats %+v", user.Stats)
	}
}

func TestSubmitRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "carol")
	c := f.challenge(t)

	var verr *domain.ValidationError
	if _, err := f.submissions.Submit(ctx, u.ID, c.ID, "   ", ""); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.submissions.Submit(ctx, u.ID, c.ID, doubleSolution, "python"); !errors.Is(err, domain.ErrUnsupportedLanguage) {
		t.Fatalf("expected unsupported language, got %v", err)
	}
	if _, err := f.submissions.Submit(ctx, u.ID, "missing", doubleSolution, ""); !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Fatalf("expected challenge not found, got %v", err)
	}

	list, _ := f.submissionsDB.ListByUser(ctx, u.ID)
	if len(list) != 0 {
		t.Fatalf("rejected submissions must not be stored, got %d", len(list))
	}
}

func TestSubmitKeepsEvaluationWhenProgressFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.challenge(t)

	res, err := f.submissions.Submit(ctx, "ghost", c.ID, doubleSolution, "")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if res.Progress != nil || res.ProgressError != "user not found" {
		t.Fatalf("expected progress error, got %+v / %q", res.Progress, res.ProgressError)
	}
	if res.Evaluation.Status != domain.EvaluationPass {
		t.Fatalf("evaluation must survive a progress failure, got %+v", res.Evaluation)
	}
}

func TestSubmitFinishesAfterCallerCancels(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "dave")
	c := f.challenge(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.submissions.Submit(ctx, u.ID, c.ID, doubleSolution, "")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if res.Evaluation.Status != domain.EvaluationPass || res.Submission.Status != domain.SubmissionPassed {
		t.Fatalf("expected a completed evaluation, got %+v", res.Evaluation)
	}
	if res.Progress == nil {
		t.Fatalf("expected progress despite the cancelled caller, got %q", res.ProgressError)
	}
}
