package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gamified-learning/internal/app"
	"gamified-learning/internal/domain"
)

func TestChallengeUpdateRefreshesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.challenge(t)

	if _, err := f.challenges.Resolve(ctx, c.ID); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	title := "Triple"
	points := 70
	updated, err := f.challenges.Update(ctx, c.ID, domain.ChallengePatch{
		Title:     &title,
		Points:    &points,
		TestCases: []domain.TestCase{{Input: 1, ExpectedOutput: 3}},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Description != c.Description || updated.Points != 70 {
		t.Fatalf("unexpected update %+v", updated)
	}

	resolved, err := f.challenges.Resolve(ctx, c.ID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.Title != "Triple" || len(resolved.TestCases) != 1 {
		t.Fatalf("expected cache refreshed, got %+v", resolved)
	}

	res, err := f.submissions.Submit(ctx, f.user(t, "ann").ID, c.ID, "function solution(n) { return n * 3; }", "")
	if err != nil || res.Progress == nil || res.Progress.PointsEarned != 70+100+75 {
		t.Fatalf("expected the updated challenge to be evaluated, got %+v (%v)", res.Progress, err)
	}
}

func TestChallengeValidationAndVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.challenges.Create(ctx, domain.Challenge{Difficulty: "extreme", Points: -1}, "admin")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || len(verr.Messages) != 5 {
		t.Fatalf("expected five validation messages, got %v", err)
	}

	tooMany := domain.Challenge{Title: "Big", Description: "many cases", Difficulty: domain.DifficultyEasy}
	for i := 0; i <= app.MaxTestCases; i++ {
		tooMany.TestCases = append(tooMany.TestCases, domain.TestCase{Input: float64(i), ExpectedOutput: float64(i)})
	}
	_, err = f.challenges.Create(ctx, tooMany, "admin")
	if !errors.As(err, &verr) || len(verr.Messages) != 1 || !strings.Contains(verr.Messages[0], "At most") {
		t.Fatalf("expected test case cap to be enforced, got %v", err)
	}
	tooMany.TestCases = tooMany.TestCases[:app.MaxTestCases]
	if _, err := f.challenges.Create(ctx, tooMany, "admin"); err != nil {
		t.Fatalf("expected %d cases to be accepted, got %v", app.MaxTestCases, err)
	}

	c := f.challenge(t)
	public, err := f.challenges.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(public.TestCases) != 3 {
		t.Fatalf("expected hidden case stripped, got %d", len(public.TestCases))
	}
	if c.Points != 0 || c.Language != domain.LanguageJavaScript || !c.Active {
		t.Fatalf("unexpected defaults %+v", c)
	}

	if err := f.challenges.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := f.challenges.Resolve(ctx, c.ID); !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestHintFallsBackWithoutGenerator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.challenge(t)

	h, err := f.hints.Hint(ctx, c.ID, "", "", 9)
	if err != nil {
		t.Fatalf("hint failed: %v", err)
	}
	if !h.Fallback || h.Level != 3 || h.Text != "Think about how to optimize your data structures." {
		t.Fatalf("unexpected hint %+v", h)
	}
	if _, err := f.hints.Hint(ctx, "missing", "", "", 1); !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Fatalf("expected challenge not found, got %v", err)
	}
}
