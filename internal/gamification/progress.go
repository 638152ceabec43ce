package gamification

import (
	"math"
	"time"

	"gamified-learning/internal/domain"
)

const (
	defaultBasePoints        = 50
	speedThreshold           = 2 * time.Second
	challengeMasterMilestone = 10
	accuracyKingThreshold    = 90
	accuracyKingMinCompleted = 5
	recentSubmissionWindow   = 50
)

// SubmissionEvaluated is the event that drives a user's progress forward.
type SubmissionEvaluated struct {
	SubmissionID string
	UserID       string
	Evaluation   domain.Evaluation
	Challenge    domain.Challenge
}

// Accuracy is round(successful/total*100), 0 before any attempt.
func Accuracy(s domain.Stats) int {
	if s.TotalAttempts <= 0 {
		return 0
	}
	return int(math.Round(float64(s.SuccessfulAttempts) / float64(s.TotalAttempts) * 100))
}

// Points computes the reward for one evaluation. Bonuses are flat registry values.
func Points(reg *Registry, eval domain.Evaluation, challenge domain.Challenge) int {
	points := 0
	if eval.Passed() {
		base := challenge.Points
		if base <= 0 {
			base = defaultBasePoints
		}
		points += base
	}
	if eval.Score == 100 {
		points += reg.Bonus(BadgePerfectScore)
	}
	if eval.ExecutionTime < speedThreshold {
		points += reg.Bonus(BadgeSpeedDemon)
	}
	return points
}

type badgeRule struct {
	id       string
	eligible func(stats domain.Stats, eval domain.Evaluation) bool
}

// badgeRules run in this order; the first matching rules come first in NewBadges.
var badgeRules = []badgeRule{
	{BadgeFirstChallenge, func(s domain.Stats, _ domain.Evaluation) bool { return s.ChallengesCompleted == 1 }},
	{BadgePerfectScore, func(_ domain.Stats, e domain.Evaluation) bool { return e.Score == 100 }},
	{BadgeSpeedDemon, func(_ domain.Stats, e domain.Evaluation) bool { return e.ExecutionTime < speedThreshold }},
	{BadgeChallengeMaster, func(s domain.Stats, _ domain.Evaluation) bool {
		return s.ChallengesCompleted == challengeMasterMilestone
	}},
	{BadgeAccuracyKing, func(s domain.Stats, _ domain.Evaluation) bool {
		return s.CurrentAccuracy >= accuracyKingThreshold && s.ChallengesCompleted >= accuracyKingMinCompleted
	}},
}

// advance applies one evaluation to a copy of user and returns the next state plus its summary.
func advance(reg *Registry, user domain.User, ev SubmissionEvaluated, now time.Time) (domain.User, domain.Progress) {
	next := user
	next.Badges = append([]string(nil), user.Badges...)
	next.CompletedChallenges = append([]domain.Completion(nil), user.CompletedChallenges...)

	earned := Points(reg, ev.Evaluation, ev.Challenge)
	next.Points += earned

	next.Stats.TotalAttempts++
	if ev.Evaluation.Passed() {
		next.Stats.SuccessfulAttempts++
		next.Stats.ChallengesCompleted++
		next.CompletedChallenges = append(next.CompletedChallenges, domain.Completion{
			ChallengeID:     ev.Challenge.ID,
			CompletedAt:     now,
			Score:           ev.Evaluation.Score,
			ExecutionTimeMs: ev.Evaluation.ExecutionTime.Milliseconds(),
		})
	}
	next.Stats.CurrentAccuracy = Accuracy(next.Stats)

	newBadges := []string{}
	for _, rule := range badgeRules {
		if _, known := reg.Lookup(rule.id); !known {
			continue
		}
		if rule.eligible(next.Stats, ev.Evaluation) && !next.HasBadge(rule.id) {
			next.Badges = append(next.Badges, rule.id)
			newBadges = append(newBadges, rule.id)
		}
	}

	if ev.SubmissionID != "" {
		next.RecentSubmissions = appendRecent(user.RecentSubmissions, ev.SubmissionID)
	}
	next.UpdatedAt = now

	return next, domain.Progress{
		PointsEarned: earned,
		NewBadges:    newBadges,
		TotalPoints:  next.Points,
		Stats:        next.Stats,
	}
}

func appendRecent(ids []string, id string) []string {
	out := append(append([]string(nil), ids...), id)
	if len(out) > recentSubmissionWindow {
		out = out[len(out)-recentSubmissionWindow:]
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
