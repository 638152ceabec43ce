package gamification

import "gamified-learning/internal/domain"

const (
	BadgeFirstChallenge  = "first_challenge"
	BadgePerfectScore    = "perfect_score"
	BadgeSpeedDemon      = "speed_demon"
	BadgeChallengeMaster = "challenge_master"
	BadgeAccuracyKing    = "accuracy_king"
)

// Registry is the immutable badge table. Order is the evaluation order of eligibility rules.
type Registry struct {
	order  []string
	badges map[string]domain.Badge
}

// NewRegistry builds a registry from definitions; later duplicates are ignored.
func NewRegistry(defs ...domain.Badge) *Registry {
	r := &Registry{badges: make(map[string]domain.Badge, len(defs))}
	for _, b := range defs {
		if _, ok := r.badges[b.ID]; ok {
			continue
		}
		r.order = append(r.order, b.ID)
		r.badges[b.ID] = b
	}
	return r
}

// DefaultRegistry returns the platform's badge definitions.
func DefaultRegistry() *Registry {
	return NewRegistry(
		domain.Badge{ID: BadgeFirstChallenge, Name: "First Challenge", Description: "Completed your first coding challenge", Points: 50},
		domain.Badge{ID: BadgePerfectScore, Name: "Perfect Score", Description: "Achieved 100% on a challenge", Points: 100},
		domain.Badge{ID: BadgeSpeedDemon, Name: "Speed Demon", Description: "Completed a challenge in under 2 seconds", Points: 75},
		domain.Badge{ID: BadgeChallengeMaster, Name: "Challenge Master", Description: "Completed 10 challenges", Points: 200},
		domain.Badge{ID: BadgeAccuracyKing, Name: "Accuracy King", Description: "Maintained 90%+ accuracy across 5 challenges", Points: 150},
	)
}

// Lookup returns the definition for id.
func (r *Registry) Lookup(id string) (domain.Badge, bool) {
	b, ok := r.badges[id]
	return b, ok
}

// Bonus returns the bonus points attached to a badge, 0 when unknown.
func (r *Registry) Bonus(id string) int {
	return r.badges[id].Points
}

// All returns the definitions in registry order.
func (r *Registry) All() []domain.Badge {
	out := make([]domain.Badge, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.badges[id])
	}
	return out
}

// Expand resolves badge ids to definitions, skipping unknown ids.
func (r *Registry) Expand(ids []string) []domain.Badge {
	out := make([]domain.Badge, 0, len(ids))
	for _, id := range ids {
		if b, ok := r.badges[id]; ok {
			out = append(out, b)
		}
	}
	return out
}
