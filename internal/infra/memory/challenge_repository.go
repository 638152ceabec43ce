package memory

import (
	"context"
	"sort"
	"sync"

	"gamified-learning/internal/domain"
)

// ChallengeRepository keeps challenges in a map. Useful for tests, demos and the memory driver.
type ChallengeRepository struct {
	mu         sync.RWMutex
	challenges map[string]domain.Challenge
}

func NewChallengeRepository(seed ...domain.Challenge) *ChallengeRepository {
	r := &ChallengeRepository{challenges: make(map[string]domain.Challenge, len(seed))}
	for _, c := range seed {
		r.challenges[c.ID] = cloneChallenge(c)
	}
	return r
}

func (r *ChallengeRepository) List(_ context.Context, filter domain.ChallengeFilter) ([]domain.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Challenge, 0, len(r.challenges))
	for _, c := range r.challenges {
		if !filter.IncludeInactive && !c.Active {
			continue
		}
		if filter.Difficulty != "" && string(c.Difficulty) != filter.Difficulty {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		out = append(out, cloneChallenge(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ChallengeRepository) Get(_ context.Context, id string) (domain.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.challenges[id]
	if !ok {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	return cloneChallenge(c), nil
}

func (r *ChallengeRepository) Create(_ context.Context, c domain.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.challenges[c.ID]; ok {
		return domain.ErrConflict
	}
	r.challenges[c.ID] = cloneChallenge(c)
	return nil
}

func (r *ChallengeRepository) Update(_ context.Context, c domain.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.challenges[c.ID]
	if !ok {
		return domain.ErrChallengeNotFound
	}
	// the submission counter is owned by IncrementSubmissions
	c.TotalSubmissions = current.TotalSubmissions
	r.challenges[c.ID] = cloneChallenge(c)
	return nil
}

func (r *ChallengeRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.challenges[id]; !ok {
		return domain.ErrChallengeNotFound
	}
	delete(r.challenges, id)
	return nil
}

func (r *ChallengeRepository) IncrementSubmissions(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok {
		return domain.ErrChallengeNotFound
	}
	c.TotalSubmissions++
	r.challenges[id] = c
	return nil
}

func cloneChallenge(c domain.Challenge) domain.Challenge {
	if c.TestCases != nil {
		c.TestCases = append([]domain.TestCase(nil), c.TestCases...)
	}
	return c
}
