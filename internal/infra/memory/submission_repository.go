package memory

import (
	"context"
	"sort"
	"sync"

	"gamified-learning/internal/domain"
)

// SubmissionRepository keeps submissions in memory.
type SubmissionRepository struct {
	mu          sync.RWMutex
	submissions map[string]domain.Submission
}

func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{submissions: make(map[string]domain.Submission)}
}

func (r *SubmissionRepository) Create(_ context.Context, s domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.submissions[s.ID]; ok {
		return domain.ErrConflict
	}
	r.submissions[s.ID] = s
	return nil
}

// Complete replaces a pending submission with its evaluated form. It succeeds once.
func (r *SubmissionRepository) Complete(_ context.Context, s domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.submissions[s.ID]
	if !ok {
		return domain.ErrSubmissionNotFound
	}
	if current.Status != domain.SubmissionPending {
		return domain.ErrSubmissionFinalized
	}
	r.submissions[s.ID] = s
	return nil
}

func (r *SubmissionRepository) Get(_ context.Context, id string) (domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.submissions[id]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return s, nil
}

func (r *SubmissionRepository) ListByUser(_ context.Context, userID string) ([]domain.Submission, error) {
	return r.filter(func(s domain.Submission) bool { return s.UserID == userID }), nil
}

func (r *SubmissionRepository) ListByChallenge(_ context.Context, challengeID string) ([]domain.Submission, error) {
	return r.filter(func(s domain.Submission) bool { return s.ChallengeID == challengeID }), nil
}

func (r *SubmissionRepository) filter(keep func(domain.Submission) bool) []domain.Submission {
	r.mu.RLock()
	out := make([]domain.Submission, 0)
	for _, s := range r.submissions {
		if keep(s) {
			out = append(out, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
