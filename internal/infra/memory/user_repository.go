package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gamified-learning/internal/domain"
)

// UserRepository stores users in memory with version-checked progress writes.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
	clock func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User), clock: time.Now}
}

func (r *UserRepository) Create(_ context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.ID == u.ID ||
			strings.EqualFold(existing.Username, u.Username) ||
			strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrConflict
		}
	}
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// GetByLogin matches the username exactly or the email case-insensitively.
func (r *UserRepository) GetByLogin(_ context.Context, login string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == login || strings.EqualFold(u.Email, login) {
			return cloneUser(u), nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (r *UserRepository) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	if update.Email != "" && !strings.EqualFold(update.Email, u.Email) {
		for _, other := range r.users {
			if other.ID != id && strings.EqualFold(other.Email, update.Email) {
				return domain.User{}, domain.ErrConflict
			}
		}
		u.Email = update.Email
	}
	if update.FullName != "" {
		u.FullName = update.FullName
	}
	u.UpdatedAt = r.clock().UTC()
	r.users[id] = u
	return cloneUser(u), nil
}

// SaveProgress writes the gamification fields only if the stored version matches.
func (r *UserRepository) SaveProgress(_ context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[u.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if current.Version != u.Version {
		return domain.ErrVersionConflict
	}
	next := cloneUser(u)
	current.Points = next.Points
	current.Badges = next.Badges
	current.Stats = next.Stats
	current.CompletedChallenges = next.CompletedChallenges
	current.RecentSubmissions = next.RecentSubmissions
	current.UpdatedAt = next.UpdatedAt
	current.Version++
	r.users[u.ID] = current
	return nil
}

func (r *UserRepository) Ranked(_ context.Context, offset, limit int) ([]domain.User, error) {
	r.mu.RLock()
	all := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Points != all[j].Points {
			return all[i].Points > all[j].Points
		}
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return []domain.User{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]domain.User, 0, end-offset)
	for _, u := range all[offset:end] {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *UserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *UserRepository) CountAbove(_ context.Context, points int) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, u := range r.users {
		if u.Points > points {
			n++
		}
	}
	return n, nil
}

func cloneUser(u domain.User) domain.User {
	u.Badges = append([]string{}, u.Badges...)
	u.CompletedChallenges = append([]domain.Completion{}, u.CompletedChallenges...)
	u.RecentSubmissions = append([]string(nil), u.RecentSubmissions...)
	return u
}
