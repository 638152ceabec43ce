package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gamified-learning/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// userData is the JSONB part of a user row.
type userData struct {
	FullName            string              `json:"fullName"`
	Role                domain.Role         `json:"role"`
	Badges              []string            `json:"badges"`
	Stats               domain.Stats        `json:"stats"`
	CompletedChallenges []domain.Completion `json:"completedChallenges"`
	RecentSubmissions   []string            `json:"recentSubmissions"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

const userColumns = `id, username, email, password_hash, points, version, created_at, data`

// UserRepository stores users with progress writes guarded by the version column.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u domain.User) error {
	raw, err := json.Marshal(dataOf(u))
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Points, u.Version, u.CreatedAt, raw)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *UserRepository) GetByLogin(ctx context.Context, login string) (domain.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1 OR email=lower($1) LIMIT 1`, login)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (domain.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return domain.User{}, err
	}
	if update.FullName != "" {
		u.FullName = update.FullName
	}
	if update.Email != "" {
		u.Email = update.Email
	}
	u.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(dataOf(u))
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal user: %w", err)
	}
	_, err = tx.Exec(ctx, `UPDATE users SET email=$2, data=$3 WHERE id=$1`, id, u.Email, raw)
	if isUniqueViolation(err) {
		return domain.User{}, domain.ErrConflict
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.User{}, fmt.Errorf("commit: %w", err)
	}
	return u, nil
}

// SaveProgress rewrites the progress fields only if the row still carries u.Version.
func (r *UserRepository) SaveProgress(ctx context.Context, u domain.User) error {
	patch, err := json.Marshal(map[string]any{
		"badges":              nonNil(u.Badges),
		"stats":               u.Stats,
		"completedChallenges": u.CompletedChallenges,
		"recentSubmissions":   u.RecentSubmissions,
		"updatedAt":           u.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET points=$3, version=version+1, data = data || $4::jsonb WHERE id=$1 AND version=$2`,
		u.ID, u.Version, u.Points, patch)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, u.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return domain.ErrUserNotFound
	}
	return domain.ErrVersionConflict
}

func (r *UserRepository) Ranked(ctx context.Context, offset, limit int) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY points DESC, created_at, id OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, fmt.Errorf("rank users: %w", err)
	}
	defer rows.Close()

	out := make([]domain.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}

func (r *UserRepository) CountAbove(ctx context.Context, points int) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE points > $1`, points).Scan(&n)
	return n, err
}

func (r *UserRepository) queryOne(ctx context.Context, sql string, args ...any) (domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, sql, args...))
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u   domain.User
		raw []byte
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Points, &u.Version, &u.CreatedAt, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	var data userData
	if err := json.Unmarshal(raw, &data); err != nil {
		return domain.User{}, fmt.Errorf("unmarshal user: %w", err)
	}
	u.FullName = data.FullName
	u.Role = data.Role
	u.Badges = nonNil(data.Badges)
	u.Stats = data.Stats
	u.CompletedChallenges = data.CompletedChallenges
	u.RecentSubmissions = data.RecentSubmissions
	u.UpdatedAt = data.UpdatedAt
	return u, nil
}

func dataOf(u domain.User) userData {
	return userData{
		FullName:            u.FullName,
		Role:                u.Role,
		Badges:              nonNil(u.Badges),
		Stats:               u.Stats,
		CompletedChallenges: u.CompletedChallenges,
		RecentSubmissions:   u.RecentSubmissions,
		UpdatedAt:           u.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
