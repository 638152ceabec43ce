package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gamified-learning/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ChallengeRepository stores challenges as JSONB documents. Filter and ordering
// fields are mirrored into columns; total_submissions is authoritative in its column.
type ChallengeRepository struct {
	pool *pgxpool.Pool
}

func NewChallengeRepository(pool *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{pool: pool}
}

func (r *ChallengeRepository) List(ctx context.Context, filter domain.ChallengeFilter) ([]domain.Challenge, error) {
	var (
		where []string
		args  []any
	)
	if !filter.IncludeInactive {
		where = append(where, "active")
	}
	if filter.Difficulty != "" {
		args = append(args, filter.Difficulty)
		where = append(where, fmt.Sprintf("difficulty = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	query := `SELECT data, total_submissions FROM challenges`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Challenge, 0)
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ChallengeRepository) Get(ctx context.Context, id string) (domain.Challenge, error) {
	row := r.pool.QueryRow(ctx, `SELECT data, total_submissions FROM challenges WHERE id=$1`, id)
	c, err := scanChallenge(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	return c, err
}

func (r *ChallengeRepository) Create(ctx context.Context, c domain.Challenge) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO challenges (id, difficulty, category, active, total_submissions, created_at, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, string(c.Difficulty), c.Category, c.Active, c.TotalSubmissions, c.CreatedAt, raw)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}
	return nil
}

func (r *ChallengeRepository) Update(ctx context.Context, c domain.Challenge) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE challenges SET difficulty=$2, category=$3, active=$4, data=$5 WHERE id=$1`,
		c.ID, string(c.Difficulty), c.Category, c.Active, raw)
	if err != nil {
		return fmt.Errorf("update challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChallengeNotFound
	}
	return nil
}

func (r *ChallengeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM challenges WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChallengeNotFound
	}
	return nil
}

func (r *ChallengeRepository) IncrementSubmissions(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE challenges SET total_submissions = total_submissions + 1 WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("increment submissions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChallengeNotFound
	}
	return nil
}

func scanChallenge(row pgx.Row) (domain.Challenge, error) {
	var (
		raw   []byte
		total int
	)
	if err := row.Scan(&raw, &total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Challenge{}, err
		}
		return domain.Challenge{}, fmt.Errorf("load challenge: %w", err)
	}
	var c domain.Challenge
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.Challenge{}, fmt.Errorf("unmarshal challenge: %w", err)
	}
	c.TotalSubmissions = total
	return c, nil
}
