package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gamified-learning/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// SubmissionRepository stores submissions as JSONB documents keyed by id.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

func (r *SubmissionRepository) Create(ctx context.Context, s domain.Submission) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO submissions (id, user_id, challenge_id, status, submitted_at, data) VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.UserID, s.ChallengeID, string(s.Status), s.SubmittedAt, raw)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// Complete only updates a pending row, so a submission is finalized once.
func (r *SubmissionRepository) Complete(ctx context.Context, s domain.Submission) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions SET status=$2, data=$3 WHERE id=$1 AND status=$4`,
		s.ID, string(s.Status), raw, string(domain.SubmissionPending))
	if err != nil {
		return fmt.Errorf("complete submission: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM submissions WHERE id=$1)`, s.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check submission: %w", err)
	}
	if !exists {
		return domain.ErrSubmissionNotFound
	}
	return domain.ErrSubmissionFinalized
}

func (r *SubmissionRepository) Get(ctx context.Context, id string) (domain.Submission, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM submissions WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load submission: %w", err)
	}
	return decodeSubmission(raw)
}

func (r *SubmissionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Submission, error) {
	return r.list(ctx, `SELECT data FROM submissions WHERE user_id=$1 ORDER BY submitted_at DESC, id DESC`, userID)
}

func (r *SubmissionRepository) ListByChallenge(ctx context.Context, challengeID string) ([]domain.Submission, error) {
	return r.list(ctx, `SELECT data FROM submissions WHERE challenge_id=$1 ORDER BY submitted_at DESC, id DESC`, challengeID)
}

func (r *SubmissionRepository) list(ctx context.Context, sql string, arg string) ([]domain.Submission, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Submission, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		s, err := decodeSubmission(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func decodeSubmission(raw []byte) (domain.Submission, error) {
	var s domain.Submission
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal submission: %w", err)
	}
	return s, nil
}
