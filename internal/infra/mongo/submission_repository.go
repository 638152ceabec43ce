package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamified-learning/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type testResultDoc struct {
	TestCaseID string `bson:"testCaseId"`
	Passed     bool   `bson:"passed"`
	Output     string `bson:"output"`
	Error      string `bson:"error,omitempty"`
}

type submissionDoc struct {
	ID              string          `bson:"_id"`
	UserID          string          `bson:"userId"`
	ChallengeID     string          `bson:"challengeId"`
	Code            string          `bson:"code"`
	Language        string          `bson:"language"`
	Status          string          `bson:"status"`
	Score           int             `bson:"score"`
	TestResults     []testResultDoc `bson:"testResults"`
	ExecutionTimeMs int64           `bson:"executionTime"`
	Feedback        string          `bson:"feedback"`
	SubmittedAt     time.Time       `bson:"submittedAt"`
}

// SubmissionRepository stores submissions in the submissions collection.
type SubmissionRepository struct {
	coll *mongo.Collection
}

func NewSubmissionRepository(db *mongo.Database) *SubmissionRepository {
	return &SubmissionRepository{coll: db.Collection(submissionsCollection)}
}

func (r *SubmissionRepository) Create(ctx context.Context, s domain.Submission) error {
	doc, err := submissionToDoc(s)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// Complete only matches a pending document, so a submission is finalized once.
func (r *SubmissionRepository) Complete(ctx context.Context, s domain.Submission) error {
	doc, err := submissionToDoc(s)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": s.ID, "status": string(domain.SubmissionPending)},
		bson.M{"$set": bson.M{
			"status":        doc.Status,
			"score":         doc.Score,
			"testResults":   doc.TestResults,
			"executionTime": doc.ExecutionTimeMs,
			"feedback":      doc.Feedback,
		}})
	if err != nil {
		return fmt.Errorf("complete submission: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": s.ID})
	if err != nil {
		return fmt.Errorf("check submission: %w", err)
	}
	if n == 0 {
		return domain.ErrSubmissionNotFound
	}
	return domain.ErrSubmissionFinalized
}

func (r *SubmissionRepository) Get(ctx context.Context, id string) (domain.Submission, error) {
	var doc submissionDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load submission: %w", err)
	}
	return doc.toDomain()
}

func (r *SubmissionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Submission, error) {
	return r.list(ctx, bson.M{"userId": userID})
}

func (r *SubmissionRepository) ListByChallenge(ctx context.Context, challengeID string) ([]domain.Submission, error) {
	return r.list(ctx, bson.M{"challengeId": challengeID})
}

func (r *SubmissionRepository) list(ctx context.Context, filter bson.M) ([]domain.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find submissions: %w", err)
	}
	var docs []submissionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode submissions: %w", err)
	}
	out := make([]domain.Submission, 0, len(docs))
	for _, d := range docs {
		s, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func submissionToDoc(s domain.Submission) (submissionDoc, error) {
	results := make([]testResultDoc, 0, len(s.TestResults))
	for _, tr := range s.TestResults {
		output, err := encodeJSON(tr.Output)
		if err != nil {
			return submissionDoc{}, fmt.Errorf("encode test output: %w", err)
		}
		results = append(results, testResultDoc{TestCaseID: tr.TestCaseID, Passed: tr.Passed, Output: output, Error: tr.Error})
	}
	return submissionDoc{
		ID:              s.ID,
		UserID:          s.UserID,
		ChallengeID:     s.ChallengeID,
		Code:            s.Code,
		Language:        s.Language,
		Status:          string(s.Status),
		Score:           s.Score,
		TestResults:     results,
		ExecutionTimeMs: s.ExecutionTimeMs,
		Feedback:        s.Feedback,
		SubmittedAt:     s.SubmittedAt,
	}, nil
}

func (d submissionDoc) toDomain() (domain.Submission, error) {
	results := make([]domain.TestResult, 0, len(d.TestResults))
	for _, tr := range d.TestResults {
		output, err := decodeJSON(tr.Output)
		if err != nil {
			return domain.Submission{}, fmt.Errorf("decode test output: %w", err)
		}
		results = append(results, domain.TestResult{TestCaseID: tr.TestCaseID, Passed: tr.Passed, Output: output, Error: tr.Error})
	}
	return domain.Submission{
		ID:              d.ID,
		UserID:          d.UserID,
		ChallengeID:     d.ChallengeID,
		Code:            d.Code,
		Language:        d.Language,
		Status:          domain.SubmissionStatus(d.Status),
		Score:           d.Score,
		TestResults:     results,
		ExecutionTimeMs: d.ExecutionTimeMs,
		Feedback:        d.Feedback,
		SubmittedAt:     d.SubmittedAt,
	}, nil
}
