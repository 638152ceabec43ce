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

type testCaseDoc struct {
	Input          string `bson:"input"`
	ExpectedOutput string `bson:"expectedOutput"`
	Description    string `bson:"description,omitempty"`
	Hidden         bool   `bson:"hidden"`
}

type challengeDoc struct {
	ID               string        `bson:"_id"`
	Title            string        `bson:"title"`
	Description      string        `bson:"description"`
	Content          string        `bson:"content"`
	Difficulty       string        `bson:"difficulty"`
	Category         string        `bson:"category"`
	Points           int           `bson:"points"`
	Language         string        `bson:"language"`
	TestCases        []testCaseDoc `bson:"testCases"`
	CreatedBy        string        `bson:"createdBy"`
	Active           bool          `bson:"active"`
	TotalSubmissions int           `bson:"totalSubmissions"`
	CreatedAt        time.Time     `bson:"createdAt"`
}

// ChallengeRepository stores challenges in the challenges collection.
type ChallengeRepository struct {
	coll *mongo.Collection
}

func NewChallengeRepository(db *mongo.Database) *ChallengeRepository {
	return &ChallengeRepository{coll: db.Collection(challengesCollection)}
}

func (r *ChallengeRepository) List(ctx context.Context, filter domain.ChallengeFilter) ([]domain.Challenge, error) {
	query := bson.M{}
	if !filter.IncludeInactive {
		query["active"] = true
	}
	if filter.Difficulty != "" {
		query["difficulty"] = filter.Difficulty
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find challenges: %w", err)
	}
	var docs []challengeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode challenges: %w", err)
	}
	out := make([]domain.Challenge, 0, len(docs))
	for _, d := range docs {
		c, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *ChallengeRepository) Get(ctx context.Context, id string) (domain.Challenge, error) {
	var doc challengeDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("load challenge: %w", err)
	}
	return doc.toDomain()
}

func (r *ChallengeRepository) Create(ctx context.Context, c domain.Challenge) error {
	doc, err := challengeToDoc(c)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert challenge: %w", err)
	}
	return nil
}

// Update rewrites every field except the submission counter.
func (r *ChallengeRepository) Update(ctx context.Context, c domain.Challenge) error {
	doc, err := challengeToDoc(c)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{
		"title":       doc.Title,
		"description": doc.Description,
		"content":     doc.Content,
		"difficulty":  doc.Difficulty,
		"category":    doc.Category,
		"points":      doc.Points,
		"language":    doc.Language,
		"testCases":   doc.TestCases,
		"active":      doc.Active,
	}})
	if err != nil {
		return fmt.Errorf("update challenge: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrChallengeNotFound
	}
	return nil
}

func (r *ChallengeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrChallengeNotFound
	}
	return nil
}

func (r *ChallengeRepository) IncrementSubmissions(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"totalSubmissions": 1}})
	if err != nil {
		return fmt.Errorf("increment submissions: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrChallengeNotFound
	}
	return nil
}

func challengeToDoc(c domain.Challenge) (challengeDoc, error) {
	cases := make([]testCaseDoc, 0, len(c.TestCases))
	for _, tc := range c.TestCases {
		input, err := encodeJSON(tc.Input)
		if err != nil {
			return challengeDoc{}, fmt.Errorf("encode test input: %w", err)
		}
		expected, err := encodeJSON(tc.ExpectedOutput)
		if err != nil {
			return challengeDoc{}, fmt.Errorf("encode expected output: %w", err)
		}
		cases = append(cases, testCaseDoc{Input: input, ExpectedOutput: expected, Description: tc.Description, Hidden: tc.Hidden})
	}
	return challengeDoc{
		ID:               c.ID,
		Title:            c.Title,
		Description:      c.Description,
		Content:          c.Content,
		Difficulty:       string(c.Difficulty),
		Category:         c.Category,
		Points:           c.Points,
		Language:         c.Language,
		TestCases:        cases,
		CreatedBy:        c.CreatedBy,
		Active:           c.Active,
		TotalSubmissions: c.TotalSubmissions,
		CreatedAt:        c.CreatedAt,
	}, nil
}

func (d challengeDoc) toDomain() (domain.Challenge, error) {
	cases := make([]domain.TestCase, 0, len(d.TestCases))
	for _, tc := range d.TestCases {
		input, err := decodeJSON(tc.Input)
		if err != nil {
			return domain.Challenge{}, fmt.Errorf("decode test input: %w", err)
		}
		expected, err := decodeJSON(tc.ExpectedOutput)
		if err != nil {
			return domain.Challenge{}, fmt.Errorf("decode expected output: %w", err)
		}
		cases = append(cases, domain.TestCase{Input: input, ExpectedOutput: expected, Description: tc.Description, Hidden: tc.Hidden})
	}
	return domain.Challenge{
		ID:               d.ID,
		Title:            d.Title,
		Description:      d.Description,
		Content:          d.Content,
		Difficulty:       domain.Difficulty(d.Difficulty),
		Category:         d.Category,
		Points:           d.Points,
		Language:         d.Language,
		TestCases:        cases,
		CreatedBy:        d.CreatedBy,
		Active:           d.Active,
		TotalSubmissions: d.TotalSubmissions,
		CreatedAt:        d.CreatedAt,
	}, nil
}
