package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamified-learning/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDoc struct {
	ID                  string              `bson:"_id"`
	Username            string              `bson:"username"`
	Email               string              `bson:"email"`
	FullName            string              `bson:"fullName"`
	PasswordHash        string              `bson:"passwordHash"`
	Role                string              `bson:"role"`
	Points              int                 `bson:"points"`
	Badges              []string            `bson:"badges"`
	Stats               domain.Stats        `bson:"stats"`
	CompletedChallenges []domain.Completion `bson:"completedChallenges"`
	RecentSubmissions   []string            `bson:"recentSubmissions"`
	Version             int64               `bson:"version"`
	CreatedAt           time.Time           `bson:"createdAt"`
	UpdatedAt           time.Time           `bson:"updatedAt"`
}

// UserRepository stores users in the users collection. Progress writes are
// compare-and-set on the version field.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, u domain.User) error {
	if _, err := r.coll.InsertOne(ctx, userToDoc(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) GetByLogin(ctx context.Context, login string) (domain.User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username": login},
		bson.M{"email": strings.ToLower(login)},
	}})
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (domain.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.FullName != "" {
		set["fullName"] = update.FullName
	}
	if update.Email != "" {
		set["email"] = update.Email
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.User{}, domain.ErrUserNotFound
	case mongo.IsDuplicateKeyError(err):
		return domain.User{}, domain.ErrConflict
	case err != nil:
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) SaveProgress(ctx context.Context, u domain.User) error {
	badges := u.Badges
	if badges == nil {
		badges = []string{}
	}
	completed := u.CompletedChallenges
	if completed == nil {
		completed = []domain.Completion{}
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": u.ID, "version": u.Version},
		bson.M{
			"$set": bson.M{
				"points":              u.Points,
				"badges":              badges,
				"stats":               u.Stats,
				"completedChallenges": completed,
				"recentSubmissions":   u.RecentSubmissions,
				"updatedAt":           u.UpdatedAt,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": u.ID})
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return domain.ErrVersionConflict
}

func (r *UserRepository) Ranked(ctx context.Context, offset, limit int) ([]domain.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "points", Value: -1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("rank users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func (r *UserRepository) CountAbove(ctx context.Context, points int) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"points": bson.M{"$gt": points}})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return doc.toDomain(), nil
}

func userToDoc(u domain.User) userDoc {
	badges := u.Badges
	if badges == nil {
		badges = []string{}
	}
	completed := u.CompletedChallenges
	if completed == nil {
		completed = []domain.Completion{}
	}
	return userDoc{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		FullName:            u.FullName,
		PasswordHash:        u.PasswordHash,
		Role:                string(u.Role),
		Points:              u.Points,
		Badges:              badges,
		Stats:               u.Stats,
		CompletedChallenges: completed,
		RecentSubmissions:   u.RecentSubmissions,
		Version:             u.Version,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:                  d.ID,
		Username:            d.Username,
		Email:               d.Email,
		FullName:            d.FullName,
		PasswordHash:        d.PasswordHash,
		Role:                domain.Role(d.Role),
		Points:              d.Points,
		Badges:              d.Badges,
		Stats:               d.Stats,
		CompletedChallenges: d.CompletedChallenges,
		RecentSubmissions:   d.RecentSubmissions,
		Version:             d.Version,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}
