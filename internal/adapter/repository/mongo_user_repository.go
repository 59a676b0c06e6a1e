package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/repository"
	"secondlife/pkg/errors"
)

type mongoUserRepository struct {
	col *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{col: db.Collection(usersCollection)}
}

// NewMongoActivityStore keeps heartbeats on the user document itself.
func NewMongoActivityStore(db *mongo.Database) repository.ActivityStore {
	return &mongoUserRepository{col: db.Collection(usersCollection)}
}

func (r *mongoUserRepository) Upsert(ctx context.Context, user *entity.User) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	now := time.Now().UTC()
	set := bson.M{"email": user.Email, "updatedAt": now}
	if user.DisplayName != "" {
		set["displayName"] = user.DisplayName
	}
	if user.PhotoURL != "" {
		set["photoURL"] = user.PhotoURL
	}
	if user.City != "" {
		set["city"] = user.City
	}

	res, err := r.col.UpdateByID(ctx, user.ID, bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": now, "rating": entity.Rating{}},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return false, errors.Internal("Failed to save user", err)
	}
	return res.UpsertedCount > 0, nil
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var u entity.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}
	return &u, nil
}

func (r *mongoUserRepository) Update(ctx context.Context, user *entity.User) error {
	return r.set(ctx, user.ID, bson.M{
		"displayName": user.DisplayName,
		"photoURL":    user.PhotoURL,
		"city":        user.City,
		"updatedAt":   time.Now().UTC(),
	}, "Failed to update user")
}

func (r *mongoUserRepository) UpdateRating(ctx context.Context, id string, rating entity.Rating) error {
	return r.set(ctx, id, bson.M{"rating": rating, "updatedAt": time.Now().UTC()}, "Failed to update rating")
}

func (r *mongoUserRepository) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]*entity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	filter := bson.M{
		"lastActive": bson.M{"$lt": cutoff, "$gt": time.Time{}},
		"$or": []bson.M{
			{"followUpAt": bson.M{"$exists": false}},
			{"$expr": bson.M{"$lt": []string{"$followUpAt", "$lastActive"}}},
		},
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, errors.Internal("Failed to list inactive users", err)
	}
	defer cur.Close(ctx)

	out := []*entity.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Internal("Failed to decode users", err)
	}
	return out, nil
}

func (r *mongoUserRepository) MarkFollowUpSent(ctx context.Context, id string, at time.Time) error {
	return r.set(ctx, id, bson.M{"followUpAt": at}, "Failed to record follow-up")
}

func (r *mongoUserRepository) set(ctx context.Context, id string, fields bson.M, failMsg string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return errors.Internal(failMsg, err)
	}
	if res.MatchedCount == 0 {
		return errors.NotFound("User", nil)
	}
	return nil
}

func (r *mongoUserRepository) Touch(ctx context.Context, userID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	_, err := r.col.UpdateByID(ctx, userID, bson.M{"$set": bson.M{"lastActive": at}}, options.Update().SetUpsert(true))
	if err != nil {
		return errors.Internal("Failed to record activity", err)
	}
	return nil
}

func (r *mongoUserRepository) LastActive(ctx context.Context, userID string) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var doc struct {
		LastActive time.Time `bson:"lastActive"`
	}
	err := r.col.FindOne(ctx, bson.M{"_id": userID}, options.FindOne().SetProjection(bson.M{"lastActive": 1})).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, errors.Internal("Failed to read activity", err)
	}
	return doc.LastActive, nil
}
