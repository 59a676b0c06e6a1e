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
	"secondlife/pkg/logger"
)

type mongoReviewRepository struct {
	col *mongo.Collection
}

func NewMongoReviewRepository(db *mongo.Database) repository.ReviewRepository {
	r := &mongoReviewRepository{col: db.Collection(reviewsCollection)}
	_, err := r.col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "productId", Value: 1}, {Key: "reviewerId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "sellerId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		logger.Warn("mongo: creating review indexes failed, uniqueness relies on the document id: %v", err)
	}
	return r
}

func (r *mongoReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	review.ID = entity.ReviewID(review.ProductID, review.ReviewerID)
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	if _, err := r.col.InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Conflict("You have already reviewed this product")
		}
		return errors.Internal("Failed to create review", err)
	}
	return nil
}

func (r *mongoReviewRepository) Exists(ctx context.Context, productID, reviewerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"productId": productID, "reviewerId": reviewerID}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Internal("Failed to check review", err)
	}
	return n > 0, nil
}

func (r *mongoReviewRepository) ListBySeller(ctx context.Context, sellerID string) ([]*entity.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"sellerId": sellerID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, errors.Internal("Failed to list reviews", err)
	}
	defer cur.Close(ctx)

	out := []*entity.Review{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Internal("Failed to decode reviews", err)
	}
	return out, nil
}
