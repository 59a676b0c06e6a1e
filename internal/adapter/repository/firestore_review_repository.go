package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/repository"
	"secondlife/pkg/errors"
)

type firestoreReviewRepository struct {
	client *firestore.Client
}

func NewFirestoreReviewRepository(client *firestore.Client) repository.ReviewRepository {
	return &firestoreReviewRepository{
		client: client,
	}
}

// Create uses the deterministic (product, reviewer) id with Firestore's
// create-only write, so a second review for the pair fails atomically.
func (r *firestoreReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	review.ID = entity.ReviewID(review.ProductID, review.ReviewerID)
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	if _, err := r.client.Collection(reviewsCollection).Doc(review.ID).Create(ctx, review); err != nil {
		if isAlreadyExists(err) {
			return errors.Conflict("You have already reviewed this product")
		}
		return errors.Internal("Failed to create review", err)
	}
	return nil
}

func (r *firestoreReviewRepository) Exists(ctx context.Context, productID, reviewerID string) (bool, error) {
	_, err := r.client.Collection(reviewsCollection).Doc(entity.ReviewID(productID, reviewerID)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errors.Internal("Failed to check review", err)
	}
	return true, nil
}

func (r *firestoreReviewRepository) ListBySeller(ctx context.Context, sellerID string) ([]*entity.Review, error) {
	reviews, err := collectDocs[entity.Review](r.client.Collection(reviewsCollection).Where("sellerId", "==", sellerID).Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list reviews", err)
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}
