package repository

import (
	"context"

	"secondlife/internal/domain/entity"
)

type ReviewRepository interface {
	// Create fails with a CONFLICT AppError when (productId, reviewerId)
	// already has a review.
	Create(ctx context.Context, review *entity.Review) error
	Exists(ctx context.Context, productID, reviewerID string) (bool, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*entity.Review, error)
}
