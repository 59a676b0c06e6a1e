package usecase

import (
	"context"
	"strings"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/repository"
	"secondlife/internal/domain/service"
	"secondlife/internal/infrastructure/events"
	"secondlife/pkg/errors"
	"secondlife/pkg/logger"
)

type ReviewUseCase struct {
	reviewRepo  repository.ReviewRepository
	messageRepo repository.MessageRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	publisher   events.Publisher
}

func NewReviewUseCase(
	reviewRepo repository.ReviewRepository,
	messageRepo repository.MessageRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	publisher events.Publisher,
) *ReviewUseCase {
	return &ReviewUseCase{
		reviewRepo:  reviewRepo,
		messageRepo: messageRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		publisher:   orNopPublisher(publisher),
	}
}

type CreateReviewInput struct {
	ProductID    string
	Rating       int
	Comment      string
	ReviewerName string
}

// CreateReview lets the buyer of a confirmed sale rate the seller once.
func (uc *ReviewUseCase) CreateReview(ctx context.Context, reviewerID string, input CreateReviewInput) (*entity.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, errors.BadRequest("Rating must be between 1 and 5", nil)
	}

	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product.SellerID == reviewerID {
		return nil, errors.Forbidden("You cannot review your own product", nil)
	}

	exists, err := uc.reviewRepo.Exists(ctx, product.ID, reviewerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Conflict("You have already reviewed this product")
	}

	thread, err := uc.messageRepo.ListByConversation(ctx, entity.NewConversationKey(product.ID, reviewerID, product.SellerID))
	if err != nil {
		return nil, err
	}
	view := service.EvaluateWorkflow(thread, reviewerID, reviewerID, product.SellerID, exists)
	if !view.CanReview {
		return nil, errors.Forbidden("You can only review a seller after the sale is confirmed", nil)
	}

	reviewerName := strings.TrimSpace(input.ReviewerName)
	if reviewerName == "" {
		if u, err := uc.userRepo.GetByID(ctx, reviewerID); err == nil {
			reviewerName = u.DisplayName
		}
	}
	if reviewerName == "" {
		reviewerName = service.ResolveName(thread, entity.RoleBuyer, "")
	}
	sellerName := product.SellerName
	if sellerName == "" {
		sellerName = service.ResolveName(thread, entity.RoleSeller, "")
	}

	review := &entity.Review{
		ProductID:    product.ID,
		ProductTitle: product.Title,
		ReviewerID:   reviewerID,
		ReviewerName: reviewerName,
		SellerID:     product.SellerID,
		SellerName:   sellerName,
		Rating:       input.Rating,
		Comment:      strings.TrimSpace(input.Comment),
	}
	if err := uc.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	if _, err := uc.RecomputeSellerRating(ctx, product.SellerID); err != nil {
		logger.Error("CreateReview: rating recompute for %s failed: %v", product.SellerID, err)
	}
	if err := uc.publisher.Publish(ctx, events.Event{Type: events.TypeReviewCreated, Key: product.SellerID, Payload: review}); err != nil {
		logger.Warn("CreateReview: publish failed: %v", err)
	}
	return review, nil
}

// RecomputeSellerRating rebuilds {count, average} from every review.
func (uc *ReviewUseCase) RecomputeSellerRating(ctx context.Context, sellerID string) (entity.Rating, error) {
	reviews, err := uc.reviewRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return entity.Rating{}, err
	}
	rating := entity.ComputeRating(reviews)
	if err := uc.userRepo.UpdateRating(ctx, sellerID, rating); err != nil {
		return entity.Rating{}, err
	}
	return rating, nil
}

func (uc *ReviewUseCase) ListBySeller(ctx context.Context, sellerID string) ([]*entity.Review, error) {
	return uc.reviewRepo.ListBySeller(ctx, sellerID)
}

func (uc *ReviewUseCase) HasReviewed(ctx context.Context, productID, buyerID string) (bool, error) {
	if productID == "" || buyerID == "" {
		return false, errors.BadRequest("productId and buyerId are required", nil)
	}
	return uc.reviewRepo.Exists(ctx, productID, buyerID)
}
