package handler

import (
	"github.com/labstack/echo/v4"

	"secondlife/internal/domain/entity"
	"secondlife/internal/usecase"
	"secondlife/pkg/errors"
	"secondlife/pkg/response"
)

type ReviewHandler struct {
	reviewUseCase *usecase.ReviewUseCase
}

func NewReviewHandler(reviewUseCase *usecase.ReviewUseCase) *ReviewHandler {
	return &ReviewHandler{
		reviewUseCase: reviewUseCase,
	}
}

type createReviewRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=1000"`
}

func (h *ReviewHandler) CreateReview(c echo.Context) error {
	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	review, err := h.reviewUseCase.CreateReview(c.Request().Context(), userID, usecase.CreateReviewInput{
		ProductID:    req.ProductID,
		Rating:       req.Rating,
		Comment:      req.Comment,
		ReviewerName: tokenClaim(c, "name"),
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, review)
}

func (h *ReviewHandler) CheckReview(c echo.Context) error {
	exists, err := h.reviewUseCase.HasReviewed(c.Request().Context(), c.QueryParam("productId"), c.QueryParam("buyerId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"exists": exists})
}

// ListSellerReviews returns the seller's reviews newest first with the
// aggregate computed from the same set.
func (h *ReviewHandler) ListSellerReviews(c echo.Context) error {
	reviews, err := h.reviewUseCase.ListBySeller(c.Request().Context(), c.Param("sellerId"))
	if err != nil {
		return response.Error(c, err)
	}
	if reviews == nil {
		reviews = []*entity.Review{}
	}
	return response.Success(c, map[string]interface{}{
		"reviews": reviews,
		"rating":  entity.ComputeRating(reviews),
	})
}
