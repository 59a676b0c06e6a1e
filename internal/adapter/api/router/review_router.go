package router

import (
	"github.com/labstack/echo/v4"

	"secondlife/internal/adapter/api/handler"
	"secondlife/internal/adapter/api/middleware"
)

func SetupReviewRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	reviewHandler := handler.GetReviewHandler()

	// Public
	reviews := e.Group("/v1/reviews")
	reviews.GET("/seller/:sellerId", reviewHandler.ListSellerReviews)

	authenticated := e.Group("/v1/reviews")
	authenticated.Use(authMiddleware.Authenticate)
	authenticated.POST("", reviewHandler.CreateReview)
	authenticated.GET("/check", reviewHandler.CheckReview)
}
