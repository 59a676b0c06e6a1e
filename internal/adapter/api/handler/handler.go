package handler

import (
	"github.com/labstack/echo/v4"

	"secondlife/internal/usecase"
)

var (
	userHandler    *UserHandler
	productHandler *ProductHandler
	messageHandler *MessageHandler
	saleHandler    *SaleHandler
	reviewHandler  *ReviewHandler
)

func Setup(
	userUseCase *usecase.UserUseCase,
	productUseCase *usecase.ProductUseCase,
	messageUseCase *usecase.MessageUseCase,
	saleUseCase *usecase.SaleUseCase,
	reviewUseCase *usecase.ReviewUseCase,
) {
	userHandler = NewUserHandler(userUseCase)
	productHandler = NewProductHandler(productUseCase)
	messageHandler = NewMessageHandler(messageUseCase)
	saleHandler = NewSaleHandler(saleUseCase)
	reviewHandler = NewReviewHandler(reviewUseCase)
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetProductHandler() *ProductHandler {
	return productHandler
}

func GetMessageHandler() *MessageHandler {
	return messageHandler
}

func GetSaleHandler() *SaleHandler {
	return saleHandler
}

func GetReviewHandler() *ReviewHandler {
	return reviewHandler
}

// tokenClaim reads a string the auth middleware stored on the context.
func tokenClaim(c echo.Context, key string) string {
	v, _ := c.Get(key).(string)
	return v
}
