package router

import (
	"github.com/labstack/echo/v4"

	"secondlife/internal/adapter/api/handler"
	"secondlife/internal/adapter/api/middleware"
)

func SetupSaleRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	saleHandler := handler.GetSaleHandler()

	sales := e.Group("/v1/sales")
	sales.Use(authMiddleware.Authenticate)
	sales.POST("/confirm", saleHandler.ConfirmSale)
}
