package router

import (
	"github.com/labstack/echo/v4"

	"secondlife/internal/adapter/api/handler"
	"secondlife/internal/adapter/api/middleware"
)

func SetupProductRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	productHandler := handler.GetProductHandler()

	products := e.Group("/v1/products")
	products.GET("", productHandler.ListProducts)
	products.GET("/:id", productHandler.GetProduct)

	owned := e.Group("/v1/products")
	owned.Use(authMiddleware.Authenticate)
	owned.POST("", productHandler.CreateProduct)
	owned.PUT("/:id", productHandler.UpdateProduct)
	owned.DELETE("/:id", productHandler.DeleteProduct)
}
