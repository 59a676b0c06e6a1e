package router

import (
	"github.com/labstack/echo/v4"

	"secondlife/internal/adapter/api/handler"
	"secondlife/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	userHandler := handler.GetUserHandler()

	users := e.Group("/v1/users")
	users.Use(authMiddleware.Authenticate)

	users.GET("/me", userHandler.GetMe)
	users.PUT("/me", userHandler.UpsertProfile)
	users.PATCH("/me", userHandler.UpdateProfile)
	users.POST("/me/activity", userHandler.Heartbeat)
	users.GET("/:id", userHandler.GetUser)
	users.GET("/:id/presence", userHandler.GetPresence)
}
