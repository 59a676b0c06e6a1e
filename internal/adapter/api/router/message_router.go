package router

import (
	"github.com/labstack/echo/v4"

	"secondlife/internal/adapter/api/handler"
	"secondlife/internal/adapter/api/middleware"
)

func SetupMessageRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	messageHandler := handler.GetMessageHandler()

	messages := e.Group("/v1/messages")
	messages.Use(authMiddleware.Authenticate)

	messages.POST("", messageHandler.SendMessage)
	messages.GET("", messageHandler.ListMessages)
	messages.GET("/inbox", messageHandler.Inbox)
	messages.GET("/unread-count", messageHandler.UnreadCount)
	messages.GET("/conversation", messageHandler.GetConversation)
	messages.PUT("/:id/read", messageHandler.MarkRead)
}
