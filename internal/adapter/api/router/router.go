package router

import (
	"github.com/labstack/echo/v4"

	"secondlife/internal/adapter/api/handler"
	"secondlife/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, wsHandler *handler.WebSocketHandler) {
	SetupHealthRouter(e)
	SetupUserRouter(e, authMiddleware)
	SetupProductRouter(e, authMiddleware)
	SetupMessageRouter(e, authMiddleware)
	SetupSaleRouter(e, authMiddleware)
	SetupReviewRouter(e, authMiddleware)
	SetupUploadRouter(e, authMiddleware)
	if wsHandler != nil {
		SetupWebSocketRouter(e, wsHandler)
	}
}
