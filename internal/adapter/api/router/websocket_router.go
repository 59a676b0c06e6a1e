package router

import (
	"github.com/labstack/echo/v4"

	"secondlife/internal/adapter/api/handler"
)

// SetupWebSocketRouter registers /ws. The handler authenticates itself
// since browsers cannot send an Authorization header on the handshake.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
