package router

import (
	"github.com/labstack/echo/v4"

	"helperhub/internal/adapter/api/handler"
)

// SetupWebSocketRouter registers /ws. The handler authenticates the handshake itself so
// browsers can pass the token as a query parameter.
func SetupWebSocketRouter(e *echo.Echo) {
	e.GET("/ws", handler.GetWebSocketHandler().HandleWebSocket)
}
