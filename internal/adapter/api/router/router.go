package router

import (
	"github.com/labstack/echo/v4"

	"helperhub/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimit echo.MiddlewareFunc) {
	SetupChatRouter(e, authMiddleware, rateLimit)
	SetupNotificationRouter(e, authMiddleware, rateLimit)
	SetupWebSocketRouter(e)
	SetupHealthRouter(e)
}
