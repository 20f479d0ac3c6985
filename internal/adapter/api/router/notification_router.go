package router

import (
	"github.com/labstack/echo/v4"

	"helperhub/internal/adapter/api/handler"
	"helperhub/internal/adapter/api/middleware"
)

func SetupNotificationRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimit echo.MiddlewareFunc) {
	notificationHandler := handler.GetNotificationHandler()

	group := e.Group("/v1/notifications")
	group.Use(authMiddleware.Authenticate)
	if rateLimit != nil {
		group.Use(rateLimit)
	}

	group.GET("", notificationHandler.ListNotifications)
	group.DELETE("", notificationHandler.ClearNotifications)
	group.PUT("/:id/read", notificationHandler.MarkRead)
	group.POST("/enable-push", notificationHandler.EnablePush)
	group.GET("/status", notificationHandler.Status)
}
