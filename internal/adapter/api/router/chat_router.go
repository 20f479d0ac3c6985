package router

import (
	"github.com/labstack/echo/v4"

	"helperhub/internal/adapter/api/handler"
	"helperhub/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimit echo.MiddlewareFunc) {
	chatHandler := handler.GetChatHandler()

	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate)
	if rateLimit != nil {
		chatGroup.Use(rateLimit)
	}

	chatGroup.GET("", chatHandler.GetConversation)             // GET /v1/chats?postId=&buyerId=
	chatGroup.GET("/selling", chatHandler.ListSelling)         // inbox of posts the user owns
	chatGroup.GET("/buying", chatHandler.ListBuying)           // inbox of posts the user asked about
	chatGroup.POST("/messages", chatHandler.SendMessage)       // POST /v1/chats/messages
	chatGroup.POST("/seen", chatHandler.MarkSeen)              // POST /v1/chats/seen
	chatGroup.POST("/toggle-helper", chatHandler.ToggleHelper) // POST /v1/chats/toggle-helper
}
