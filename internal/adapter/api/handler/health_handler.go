package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// PresenceCounter reports how many users are currently connected.
type PresenceCounter interface {
	OnlineUsers() []string
}

type HealthHandler struct {
	presence PresenceCounter
	storage  string
}

func NewHealthHandler(presence PresenceCounter, storage string) *HealthHandler {
	return &HealthHandler{
		presence: presence,
		storage:  storage,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "Server is running",
		"time":        time.Now().Format(time.RFC3339),
		"storage":     h.storage,
		"onlineUsers": len(h.presence.OnlineUsers()),
	})
}
