package handler

import (
	"github.com/labstack/echo/v4"

	"helperhub/internal/adapter/api/middleware"
	"helperhub/internal/usecase"
	"helperhub/pkg/errors"
	"helperhub/pkg/response"
	"helperhub/pkg/utils"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

type enablePushRequest struct {
	Token   string `json:"token"`
	Enabled *bool  `json:"enabled" validate:"required"`
}

func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	items, total, err := h.notificationUseCase.ListNotifications(
		c.Request().Context(),
		middleware.UserID(c),
		pagination.PageSize,
		pagination.Offset,
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, items, total, pagination.Page, pagination.PageSize)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	notification, err := h.notificationUseCase.MarkNotificationRead(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, notification)
}

func (h *NotificationHandler) ClearNotifications(c echo.Context) error {
	deleted, err := h.notificationUseCase.ClearNotifications(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{"deleted": deleted})
}

func (h *NotificationHandler) EnablePush(c echo.Context) error {
	var req enablePushRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	status, err := h.notificationUseCase.EnablePush(c.Request().Context(), middleware.UserID(c), usecase.EnablePushInput{
		Token:   req.Token,
		Enabled: *req.Enabled,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, status)
}

func (h *NotificationHandler) Status(c echo.Context) error {
	status, err := h.notificationUseCase.NotificationStatus(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, status)
}
