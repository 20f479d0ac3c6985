package usecase

import (
	"context"
	"strings"

	"helperhub/internal/domain/entity"
	"helperhub/internal/domain/repository"
	ws "helperhub/internal/infrastructure/websocket"
	"helperhub/pkg/errors"
	"helperhub/pkg/logger"
)

type EnablePushInput struct {
	Token   string `json:"token"`
	Enabled bool   `json:"enabled"`
}

type NotificationStatus struct {
	Enabled     bool  `json:"enabled"`
	HasToken    bool  `json:"hasToken"`
	UnreadCount int64 `json:"unreadCount"`
}

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	broadcaster      Broadcaster
}

func NewNotificationUseCase(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository, broadcaster Broadcaster) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		broadcaster:      broadcaster,
	}
}

// ListNotifications returns the user's notifications newest first.
func (uc *NotificationUseCase) ListNotifications(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	return uc.notificationRepo.ListByUser(ctx, userID, limit, offset)
}

func (uc *NotificationUseCase) MarkNotificationRead(ctx context.Context, userID, notificationID string) (*entity.Notification, error) {
	if notificationID == "" {
		return nil, errors.Validation("notification id is required", nil)
	}

	notification, err := uc.notificationRepo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}
	uc.publishCount(ctx, userID)
	return notification, nil
}

func (uc *NotificationUseCase) ClearNotifications(ctx context.Context, userID string) (int, error) {
	deleted, err := uc.notificationRepo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	uc.publishCount(ctx, userID)
	return deleted, nil
}

func (uc *NotificationUseCase) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	return uc.notificationRepo.CountUnread(ctx, userID)
}

// EnablePush stores or switches the user's push subscription. Enabling requires a token,
// either supplied now or already stored.
func (uc *NotificationUseCase) EnablePush(ctx context.Context, userID string, input EnablePushInput) (*NotificationStatus, error) {
	current, err := uc.userRepo.GetNotificationSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	sub := entity.NotificationSubscription{
		Token:   strings.TrimSpace(input.Token),
		Enabled: input.Enabled,
	}
	if sub.Token == "" {
		sub.Token = current.Token
	}
	if sub.Enabled && sub.Token == "" {
		return nil, errors.Validation("token is required to enable push notifications", nil)
	}

	if err := uc.userRepo.UpdateNotificationSubscription(ctx, userID, sub); err != nil {
		return nil, err
	}

	logger.Info("Push notifications for %s set to enabled=%t", userID, sub.Enabled)
	return uc.NotificationStatus(ctx, userID)
}

func (uc *NotificationUseCase) NotificationStatus(ctx context.Context, userID string) (*NotificationStatus, error) {
	sub, err := uc.userRepo.GetNotificationSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	unread, err := uc.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &NotificationStatus{
		Enabled:     sub.Enabled,
		HasToken:    sub.Token != "",
		UnreadCount: int64(unread),
	}, nil
}

func (uc *NotificationUseCase) publishCount(ctx context.Context, userID string) {
	unread, err := uc.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		logger.Warn("Failed to count unread notifications for %s: %v", userID, err)
		return
	}
	uc.broadcaster.BroadcastToUser(userID, ws.EventNotificationCountUpdate, ws.NotificationCount{
		UserID:      userID,
		UnreadCount: int64(unread),
	})
}
