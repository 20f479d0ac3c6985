package repository

import (
	"context"

	"helperhub/internal/domain/entity"
)

// UserRepository is the user directory as seen from the messaging core.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetNotificationSubscription(ctx context.Context, id string) (entity.NotificationSubscription, error)
	UpdateNotificationSubscription(ctx context.Context, id string, sub entity.NotificationSubscription) error
	// ClearNotificationSubscription drops the stored token and disables push, but only while
	// the stored token is still token. It reports whether anything was cleared.
	ClearNotificationSubscription(ctx context.Context, id, token string) (bool, error)
}
