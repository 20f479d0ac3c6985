package usecase

import (
	"context"

	"helperhub/internal/domain/entity"
	"helperhub/internal/infrastructure/push"
)

// Broadcaster fans events out to live connections. Both calls are best-effort and
// report how many connections accepted the event.
type Broadcaster interface {
	BroadcastToRoom(room, event string, payload interface{}) int
	BroadcastToUser(userID, event string, payload interface{}) int
}

type PresenceChecker interface {
	IsOnline(userID string) bool
}

// PushNotifier delivers a push to a stored subscription. push.ErrSubscriptionGone means
// the subscription must be cleared.
type PushNotifier interface {
	Send(ctx context.Context, sub entity.NotificationSubscription, payload push.Payload) error
}

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}
