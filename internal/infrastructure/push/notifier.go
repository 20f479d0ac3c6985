package push

import (
	"context"
	stderrors "errors"
	"time"

	"firebase.google.com/go/v4/messaging"

	"helperhub/internal/domain/entity"
	"helperhub/pkg/errors"
	"helperhub/pkg/logger"
)

const DefaultTimeout = 10 * time.Second

var (
	// ErrSubscriptionGone means the transport rejected the token for good. The caller owns
	// the cleanup of the stored subscription.
	ErrSubscriptionGone = stderrors.New("push subscription expired or unregistered")
	ErrNotDeliverable   = stderrors.New("push subscription disabled or empty")
)

// Sender is the part of *messaging.Client the notifier needs.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type Payload struct {
	Title string
	Body  string
	URL   string
}

// Notifier delivers web push notifications through Firebase Cloud Messaging.
type Notifier struct {
	sender  Sender
	iconURL string
	timeout time.Duration
	gone    func(error) bool
}

func NewNotifier(sender Sender, iconURL string, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Notifier{
		sender:  sender,
		iconURL: iconURL,
		timeout: timeout,
		gone:    messaging.IsUnregistered,
	}
}

// Send pushes one notification to sub. It returns ErrSubscriptionGone when the
// subscription must be cleared and a DELIVERY_FAILURE AppError for anything else.
func (n *Notifier) Send(ctx context.Context, sub entity.NotificationSubscription, payload Payload) error {
	if !sub.Deliverable() {
		return ErrNotDeliverable
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	id, err := n.sender.Send(ctx, n.buildMessage(sub.Token, payload))
	if err != nil {
		if n.gone(err) {
			return ErrSubscriptionGone
		}
		return errors.DeliveryFailure("Failed to send push notification", err)
	}

	logger.Debug("Push: delivered message %s", id)
	return nil
}

func (n *Notifier) buildMessage(token string, payload Payload) *messaging.Message {
	msg := &messaging.Message{
		Token: token,
		Data: map[string]string{
			"url": payload.URL,
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: payload.Title,
				Body:  payload.Body,
				Icon:  n.iconURL,
				Data:  map[string]string{"url": payload.URL},
			},
		},
	}

	if payload.URL != "" {
		msg.Webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: payload.URL}
	}
	return msg
}
