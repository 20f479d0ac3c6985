package usecase

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"helperhub/internal/domain/entity"
	"helperhub/internal/domain/repository"
	"helperhub/internal/infrastructure/push"
	"helperhub/internal/infrastructure/ratelimit"
	ws "helperhub/internal/infrastructure/websocket"
	"helperhub/pkg/errors"
	"helperhub/pkg/logger"
)

const defaultPreviewLength = 100

type DeliverySettings struct {
	ClientURL     string
	PreviewLength int
	PushTimeout   time.Duration
}

type SendMessageInput struct {
	PostID   string `json:"postId" validate:"required"`
	SellerID string `json:"sellerId" validate:"required"`
	BuyerID  string `json:"buyerId" validate:"required"`
	SenderID string `json:"-"`
	Text     string `json:"text" validate:"required"`
}

type MarkSeenInput struct {
	PostID     string   `json:"postId" validate:"required"`
	BuyerID    string   `json:"buyerId" validate:"required"`
	SellerID   string   `json:"sellerId" validate:"required"`
	MessageIDs []string `json:"messageIds" validate:"required,min=1,dive,required"`
	ViewerID   string   `json:"-"`
}

type ToggleHelperInput struct {
	PostID  string `json:"postId" validate:"required"`
	BuyerID string `json:"buyerId" validate:"required"`
	ActorID string `json:"-"`
}

// DeliveryUseCase orchestrates a send: durable append first, then best-effort fan-out to
// the open thread, the receiver's notification room and, when the receiver has no live
// connection, a push.
type DeliveryUseCase struct {
	conversations    *ConversationUseCase
	postRepo         repository.PostRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	broadcaster      Broadcaster
	presence         PresenceChecker
	pusher           PushNotifier
	rateLimiter      *ratelimit.RateLimiter
	settings         DeliverySettings

	pending sync.WaitGroup
}

func NewDeliveryUseCase(
	conversations *ConversationUseCase,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	broadcaster Broadcaster,
	presence PresenceChecker,
	pusher PushNotifier,
	rateLimiter *ratelimit.RateLimiter,
	settings DeliverySettings,
) *DeliveryUseCase {
	if settings.PreviewLength <= 0 {
		settings.PreviewLength = defaultPreviewLength
	}
	if settings.PushTimeout <= 0 {
		settings.PushTimeout = push.DefaultTimeout
	}

	return &DeliveryUseCase{
		conversations:    conversations,
		postRepo:         postRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		broadcaster:      broadcaster,
		presence:         presence,
		pusher:           pusher,
		rateLimiter:      rateLimiter,
		settings:         settings,
	}
}

// SendMessage returns once the message is durably stored. Broadcast, notification and
// push failures are logged and never change the result.
func (uc *DeliveryUseCase) SendMessage(ctx context.Context, input SendMessageInput) (*entity.Message, error) {
	if isBlank(input.PostID, input.SellerID, input.BuyerID, input.SenderID) {
		return nil, errors.Validation("postId, sellerId, buyerId and senderId are required", nil)
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.Validation("text is required", nil)
	}
	if input.BuyerID == input.SellerID {
		return nil, errors.Validation("buyerId and sellerId must differ", nil)
	}
	if input.SenderID != input.BuyerID && input.SenderID != input.SellerID {
		return nil, errors.Forbidden("Sender is not a participant of this conversation", nil)
	}

	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(input.SenderID, ratelimit.ActionSendMessage); !allowed {
			return nil, errors.TooManyRequests(fmt.Sprintf("Too many messages, retry in %s", wait.Round(time.Second)))
		}
	}

	post, err := uc.postRepo.GetByID(ctx, input.PostID)
	if err != nil {
		return nil, err
	}
	if post.UserID != input.SellerID {
		return nil, errors.Forbidden("sellerId does not own this post", nil)
	}

	msg, conversation, err := uc.conversations.AppendMessage(ctx, input.PostID, input.BuyerID, input.SellerID, input.SenderID, input.Text)
	if err != nil {
		return nil, err
	}

	if input.SenderID == input.BuyerID {
		if err := uc.postRepo.AddInterestedBuyer(ctx, input.PostID, input.BuyerID); err != nil {
			logger.Warn("Failed to record interested buyer %s on post %s: %v", input.BuyerID, input.PostID, err)
		}
	}

	room := ws.ChatRoom(input.PostID, input.BuyerID, input.SellerID)
	uc.broadcaster.BroadcastToRoom(room, ws.EventReceiveMessage, ws.ReceivedMessage{
		ID:        msg.ID,
		ChatID:    conversation.ID,
		PostID:    input.PostID,
		BuyerID:   input.BuyerID,
		SellerID:  input.SellerID,
		SenderID:  msg.SenderID,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
		Seen:      false,
	})

	receiverID := conversation.Counterpart(input.SenderID)
	uc.notify(ctx, post, msg, input.BuyerID, receiverID)

	return msg, nil
}

func (uc *DeliveryUseCase) notify(ctx context.Context, post *entity.Post, msg *entity.Message, buyerID, receiverID string) {
	senderName := uc.displayName(ctx, msg.SenderID)
	preview := truncate(msg.Text, uc.settings.PreviewLength)

	notification := &entity.Notification{
		ID:        uuid.New().String(),
		UserID:    receiverID,
		PostID:    post.ID,
		SenderID:  msg.SenderID,
		BuyerID:   buyerID,
		Type:      entity.NotificationTypeChat,
		Message:   fmt.Sprintf("%s: %s", senderName, preview),
		CreatedAt: msg.CreatedAt,
	}
	if err := uc.notificationRepo.Create(ctx, notification); err != nil {
		logger.Error("Failed to store notification for %s: %v", receiverID, err)
	} else if unread, err := uc.notificationRepo.CountUnread(ctx, receiverID); err != nil {
		logger.Warn("Failed to count unread notifications for %s: %v", receiverID, err)
	} else {
		uc.broadcaster.BroadcastToUser(receiverID, ws.EventNotificationCountUpdate, ws.NotificationCount{
			UserID:      receiverID,
			UnreadCount: int64(unread),
		})
	}

	if uc.presence.IsOnline(receiverID) {
		uc.broadcaster.BroadcastToUser(receiverID, ws.EventChatNotification, ws.ChatNotification{
			PostID:      post.ID,
			SenderID:    msg.SenderID,
			ReceiverID:  receiverID,
			Text:        preview,
			PostOwnerID: post.UserID,
			PostTitle:   post.Title,
			SenderName:  senderName,
		})
		uc.broadcaster.BroadcastToUser(receiverID, ws.EventNewNotification, ws.NewNotification{
			PostID:  post.ID,
			Message: notification.Message,
		})
		return
	}

	uc.pushAsync(receiverID, push.Payload{
		Title: fmt.Sprintf("New message on %q", post.Title),
		Body:  fmt.Sprintf("%s: %s", senderName, preview),
		URL:   uc.chatURL(post.ID, buyerID),
	})
}

// pushAsync runs the push outside the request so the sender never waits on the transport.
func (uc *DeliveryUseCase) pushAsync(receiverID string, payload push.Payload) {
	if uc.pusher == nil {
		return
	}

	uc.pending.Add(1)
	go func() {
		defer uc.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), uc.settings.PushTimeout)
		defer cancel()

		sub, err := uc.userRepo.GetNotificationSubscription(ctx, receiverID)
		if err != nil {
			logger.Warn("Failed to load push subscription for %s: %v", receiverID, err)
			return
		}
		if !sub.Deliverable() {
			return
		}

		err = uc.pusher.Send(ctx, sub, payload)
		switch {
		case err == nil:
		case stderrors.Is(err, push.ErrSubscriptionGone):
			cleared, err := uc.userRepo.ClearNotificationSubscription(ctx, receiverID, sub.Token)
			switch {
			case err != nil:
				logger.Error("Failed to clear push subscription for %s: %v", receiverID, err)
			case cleared:
				logger.Info("Push subscription for %s is gone, cleared it", receiverID)
			default:
				logger.Debug("Push subscription for %s changed since the failed push, keeping it", receiverID)
			}
		default:
			logger.LogDeliveryFailure("push", receiverID, err)
		}
	}()
}

// Wait blocks until in-flight pushes finish. Used on shutdown and in tests.
func (uc *DeliveryUseCase) Wait() {
	uc.pending.Wait()
}

// MarkMessagesSeen marks messages seen for a participant, tells the open thread and
// refreshes both inboxes.
func (uc *DeliveryUseCase) MarkMessagesSeen(ctx context.Context, input MarkSeenInput) (int, error) {
	if isBlank(input.PostID, input.BuyerID, input.SellerID) {
		return 0, errors.Validation("postId, buyerId and sellerId are required", nil)
	}
	if len(input.MessageIDs) == 0 {
		return 0, errors.Validation("messageIds must not be empty", nil)
	}
	if input.ViewerID != "" && input.ViewerID != input.BuyerID && input.ViewerID != input.SellerID {
		return 0, errors.Forbidden("Not a participant of this conversation", nil)
	}

	updated, err := uc.conversations.MarkSeen(ctx, input.PostID, input.BuyerID, input.SellerID, input.MessageIDs)
	if err != nil {
		return 0, err
	}

	room := ws.ChatRoom(input.PostID, input.BuyerID, input.SellerID)
	uc.broadcaster.BroadcastToRoom(room, ws.EventMessageSeenUpdate, ws.SeenUpdate{MessageIDs: input.MessageIDs})

	seen := ws.MessagesSeen{
		ChatID:     entity.ConversationID(input.PostID, input.BuyerID),
		PostID:     input.PostID,
		BuyerID:    input.BuyerID,
		SellerID:   input.SellerID,
		MessageIDs: input.MessageIDs,
	}
	uc.broadcaster.BroadcastToUser(input.BuyerID, ws.EventMessagesSeen, seen)
	uc.broadcaster.BroadcastToUser(input.SellerID, ws.EventMessagesSeen, seen)

	return updated, nil
}

// ToggleHelper lets the post owner add or remove a buyer from the helper set.
func (uc *DeliveryUseCase) ToggleHelper(ctx context.Context, input ToggleHelperInput) (*entity.ToggleResult, error) {
	if isBlank(input.PostID, input.BuyerID) {
		return nil, errors.Validation("postId and buyerId are required", nil)
	}

	post, err := uc.postRepo.GetByID(ctx, input.PostID)
	if err != nil {
		return nil, err
	}
	if input.ActorID != "" && post.UserID != input.ActorID {
		return nil, errors.Forbidden("Only the post owner can manage helpers", nil)
	}
	if input.BuyerID == post.UserID {
		return nil, errors.Validation("The post owner cannot be a helper", nil)
	}

	result, err := uc.postRepo.TryToggleHelper(ctx, input.PostID, input.BuyerID)
	if err != nil {
		return nil, err
	}

	logger.Info("Helper %s on post %s: added=%t status=%s", input.BuyerID, input.PostID, result.Added, result.Status)
	return result, nil
}

// ResolveChatRoom maps (post, user, other user) onto the buyer-first room key. The post
// owner is always the seller; anyone else pairing with the owner is the buyer.
func (uc *DeliveryUseCase) ResolveChatRoom(ctx context.Context, postID, userID, otherUserID string) (*ws.ChatRoomRef, error) {
	if isBlank(postID, userID, otherUserID) {
		return nil, errors.Validation("postId, userId and otherUserId are required", nil)
	}

	post, err := uc.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	var buyerID string
	switch {
	case userID == post.UserID && otherUserID != post.UserID:
		buyerID = otherUserID
	case otherUserID == post.UserID && userID != post.UserID:
		buyerID = userID
	default:
		return nil, errors.Forbidden("Not a participant of this conversation", nil)
	}

	return &ws.ChatRoomRef{
		Room:     ws.ChatRoom(postID, buyerID, post.UserID),
		PostID:   postID,
		BuyerID:  buyerID,
		SellerID: post.UserID,
	}, nil
}

func (uc *DeliveryUseCase) displayName(ctx context.Context, userID string) string {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil || user.Username == "" {
		return "Someone"
	}
	return user.Username
}

func (uc *DeliveryUseCase) chatURL(postID, buyerID string) string {
	return fmt.Sprintf("%s/chat/%s/%s", strings.TrimRight(uc.settings.ClientURL, "/"), postID, buyerID)
}

// truncate cuts text to at most limit runes, adding an ellipsis when it cut.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func isBlank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
