package websocket

import (
	"encoding/json"
	"time"
)

// Client to server events.
const (
	EventPing                  = "ping"
	EventJoinChatRoom          = "joinChatRoom"
	EventLeaveChatRoom         = "leaveChatRoom"
	EventJoinNotificationsRoom = "joinNotificationsRoom"
	EventUserOnline            = "userOnline"
	EventUserAway              = "userAway"
	EventTyping                = "typing"
	EventMessageSeen           = "messageSeen"
	EventCheckOnlineStatus     = "checkOnlineStatus"
)

// Server to client events.
const (
	EventPong                    = "pong"
	EventReceiveMessage          = "receiveMessage"
	EventMessageSeenUpdate       = "messageSeenUpdate"
	EventMessagesSeen            = "messagesSeen"
	EventUserStatusChange        = "userStatusChange"
	EventUserTyping              = "userTyping"
	EventNewNotification         = "newNotification"
	EventNotificationCountUpdate = "notificationCountUpdate"
	EventChatNotification        = "chatNotification"
	EventChatRoomJoined          = "chatRoomJoined"
	EventError                   = "error"
)

// InboundFrame is what clients send. AckID, when set, is echoed on the direct reply.
type InboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	AckID string          `json:"ackId,omitempty"`
}

// Envelope is every frame the server writes.
type Envelope struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	AckID     string      `json:"ackId,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ChatRoomRequest struct {
	PostID      string `json:"postId" validate:"required"`
	UserID      string `json:"userId"`
	OtherUserID string `json:"otherUserId" validate:"required"`
}

type TypingRequest struct {
	PostID      string `json:"postId" validate:"required"`
	UserID      string `json:"userId"`
	OtherUserID string `json:"otherUserId" validate:"required"`
	IsTyping    bool   `json:"isTyping"`
}

type MessageSeenRequest struct {
	Room      string `json:"room" validate:"required"`
	MessageID string `json:"messageId" validate:"required"`
}

// ChatRoomRef identifies a resolved conversation room with its buyer and seller.
type ChatRoomRef struct {
	Room     string `json:"room"`
	PostID   string `json:"postId"`
	BuyerID  string `json:"buyerId"`
	SellerID string `json:"sellerId"`
}

// ReceivedMessage is the receiveMessage payload. Seen is always false at broadcast time.
type ReceivedMessage struct {
	ID        string    `json:"_id"`
	ChatID    string    `json:"chatId"`
	PostID    string    `json:"postId"`
	BuyerID   string    `json:"buyerId"`
	SellerID  string    `json:"sellerId"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Seen      bool      `json:"seen"`
}

type SeenUpdate struct {
	MessageIDs []string `json:"messageIds"`
}

type MessagesSeen struct {
	ChatID     string   `json:"chatId"`
	PostID     string   `json:"postId"`
	BuyerID    string   `json:"buyerId"`
	SellerID   string   `json:"sellerId"`
	MessageIDs []string `json:"messageIds"`
}

type UserStatus struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

type UserTyping struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
	PostID   string `json:"postId"`
}

type NewNotification struct {
	PostID  string `json:"postId"`
	Message string `json:"message"`
}

type NotificationCount struct {
	UserID      string `json:"userId"`
	UnreadCount int64  `json:"unreadCount"`
}

type ChatNotification struct {
	PostID      string `json:"postId"`
	SenderID    string `json:"senderId"`
	ReceiverID  string `json:"receiverId"`
	Text        string `json:"text"`
	PostOwnerID string `json:"postOwnerId"`
	PostTitle   string `json:"postTitle"`
	SenderName  string `json:"senderName"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
