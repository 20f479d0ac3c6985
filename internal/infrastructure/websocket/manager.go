package websocket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"helperhub/internal/infrastructure/ratelimit"
	"helperhub/pkg/errors"
	"helperhub/pkg/logger"
	"helperhub/pkg/response"
)

const resolveTimeout = 5 * time.Second

// RoomResolver maps a join request onto the canonical buyer/seller room of a post and
// rejects users who are not participants.
type RoomResolver interface {
	ResolveChatRoom(ctx context.Context, postID, userID, otherUserID string) (*ChatRoomRef, error)
}

// Manager owns the live connections: it keeps the router and the presence tracker in
// step and interprets inbound frames.
type Manager struct {
	rooms    *RoomRouter
	presence *PresenceTracker
	resolver RoomResolver
	limiter  *ratelimit.RateLimiter
	validate *validator.Validate
}

func NewManager(rooms *RoomRouter, presence *PresenceTracker, resolver RoomResolver, limiter *ratelimit.RateLimiter) *Manager {
	m := &Manager{
		rooms:    rooms,
		presence: presence,
		resolver: resolver,
		limiter:  limiter,
		validate: validator.New(),
	}

	presence.OnTransition(func(ev PresenceEvent) {
		logger.Debug("WebSocket: user %s online=%t", ev.UserID, ev.IsOnline)
		rooms.BroadcastAll(EventUserStatusChange, UserStatus{UserID: ev.UserID, IsOnline: ev.IsOnline})
	})

	return m
}

func (m *Manager) Rooms() *RoomRouter          { return m.rooms }
func (m *Manager) Presence() *PresenceTracker { return m.presence }

// Register makes conn addressable, joins it to its owner's notification room and marks
// the owner online.
func (m *Manager) Register(conn Conn) {
	m.rooms.Register(conn)
	if err := m.rooms.Join(conn.ID(), NotificationRoom(conn.UserID())); err != nil {
		logger.Error("WebSocket: failed to join notification room for %s: %v", conn.UserID(), err)
	}
	m.presence.MarkOnline(conn.UserID(), conn.ID())
	logger.Info("WebSocket: client %s registered for user %s", conn.ID(), conn.UserID())
}

// Unregister is safe to call more than once. Presence drops first so a user is never
// reported online while none of their connections can receive.
func (m *Manager) Unregister(conn Conn) {
	m.presence.MarkOffline(conn.UserID(), conn.ID())
	m.rooms.Unregister(conn)
	logger.Info("WebSocket: client %s unregistered for user %s", conn.ID(), conn.UserID())
}

// HandleClientMessage decodes one inbound frame and dispatches on its event name.
func (m *Manager) HandleClientMessage(conn Conn, raw []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		logger.Warn("WebSocket: failed to unmarshal frame from client %s: %v", conn.ID(), err)
		m.sendError(conn, "", errors.Validation("Invalid message format", err))
		return
	}

	logger.Debug("WebSocket: received '%s' from client %s", frame.Event, conn.ID())

	switch frame.Event {
	case EventPing:
		m.reply(conn, EventPong, frame.AckID, map[string]string{"status": "alive"})

	case EventJoinChatRoom:
		m.handleJoinChatRoom(conn, frame)

	case EventLeaveChatRoom:
		m.handleLeaveChatRoom(conn, frame)

	case EventJoinNotificationsRoom:
		m.handleJoinNotificationsRoom(conn, frame)

	case EventUserOnline:
		if m.checkSelf(conn, frame) {
			m.presence.MarkOnline(conn.UserID(), conn.ID())
		}

	case EventUserAway:
		if m.checkSelf(conn, frame) {
			m.presence.MarkAway(conn.UserID())
		}

	case EventTyping:
		m.handleTyping(conn, frame)

	case EventMessageSeen:
		m.handleMessageSeen(conn, frame)

	case EventCheckOnlineStatus:
		m.handleCheckOnlineStatus(conn, frame)

	default:
		logger.Warn("WebSocket: unknown event '%s' from client %s", frame.Event, conn.ID())
		m.sendError(conn, frame.AckID, errors.Validation("Unknown event", nil))
	}
}

func (m *Manager) handleJoinChatRoom(conn Conn, frame InboundFrame) {
	ref, err := m.resolveRoom(conn, frame)
	if err != nil {
		m.sendError(conn, frame.AckID, err)
		return
	}

	if err := m.rooms.Join(conn.ID(), ref.Room); err != nil {
		m.sendError(conn, frame.AckID, err)
		return
	}
	m.reply(conn, EventChatRoomJoined, frame.AckID, ref)
}

func (m *Manager) handleLeaveChatRoom(conn Conn, frame InboundFrame) {
	ref, err := m.resolveRoom(conn, frame)
	if err != nil {
		m.sendError(conn, frame.AckID, err)
		return
	}
	m.rooms.Leave(conn.ID(), ref.Room)
}

func (m *Manager) resolveRoom(conn Conn, frame InboundFrame) (*ChatRoomRef, error) {
	var req ChatRoomRequest
	if err := m.decode(frame.Data, &req); err != nil {
		return nil, err
	}
	if req.UserID != "" && req.UserID != conn.UserID() {
		return nil, errors.Forbidden("Cannot act on behalf of another user", nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	return m.resolver.ResolveChatRoom(ctx, req.PostID, conn.UserID(), req.OtherUserID)
}

// Only the owner may join its notification room; the join itself already happened on
// register so this is an idempotent confirmation.
func (m *Manager) handleJoinNotificationsRoom(conn Conn, frame InboundFrame) {
	if !m.checkSelf(conn, frame) {
		return
	}
	if err := m.rooms.Join(conn.ID(), NotificationRoom(conn.UserID())); err != nil {
		m.sendError(conn, frame.AckID, err)
	}
}

func (m *Manager) handleTyping(conn Conn, frame InboundFrame) {
	var req TypingRequest
	if err := m.decode(frame.Data, &req); err != nil {
		m.sendError(conn, frame.AckID, err)
		return
	}
	if req.UserID != "" && req.UserID != conn.UserID() {
		return
	}

	if m.limiter != nil {
		if allowed, _ := m.limiter.Allow(conn.UserID(), ratelimit.ActionTyping); !allowed {
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	ref, err := m.resolver.ResolveChatRoom(ctx, req.PostID, conn.UserID(), req.OtherUserID)
	if err != nil {
		logger.Debug("WebSocket: dropping typing from %s: %v", conn.UserID(), err)
		return
	}
	if !m.rooms.IsMember(conn.ID(), ref.Room) {
		return
	}

	m.rooms.BroadcastToRoomExcept(ref.Room, conn.ID(), EventUserTyping, UserTyping{
		UserID:   conn.UserID(),
		IsTyping: req.IsTyping,
		PostID:   req.PostID,
	})
}

func (m *Manager) handleMessageSeen(conn Conn, frame InboundFrame) {
	var req MessageSeenRequest
	if err := m.decode(frame.Data, &req); err != nil {
		m.sendError(conn, frame.AckID, err)
		return
	}
	if !m.rooms.IsMember(conn.ID(), req.Room) {
		m.sendError(conn, frame.AckID, errors.Forbidden("Not a member of this room", nil))
		return
	}

	m.rooms.BroadcastToRoomExcept(req.Room, conn.ID(), EventMessageSeenUpdate, SeenUpdate{
		MessageIDs: []string{req.MessageID},
	})
}

func (m *Manager) handleCheckOnlineStatus(conn Conn, frame InboundFrame) {
	userID, err := decodeUserID(frame.Data)
	if err != nil {
		m.sendError(conn, frame.AckID, err)
		return
	}
	m.reply(conn, EventCheckOnlineStatus, frame.AckID, UserStatus{
		UserID:   userID,
		IsOnline: m.presence.IsOnline(userID),
	})
}

// checkSelf accepts frames whose user id is empty or the connection owner's.
func (m *Manager) checkSelf(conn Conn, frame InboundFrame) bool {
	if len(frame.Data) == 0 {
		return true
	}
	userID, err := decodeUserID(frame.Data)
	if err != nil {
		m.sendError(conn, frame.AckID, err)
		return false
	}
	if userID != conn.UserID() {
		m.sendError(conn, frame.AckID, errors.Forbidden("Cannot act on behalf of another user", nil))
		return false
	}
	return true
}

func (m *Manager) decode(data json.RawMessage, dst interface{}) error {
	if len(data) == 0 {
		return errors.Validation("Missing event data", nil)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Validation("Invalid event data", err)
	}
	if err := m.validate.Struct(dst); err != nil {
		return errors.Validation(response.ValidationMessage(err), err)
	}
	return nil
}

// decodeUserID accepts either a bare JSON string or {"userId": "..."}.
func decodeUserID(data json.RawMessage) (string, error) {
	var userID string
	if err := json.Unmarshal(data, &userID); err != nil {
		var obj struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return "", errors.Validation("Invalid user id", err)
		}
		userID = obj.UserID
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.Validation("userId is required", nil)
	}
	return userID, nil
}

func (m *Manager) reply(conn Conn, event, ackID string, payload interface{}) {
	data, err := json.Marshal(Envelope{
		Event:     event,
		Data:      payload,
		AckID:     ackID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("WebSocket: failed to encode %s: %v", event, err)
		return
	}
	if err := conn.Send(data); err != nil {
		logger.LogDeliveryFailure("websocket", conn.ID(), err)
	}
}

func (m *Manager) sendError(conn Conn, ackID string, err error) {
	payload := ErrorPayload{Code: errors.CodeInternal, Message: "An unexpected error occurred"}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		payload = ErrorPayload{Code: appErr.Code, Message: appErr.Message}
	} else {
		logger.Error("WebSocket: unexpected error for client %s: %v", conn.ID(), err)
	}

	m.reply(conn, EventError, ackID, payload)
}
