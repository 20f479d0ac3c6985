package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"helperhub/pkg/errors"
	"helperhub/pkg/logger"
)

// ChatRoom is the room of one conversation. The buyer always comes first and the seller
// second, for joins and emits alike.
func ChatRoom(postID, buyerID, sellerID string) string {
	return fmt.Sprintf("post_%s_user_%s_user_%s", postID, buyerID, sellerID)
}

// NotificationRoom is the private room of one user.
func NotificationRoom(userID string) string {
	return "notifications_" + userID
}

// Conn is a live connection the router can deliver to.
type Conn interface {
	ID() string
	UserID() string
	Send(payload []byte) error
}

// RoomRouter tracks which connections sit in which rooms and fans events out to them.
// Membership is ephemeral and disappears with the connection.
type RoomRouter struct {
	mu          sync.RWMutex
	conns       map[string]Conn
	rooms       map[string]map[string]Conn
	memberships map[string]map[string]struct{}
}

func NewRoomRouter() *RoomRouter {
	return &RoomRouter{
		conns:       make(map[string]Conn),
		rooms:       make(map[string]map[string]Conn),
		memberships: make(map[string]map[string]struct{}),
	}
}

func (r *RoomRouter) Register(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[conn.ID()] = conn
	if _, ok := r.memberships[conn.ID()]; !ok {
		r.memberships[conn.ID()] = make(map[string]struct{})
	}
}

// Unregister forgets the connection and removes it from every room it joined.
func (r *RoomRouter) Unregister(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.memberships[conn.ID()] {
		r.leaveLocked(conn.ID(), room)
	}
	delete(r.memberships, conn.ID())
	delete(r.conns, conn.ID())
}

func (r *RoomRouter) Join(connectionID, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connectionID]
	if !ok {
		return errors.NotFound("Connection", nil)
	}

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]Conn)
		r.rooms[room] = members
	}
	members[connectionID] = conn
	r.memberships[connectionID][room] = struct{}{}
	return nil
}

func (r *RoomRouter) Leave(connectionID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connectionID, room)
}

func (r *RoomRouter) leaveLocked(connectionID, room string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if rooms, ok := r.memberships[connectionID]; ok {
		delete(rooms, room)
	}
}

func (r *RoomRouter) IsMember(connectionID, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][connectionID]
	return ok
}

func (r *RoomRouter) MemberCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// BroadcastToRoom delivers the event to every connection currently in room and returns
// how many accepted it. Delivery is fire-and-forget.
func (r *RoomRouter) BroadcastToRoom(room, event string, payload interface{}) int {
	return r.BroadcastToRoomExcept(room, "", event, payload)
}

// BroadcastToRoomExcept is BroadcastToRoom skipping one connection, typically the sender's.
func (r *RoomRouter) BroadcastToRoomExcept(room, excludeConnectionID, event string, payload interface{}) int {
	data, err := Encode(event, payload)
	if err != nil {
		logger.Error("WebSocket: failed to encode %s for room %s: %v", event, room, err)
		return 0
	}

	r.mu.RLock()
	targets := make([]Conn, 0, len(r.rooms[room]))
	for id, conn := range r.rooms[room] {
		if id != excludeConnectionID {
			targets = append(targets, conn)
		}
	}
	r.mu.RUnlock()

	return deliver(targets, data, event, room)
}

// BroadcastToUser routes through the user's notification room. A user with no live
// connection simply receives nothing.
func (r *RoomRouter) BroadcastToUser(userID, event string, payload interface{}) int {
	return r.BroadcastToRoom(NotificationRoom(userID), event, payload)
}

// BroadcastAll delivers to every registered connection.
func (r *RoomRouter) BroadcastAll(event string, payload interface{}) int {
	data, err := Encode(event, payload)
	if err != nil {
		logger.Error("WebSocket: failed to encode %s for broadcast: %v", event, err)
		return 0
	}

	r.mu.RLock()
	targets := make([]Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		targets = append(targets, conn)
	}
	r.mu.RUnlock()

	return deliver(targets, data, event, "*")
}

// SendTo delivers one event to one connection.
func (r *RoomRouter) SendTo(connectionID, event string, payload interface{}) error {
	r.mu.RLock()
	conn, ok := r.conns[connectionID]
	r.mu.RUnlock()
	if !ok {
		return errors.NotFound("Connection", nil)
	}

	data, err := Encode(event, payload)
	if err != nil {
		return err
	}
	return conn.Send(data)
}

func deliver(targets []Conn, data []byte, event, room string) int {
	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(data); err != nil {
			logger.LogDeliveryFailure("websocket", fmt.Sprintf("%s/%s", room, conn.ID()), err)
			continue
		}
		delivered++
	}
	if delivered > 0 {
		logger.Debug("WebSocket: %s delivered to %d connection(s) in %s", event, delivered, room)
	}
	return delivered
}

// Encode builds the outbound frame for an event.
func Encode(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(Envelope{
		Event:     event,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
