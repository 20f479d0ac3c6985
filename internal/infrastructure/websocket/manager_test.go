package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helperhub/internal/infrastructure/ratelimit"
	"helperhub/pkg/errors"
)

// fakeResolver treats "s1" as the owner of every post.
type fakeResolver struct {
	calls int
}

func (f *fakeResolver) ResolveChatRoom(_ context.Context, postID, userID, otherUserID string) (*ChatRoomRef, error) {
	f.calls++
	const owner = "s1"
	switch {
	case postID == "missing":
		return nil, errors.NotFound("Post", nil)
	case userID == owner && otherUserID != owner:
		return &ChatRoomRef{Room: ChatRoom(postID, otherUserID, owner), PostID: postID, BuyerID: otherUserID, SellerID: owner}, nil
	case otherUserID == owner && userID != owner:
		return &ChatRoomRef{Room: ChatRoom(postID, userID, owner), PostID: postID, BuyerID: userID, SellerID: owner}, nil
	default:
		return nil, errors.Forbidden("Not a participant of this conversation", nil)
	}
}

func newTestManager() (*Manager, *fakeResolver) {
	resolver := &fakeResolver{}
	limiter := ratelimit.NewRateLimiterWithPolicies(map[string]ratelimit.Policy{
		ratelimit.ActionTyping: {Every: time.Hour, Burst: 2},
	})
	return NewManager(NewRoomRouter(), NewPresenceTracker(), resolver, limiter), resolver
}

func TestManager_RegisterJoinsNotificationRoomAndBroadcastsStatus(t *testing.T) {
	m, _ := newTestManager()
	watcher := newFakeConn("w", "other")
	m.Register(watcher)
	watcher.reset()

	c := newFakeConn("c1", "u1")
	m.Register(c)

	assert.True(t, m.Rooms().IsMember("c1", NotificationRoom("u1")))
	assert.True(t, m.Presence().IsOnline("u1"))

	var status UserStatus
	watcher.last(t, EventUserStatusChange, &status)
	assert.Equal(t, UserStatus{UserID: "u1", IsOnline: true}, status)

	m.Unregister(c)
	watcher.last(t, EventUserStatusChange, &status)
	assert.Equal(t, UserStatus{UserID: "u1", IsOnline: false}, status)
	assert.False(t, m.Presence().IsOnline("u1"))

	// a second unregister is harmless
	m.Unregister(c)
	assert.Equal(t, 2, watcher.count(EventUserStatusChange))
}

func TestManager_UnregisterDropsPresenceBeforeRooms(t *testing.T) {
	m, _ := newTestManager()
	c := newFakeConn("c1", "u1")

	var reachableWhenOffline bool
	m.Presence().OnTransition(func(ev PresenceEvent) {
		if !ev.IsOnline {
			reachableWhenOffline = m.Rooms().IsMember("c1", NotificationRoom("u1"))
		}
	})

	m.Register(c)
	m.Unregister(c)

	assert.True(t, reachableWhenOffline, "connection must still be routable until presence reports offline")
	assert.False(t, m.Rooms().IsMember("c1", NotificationRoom("u1")))
	assert.False(t, m.Presence().IsOnline("u1"))
}

func TestManager_SecondTabDoesNotReannounce(t *testing.T) {
	m, _ := newTestManager()
	watcher := newFakeConn("w", "other")
	m.Register(watcher)

	tab1 := newFakeConn("c1", "u1")
	tab2 := newFakeConn("c2", "u1")
	m.Register(tab1)
	m.Register(tab2)
	m.Unregister(tab1)

	assert.True(t, m.Presence().IsOnline("u1"))
	var status UserStatus
	watcher.last(t, EventUserStatusChange, &status)
	assert.True(t, status.IsOnline)
}

func TestManager_Ping(t *testing.T) {
	m, _ := newTestManager()
	c := newFakeConn("c1", "u1")
	m.Register(c)

	m.HandleClientMessage(c, []byte(`{"event":"ping","ackId":"a1"}`))

	env := c.last(t, EventPong, nil)
	assert.Equal(t, "a1", env.AckID)
}

func TestManager_JoinChatRoomResolvesBuyerSellerOrder(t *testing.T) {
	m, _ := newTestManager()
	seller := newFakeConn("cs", "s1")
	buyer := newFakeConn("cb", "b1")
	m.Register(seller)
	m.Register(buyer)

	m.HandleClientMessage(seller, []byte(`{"event":"joinChatRoom","data":{"postId":"p1","userId":"s1","otherUserId":"b1"}}`))
	m.HandleClientMessage(buyer, []byte(`{"event":"joinChatRoom","data":{"postId":"p1","userId":"b1","otherUserId":"s1"}}`))

	room := ChatRoom("p1", "b1", "s1")
	assert.True(t, m.Rooms().IsMember("cs", room))
	assert.True(t, m.Rooms().IsMember("cb", room))

	var ref ChatRoomRef
	buyer.last(t, EventChatRoomJoined, &ref)
	assert.Equal(t, ChatRoomRef{Room: room, PostID: "p1", BuyerID: "b1", SellerID: "s1"}, ref)

	m.HandleClientMessage(buyer, []byte(`{"event":"leaveChatRoom","data":{"postId":"p1","otherUserId":"s1"}}`))
	assert.False(t, m.Rooms().IsMember("cb", room))
}

func TestManager_JoinChatRoomRejected(t *testing.T) {
	m, _ := newTestManager()
	c := newFakeConn("c1", "b1")
	m.Register(c)

	var payload ErrorPayload

	m.HandleClientMessage(c, []byte(`{"event":"joinChatRoom","data":{"postId":"p1","otherUserId":"b2"}}`))
	c.last(t, EventError, &payload)
	assert.Equal(t, errors.CodeForbidden, payload.Code)

	m.HandleClientMessage(c, []byte(`{"event":"joinChatRoom","data":{"postId":"p1","userId":"s1","otherUserId":"b1"}}`))
	c.last(t, EventError, &payload)
	assert.Equal(t, errors.CodeForbidden, payload.Code)

	m.HandleClientMessage(c, []byte(`{"event":"joinChatRoom","data":{"otherUserId":"s1"}}`))
	c.last(t, EventError, &payload)
	assert.Equal(t, errors.CodeValidation, payload.Code)
	assert.Equal(t, "postid is required", payload.Message)
}

func TestManager_TypingRelaysToRoomMembersOnly(t *testing.T) {
	m, resolver := newTestManager()
	seller := newFakeConn("cs", "s1")
	buyer := newFakeConn("cb", "b1")
	m.Register(seller)
	m.Register(buyer)

	typing := []byte(`{"event":"typing","data":{"postId":"p1","userId":"b1","otherUserId":"s1","isTyping":true}}`)

	// not in the room yet: dropped
	m.HandleClientMessage(buyer, typing)
	assert.Equal(t, 0, seller.count(EventUserTyping))

	m.HandleClientMessage(seller, []byte(`{"event":"joinChatRoom","data":{"postId":"p1","otherUserId":"b1"}}`))
	m.HandleClientMessage(buyer, []byte(`{"event":"joinChatRoom","data":{"postId":"p1","otherUserId":"s1"}}`))
	before := resolver.calls

	m.HandleClientMessage(buyer, typing)

	var ev UserTyping
	seller.last(t, EventUserTyping, &ev)
	assert.Equal(t, UserTyping{UserID: "b1", IsTyping: true, PostID: "p1"}, ev)
	assert.Equal(t, 0, buyer.count(EventUserTyping))

	// burst of 2 used up: further typing is dropped without resolving
	m.HandleClientMessage(buyer, typing)
	assert.Equal(t, 1, seller.count(EventUserTyping))
	assert.Equal(t, before+1, resolver.calls)
}

func TestManager_MessageSeenRelay(t *testing.T) {
	m, _ := newTestManager()
	seller := newFakeConn("cs", "s1")
	buyer := newFakeConn("cb", "b1")
	outsider := newFakeConn("co", "b2")
	m.Register(seller)
	m.Register(buyer)
	m.Register(outsider)

	room := ChatRoom("p1", "b1", "s1")
	m.HandleClientMessage(seller, []byte(`{"event":"joinChatRoom","data":{"postId":"p1","otherUserId":"b1"}}`))
	m.HandleClientMessage(buyer, []byte(`{"event":"joinChatRoom","data":{"postId":"p1","otherUserId":"s1"}}`))

	m.HandleClientMessage(buyer, []byte(`{"event":"messageSeen","data":{"room":"`+room+`","messageId":"m1"}}`))

	var update SeenUpdate
	seller.last(t, EventMessageSeenUpdate, &update)
	assert.Equal(t, []string{"m1"}, update.MessageIDs)

	m.HandleClientMessage(outsider, []byte(`{"event":"messageSeen","data":{"room":"`+room+`","messageId":"m2"}}`))
	var payload ErrorPayload
	outsider.last(t, EventError, &payload)
	assert.Equal(t, errors.CodeForbidden, payload.Code)
	assert.Equal(t, 1, seller.count(EventMessageSeenUpdate))
}

func TestManager_CheckOnlineStatusAndAway(t *testing.T) {
	m, _ := newTestManager()
	asker := newFakeConn("c1", "u1")
	target := newFakeConn("c2", "u2")
	m.Register(asker)
	m.Register(target)

	var status UserStatus
	m.HandleClientMessage(asker, []byte(`{"event":"checkOnlineStatus","data":"u2","ackId":"7"}`))
	env := asker.last(t, EventCheckOnlineStatus, &status)
	assert.Equal(t, "7", env.AckID)
	assert.True(t, status.IsOnline)

	m.HandleClientMessage(target, []byte(`{"event":"userAway","data":"u2"}`))
	m.HandleClientMessage(asker, []byte(`{"event":"checkOnlineStatus","data":{"userId":"u2"}}`))
	asker.last(t, EventCheckOnlineStatus, &status)
	assert.False(t, status.IsOnline)

	m.HandleClientMessage(target, []byte(`{"event":"userOnline","data":"u2"}`))
	assert.True(t, m.Presence().IsOnline("u2"))

	// cannot mark someone else away
	m.HandleClientMessage(asker, []byte(`{"event":"userAway","data":"u2"}`))
	assert.True(t, m.Presence().IsOnline("u2"))
}

func TestManager_InvalidFrames(t *testing.T) {
	m, _ := newTestManager()
	c := newFakeConn("c1", "u1")
	m.Register(c)

	var payload ErrorPayload
	m.HandleClientMessage(c, []byte(`not json`))
	c.last(t, EventError, &payload)
	assert.Equal(t, errors.CodeValidation, payload.Code)

	m.HandleClientMessage(c, []byte(`{"event":"dance"}`))
	c.last(t, EventError, &payload)
	assert.Equal(t, "Unknown event", payload.Message)

	m.HandleClientMessage(c, []byte(`{"event":"checkOnlineStatus","data":""}`))
	c.last(t, EventError, &payload)
	require.Equal(t, errors.CodeValidation, payload.Code)
}
