package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConversation() *Conversation {
	return NewConversation("post-1", "buyer-1", "seller-1", time.Unix(1000, 0))
}

func TestConversation_AppendMovesLastMessageAt(t *testing.T) {
	c := newTestConversation()
	at := time.Unix(2000, 0)

	c.Append(&Message{ID: "m1", SenderID: "buyer-1", Text: "hello", CreatedAt: at})

	require.Len(t, c.Messages, 1)
	assert.Equal(t, at, c.LastMessageAt)
	assert.Equal(t, "m1", c.LastMessage().ID)
}

func TestConversation_UnreadCountIgnoresOwnMessages(t *testing.T) {
	c := newTestConversation()
	c.Append(&Message{ID: "m1", SenderID: "buyer-1", Text: "hi", CreatedAt: time.Unix(1, 0)})
	c.Append(&Message{ID: "m2", SenderID: "buyer-1", Text: "there", CreatedAt: time.Unix(2, 0)})
	c.Append(&Message{ID: "m3", SenderID: "seller-1", Text: "yo", CreatedAt: time.Unix(3, 0)})

	assert.Equal(t, 2, c.UnreadCount("seller-1"))
	assert.Equal(t, 1, c.UnreadCount("buyer-1"))
}

func TestConversation_MarkSeenIsIdempotent(t *testing.T) {
	c := newTestConversation()
	c.Append(&Message{ID: "m1", SenderID: "buyer-1", Text: "hi", CreatedAt: time.Unix(1, 0)})
	c.Append(&Message{ID: "m2", SenderID: "buyer-1", Text: "there", CreatedAt: time.Unix(2, 0)})

	ids := map[string]struct{}{"m1": {}, "unknown": {}}
	first := time.Unix(10, 0)

	assert.Equal(t, 1, c.MarkSeen(ids, first))
	assert.Equal(t, 0, c.MarkSeen(ids, time.Unix(20, 0)))

	require.NotNil(t, c.Messages[0].SeenAt)
	assert.Equal(t, first, *c.Messages[0].SeenAt)
	assert.False(t, c.Messages[1].Seen)
	assert.Nil(t, c.Messages[1].SeenAt)
}

func TestConversation_Participants(t *testing.T) {
	c := newTestConversation()

	assert.True(t, c.IsParticipant("buyer-1"))
	assert.True(t, c.IsParticipant("seller-1"))
	assert.False(t, c.IsParticipant("stranger"))
	assert.False(t, c.IsParticipant(""))
	assert.Equal(t, "seller-1", c.Counterpart("buyer-1"))
	assert.Equal(t, "buyer-1", c.Counterpart("seller-1"))
	assert.Equal(t, "post-1_buyer-1", c.ID)
}
