package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helperhub/internal/domain/entity"
	"helperhub/pkg/errors"
)

func TestAppendMessage_UnreadGrowsByOne(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, conversation, err := f.store.AppendMessage(ctx, "p1", "b1", "s1", "b1", "ping")
		require.NoError(t, err)
		assert.Equal(t, i, f.store.UnreadCount(conversation, "s1"))
	}

	_, _, err := f.store.AppendMessage(ctx, "p1", "b1", "s1", "b1", "")
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestAppendMessage_ConcurrentBothSides(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		for _, sender := range []string{"b1", "s1"} {
			wg.Add(1)
			go func(sender string) {
				defer wg.Done()
				_, _, err := f.store.AppendMessage(ctx, "p1", "b1", "s1", sender, "hi")
				assert.NoError(t, err)
			}(sender)
		}
	}
	wg.Wait()

	conversation, err := f.store.GetConversation(ctx, "p1", "b1", "s1")
	require.NoError(t, err)
	assert.Len(t, conversation.Messages, 40)
	assert.Equal(t, 20, conversation.UnreadCount("s1"))
	assert.Equal(t, 20, conversation.UnreadCount("b1"))
}

func TestGetConversation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.store.GetConversation(ctx, "p1", "b1", "b1")
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, _, err = f.store.AppendMessage(ctx, "p1", "b1", "s1", "b1", "hello")
	require.NoError(t, err)

	conversation, err := f.store.GetConversation(ctx, "p1", "b1", "b1")
	require.NoError(t, err)
	assert.Equal(t, entity.ConversationID("p1", "b1"), conversation.ID)

	_, err = f.store.GetConversation(ctx, "p1", "b1", "intruder")
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.store.GetConversation(ctx, "", "b1", "b1")
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestInbox_SortedByLastMessage(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.posts.Save(&entity.Post{ID: "p2", Title: "Walk the dog", UserID: "s1", PeopleCount: 1})

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	_, _, err := f.store.AppendMessage(ctx, "p1", "b1", "s1", "b1", "first thread")
	require.NoError(t, err)
	_, _, err = f.store.AppendMessage(ctx, "p2", "b2", "s1", "b2", "second thread")
	require.NoError(t, err)
	_, _, err = f.store.AppendMessage(ctx, "p1", "b1", "s1", "s1", "reply bumps p1")
	require.NoError(t, err)

	selling, err := f.store.ListForSeller(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, selling, 2)
	assert.Equal(t, "p1", selling[0].PostID)
	assert.Equal(t, "Move a couch", selling[0].PostTitle)
	assert.Equal(t, "reply bumps p1", selling[0].LastMessage.Text)
	assert.Equal(t, 1, selling[0].UnreadCount)
	assert.Equal(t, "p2", selling[1].PostID)
	assert.Equal(t, "Walk the dog", selling[1].PostTitle)

	buying, err := f.store.ListForBuyer(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, buying, 1)
	assert.Equal(t, 1, buying[0].UnreadCount)
	assert.Equal(t, clock, buying[0].LastMessageAt)
}
