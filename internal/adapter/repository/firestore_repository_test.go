package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helperhub/internal/domain/entity"
	"helperhub/pkg/errors"
)

// newEmulatorClient connects to the Firestore emulator and skips the test when none is
// configured.
func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := firestore.NewClient(context.Background(), "helperhub-test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestFirestoreConversation_ConcurrentAppends(t *testing.T) {
	client := newEmulatorClient(t)
	repo := NewFirestoreConversationRepository(client)
	ctx := context.Background()
	postID := "post-" + uuid.NewString()

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := "b1"
			if i%2 == 1 {
				sender = "s1"
			}
			_, err := repo.AppendMessage(ctx, postID, "b1", "s1", msg(fmt.Sprintf("m%d", i), sender, int64(i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	conversation, err := repo.Get(ctx, postID, "b1")
	require.NoError(t, err)
	assert.Len(t, conversation.Messages, writers)
	assert.Equal(t, "s1", conversation.SellerID)

	seen := make(map[string]bool)
	for _, m := range conversation.Messages {
		assert.False(t, seen[m.ID], "duplicate message %s", m.ID)
		seen[m.ID] = true
	}
}

func TestFirestoreConversation_MarkSeen(t *testing.T) {
	client := newEmulatorClient(t)
	repo := NewFirestoreConversationRepository(client)
	ctx := context.Background()
	postID := "post-" + uuid.NewString()

	_, err := repo.AppendMessage(ctx, postID, "b1", "s1", msg("m1", "b1", 1))
	require.NoError(t, err)
	_, err = repo.AppendMessage(ctx, postID, "b1", "s1", msg("m2", "b1", 2))
	require.NoError(t, err)

	at := time.Unix(500, 0).UTC()
	updated, err := repo.MarkSeen(ctx, postID, "b1", "s1", []string{"m1", "m2"}, at)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	updated, err = repo.MarkSeen(ctx, postID, "b1", "s1", []string{"m1"}, at.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	_, err = repo.MarkSeen(ctx, postID, "b1", "someone-else", []string{"m1"}, at)
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	conversation, err := repo.Get(ctx, postID, "b1")
	require.NoError(t, err)
	require.NotNil(t, conversation.Messages[0].SeenAt)
	assert.True(t, at.Equal(*conversation.Messages[0].SeenAt))
}

func TestFirestorePost_ConcurrentToggleRespectsCapacity(t *testing.T) {
	client := newEmulatorClient(t)
	repo := NewFirestorePostRepository(client)
	ctx := context.Background()
	postID := "post-" + uuid.NewString()

	_, err := client.Collection(postsCollection).Doc(postID).Set(ctx, entity.Post{
		ID:          postID,
		Title:       "Move a couch",
		UserID:      "owner",
		PeopleCount: 2,
		PostStatus:  entity.PostStatusActive,
	})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		capacity  int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(buyer string) {
			defer wg.Done()
			_, err := repo.TryToggleHelper(ctx, postID, buyer)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, errors.CodeCapacity):
				capacity++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(fmt.Sprintf("b%d", i))
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 2, capacity)

	post, err := repo.GetByID(ctx, postID)
	require.NoError(t, err)
	assert.Len(t, post.HelperIDs, 2)
	assert.Equal(t, entity.PostStatusClosed, post.PostStatus)
}

func TestFirestoreUser_ClearOnlyMatchingToken(t *testing.T) {
	client := newEmulatorClient(t)
	repo := NewFirestoreUserRepository(client)
	ctx := context.Background()
	userID := "user-" + uuid.NewString()

	require.NoError(t, repo.UpdateNotificationSubscription(ctx, userID,
		entity.NotificationSubscription{Token: "tok-new", Enabled: true}))

	cleared, err := repo.ClearNotificationSubscription(ctx, userID, "tok-old")
	require.NoError(t, err)
	assert.False(t, cleared)

	cleared, err = repo.ClearNotificationSubscription(ctx, userID, "tok-new")
	require.NoError(t, err)
	assert.True(t, cleared)

	sub, err := repo.GetNotificationSubscription(ctx, userID)
	require.NoError(t, err)
	assert.False(t, sub.Deliverable())
}
