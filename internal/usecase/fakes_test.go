package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	adapterrepo "helperhub/internal/adapter/repository"
	"helperhub/internal/domain/entity"
	"helperhub/internal/infrastructure/push"
	"helperhub/internal/infrastructure/ratelimit"
)

type broadcast struct {
	Target  string
	Event   string
	Payload interface{}
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	rooms []broadcast
	users []broadcast
}

func (f *fakeBroadcaster) BroadcastToRoom(room, event string, payload interface{}) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms = append(f.rooms, broadcast{Target: room, Event: event, Payload: payload})
	return 1
}

func (f *fakeBroadcaster) BroadcastToUser(userID, event string, payload interface{}) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, broadcast{Target: userID, Event: event, Payload: payload})
	return 1
}

func (f *fakeBroadcaster) userEvents(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []string
	for _, b := range f.users {
		if b.Target == userID {
			events = append(events, b.Event)
		}
	}
	return events
}

func (f *fakeBroadcaster) roomEvents(room string) []broadcast {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []broadcast
	for _, b := range f.rooms {
		if b.Target == room {
			out = append(out, b)
		}
	}
	return out
}

type fakePresence struct {
	online map[string]bool
}

func (f *fakePresence) IsOnline(userID string) bool {
	return f.online[userID]
}

type sentPush struct {
	Sub     entity.NotificationSubscription
	Payload push.Payload
}

type fakePusher struct {
	mu   sync.Mutex
	sent []sentPush
	err  error
	// onSend runs before Send returns, outside the lock
	onSend func()
}

func (f *fakePusher) Send(ctx context.Context, sub entity.NotificationSubscription, payload push.Payload) error {
	f.mu.Lock()
	f.sent = append(f.sent, sentPush{Sub: sub, Payload: payload})
	err, hook := f.err, f.onSend
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

func (f *fakePusher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fixture struct {
	conversations *adapterrepo.MemoryConversationRepository
	posts         *adapterrepo.MemoryPostRepository
	users         *adapterrepo.MemoryUserRepository
	notifications *adapterrepo.MemoryNotificationRepository
	broadcaster   *fakeBroadcaster
	presence      *fakePresence
	pusher        *fakePusher

	store    *ConversationUseCase
	delivery *DeliveryUseCase
}

// newFixture seeds post p1 "Move a couch" owned by s1 with two helper slots, seller s1
// with a push subscription and buyer b1.
func newFixture(t *testing.T, limiter *ratelimit.RateLimiter) *fixture {
	t.Helper()

	f := &fixture{
		conversations: adapterrepo.NewMemoryConversationRepository(),
		posts:         adapterrepo.NewMemoryPostRepository(),
		users:         adapterrepo.NewMemoryUserRepository(),
		notifications: adapterrepo.NewMemoryNotificationRepository(),
		broadcaster:   &fakeBroadcaster{},
		presence:      &fakePresence{online: map[string]bool{}},
		pusher:        &fakePusher{},
	}

	f.posts.Save(&entity.Post{ID: "p1", Title: "Move a couch", UserID: "s1", PeopleCount: 2})
	f.users.Save(&entity.User{ID: "s1", Username: "sam", NotificationToken: "tok-s1", NotificationEnabled: true})
	f.users.Save(&entity.User{ID: "b1", Username: "bea"})

	f.store = NewConversationUseCase(f.conversations, f.posts)
	f.delivery = NewDeliveryUseCase(
		f.store, f.posts, f.users, f.notifications,
		f.broadcaster, f.presence, f.pusher, limiter,
		DeliverySettings{ClientURL: "https://app.example.com/", PreviewLength: 10, PushTimeout: time.Second},
	)
	return f
}

func (f *fixture) send(t *testing.T, sender, text string) *entity.Message {
	t.Helper()
	msg, err := f.delivery.SendMessage(context.Background(), SendMessageInput{
		PostID: "p1", SellerID: "s1", BuyerID: "b1", SenderID: sender, Text: text,
	})
	require.NoError(t, err)
	return msg
}
