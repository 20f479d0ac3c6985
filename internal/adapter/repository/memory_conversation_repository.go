package repository

import (
	"context"
	"sync"
	"time"

	"helperhub/internal/domain/entity"
	"helperhub/internal/domain/repository"
	"helperhub/pkg/errors"
)

// MemoryConversationRepository keeps conversations in process memory. Writers hold a
// per-conversation lock while they build the next version of the document, and publish it
// under the table lock; stored versions are never mutated, so readers only need the table lock.
type MemoryConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*entity.Conversation
	locks         map[string]*sync.Mutex
}

var _ repository.ConversationRepository = (*MemoryConversationRepository)(nil)

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{
		conversations: make(map[string]*entity.Conversation),
		locks:         make(map[string]*sync.Mutex),
	}
}

func (r *MemoryConversationRepository) lockFor(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}

func (r *MemoryConversationRepository) load(id string) *entity.Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conversations[id]
}

func (r *MemoryConversationRepository) publish(c *entity.Conversation) {
	r.mu.Lock()
	r.conversations[c.ID] = c
	r.mu.Unlock()
}

func (r *MemoryConversationRepository) AppendMessage(ctx context.Context, postID, buyerID, sellerID string, msg *entity.Message) (*entity.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Internal("Failed to append message", err)
	}

	id := entity.ConversationID(postID, buyerID)
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	var next *entity.Conversation
	if current := r.load(id); current != nil {
		next = cloneConversation(current)
	} else {
		next = entity.NewConversation(postID, buyerID, sellerID, msg.CreatedAt)
	}

	stored := *msg
	next.Append(&stored)
	r.publish(next)

	return cloneConversation(next), nil
}

func (r *MemoryConversationRepository) MarkSeen(ctx context.Context, postID, buyerID, sellerID string, messageIDs []string, at time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Internal("Failed to mark messages as seen", err)
	}

	id := entity.ConversationID(postID, buyerID)
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	current := r.load(id)
	if current == nil || current.SellerID != sellerID {
		return 0, errors.NotFound("Conversation", nil)
	}

	ids := make(map[string]struct{}, len(messageIDs))
	for _, messageID := range messageIDs {
		ids[messageID] = struct{}{}
	}

	next := cloneConversation(current)
	updated := next.MarkSeen(ids, at)
	if updated > 0 {
		r.publish(next)
	}
	return updated, nil
}

func (r *MemoryConversationRepository) Get(ctx context.Context, postID, buyerID string) (*entity.Conversation, error) {
	current := r.load(entity.ConversationID(postID, buyerID))
	if current == nil {
		return nil, errors.NotFound("Conversation", nil)
	}
	return cloneConversation(current), nil
}

func (r *MemoryConversationRepository) ListBySeller(ctx context.Context, sellerID string) ([]*entity.Conversation, error) {
	return r.listWhere(func(c *entity.Conversation) bool { return c.SellerID == sellerID }), nil
}

func (r *MemoryConversationRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*entity.Conversation, error) {
	return r.listWhere(func(c *entity.Conversation) bool { return c.BuyerID == buyerID }), nil
}

func (r *MemoryConversationRepository) listWhere(match func(*entity.Conversation) bool) []*entity.Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Conversation, 0)
	for _, c := range r.conversations {
		if match(c) {
			out = append(out, cloneConversation(c))
		}
	}
	return out
}

func cloneConversation(c *entity.Conversation) *entity.Conversation {
	out := *c
	out.Messages = make([]*entity.Message, len(c.Messages))
	for i, msg := range c.Messages {
		copied := *msg
		out.Messages[i] = &copied
	}
	return &out
}
