package repository

import (
	"context"
	"time"

	"helperhub/internal/domain/entity"
)

// ConversationRepository persists conversations. Implementations serialize every mutation
// of one conversation: two appends to the same (post, buyer) pair never interleave.
type ConversationRepository interface {
	// AppendMessage finds or creates the (postID, buyerID) conversation and appends msg.
	AppendMessage(ctx context.Context, postID, buyerID, sellerID string, msg *entity.Message) (*entity.Conversation, error)
	// MarkSeen flips the listed unseen messages to seen and returns how many changed.
	// A conversation that is absent or owned by another seller is NOT_FOUND.
	MarkSeen(ctx context.Context, postID, buyerID, sellerID string, messageIDs []string, at time.Time) (int, error)
	Get(ctx context.Context, postID, buyerID string) (*entity.Conversation, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*entity.Conversation, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*entity.Conversation, error)
}
