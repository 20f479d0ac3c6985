package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"helperhub/internal/domain/entity"
	"helperhub/internal/domain/repository"
	"helperhub/pkg/errors"
	"helperhub/pkg/logger"
)

// ConversationUseCase is the conversation store: appends, seen transitions and inbox
// queries over the conversation repository.
type ConversationUseCase struct {
	conversationRepo repository.ConversationRepository
	postRepo         repository.PostRepository
	now              func() time.Time
}

func NewConversationUseCase(conversationRepo repository.ConversationRepository, postRepo repository.PostRepository) *ConversationUseCase {
	return &ConversationUseCase{
		conversationRepo: conversationRepo,
		postRepo:         postRepo,
		now:              time.Now,
	}
}

// AppendMessage records a new unseen message from senderID in the (postID, buyerID)
// conversation, creating the conversation on first use.
func (uc *ConversationUseCase) AppendMessage(ctx context.Context, postID, buyerID, sellerID, senderID, text string) (*entity.Message, *entity.Conversation, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, errors.Validation("text is required", nil)
	}

	msg := &entity.Message{
		ID:        uuid.New().String(),
		SenderID:  senderID,
		Text:      text,
		CreatedAt: uc.now().UTC(),
	}

	conversation, err := uc.conversationRepo.AppendMessage(ctx, postID, buyerID, sellerID, msg)
	if err != nil {
		return nil, nil, err
	}
	return msg, conversation, nil
}

// MarkSeen flips the given messages to seen and returns how many actually changed.
func (uc *ConversationUseCase) MarkSeen(ctx context.Context, postID, buyerID, sellerID string, messageIDs []string) (int, error) {
	ids := make([]string, 0, len(messageIDs))
	for _, id := range messageIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, errors.Validation("messageIds must not be empty", nil)
	}

	return uc.conversationRepo.MarkSeen(ctx, postID, buyerID, sellerID, ids, uc.now().UTC())
}

func (uc *ConversationUseCase) UnreadCount(conversation *entity.Conversation, viewerID string) int {
	return conversation.UnreadCount(viewerID)
}

// GetConversation returns the thread to one of its participants.
func (uc *ConversationUseCase) GetConversation(ctx context.Context, postID, buyerID, viewerID string) (*entity.Conversation, error) {
	if postID == "" || buyerID == "" {
		return nil, errors.Validation("postId and buyerId are required", nil)
	}

	conversation, err := uc.conversationRepo.Get(ctx, postID, buyerID)
	if err != nil {
		return nil, err
	}
	if !conversation.IsParticipant(viewerID) {
		return nil, errors.Forbidden("Not a participant of this conversation", nil)
	}
	return conversation, nil
}

// ListForSeller is the seller inbox, most recent activity first.
func (uc *ConversationUseCase) ListForSeller(ctx context.Context, sellerID string) ([]*entity.ConversationSummary, error) {
	conversations, err := uc.conversationRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return uc.summarize(ctx, conversations, sellerID), nil
}

// ListForBuyer is the buyer inbox, most recent activity first.
func (uc *ConversationUseCase) ListForBuyer(ctx context.Context, buyerID string) ([]*entity.ConversationSummary, error) {
	conversations, err := uc.conversationRepo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return uc.summarize(ctx, conversations, buyerID), nil
}

func (uc *ConversationUseCase) summarize(ctx context.Context, conversations []*entity.Conversation, viewerID string) []*entity.ConversationSummary {
	titles := make(map[string]string)
	summaries := make([]*entity.ConversationSummary, 0, len(conversations))

	for _, c := range conversations {
		title, ok := titles[c.PostID]
		if !ok {
			title = uc.postTitle(ctx, c.PostID)
			titles[c.PostID] = title
		}

		summaries = append(summaries, &entity.ConversationSummary{
			ConversationID: c.ID,
			PostID:         c.PostID,
			PostTitle:      title,
			BuyerID:        c.BuyerID,
			SellerID:       c.SellerID,
			LastMessage:    c.LastMessage(),
			LastMessageAt:  c.LastMessageAt,
			UnreadCount:    c.UnreadCount(viewerID),
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt)
	})
	return summaries
}

// A deleted post keeps its conversations listed without a title.
func (uc *ConversationUseCase) postTitle(ctx context.Context, postID string) string {
	post, err := uc.postRepo.GetByID(ctx, postID)
	if err != nil {
		logger.Warn("Failed to load post %s for inbox: %v", postID, err)
		return ""
	}
	return post.Title
}
