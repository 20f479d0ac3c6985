package repository

import (
	"context"
	stderrors "errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"helperhub/internal/domain/entity"
	"helperhub/internal/domain/repository"
	"helperhub/pkg/errors"
	"helperhub/pkg/logger"
)

const conversationsCollection = "conversations"

type firestoreConversationRepository struct {
	client *firestore.Client
}

// NewFirestoreConversationRepository stores each conversation as one document with its
// messages embedded, so a transaction on that document serializes all writes to the thread.
func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) doc(postID, buyerID string) *firestore.DocumentRef {
	return r.client.Collection(conversationsCollection).Doc(entity.ConversationID(postID, buyerID))
}

func (r *firestoreConversationRepository) AppendMessage(ctx context.Context, postID, buyerID, sellerID string, msg *entity.Message) (*entity.Conversation, error) {
	docRef := r.doc(postID, buyerID)

	var conversation *entity.Conversation
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		switch {
		case status.Code(err) == codes.NotFound:
			conversation = entity.NewConversation(postID, buyerID, sellerID, msg.CreatedAt)
		case err != nil:
			return err
		default:
			conversation = &entity.Conversation{}
			if err := doc.DataTo(conversation); err != nil {
				return err
			}
		}

		conversation.Append(msg)
		return tx.Set(docRef, conversation)
	})
	if err != nil {
		logger.Error("Firestore append to conversation %s failed: %v", docRef.ID, err)
		return nil, errors.Internal("Failed to append message", err)
	}

	return conversation, nil
}

func (r *firestoreConversationRepository) MarkSeen(ctx context.Context, postID, buyerID, sellerID string, messageIDs []string, at time.Time) (int, error) {
	docRef := r.doc(postID, buyerID)
	ids := make(map[string]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		ids[id] = struct{}{}
	}

	updated := 0
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		updated = 0

		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Conversation", nil)
			}
			return err
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return err
		}
		if conversation.SellerID != sellerID {
			return errors.NotFound("Conversation", nil)
		}

		updated = conversation.MarkSeen(ids, at)
		if updated == 0 {
			return nil
		}
		return tx.Set(docRef, conversation)
	})
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return 0, appErr
		}
		return 0, errors.Internal("Failed to mark messages as seen", err)
	}

	return updated, nil
}

func (r *firestoreConversationRepository) Get(ctx context.Context, postID, buyerID string) (*entity.Conversation, error) {
	doc, err := r.doc(postID, buyerID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	return &conversation, nil
}

func (r *firestoreConversationRepository) ListBySeller(ctx context.Context, sellerID string) ([]*entity.Conversation, error) {
	return r.listWhere(ctx, "sellerId", sellerID)
}

func (r *firestoreConversationRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*entity.Conversation, error) {
	return r.listWhere(ctx, "buyerId", buyerID)
}

func (r *firestoreConversationRepository) listWhere(ctx context.Context, field, value string) ([]*entity.Conversation, error) {
	docs, err := r.client.Collection(conversationsCollection).Where(field, "==", value).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing conversations by %s=%s: %v", field, value, err)
		return nil, errors.Internal("Failed to list conversations", err)
	}

	conversations := make([]*entity.Conversation, 0, len(docs))
	for _, doc := range docs {
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			logger.Warn("Skipping malformed conversation %s: %v", doc.Ref.ID, err)
			continue
		}
		conversations = append(conversations, &conversation)
	}
	return conversations, nil
}
