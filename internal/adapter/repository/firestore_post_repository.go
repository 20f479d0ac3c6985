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
)

const postsCollection = "posts"

type firestorePostRepository struct {
	client *firestore.Client
}

func NewFirestorePostRepository(client *firestore.Client) repository.PostRepository {
	return &firestorePostRepository{
		client: client,
	}
}

func (r *firestorePostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	doc, err := r.client.Collection(postsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Post", err)
		}
		return nil, errors.Internal("Failed to get post", err)
	}

	var post entity.Post
	if err := doc.DataTo(&post); err != nil {
		return nil, errors.Internal("Failed to parse post data", err)
	}
	post.ID = doc.Ref.ID
	return &post, nil
}

func (r *firestorePostRepository) GetHelperCapacity(ctx context.Context, id string) (int, error) {
	post, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return post.PeopleCount, nil
}

// TryToggleHelper runs the capacity check and the write in one transaction. Firestore
// aborts and retries a transaction whose read set changed, so two concurrent adds cannot
// both pass the check against the same helper count.
func (r *firestorePostRepository) TryToggleHelper(ctx context.Context, postID, buyerID string) (*entity.ToggleResult, error) {
	docRef := r.client.Collection(postsCollection).Doc(postID)

	var result *entity.ToggleResult
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Post", nil)
			}
			return err
		}

		var post entity.Post
		if err := doc.DataTo(&post); err != nil {
			return err
		}

		added, ok := post.ToggleHelper(buyerID)
		if !ok {
			return errors.Capacity("Helper limit reached")
		}

		result = &entity.ToggleResult{
			Added:     added,
			HelperIDs: post.HelperIDs,
			Status:    post.PostStatus,
		}

		return tx.Update(docRef, []firestore.Update{
			{Path: "helperIds", Value: post.HelperIDs},
			{Path: "postStatus", Value: post.PostStatus},
			{Path: "updatedAt", Value: time.Now()},
		})
	})
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Internal("Failed to toggle helper", err)
	}

	return result, nil
}

func (r *firestorePostRepository) AddInterestedBuyer(ctx context.Context, postID, buyerID string) error {
	_, err := r.client.Collection(postsCollection).Doc(postID).Update(ctx, []firestore.Update{
		{Path: "buyerIds", Value: firestore.ArrayUnion(buyerID)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Post", err)
		}
		return errors.Internal("Failed to record interested buyer", err)
	}
	return nil
}
