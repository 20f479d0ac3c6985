package repository

import (
	"context"

	"helperhub/internal/domain/entity"
)

type PostRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	GetHelperCapacity(ctx context.Context, id string) (int, error)
	// TryToggleHelper flips buyerID in the helper set as one atomic read-check-write.
	// Adding to a full set returns a CAPACITY_EXCEEDED error.
	TryToggleHelper(ctx context.Context, postID, buyerID string) (*entity.ToggleResult, error)
	AddInterestedBuyer(ctx context.Context, postID, buyerID string) error
}
