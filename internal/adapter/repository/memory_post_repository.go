package repository

import (
	"context"
	"sync"
	"time"

	"helperhub/internal/domain/entity"
	"helperhub/internal/domain/repository"
	"helperhub/pkg/errors"
)

type MemoryPostRepository struct {
	mu    sync.Mutex
	posts map[string]*entity.Post
}

var _ repository.PostRepository = (*MemoryPostRepository)(nil)

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{
		posts: make(map[string]*entity.Post),
	}
}

// Save inserts or replaces a post. Post CRUD lives outside this service; Save is how
// development mode and tests seed data.
func (r *MemoryPostRepository) Save(post *entity.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := clonePost(post)
	if copied.PostStatus == "" {
		copied.PostStatus = entity.PostStatusActive
	}
	r.posts[post.ID] = copied
}

func (r *MemoryPostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, errors.NotFound("Post", nil)
	}
	return clonePost(post), nil
}

func (r *MemoryPostRepository) GetHelperCapacity(ctx context.Context, id string) (int, error) {
	post, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return post.PeopleCount, nil
}

func (r *MemoryPostRepository) TryToggleHelper(ctx context.Context, postID, buyerID string) (*entity.ToggleResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[postID]
	if !ok {
		return nil, errors.NotFound("Post", nil)
	}

	added, ok := post.ToggleHelper(buyerID)
	if !ok {
		return nil, errors.Capacity("Helper limit reached")
	}
	post.UpdatedAt = time.Now()

	return &entity.ToggleResult{
		Added:     added,
		HelperIDs: append([]string(nil), post.HelperIDs...),
		Status:    post.PostStatus,
	}, nil
}

func (r *MemoryPostRepository) AddInterestedBuyer(ctx context.Context, postID, buyerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[postID]
	if !ok {
		return errors.NotFound("Post", nil)
	}
	post.AddBuyer(buyerID)
	return nil
}

func clonePost(p *entity.Post) *entity.Post {
	out := *p
	out.BuyerIDs = append([]string(nil), p.BuyerIDs...)
	out.HelperIDs = append([]string(nil), p.HelperIDs...)
	return &out
}
