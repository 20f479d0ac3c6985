package repository

import (
	"context"
	"sync"
	"time"

	"helperhub/internal/domain/entity"
	"helperhub/internal/domain/repository"
	"helperhub/pkg/errors"
)

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

var _ repository.UserRepository = (*MemoryUserRepository)(nil)

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]*entity.User),
	}
}

func (r *MemoryUserRepository) Save(user *entity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *user
	r.users[user.ID] = &copied
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *user
	return &copied, nil
}

func (r *MemoryUserRepository) GetNotificationSubscription(ctx context.Context, id string) (entity.NotificationSubscription, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return entity.NotificationSubscription{}, err
	}
	return user.Subscription(), nil
}

func (r *MemoryUserRepository) UpdateNotificationSubscription(ctx context.Context, id string, sub entity.NotificationSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return errors.NotFound("User", nil)
	}
	user.NotificationToken = sub.Token
	user.NotificationEnabled = sub.Enabled
	user.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) ClearNotificationSubscription(ctx context.Context, id, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return false, errors.NotFound("User", nil)
	}
	if user.NotificationToken != token {
		return false, nil
	}
	user.NotificationToken = ""
	user.NotificationEnabled = false
	user.UpdatedAt = time.Now()
	return true, nil
}
