package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"helperhub/internal/domain/entity"
	"helperhub/internal/domain/repository"
	"helperhub/pkg/errors"
	"helperhub/pkg/utils"
)

type MemoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]*entity.Notification
}

var _ repository.NotificationRepository = (*MemoryNotificationRepository)(nil)

func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{
		notifications: make(map[string]*entity.Notification),
	}
}

func (r *MemoryNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *notification
	r.notifications[notification.ID] = &copied
	return nil
}

func (r *MemoryNotificationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	r.mu.RLock()
	var owned []*entity.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			copied := *n
			owned = append(owned, &copied)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	start, end := utils.Window(len(owned), offset, limit)
	return owned[start:end], int64(len(owned)), nil
}

func (r *MemoryNotificationRepository) MarkRead(ctx context.Context, userID, id string) (*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return nil, errors.NotFound("Notification", nil)
	}
	n.IsRead = true
	copied := *n
	return &copied, nil
}

func (r *MemoryNotificationRepository) DeleteByUser(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, n := range r.notifications {
		if n.UserID == userID {
			delete(r.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *MemoryNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}
