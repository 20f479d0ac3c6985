package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"helperhub/internal/domain/entity"
	"helperhub/internal/domain/repository"
	"helperhub/pkg/errors"
	"helperhub/pkg/logger"
)

const usersCollection = "users"

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	user.ID = doc.Ref.ID

	return &user, nil
}

func (r *firestoreUserRepository) GetNotificationSubscription(ctx context.Context, id string) (entity.NotificationSubscription, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return entity.NotificationSubscription{}, err
	}
	return user.Subscription(), nil
}

func (r *firestoreUserRepository) UpdateNotificationSubscription(ctx context.Context, id string, sub entity.NotificationSubscription) error {
	_, err := r.client.Collection(usersCollection).Doc(id).Set(ctx, map[string]interface{}{
		"notificationToken":   sub.Token,
		"notificationEnabled": sub.Enabled,
		"updatedAt":           time.Now(),
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to update notification settings", err)
	}
	return nil
}

// ClearNotificationSubscription compares and clears inside one transaction so a token
// registered after the failed push survives.
func (r *firestoreUserRepository) ClearNotificationSubscription(ctx context.Context, id, token string) (bool, error) {
	docRef := r.client.Collection(usersCollection).Doc(id)

	cleared := false
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		cleared = false

		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("User", nil)
			}
			return err
		}

		var user entity.User
		if err := doc.DataTo(&user); err != nil {
			return err
		}
		if user.NotificationToken != token {
			return nil
		}

		cleared = true
		return tx.Update(docRef, []firestore.Update{
			{Path: "notificationToken", Value: firestore.Delete},
			{Path: "notificationEnabled", Value: false},
			{Path: "updatedAt", Value: time.Now()},
		})
	})
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return false, errors.NotFound("User", err)
		}
		logger.Error("Firestore failed to clear notification subscription for user %s: %v", id, err)
		return false, errors.Internal("Failed to clear notification subscription", err)
	}
	return cleared, nil
}
