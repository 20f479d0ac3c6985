package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// IDTokenVerifier is the part of *auth.Client used to authenticate callers.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type FirebaseAuthClient struct {
	client IDTokenVerifier
}

func NewFirebaseAuthClient(client IDTokenVerifier) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// VerifyToken checks a Firebase ID token and returns its uid.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}
