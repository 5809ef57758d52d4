package services

import (
	"context"
	"errors"
	"fmt"

	"sportsbuddy/internal/domain"
)

type authenticator struct {
	verifier domain.TokenVerifier
	userRepo domain.UserRepository
}

// NewAuthenticator returns an Authenticator that checks the token signature
// with verifier and then reloads the user from userRepo.
func NewAuthenticator(verifier domain.TokenVerifier, userRepo domain.UserRepository) domain.Authenticator {
	return &authenticator{verifier: verifier, userRepo: userRepo}
}

// Authenticate fails with domain.ErrUnauthenticated when the token is invalid
// or its user no longer exists. Any other error is a storage failure.
func (a *authenticator) Authenticate(ctx context.Context, token string) (domain.Requester, error) {
	claimed, err := a.verifier.Verify(token)
	if err != nil {
		return domain.Requester{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	user, err := a.userRepo.GetByID(ctx, claimed.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Requester{}, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthenticated)
		}
		return domain.Requester{}, fmt.Errorf("failed to load user: %w", err)
	}
	return user.Requester(), nil
}
