// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"account/internal/domain/entity"
)

// SessionUsecase resolves bearer tokens to the accounts they were issued for.
type SessionUsecase interface {
	// Authorize fails with ErrUnauthenticated for any token that does not verify and
	// with ErrUserNotFound when the subject no longer exists.
	Authorize(ctx context.Context, rawToken string) (*entity.User, error)
}
