// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"account/internal/domain/entity"

	"github.com/google/uuid"
)

// ProfileUsecase defines the interface for profile read operations.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	ListUsers(ctx context.Context) ([]*entity.User, error)
}
