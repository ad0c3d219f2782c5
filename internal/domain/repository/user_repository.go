// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"account/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned by a UserRepository when no record matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the standard operations for user persistence.
// Implementations enforce email uniqueness and report a violation as domainerrors.ErrDuplicateEmail.
// Any other infrastructure failure is reported as domainerrors.ErrStoreUnavailable.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// List returns every user ordered by creation time.
	List(ctx context.Context) ([]*entity.User, error)

	// Create inserts a new user. The store assigns ID and timestamps on the passed entity.
	Create(ctx context.Context, user *entity.User) error

	// Update saves the mutable fields of an existing user.
	Update(ctx context.Context, user *entity.User) error
}
