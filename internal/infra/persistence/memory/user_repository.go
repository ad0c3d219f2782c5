package memory

import (
	"context"

	"account/internal/domain/entity"
	domainerrors "account/internal/domain/errors"
	"account/internal/domain/repository"
	"account/internal/domain/service"

	"github.com/google/uuid"
)

// userRepository works on the private snapshot of one transaction.
// Stored records are never handed out; callers always receive clones.
type userRepository struct {
	tx    *snapshot
	clock service.Clock
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	user, ok := repo.tx.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return user.Clone(), nil
}

// FindByEmail retrieves a single user by their email address.
func (repo *userRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	if user := repo.findByEmail(email); user != nil {
		return user.Clone(), nil
	}

	return nil, repository.ErrUserNotFound
}

// List returns every user in insertion order, which is creation order.
func (repo *userRepository) List(_ context.Context) ([]*entity.User, error) {
	users := make([]*entity.User, 0, len(repo.tx.order))
	for _, id := range repo.tx.order {
		users = append(users, repo.tx.users[id].Clone())
	}

	return users, nil
}

// Create inserts a new user and assigns its ID and timestamps.
func (repo *userRepository) Create(_ context.Context, user *entity.User) error {
	if repo.findByEmail(user.Email) != nil {
		return domainerrors.ErrDuplicateEmail.WrapMessage("email already exists")
	}

	now := repo.clock.Now()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now

	repo.tx.users[user.ID] = user.Clone()
	repo.tx.order = append(repo.tx.order, user.ID)

	return nil
}

// Update saves the mutable fields of an existing user.
func (repo *userRepository) Update(_ context.Context, user *entity.User) error {
	stored, ok := repo.tx.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}

	if other := repo.findByEmail(user.Email); other != nil && other.ID != user.ID {
		return domainerrors.ErrDuplicateEmail.WrapMessage("email already exists")
	}

	updated := stored.Clone()
	updated.Name = user.Name
	updated.Email = user.Email
	updated.PasswordHash = user.PasswordHash
	updated.UpdatedAt = repo.clock.Now()
	repo.tx.users[user.ID] = updated

	user.CreatedAt = updated.CreatedAt
	user.UpdatedAt = updated.UpdatedAt

	return nil
}

func (repo *userRepository) findByEmail(email string) *entity.User {
	for _, user := range repo.tx.users {
		if user.Email == email {
			return user
		}
	}

	return nil
}
