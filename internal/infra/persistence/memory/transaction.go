// Package memory is a process-local user store. Transactions are serialised under one
// mutex and applied to a private copy that replaces the committed state on success.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"account/internal/domain/entity"
	"account/internal/domain/repository"
	"account/internal/domain/service"

	"github.com/google/uuid"
)

// snapshot is the committed state of the store.
type snapshot struct {
	users map[uuid.UUID]*entity.User
	order []uuid.UUID
}

func (s *snapshot) clone() *snapshot {
	return &snapshot{
		users: maps.Clone(s.users),
		order: slices.Clone(s.order),
	}
}

// memoryTransactionManager implements repository.TransactionManager in memory.
type memoryTransactionManager struct {
	mu    sync.Mutex
	state *snapshot
	clock service.Clock
}

// memoryRepositoryFactory hands out repositories bound to one in-flight transaction.
type memoryRepositoryFactory struct {
	tx    *snapshot
	clock service.Clock
}

// UserRepo returns a user repository bound to the transaction.
func (f *memoryRepositoryFactory) UserRepo() repository.UserRepository {
	return &userRepository{tx: f.tx, clock: f.clock}
}

// NewTransactionManager creates an empty in-memory store.
func NewTransactionManager(clock service.Clock) repository.TransactionManager {
	return &memoryTransactionManager{
		state: &snapshot{users: make(map[uuid.UUID]*entity.User)},
		clock: clock,
	}
}

// Execute runs fn against a copy of the store and commits the copy if fn succeeds.
func (tm *memoryTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	tx := tm.state.clone()
	if err := fn(&memoryRepositoryFactory{tx: tx, clock: tm.clock}); err != nil {
		return err
	}

	tm.state = tx

	return nil
}
