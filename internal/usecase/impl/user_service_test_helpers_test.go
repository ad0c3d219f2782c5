package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"account/internal/domain/repository"
	"account/internal/domain/service"
	mockRepo "account/internal/mocks/repository"

	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixedClock() service.Clock {
	return service.ClockFunc(func() time.Time { return testNow })
}

// expectTransaction runs the transaction body against userRepo and returns its error,
// so rollbacks propagate the same way the real managers do.
func expectTransaction(t *testing.T, txManager *mockRepo.MockTransactionManager, userRepo *mockRepo.MockUserRepository) *mockRepo.MockTransactionManager_Execute_Call {
	t.Helper()

	return txManager.EXPECT().
		Execute(mock.Anything, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(_ context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockFactory.EXPECT().UserRepo().Return(userRepo)

			return fn(mockFactory)
		})
}
