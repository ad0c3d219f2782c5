// Package persistence selects the user store backing the repository interfaces.
package persistence

import (
	"log/slog"

	"account/config"
	domainerrors "account/internal/domain/errors"
	"account/internal/domain/repository"
	"account/internal/domain/service"
	"account/internal/errors"
	"account/internal/infra/persistence/memory"
	"account/internal/infra/persistence/postgres"

	"go.uber.org/fx"
)

// Params defines the dependencies of the store provider.
type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
	Clock     service.Clock
}

// NewTransactionManager opens the store named by storage.driver.
func NewTransactionManager(params Params) (repository.TransactionManager, error) {
	switch params.Config.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return nil, err
		}

		return postgres.NewTransactionManager(db), nil
	case config.StorageDriverMemory:
		params.Logger.Warn("Using in-memory user store, accounts are lost on restart")

		return memory.NewTransactionManager(params.Clock), nil
	default:
		return nil, errors.Wrapf(domainerrors.ErrConfiguration, "unknown storage driver %q", params.Config.Storage.Driver)
	}
}
