package persistence

import (
	"log/slog"
	"testing"

	"account/config"
	domainerrors "account/internal/domain/errors"
	"account/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func TestNewTransactionManager(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	logger := slog.New(slog.DiscardHandler)

	memCfg := &config.Config{Storage: config.StorageConfig{Driver: config.StorageDriverMemory}}
	tm, err := NewTransactionManager(Params{Lifecycle: lc, Config: memCfg, Logger: logger, Clock: service.NewSystemClock()})
	require.NoError(t, err)
	assert.NotNil(t, tm)

	badCfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}
	tm, err = NewTransactionManager(Params{Lifecycle: lc, Config: badCfg, Logger: logger, Clock: service.NewSystemClock()})
	assert.Nil(t, tm)
	assert.True(t, errors.Is(err, domainerrors.ErrConfiguration))
}
