package middleware

import (
	"log/slog"
	"strings"

	deliverycontext "account/internal/delivery/context"
	"account/internal/domain/entity"
	domainerrors "account/internal/domain/errors"
	"account/internal/errors"
	"account/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const bearerScheme = "bearer"

// AuthMiddleware resolves the bearer token of a request into the account it was issued to.
type AuthMiddleware struct {
	sessionUC usecase.SessionUsecase
	logger    *slog.Logger
}

// AuthMiddlewareParams holds dependencies for AuthMiddleware
type AuthMiddlewareParams struct {
	fx.In

	SessionUC usecase.SessionUsecase
	Logger    *slog.Logger
}

// NewAuthMiddleware creates a new bearer authentication middleware
func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	return &AuthMiddleware{
		sessionUC: params.SessionUC,
		logger:    params.Logger,
	}
}

// Authenticate rejects requests without a valid bearer token and stores the account on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return domainerrors.ErrUnauthenticated.WrapMessage("missing bearer token")
		}

		user, err := m.sessionUC.Authorize(c.Request().Context(), token)
		if err != nil {
			return errors.WithStack(err)
		}

		deliverycontext.SetCurrentUser(c, user)

		return next(c)
	}
}

// GetCurrentUser returns the account resolved by Authenticate.
func GetCurrentUser(c echo.Context) (*entity.User, error) {
	user, ok := deliverycontext.GetCurrentUser(c)
	if !ok {
		return nil, domainerrors.ErrUnauthenticated.WrapMessage("no authenticated user on request")
	}

	return user, nil
}

// GetUserID returns the ID of the account resolved by Authenticate.
func GetUserID(c echo.Context) (uuid.UUID, error) {
	user, err := GetCurrentUser(c)
	if err != nil {
		return uuid.Nil, err
	}

	return user.ID, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}
