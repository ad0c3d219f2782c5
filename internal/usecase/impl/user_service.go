// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "account/internal/delivery/context"
	"account/internal/domain/entity"
	domainerrors "account/internal/domain/errors"
	"account/internal/domain/repository"
	"account/internal/domain/service"
	"account/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// eventPublishTimeout bounds the best-effort publish after a write has committed.
const eventPublishTimeout = 3 * time.Second

// userService implements the UserUsecase interface.
type userService struct {
	txManager    repository.TransactionManager
	hasher       service.PasswordHasher
	tokenService service.TokenService
	publisher    service.EventPublisher
	clock        service.Clock
	logger       *slog.Logger
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Publisher    service.EventPublisher
	Clock        service.Clock
	Logger       *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager:    params.TxManager,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		publisher:    params.Publisher,
		clock:        params.Clock,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RegisterUser validates and hashes the password, then inserts the account if the email is free.
// Hashing runs before the transaction so no store connection is held during bcrypt.
func (srv *userService) RegisterUser(ctx context.Context, input *usecase.RegisterUserInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting user registration", slog.String("email", input.Email))

	hashedPassword, err := srv.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	newUser := &entity.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hashedPassword,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		_, err := userRepo.FindByEmail(ctx, input.Email)
		if err == nil {
			return domainerrors.ErrDuplicateEmail.WrapMessage("user registration failed")
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to find user by email")
		}

		return errors.WithStack(userRepo.Create(ctx, newUser))
	})
	if err != nil {
		srv.logFailure(ctx, "Failed to register user", err, slog.String("email", input.Email))

		return nil, errors.Wrap(err, "failed to execute user registration transaction")
	}

	srv.log(ctx).Debug("User registered successfully", slog.String("user_id", newUser.ID.String()))
	srv.publishEvent(ctx, service.EventUserRegistered, newUser)

	return &usecase.RegisterOutput{User: newUser}, nil
}

// Authenticate returns the account only when the password matches its stored hash.
func (srv *userService) Authenticate(ctx context.Context, input *usecase.LoginInput) (*entity.User, error) {
	var user *entity.User

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		foundUser, err := repoFactory.UserRepo().FindByEmail(ctx, input.Email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrInvalidCredentials
			}

			return errors.Wrap(err, "failed to find user by email")
		}
		user = foundUser

		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidCredentials) {
			srv.log(ctx).Info("Login rejected", slog.String("email", input.Email))
		} else {
			srv.log(ctx).Error("Failed to look up credentials", slog.String("email", input.Email), slog.Any("error", err))
		}

		return nil, errors.Wrap(err, "failed to authenticate user")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Info("Login rejected", slog.String("email", input.Email))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "failed to authenticate user")
	}

	return user, nil
}

// Login authenticates the user and issues a bearer token for them.
func (srv *userService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	user, err := srv.Authenticate(ctx, input)
	if err != nil {
		return nil, err
	}

	token, err := srv.tokenService.Issue(user.ID, srv.clock.Now())
	if err != nil {
		srv.log(ctx).Error("Failed to issue access token", slog.String("user_id", user.ID.String()), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrInternalError, err.Error())
	}

	srv.log(ctx).Debug("User logged in", slog.String("user_id", user.ID.String()))

	return &usecase.LoginOutput{AccessToken: token, User: user}, nil
}

// UpdateUser applies the present fields of input. A changed email must not belong to another user.
func (srv *userService) UpdateUser(ctx context.Context, userID uuid.UUID, input *usecase.UpdateUserInput) (*entity.User, error) {
	var hashedPassword string
	if input.Password != nil {
		var err error
		if hashedPassword, err = srv.hashPassword(*input.Password); err != nil {
			return nil, err
		}
	}

	var updatedUser *entity.User

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, err := userRepo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound
			}

			return errors.Wrap(err, "failed to find user")
		}

		if input.Email != nil && *input.Email != user.Email {
			if err := ensureEmailAvailable(ctx, userRepo, *input.Email, userID); err != nil {
				return err
			}
			user.Email = *input.Email
		}
		if input.Name != nil {
			user.Name = *input.Name
		}
		if input.Password != nil {
			user.PasswordHash = hashedPassword
		}

		if err := userRepo.Update(ctx, user); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound
			}

			return errors.Wrap(err, "failed to update user")
		}
		updatedUser = user

		return nil
	})
	if err != nil {
		srv.logFailure(ctx, "Failed to update user", err, slog.String("user_id", userID.String()))

		return nil, errors.Wrap(err, "failed to execute user update transaction")
	}

	srv.log(ctx).Debug("User updated successfully", slog.String("user_id", userID.String()))
	srv.publishEvent(ctx, service.EventUserUpdated, updatedUser)

	return updatedUser, nil
}

func ensureEmailAvailable(ctx context.Context, userRepo repository.UserRepository, email string, owner uuid.UUID) error {
	existing, err := userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to find user by email")
	}
	if existing.ID != owner {
		return domainerrors.ErrDuplicateEmail.WrapMessage("email already in use")
	}

	return nil
}

func (srv *userService) hashPassword(password string) (string, error) {
	if err := srv.hasher.ValidatePasswordStrength(password); err != nil {
		return "", errors.WithStack(err)
	}

	hashed, err := srv.hasher.Hash(password)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}

	return hashed, nil
}

// logFailure logs expected business rejections at info and everything else at error.
func (srv *userService) logFailure(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	level := slog.LevelError
	if errors.Is(err, domainerrors.ErrDuplicateEmail) || errors.Is(err, domainerrors.ErrUserNotFound) {
		level = slog.LevelInfo
	}

	srv.log(ctx).LogAttrs(ctx, level, msg, append(attrs, slog.Any("error", err))...)
}

// publishEvent is best effort: a failure is logged and never reaches the caller.
func (srv *userService) publishEvent(ctx context.Context, eventType string, user *entity.User) {
	if srv.publisher == nil {
		return
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()

	event := &service.AccountEvent{
		RequestID:  deliverycontext.GetRequestIDFromContext(ctx),
		EventType:  eventType,
		UserID:     user.ID.String(),
		Email:      user.Email,
		OccurredAt: srv.clock.Now(),
	}

	if err := srv.publisher.PublishAccountEvent(publishCtx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish account event",
			slog.String("event_type", eventType),
			slog.String("user_id", event.UserID),
			slog.Any("error", err),
		)
	}
}
