package impl

import (
	"context"
	"testing"
	"time"

	"account/internal/domain/entity"
	domainerrors "account/internal/domain/errors"
	"account/internal/domain/repository"
	"account/internal/domain/service"
	mockRepo "account/internal/mocks/repository"
	mockSvc "account/internal/mocks/service"
	"account/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// userServiceFixtures holds all test dependencies for user service tests.
type userServiceFixtures struct {
	service   usecase.UserUsecase
	txManager *mockRepo.MockTransactionManager
	userRepo  *mockRepo.MockUserRepository
	hasher    *mockSvc.MockPasswordHasher
	tokens    *mockSvc.MockTokenService
	publisher *mockSvc.MockEventPublisher
}

func createTestUserService(t *testing.T) userServiceFixtures {
	fx := userServiceFixtures{
		txManager: mockRepo.NewMockTransactionManager(t),
		userRepo:  mockRepo.NewMockUserRepository(t),
		hasher:    mockSvc.NewMockPasswordHasher(t),
		tokens:    mockSvc.NewMockTokenService(t),
		publisher: mockSvc.NewMockEventPublisher(t),
	}

	fx.service = NewUserService(UserServiceParams{
		TxManager:    fx.txManager,
		Hasher:       fx.hasher,
		TokenService: fx.tokens,
		Publisher:    fx.publisher,
		Clock:        newFixedClock(),
		Logger:       newDiscardLogger(),
	})

	return fx
}

func eventOfType(eventType string) any {
	return mock.MatchedBy(func(event *service.AccountEvent) bool {
		return event.EventType == eventType
	})
}

func TestUserService_RegisterUser_Success(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	newID := uuid.New()

	fx.hasher.EXPECT().ValidatePasswordStrength("pw123").Return(nil)
	fx.hasher.EXPECT().Hash("pw123").Return("$2a$04$hashed", nil)
	expectTransaction(t, fx.txManager, fx.userRepo)
	fx.userRepo.EXPECT().FindByEmail(ctx, "ana@x.com").Return(nil, repository.ErrUserNotFound)
	fx.userRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.User")).
		Run(func(_ context.Context, user *entity.User) {
			user.ID = newID
			user.CreatedAt = testNow
			user.UpdatedAt = testNow
		}).
		Return(nil)
	fx.publisher.EXPECT().PublishAccountEvent(mock.Anything, mock.MatchedBy(func(event *service.AccountEvent) bool {
		return event.EventType == service.EventUserRegistered &&
			event.UserID == newID.String() &&
			event.Email == "ana@x.com" &&
			event.OccurredAt.Equal(testNow)
	})).Return(nil)

	out, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{Name: "Ana", Email: "ana@x.com", Password: "pw123"})

	require.NoError(t, err)
	assert.Equal(t, newID, out.User.ID)
	assert.Equal(t, "Ana", out.User.Name)
	assert.Equal(t, "ana@x.com", out.User.Email)
	assert.Equal(t, "$2a$04$hashed", out.User.PasswordHash)
}

func TestUserService_RegisterUser_DuplicateEmail(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.hasher.EXPECT().ValidatePasswordStrength("pw123").Return(nil)
	fx.hasher.EXPECT().Hash("pw123").Return("hashed", nil)
	expectTransaction(t, fx.txManager, fx.userRepo)
	fx.userRepo.EXPECT().FindByEmail(ctx, "ana@x.com").Return(&entity.User{ID: uuid.New(), Email: "ana@x.com"}, nil)

	out, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{Name: "Ana", Email: "ana@x.com", Password: "pw123"})

	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domainerrors.ErrDuplicateEmail))
}

func TestUserService_RegisterUser_StoreConstraintRace(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.hasher.EXPECT().ValidatePasswordStrength("pw123").Return(nil)
	fx.hasher.EXPECT().Hash("pw123").Return("hashed", nil)
	expectTransaction(t, fx.txManager, fx.userRepo)
	fx.userRepo.EXPECT().FindByEmail(ctx, "ana@x.com").Return(nil, repository.ErrUserNotFound)
	fx.userRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.User")).
		Return(domainerrors.ErrDuplicateEmail.WrapMessage("email already exists"))

	_, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{Name: "Ana", Email: "ana@x.com", Password: "pw123"})

	assert.True(t, errors.Is(err, domainerrors.ErrDuplicateEmail))
}

func TestUserService_RegisterUser_WeakPassword(t *testing.T) {
	fx := createTestUserService(t)

	fx.hasher.EXPECT().ValidatePasswordStrength("").
		Return(domainerrors.ErrValidationFailed.WrapMessage("password must not be empty"))

	_, err := fx.service.RegisterUser(context.Background(), &usecase.RegisterUserInput{Name: "Ana", Email: "ana@x.com"})

	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestUserService_RegisterUser_StoreUnavailable(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.hasher.EXPECT().ValidatePasswordStrength("pw123").Return(nil)
	fx.hasher.EXPECT().Hash("pw123").Return("hashed", nil)
	expectTransaction(t, fx.txManager, fx.userRepo)
	fx.userRepo.EXPECT().FindByEmail(ctx, "ana@x.com").
		Return(nil, domainerrors.NewDatabaseExecuteError(errors.New("connection refused"), "failed to find user by email"))

	_, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{Name: "Ana", Email: "ana@x.com", Password: "pw123"})

	assert.True(t, errors.Is(err, domainerrors.ErrStoreUnavailable))
}

func TestUserService_RegisterUser_PublishFailureIsIgnored(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.hasher.EXPECT().ValidatePasswordStrength("pw123").Return(nil)
	fx.hasher.EXPECT().Hash("pw123").Return("hashed", nil)
	expectTransaction(t, fx.txManager, fx.userRepo)
	fx.userRepo.EXPECT().FindByEmail(ctx, "ana@x.com").Return(nil, repository.ErrUserNotFound)
	fx.userRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.User")).Return(nil)
	fx.publisher.EXPECT().PublishAccountEvent(mock.Anything, eventOfType(service.EventUserRegistered)).
		Return(errors.New("topic unavailable"))

	out, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{Name: "Ana", Email: "ana@x.com", Password: "pw123"})

	require.NoError(t, err)
	assert.NotNil(t, out.User)
}

func TestUserService_Login_Success(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Name: "Ana", Email: "ana@x.com", PasswordHash: "hashed"}
	token := &entity.AccessToken{
		Token:     "signed",
		Kind:      entity.TokenKindBearer,
		Subject:   user.ID,
		IssuedAt:  testNow,
		ExpiresAt: testNow.Add(30 * time.Minute),
	}

	expectTransaction(t, fx.txManager, fx.userRepo)
	fx.userRepo.EXPECT().FindByEmail(ctx, "ana@x.com").Return(user, nil)
	fx.hasher.EXPECT().Check("pw123", "hashed").Return(true)
	fx.tokens.EXPECT().Issue(user.ID, testNow).Return(token, nil)

	out, err := fx.service.Login(ctx, &usecase.LoginInput{Email: "ana@x.com", Password: "pw123"})

	require.NoError(t, err)
	assert.Equal(t, token, out.AccessToken)
	assert.Equal(t, user, out.User)
}

func TestUserService_Authenticate_FailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()

	unknown := createTestUserService(t)
	expectTransaction(t, unknown.txManager, unknown.userRepo)
	unknown.userRepo.EXPECT().FindByEmail(ctx, "nouser@x.com").Return(nil, repository.ErrUserNotFound)

	_, unknownErr := unknown.service.Authenticate(ctx, &usecase.LoginInput{Email: "nouser@x.com", Password: "anything"})

	wrong := createTestUserService(t)
	expectTransaction(t, wrong.txManager, wrong.userRepo)
	wrong.userRepo.EXPECT().FindByEmail(ctx, "ana@x.com").
		Return(&entity.User{ID: uuid.New(), Email: "ana@x.com", PasswordHash: "hashed"}, nil)
	wrong.hasher.EXPECT().Check("wrong", "hashed").Return(false)

	_, wrongErr := wrong.service.Authenticate(ctx, &usecase.LoginInput{Email: "ana@x.com", Password: "wrong"})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.True(t, errors.Is(unknownErr, domainerrors.ErrInvalidCredentials))
	assert.True(t, errors.Is(wrongErr, domainerrors.ErrInvalidCredentials))

	var unknownApp, wrongApp domainerrors.AppError
	require.True(t, errors.As(unknownErr, &unknownApp))
	require.True(t, errors.As(wrongErr, &wrongApp))
	assert.Equal(t, unknownApp.ErrorCode(), wrongApp.ErrorCode())
	assert.Equal(t, unknownApp.Message(), wrongApp.Message())
}

func TestUserService_Login_IssueFailure(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Email: "ana@x.com", PasswordHash: "hashed"}

	expectTransaction(t, fx.txManager, fx.userRepo)
	fx.userRepo.EXPECT().FindByEmail(ctx, "ana@x.com").Return(user, nil)
	fx.hasher.EXPECT().Check("pw123", "hashed").Return(true)
	fx.tokens.EXPECT().Issue(user.ID, testNow).Return(nil, errors.New("sign failed"))

	_, err := fx.service.Login(ctx, &usecase.LoginInput{Email: "ana@x.com", Password: "pw123"})

	assert.True(t, errors.Is(err, domainerrors.ErrInternalError))
}

func strPtr(s string) *string {
	return &s
}

func TestUserService_UpdateUser_Name(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	userID := uuid.New()
	existing := &entity.User{ID: userID, Name: "Ana", Email: "ana@x.com", PasswordHash: "hashed"}

	expectTransaction(t, fx.txManager, fx.userRepo)
	fx.userRepo.EXPECT().FindByID(ctx, userID).Return(existing, nil)
	fx.userRepo.EXPECT().Update(ctx, mock.MatchedBy(func(user *entity.User) bool {
		return user.Name == "Anita" && user.Email == "ana@x.com" && user.PasswordHash == "hashed"
	})).Return(nil)
	fx.publisher.EXPECT().PublishAccountEvent(mock.Anything, eventOfType(service.EventUserUpdated)).Return(nil)

	updated, err := fx.service.UpdateUser(ctx, userID, &usecase.UpdateUserInput{Name: strPtr("Anita")})

	require.NoError(t, err)
	assert.Equal(t, "Anita", updated.Name)
	assert.Equal(t, "ana@x.com", updated.Email)
}

func TestUserService_UpdateUser_Password(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	userID := uuid.New()

	fx.hasher.EXPECT().ValidatePasswordStrength("newpw").Return(nil)
	fx.hasher.EXPECT().Hash("newpw").Return("newhash", nil)
	expectTransaction(t, fx.txManager, fx.userRepo)
	fx.userRepo.EXPECT().FindByID(ctx, userID).Return(&entity.User{ID: userID, Email: "ana@x.com", PasswordHash: "oldhash"}, nil)
	fx.userRepo.EXPECT().Update(ctx, mock.MatchedBy(func(user *entity.User) bool {
		return user.PasswordHash == "newhash"
	})).Return(nil)
	fx.publisher.EXPECT().PublishAccountEvent(mock.Anything, eventOfType(service.EventUserUpdated)).Return(nil)

	updated, err := fx.service.UpdateUser(ctx, userID, &usecase.UpdateUserInput{Password: strPtr("newpw")})

	require.NoError(t, err)
	assert.Equal(t, "newhash", updated.PasswordHash)
}

func TestUserService_UpdateUser_Email(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("taken by another user", func(t *testing.T) {
		fx := createTestUserService(t)
		expectTransaction(t, fx.txManager, fx.userRepo)
		fx.userRepo.EXPECT().FindByID(ctx, userID).Return(&entity.User{ID: userID, Email: "ana@x.com"}, nil)
		fx.userRepo.EXPECT().FindByEmail(ctx, "bob@x.com").Return(&entity.User{ID: uuid.New(), Email: "bob@x.com"}, nil)

		_, err := fx.service.UpdateUser(ctx, userID, &usecase.UpdateUserInput{Email: strPtr("bob@x.com")})

		assert.True(t, errors.Is(err, domainerrors.ErrDuplicateEmail))
	})

	t.Run("unchanged email skips the lookup", func(t *testing.T) {
		fx := createTestUserService(t)
		expectTransaction(t, fx.txManager, fx.userRepo)
		fx.userRepo.EXPECT().FindByID(ctx, userID).Return(&entity.User{ID: userID, Email: "ana@x.com"}, nil)
		fx.userRepo.EXPECT().Update(ctx, mock.AnythingOfType("*entity.User")).Return(nil)
		fx.publisher.EXPECT().PublishAccountEvent(mock.Anything, eventOfType(service.EventUserUpdated)).Return(nil)

		updated, err := fx.service.UpdateUser(ctx, userID, &usecase.UpdateUserInput{Email: strPtr("ana@x.com")})

		require.NoError(t, err)
		assert.Equal(t, "ana@x.com", updated.Email)
	})

	t.Run("free email", func(t *testing.T) {
		fx := createTestUserService(t)
		expectTransaction(t, fx.txManager, fx.userRepo)
		fx.userRepo.EXPECT().FindByID(ctx, userID).Return(&entity.User{ID: userID, Email: "ana@x.com"}, nil)
		fx.userRepo.EXPECT().FindByEmail(ctx, "anita@x.com").Return(nil, repository.ErrUserNotFound)
		fx.userRepo.EXPECT().Update(ctx, mock.MatchedBy(func(user *entity.User) bool {
			return user.Email == "anita@x.com"
		})).Return(nil)
		fx.publisher.EXPECT().PublishAccountEvent(mock.Anything, eventOfType(service.EventUserUpdated)).Return(nil)

		updated, err := fx.service.UpdateUser(ctx, userID, &usecase.UpdateUserInput{Email: strPtr("anita@x.com")})

		require.NoError(t, err)
		assert.Equal(t, "anita@x.com", updated.Email)
	})
}

func TestUserService_UpdateUser_NotFound(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	userID := uuid.New()

	expectTransaction(t, fx.txManager, fx.userRepo)
	fx.userRepo.EXPECT().FindByID(ctx, userID).Return(nil, repository.ErrUserNotFound)

	_, err := fx.service.UpdateUser(ctx, userID, &usecase.UpdateUserInput{Name: strPtr("Anita")})

	assert.True(t, errors.Is(err, domainerrors.ErrUserNotFound))
}
