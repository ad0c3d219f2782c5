package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"account/config"
	"account/internal/delivery/api/middleware"
	"account/internal/delivery/api/router"
	"account/internal/delivery/api/router/handler"
	"account/internal/domain/entity"
	domainerrors "account/internal/domain/errors"
	"account/internal/errors"
	usecasemocks "account/internal/mocks/usecase"
	"account/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validToken = "valid-token"

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

type apiFixture struct {
	echo     *echo.Echo
	users    *usecasemocks.MockUserUsecase
	sessions *usecasemocks.MockSessionUsecase
	profiles *usecasemocks.MockProfileUsecase
	caller   *entity.User
}

func newTestConfig() *config.Config {
	cfg := &config.Config{Auth: &config.AuthConfig{}}
	cfg.HTTP.MaxRequestBodySize = "100KB"

	return cfg
}

func newAPIFixture(t *testing.T, cfg *config.Config) *apiFixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	f := &apiFixture{
		users:    usecasemocks.NewMockUserUsecase(t),
		sessions: usecasemocks.NewMockSessionUsecase(t),
		profiles: usecasemocks.NewMockProfileUsecase(t),
		caller: &entity.User{
			ID:    uuid.New(),
			Name:  "Ana",
			Email: "ana@x.com",
		},
	}

	f.echo = newEcho(cfg, logger, router.RouterParams{
		UserHandler: handler.NewUserHandler(handler.UserHandlerParams{
			UserUC:    f.users,
			ProfileUC: f.profiles,
			Logger:    logger,
		}),
		AuthMiddleware: middleware.NewAuthMiddleware(middleware.AuthMiddlewareParams{
			SessionUC: f.sessions,
			Logger:    logger,
		}),
		Config: cfg,
	})

	return f
}

func (f *apiFixture) expectCaller() {
	f.sessions.EXPECT().Authorize(mock.Anything, validToken).Return(f.caller, nil)
}

func (f *apiFixture) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	var body envelope
	raw, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}

	return rec, body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	return req
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)

	return req
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t, newTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec, body := f.do(t, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "req-42", body.Meta.RequestID)
	assert.JSONEq(t, `{"status":"ok"}`, string(body.Data))
}

func TestRegister(t *testing.T) {
	f := newAPIFixture(t, newTestConfig())
	created := &entity.User{ID: uuid.New(), Name: "Ana", Email: "ana@x.com", PasswordHash: "$2a$10$hash"}

	f.users.EXPECT().
		RegisterUser(mock.Anything, &usecase.RegisterUserInput{Name: "Ana", Email: "ana@x.com", Password: "pw123"}).
		Return(&usecase.RegisterOutput{User: created}, nil)

	rec, body := f.do(t, jsonRequest(http.MethodPost, "/register", `{"name":"Ana","email":"ana@x.com","password":"pw123"}`))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"user_id":"`+created.ID.String()+`","name":"Ana","email":"ana@x.com"}`, string(body.Data))
	assert.NotContains(t, rec.Body.String(), "hash")
}

func TestRegister_ValidationFailure(t *testing.T) {
	f := newAPIFixture(t, newTestConfig())

	rec, body := f.do(t, jsonRequest(http.MethodPost, "/register", `{"name":"Ana","email":"not-an-email","password":"pw123"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	assert.JSONEq(t, `[{"field":"email","rule":"email"}]`, string(body.Error.Details))
}

func TestRegister_MalformedBody(t *testing.T) {
	f := newAPIFixture(t, newTestConfig())

	rec, body := f.do(t, jsonRequest(http.MethodPost, "/register", `{"name":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAPIFixture(t, newTestConfig())

	f.users.EXPECT().RegisterUser(mock.Anything, mock.Anything).
		Return(nil, errors.Wrap(domainerrors.ErrDuplicateEmail, "email ana@x.com"))

	rec, body := f.do(t, jsonRequest(http.MethodPost, "/register", `{"name":"Ana","email":"ana@x.com","password":"pw123"}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "DUPLICATE_EMAIL", body.Error.Code)
}

func TestLogin(t *testing.T) {
	expiresAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	output := &usecase.LoginOutput{
		AccessToken: &entity.AccessToken{Token: "signed.jwt.value", Kind: entity.TokenKindBearer, ExpiresAt: expiresAt},
	}
	want := &usecase.LoginInput{Email: "ana@x.com", Password: "pw123"}

	tests := []struct {
		name string
		req  func() *http.Request
	}{
		{
			name: "json body",
			req: func() *http.Request {
				return jsonRequest(http.MethodPost, "/login", `{"email":"ana@x.com","password":"pw123"}`)
			},
		},
		{
			name: "password form",
			req: func() *http.Request {
				form := url.Values{"username": {"ana@x.com"}, "password": {"pw123"}}
				req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
				req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

				return req
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t, newTestConfig())
			f.users.EXPECT().Login(mock.Anything, want).Return(output, nil)

			rec, body := f.do(t, tt.req())

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"access_token":"signed.jwt.value","token_type":"bearer","expires_at":"2026-01-02T03:04:05Z"}`, string(body.Data))
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newAPIFixture(t, newTestConfig())

	f.users.EXPECT().Login(mock.Anything, mock.Anything).Return(nil, domainerrors.ErrInvalidCredentials)

	rec, body := f.do(t, jsonRequest(http.MethodPost, "/login", `{"email":"ana@x.com","password":"nope"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", body.Error.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderWWWAuthenticate))
}

func TestListUsers_RequiresBearer(t *testing.T) {
	f := newAPIFixture(t, newTestConfig())

	rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
	require.NotNil(t, body.Error)
	assert.Equal(t, "UNAUTHENTICATED", body.Error.Code)
}

func TestListUsers_WithBearer(t *testing.T) {
	f := newAPIFixture(t, newTestConfig())
	f.expectCaller()
	f.profiles.EXPECT().ListUsers(mock.Anything).Return([]*entity.User{f.caller}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "bearer "+validToken)
	rec, body := f.do(t, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"user_id":"`+f.caller.ID.String()+`","name":"Ana","email":"ana@x.com"}]`, string(body.Data))
}

func TestListUsers_Public(t *testing.T) {
	cfg := newTestConfig()
	cfg.Auth.PublicUserList = true
	f := newAPIFixture(t, cfg)
	f.profiles.EXPECT().ListUsers(mock.Anything).Return([]*entity.User{}, nil)

	rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(body.Data))
}

func TestGetProfile(t *testing.T) {
	f := newAPIFixture(t, newTestConfig())
	f.expectCaller()
	other := &entity.User{ID: uuid.New(), Name: "Bo", Email: "bo@x.com"}
	f.profiles.EXPECT().GetProfile(mock.Anything, other.ID).Return(other, nil)

	rec, body := f.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/profile/"+other.ID.String(), nil), validToken))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"`+other.ID.String()+`","name":"Bo","email":"bo@x.com"}`, string(body.Data))
}

func TestGetProfile_Errors(t *testing.T) {
	missingID := uuid.New()

	tests := []struct {
		name       string
		path       string
		setup      func(f *apiFixture)
		wantStatus int
		wantCode   string
	}{
		{
			name: "rejected token",
			path: "/profile/" + missingID.String(),
			setup: func(f *apiFixture) {
				f.sessions.EXPECT().Authorize(mock.Anything, validToken).
					Return(nil, errors.Wrap(domainerrors.ErrUnauthenticated, "token expired"))
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHENTICATED",
		},
		{
			name:       "malformed id",
			path:       "/profile/42",
			setup:      func(f *apiFixture) { f.expectCaller() },
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name: "unknown user",
			path: "/profile/" + missingID.String(),
			setup: func(f *apiFixture) {
				f.expectCaller()
				f.profiles.EXPECT().GetProfile(mock.Anything, missingID).Return(nil, domainerrors.ErrUserNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "USER_NOT_FOUND",
		},
		{
			name: "store unavailable",
			path: "/profile/" + missingID.String(),
			setup: func(f *apiFixture) {
				f.expectCaller()
				f.profiles.EXPECT().GetProfile(mock.Anything, missingID).
					Return(nil, domainerrors.NewDatabaseExecuteError(errors.New("connection refused"), "find user"))
			},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "STORE_UNAVAILABLE",
		},
		{
			name: "unexpected failure",
			path: "/profile/" + missingID.String(),
			setup: func(f *apiFixture) {
				f.expectCaller()
				f.profiles.EXPECT().GetProfile(mock.Anything, missingID).Return(nil, errors.New("boom"))
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t, newTestConfig())
			tt.setup(f)

			rec, body := f.do(t, withBearer(httptest.NewRequest(http.MethodGet, tt.path, nil), validToken))

			assert.Equal(t, tt.wantStatus, rec.Code)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestUpdateProfile_Self(t *testing.T) {
	f := newAPIFixture(t, newTestConfig())
	f.expectCaller()
	newName := "Anita"
	updated := &entity.User{ID: f.caller.ID, Name: newName, Email: f.caller.Email}
	f.users.EXPECT().
		UpdateUser(mock.Anything, f.caller.ID, &usecase.UpdateUserInput{Name: &newName}).
		Return(updated, nil)

	req := withBearer(jsonRequest(http.MethodPut, "/profile/"+f.caller.ID.String(), `{"name":"Anita"}`), validToken)
	rec, body := f.do(t, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"`+f.caller.ID.String()+`","name":"Anita","email":"ana@x.com"}`, string(body.Data))
}

func TestUpdateProfile_OtherUserForbidden(t *testing.T) {
	f := newAPIFixture(t, newTestConfig())
	f.expectCaller()

	req := withBearer(jsonRequest(http.MethodPut, "/profile/"+uuid.NewString(), `{"name":"Mallory"}`), validToken)
	rec, body := f.do(t, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "FORBIDDEN", body.Error.Code)
}

func TestUpdateProfile_EmptyNameRejected(t *testing.T) {
	f := newAPIFixture(t, newTestConfig())
	f.expectCaller()

	req := withBearer(jsonRequest(http.MethodPut, "/profile/"+f.caller.ID.String(), `{"name":""}`), validToken)
	rec, body := f.do(t, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.JSONEq(t, `[{"field":"name","rule":"min"}]`, string(body.Error.Details))
}

func TestUnknownRoute(t *testing.T) {
	f := newAPIFixture(t, newTestConfig())

	rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "HTTP_ERROR", body.Error.Code)
}
