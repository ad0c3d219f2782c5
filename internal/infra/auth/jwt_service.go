package auth

import (
	"strings"
	"time"

	"account/config"
	"account/internal/domain/entity"
	domainerrors "account/internal/domain/errors"
	"account/internal/domain/service"
	"account/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
}

// NewJWTService is the constructor for jwtService.
// An empty secret or a non-HMAC algorithm aborts startup with ErrConfiguration.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if strings.TrimSpace(cfg.SecretKey.Access) == "" {
		return nil, domainerrors.ErrConfiguration.WrapMessage("jwt secret must be provided")
	}

	algorithm := "HS256"
	ttl := 30 * time.Minute
	if cfg.Auth != nil {
		if cfg.Auth.Algorithm != "" {
			algorithm = cfg.Auth.Algorithm
		}
		if cfg.Auth.TokenTTLMinutes > 0 {
			ttl = cfg.Auth.TokenTTL()
		}
	}

	method, ok := jwt.GetSigningMethod(strings.ToUpper(algorithm)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, errors.Wrapf(domainerrors.ErrConfiguration, "unsupported signing algorithm %q", algorithm)
	}

	return &jwtService{
		secret: []byte(cfg.SecretKey.Access),
		method: method,
		ttl:    ttl,
	}, nil
}

// Issue signs a token for subjectID that expires ttl after now.
func (s *jwtService) Issue(subjectID uuid.UUID, now time.Time) (*entity.AccessToken, error) {
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subjectID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return nil, errors.Wrap(err, "sign access token")
	}

	return &entity.AccessToken{
		Token:     signed,
		Kind:      entity.TokenKindBearer,
		Subject:   subjectID,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks the signature first, then expiry against now, then the subject.
func (s *jwtService) Verify(tokenString string, now time.Time) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return uuid.Nil, errors.Wrap(service.ErrTokenInvalidSignature, err.Error())
	}

	if claims.ExpiresAt == nil || now.After(claims.ExpiresAt.Time) {
		return uuid.Nil, service.ErrTokenExpired
	}

	if claims.Subject == "" {
		return uuid.Nil, service.ErrTokenMissingSubject
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil || subjectID == uuid.Nil {
		return uuid.Nil, service.ErrTokenMissingSubject
	}

	return subjectID, nil
}
