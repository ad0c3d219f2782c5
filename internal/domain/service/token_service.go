package service

import (
	"errors"
	"time"

	"account/internal/domain/entity"

	"github.com/google/uuid"
)

// Verification failures reported by TokenService.Verify.
var (
	ErrTokenInvalidSignature = errors.New("token signature is invalid or token is malformed")
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenMissingSubject   = errors.New("token subject is missing")
)

// TokenService issues and verifies signed, time-bound bearer tokens.
// Both operations take the current time so callers control the clock.
type TokenService interface {
	// Issue creates a token for subjectID, issued at now and expiring after the configured TTL.
	Issue(subjectID uuid.UUID, now time.Time) (*entity.AccessToken, error)

	// Verify checks signature and expiry and returns the subject.
	// It fails with ErrTokenInvalidSignature, ErrTokenExpired or ErrTokenMissingSubject.
	Verify(token string, now time.Time) (uuid.UUID, error)
}
