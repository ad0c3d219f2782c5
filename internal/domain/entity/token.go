package entity

import (
	"time"

	"github.com/google/uuid"
)

// TokenKindBearer is the only token kind issued by the service.
const TokenKindBearer = "bearer"

// AccessToken is a signed, self-contained credential for a single subject.
// It is never persisted; validity is recomputed from the signature and expiry on every use.
type AccessToken struct {
	Token     string
	Kind      string
	Subject   uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}
