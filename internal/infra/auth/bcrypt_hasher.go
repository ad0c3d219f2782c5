// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"unicode"
	"unicode/utf8"

	"account/config"
	domainerrors "account/internal/domain/errors"
	"account/internal/domain/service"
	"account/internal/errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxPasswordBytes is the longest input bcrypt accepts.
const bcryptMaxPasswordBytes = 72

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost     int
	strength config.PasswordStrengthConfig
}

// NewBcryptHasher builds the hasher from the auth and password strength settings.
func NewBcryptHasher(cfg *config.Config) (service.PasswordHasher, error) {
	cost := bcrypt.DefaultCost
	if cfg.Auth != nil && cfg.Auth.BcryptCost != 0 {
		cost = cfg.Auth.BcryptCost
	}

	var strength config.PasswordStrengthConfig
	if cfg.PasswordStrength != nil {
		strength = *cfg.PasswordStrength
	}

	return NewBcryptHasherWithCost(cost, strength)
}

// NewBcryptHasherWithCost creates a hasher with an explicit cost factor.
func NewBcryptHasherWithCost(cost int, strength config.PasswordStrengthConfig) (service.PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.Wrapf(domainerrors.ErrConfiguration, "bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	return &bcryptHasher{cost: cost, strength: strength}, nil
}

// Hash generates a salted hash from a plaintext password using bcrypt.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	return string(bytes), nil
}

// Check compares a plaintext password with a bcrypt hash.
func (h *bcryptHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength applies the configured policy. Messages never echo the password.
func (h *bcryptHasher) ValidatePasswordStrength(password string) error {
	if password == "" {
		return domainerrors.ErrValidationFailed.WrapMessage("password must not be empty")
	}

	if len(password) > bcryptMaxPasswordBytes {
		return domainerrors.ErrValidationFailed.WrapMessage("password must be at most 72 bytes long")
	}

	length := utf8.RuneCountInString(password)
	if h.strength.MinLength > 0 && length < h.strength.MinLength {
		return errors.Wrapf(domainerrors.ErrValidationFailed, "password must be at least %d characters long", h.strength.MinLength)
	}

	if h.strength.MaxLength > 0 && length > h.strength.MaxLength {
		return errors.Wrapf(domainerrors.ErrValidationFailed, "password must be at most %d characters long", h.strength.MaxLength)
	}

	if h.strength.RequireUppercase && !hasRune(password, unicode.IsUpper) {
		return domainerrors.ErrValidationFailed.WrapMessage("password must contain at least one uppercase letter")
	}

	if h.strength.RequireLowercase && !hasRune(password, unicode.IsLower) {
		return domainerrors.ErrValidationFailed.WrapMessage("password must contain at least one lowercase letter")
	}

	if h.strength.RequireNumbers && !hasRune(password, unicode.IsDigit) {
		return domainerrors.ErrValidationFailed.WrapMessage("password must contain at least one number")
	}

	if h.strength.RequireSpecial && !hasRune(password, isSpecial) {
		return domainerrors.ErrValidationFailed.WrapMessage("password must contain at least one special character")
	}

	return nil
}

func hasRune(s string, match func(rune) bool) bool {
	for _, r := range s {
		if match(r) {
			return true
		}
	}

	return false
}

func isSpecial(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
