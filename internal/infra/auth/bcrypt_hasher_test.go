package auth

import (
	"strings"
	"testing"

	"account/config"
	domainerrors "account/internal/domain/errors"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T, strength config.PasswordStrengthConfig) *bcryptHasher {
	t.Helper()

	hasher, err := NewBcryptHasherWithCost(bcrypt.MinCost, strength)
	require.NoError(t, err)

	return hasher.(*bcryptHasher)
}

func TestBcryptHasher_HashAndCheck(t *testing.T) {
	hasher := newTestHasher(t, config.PasswordStrengthConfig{})

	hash, err := hasher.Hash("pw123")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	assert.True(t, hasher.Check("pw123", hash))
	assert.False(t, hasher.Check("pw124", hash))
	assert.False(t, hasher.Check("", hash))
}

func TestBcryptHasher_SaltedHashesDiffer(t *testing.T) {
	hasher := newTestHasher(t, config.PasswordStrengthConfig{})

	first, err := hasher.Hash("pw123")
	require.NoError(t, err)
	second, err := hasher.Hash("pw123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Check("pw123", first))
	assert.True(t, hasher.Check("pw123", second))
}

func TestBcryptHasher_MalformedHashNeverMatches(t *testing.T) {
	hasher := newTestHasher(t, config.PasswordStrengthConfig{})

	assert.False(t, hasher.Check("pw123", "invalid_hash"))
	assert.False(t, hasher.Check("pw123", ""))
}

func TestBcryptHasher_CostFromConfig(t *testing.T) {
	cfg := &config.Config{Auth: &config.AuthConfig{BcryptCost: 5}}

	hasher, err := NewBcryptHasher(cfg)
	require.NoError(t, err)

	hash, err := hasher.Hash("pw123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)
}

func TestBcryptHasher_RejectsCostOutOfRange(t *testing.T) {
	for _, cost := range []int{bcrypt.MinCost - 1, bcrypt.MaxCost + 1} {
		hasher, err := NewBcryptHasherWithCost(cost, config.PasswordStrengthConfig{})
		assert.Nil(t, hasher)
		assert.True(t, errors.Is(err, domainerrors.ErrConfiguration))
	}
}

func TestBcryptHasher_ValidatePasswordStrength_Default(t *testing.T) {
	hasher := newTestHasher(t, config.PasswordStrengthConfig{})

	assert.NoError(t, hasher.ValidatePasswordStrength("pw123"))
	assert.NoError(t, hasher.ValidatePasswordStrength("Pässphräse123!"))

	err := hasher.ValidatePasswordStrength("")
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))

	err = hasher.ValidatePasswordStrength(strings.Repeat("a", 73))
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestBcryptHasher_ValidatePasswordStrength_Policy(t *testing.T) {
	hasher := newTestHasher(t, config.PasswordStrengthConfig{
		MinLength:        8,
		MaxLength:        64,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumbers:   true,
		RequireSpecial:   true,
	})

	assert.NoError(t, hasher.ValidatePasswordStrength("StrongPass123!"))

	testCases := []struct {
		password    string
		expectedErr string
	}{
		{"Ab1!", "must be at least 8 characters long"},
		{"PASSWORD123!", "must contain at least one lowercase letter"},
		{"password123!", "must contain at least one uppercase letter"},
		{"PasswordABC!", "must contain at least one number"},
		{"Password123", "must contain at least one special character"},
	}

	for _, tc := range testCases {
		t.Run(tc.password, func(t *testing.T) {
			err := hasher.ValidatePasswordStrength(tc.password)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
			assert.Contains(t, err.Error(), tc.expectedErr)
			assert.NotContains(t, err.Error(), tc.password)
		})
	}
}
