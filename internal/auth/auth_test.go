package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/racha/internal/ledger"
	"github.com/mmynk/racha/internal/models"
	"github.com/mmynk/racha/internal/storage/memory"
)

func TestPasswordAuthenticator_Register(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(memory.New())

	bar, err := a.Register(ctx, " Moes ", "duff-beer", "moe@example.com", "555-0100")
	require.NoError(t, err)
	assert.Equal(t, "Moes", bar.Name)
	assert.Equal(t, "moe@example.com", bar.Email)
	assert.NotEqual(t, "duff-beer", bar.PasswordHash)
	assert.True(t, strings.HasPrefix(bar.PasswordHash, "$2"), "bcrypt hash expected")

	tests := []struct {
		name     string
		bar      string
		password string
		wantErr  error
		wantKind error
	}{
		{"duplicate name", "Moes", "another-pass", ErrBarExists, ledger.ErrConflict},
		{"short password", "Kwik", "short", ErrWeakPassword, ledger.ErrInvalidInput},
		{"empty name", "  ", "long-enough", ErrMissingName, ledger.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.bar, tt.password, "", "")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, tt.wantKind)
		})
	}
}

func TestPasswordAuthenticator_Authenticate(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(memory.New())
	_, err := a.Register(ctx, "Moes", "duff-beer", "", "")
	require.NoError(t, err)

	bar, err := a.Authenticate(ctx, "Moes", "duff-beer")
	require.NoError(t, err)
	assert.Equal(t, "Moes", bar.Name)

	_, err = a.Authenticate(ctx, "Moes", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	_, err = a.Authenticate(ctx, "Nobody", "duff-beer")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, expiresAt, err := m.Generate(&models.Bar{Name: "Moes"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "Moes", claims.Bar)
	assert.Equal(t, "Moes", claims.Subject)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewJWTManager("other-secret", time.Hour).Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired, _, err := NewJWTManager("test-secret", -time.Minute).Generate(&models.Bar{Name: "Moes"})
		require.NoError(t, err)
		_, err = m.Validate(expired)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Bar: "Moes"})
		s, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Validate(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
