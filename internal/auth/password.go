package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/racha/internal/ledger"
	"github.com/mmynk/racha/internal/models"
	"github.com/mmynk/racha/internal/storage"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid bar name or password", ledger.ErrUnauthorized)
	ErrWeakPassword       = fmt.Errorf("%w: password must be at least %d characters", ledger.ErrInvalidInput, MinPasswordLength)
	ErrBarExists          = fmt.Errorf("%w: bar already registered", ledger.ErrConflict)
	ErrMissingName        = fmt.Errorf("%w: bar name is required", ledger.ErrInvalidInput)
)

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage storage.AccountStore
	now     func() time.Time
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage storage.AccountStore) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		now:     time.Now,
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new venue account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, name, credential, email, phone string) (*models.Bar, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	bar := &models.Bar{
		Name:         name,
		Email:        strings.TrimSpace(email),
		Phone:        strings.TrimSpace(phone),
		PasswordHash: string(hashedPassword),
		CreatedAt:    a.now().Unix(),
	}

	// The store enforces name uniqueness atomically.
	if err := a.storage.CreateBar(ctx, bar); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrBarExists
		}
		return nil, fmt.Errorf("%w: failed to create bar: %w", ledger.ErrStorage, err)
	}

	return bar, nil
}

// Authenticate verifies the name and password, returning the account if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, name, credential string) (*models.Bar, error) {
	bar, err := a.storage.GetBar(ctx, strings.TrimSpace(name))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load bar: %w", ledger.ErrStorage, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(bar.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return bar, nil
}
