package auth

import (
	"context"

	"github.com/mmynk/racha/internal/models"
)

// Authenticator defines the interface for venue account authentication.
// This abstraction allows swapping between different auth methods without
// changing the service layer code.
type Authenticator interface {
	// Register creates a new venue account. The credential format depends on
	// the implementation.
	Register(ctx context.Context, name, credential, email, phone string) (*models.Bar, error)

	// Authenticate verifies the credential and returns the account if it matches.
	Authenticate(ctx context.Context, name, credential string) (*models.Bar, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
