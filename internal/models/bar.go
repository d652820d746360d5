package models

// Bar is a venue account. Venues log in to create tables that are listed
// under their name; tables created anonymously have no bar.
type Bar struct {
	// Name is the unique login name of the venue.
	Name string `json:"name"`

	// Email and Phone are contact details, both optional.
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	// PasswordHash is the bcrypt hash of the venue password.
	PasswordHash string `json:"-"`

	// CreatedAt is the Unix timestamp when the account was registered.
	CreatedAt int64 `json:"created_at"`
}
