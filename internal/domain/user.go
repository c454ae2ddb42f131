package domain

import "time"

// Proveedores de identidad soportados.
const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
	ProviderGitHub      = "github"
)

// IsKnownProvider reporta si el tag de proveedor es uno de los soportados.
func IsKnownProvider(provider string) bool {
	switch provider {
	case ProviderCredentials, ProviderGoogle, ProviderGitHub:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Image        string    `json:"image,omitempty"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasPassword indica si la cuenta puede autenticarse con credenciales.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}
