package domain

import (
	"strings"
	"time"
)

// Pet es el registro persistido de una mascota publicada para adopción.
// Version es metadata interna de almacenamiento y nunca se expone.
type Pet struct {
	ID             string
	OwnerID        string
	Owner          *User
	Name           string
	Species        string
	Breed          string
	Age            *int
	Gender         string
	Description    string
	Photos         []string
	Adopted        bool
	AdoptedDetails *AdoptionDetails
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AdoptionDetails es la foto de contacto del adoptante al momento de la adopción.
// No referencia a una cuenta: el adoptante puede no estar registrado.
type AdoptionDetails struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	Country    string    `json:"country,omitempty"`
	PostalCode string    `json:"postalCode"`
	Message    string    `json:"message,omitempty"`
	AdoptedAt  time.Time `json:"adoptedAt"`
}

// Normalize recorta espacios en todos los campos de texto.
func (d AdoptionDetails) Normalize() AdoptionDetails {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.State = strings.TrimSpace(d.State)
	d.Country = strings.TrimSpace(d.Country)
	d.PostalCode = strings.TrimSpace(d.PostalCode)
	d.Message = strings.TrimSpace(d.Message)
	return d
}

// MissingFields devuelve los campos obligatorios vacíos, en orden estable.
func (d AdoptionDetails) MissingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"name", d.Name},
		{"email", d.Email},
		{"phone", d.Phone},
		{"address", d.Address},
		{"city", d.City},
		{"state", d.State},
		{"postalCode", d.PostalCode},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Complete reporta si todos los campos obligatorios están presentes.
func (d AdoptionDetails) Complete() bool {
	return len(d.MissingFields()) == 0
}
