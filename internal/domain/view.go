package domain

import "time"

// OwnerView es la proyección pública del dueño de un listado.
type OwnerView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Image    string `json:"image,omitempty"`
}

// PetView es la forma pública de un Pet: id público, dueño proyectado y sin metadata interna.
type PetView struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Species        string           `json:"species"`
	Breed          string           `json:"breed,omitempty"`
	Age            *int             `json:"age,omitempty"`
	Gender         string           `json:"gender,omitempty"`
	Description    string           `json:"description,omitempty"`
	Photos         []string         `json:"photos"`
	OwnerID        string           `json:"ownerId"`
	Owner          *OwnerView       `json:"owner,omitempty"`
	Adopted        bool             `json:"adopted"`
	AdoptedDetails *AdoptionDetails `json:"adoptedDetails,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// NewPetView es la única proyección usada por los servicios de listado, adopción y consulta.
func NewPetView(p Pet) PetView {
	photos := make([]string, len(p.Photos))
	copy(photos, p.Photos)

	view := PetView{
		ID:          p.ID,
		Name:        p.Name,
		Species:     p.Species,
		Breed:       p.Breed,
		Age:         p.Age,
		Gender:      p.Gender,
		Description: p.Description,
		Photos:      photos,
		OwnerID:     p.OwnerID,
		Adopted:     p.Adopted,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Owner != nil {
		view.Owner = &OwnerView{
			ID:       p.Owner.ID,
			Username: p.Owner.Username,
			Email:    p.Owner.Email,
			Image:    p.Owner.Image,
		}
	}
	if p.Adopted && p.AdoptedDetails != nil {
		details := *p.AdoptedDetails
		view.AdoptedDetails = &details
	}
	return view
}

// NewPetViews aplica NewPetView a una lista, devolviendo siempre un slice no nil.
func NewPetViews(pets []Pet) []PetView {
	out := make([]PetView, 0, len(pets))
	for _, p := range pets {
		out = append(out, NewPetView(p))
	}
	return out
}
