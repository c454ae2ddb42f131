package service

import (
	"context"

	"github.com/YuviX-514/pawAdopt/internal/domain"
	"github.com/YuviX-514/pawAdopt/internal/repository"
)

// QueryService resuelve las mascotas adoptadas por un email de adoptante.
type QueryService struct {
	pets repository.PetRepository
}

func NewQueryService(pets repository.PetRepository) *QueryService {
	return &QueryService{pets: pets}
}

// FindAdoptedBy compara emails sin distinguir mayúsculas. Sin coincidencias devuelve un slice vacío.
func (s *QueryService) FindAdoptedBy(ctx context.Context, email string) ([]domain.PetView, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, validationf("email is required")
	}
	pets, err := s.pets.ListAdoptedByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return domain.NewPetViews(pets), nil
}
