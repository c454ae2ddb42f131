package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/YuviX-514/pawAdopt/internal/domain"
	"github.com/YuviX-514/pawAdopt/internal/repository"
)

const alreadyAdoptedMessage = "This pet has already been adopted"

// AdoptionService ejecuta la única transición de estado: disponible -> adoptada.
type AdoptionService struct {
	logger *zap.Logger
	pets   repository.PetRepository
	now    func() time.Time
}

func NewAdoptionService(logger *zap.Logger, pets repository.PetRepository) *AdoptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdoptionService{
		logger: logger,
		pets:   pets,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SubmitAdoption marca la mascota como adoptada con los datos del adoptante.
// Orden de chequeos: existe, no adoptada, campos completos. La escritura es
// condicional, así que de varios intentos concurrentes gana uno solo.
func (s *AdoptionService) SubmitAdoption(ctx context.Context, petID string, details domain.AdoptionDetails) (domain.PetView, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return domain.PetView{}, notFound("Pet not found")
	}

	current, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PetView{}, notFound("Pet not found")
		}
		return domain.PetView{}, err
	}
	if current.Adopted {
		return domain.PetView{}, conflict(alreadyAdoptedMessage)
	}

	details = details.Normalize()
	if missing := details.MissingFields(); len(missing) > 0 {
		return domain.PetView{}, validationf("All fields are required (missing: %s)", strings.Join(missing, ", "))
	}

	now := s.now()
	details.AdoptedAt = now
	adopted, err := s.pets.MarkAdopted(ctx, petID, details, now)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyAdopted):
			s.logger.Info("adoption lost race", zap.String("pet_id", petID))
			return domain.PetView{}, conflict(alreadyAdoptedMessage)
		case errors.Is(err, pgx.ErrNoRows):
			return domain.PetView{}, notFound("Pet not found")
		default:
			return domain.PetView{}, err
		}
	}

	s.logger.Info("pet adopted", zap.String("pet_id", petID))
	return domain.NewPetView(adopted), nil
}
