package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/YuviX-514/pawAdopt/internal/domain"
	"github.com/YuviX-514/pawAdopt/internal/repository"
)

// ListingService crea y lee publicaciones de mascotas.
type ListingService struct {
	logger *zap.Logger
	pets   repository.PetRepository
	users  repository.UserRepository
	now    func() time.Time
}

func NewListingService(logger *zap.Logger, pets repository.PetRepository, users repository.UserRepository) *ListingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{
		logger: logger,
		pets:   pets,
		users:  users,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type CreateListingInput struct {
	Name        string
	Species     string
	Breed       string
	Age         *int
	Gender      string
	Description string
	// Photos son URLs ya subidas al image store, en el orden de carga.
	Photos []string
}

func (s *ListingService) CreateListing(ctx context.Context, ownerID string, in CreateListingInput) (domain.PetView, error) {
	name := strings.TrimSpace(in.Name)
	species := strings.TrimSpace(in.Species)
	if name == "" {
		return domain.PetView{}, validationf("name is required")
	}
	if species == "" {
		return domain.PetView{}, validationf("species is required")
	}
	photos := make([]string, 0, len(in.Photos))
	for _, p := range in.Photos {
		if p = strings.TrimSpace(p); p != "" {
			photos = append(photos, p)
		}
	}
	if len(photos) == 0 {
		return domain.PetView{}, validationf("Photo required")
	}
	if in.Age != nil && *in.Age < 0 {
		return domain.PetView{}, validationf("age must not be negative")
	}

	owner, err := s.users.GetByID(ctx, strings.TrimSpace(ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PetView{}, validationf("owner not found")
		}
		return domain.PetView{}, err
	}

	now := s.now()
	pet := domain.Pet{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Name:        name,
		Species:     species,
		Breed:       strings.TrimSpace(in.Breed),
		Age:         in.Age,
		Gender:      strings.TrimSpace(in.Gender),
		Description: strings.TrimSpace(in.Description),
		Photos:      photos,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.pets.Create(ctx, pet); err != nil {
		return domain.PetView{}, err
	}

	s.logger.Info("listing created", zap.String("pet_id", pet.ID), zap.String("owner_id", owner.ID))
	pet.Owner = &owner
	return domain.NewPetView(pet), nil
}

func (s *ListingService) GetListing(ctx context.Context, petID string) (domain.PetView, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return domain.PetView{}, notFound("Pet not found")
	}
	pet, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PetView{}, notFound("Pet not found")
		}
		return domain.PetView{}, err
	}
	return domain.NewPetView(pet), nil
}

// ListAll devuelve todas las publicaciones ordenadas por fecha de creación ascendente.
func (s *ListingService) ListAll(ctx context.Context) ([]domain.PetView, error) {
	pets, err := s.pets.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewPetViews(pets), nil
}
