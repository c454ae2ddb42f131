package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/YuviX-514/pawAdopt/internal/domain"
)

// InMemoryStore guarda usuarios y mascotas en memoria con las mismas garantías
// que el esquema de postgres (email único, dueño existente, adopción condicional).
// Se usa cuando no hay DATABASE_URL configurada.
type InMemoryStore struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	byEmail map[string]string
	pets    map[string]domain.Pet
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:   make(map[string]domain.User),
		byEmail: make(map[string]string),
		pets:    make(map[string]domain.Pet),
	}
}

// Users devuelve la vista UserRepository del store.
func (s *InMemoryStore) Users() UserRepository {
	return inMemoryUsers{s}
}

// Pets devuelve la vista PetRepository del store.
func (s *InMemoryStore) Pets() PetRepository {
	return inMemoryPets{s}
}

type inMemoryUsers struct {
	s *InMemoryStore
}

func (r inMemoryUsers) Create(_ context.Context, user domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(user.ID) == "" {
		return errors.New("user id required")
	}
	if _, taken := r.s.byEmail[user.Email]; taken {
		return ErrEmailTaken
	}
	r.s.users[user.ID] = user
	r.s.byEmail[user.Email] = user.ID
	return nil
}

func (r inMemoryUsers) GetByID(_ context.Context, id string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (r inMemoryUsers) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return r.s.users[id], nil
}

func (r inMemoryUsers) UpdateProvider(_ context.Context, id, provider string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Provider = provider
	user.UpdatedAt = updatedAt
	r.s.users[id] = user
	return nil
}

func (r inMemoryUsers) UpdateProfile(_ context.Context, id, username, image string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Username = username
	user.Image = image
	user.UpdatedAt = updatedAt
	r.s.users[id] = user
	return nil
}

type inMemoryPets struct {
	s *InMemoryStore
}

func (r inMemoryPets) Create(_ context.Context, pet domain.Pet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(pet.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.s.pets[pet.ID]; exists {
		return errors.New("pet already exists")
	}
	if _, ok := r.s.users[pet.OwnerID]; !ok {
		return errors.New("pet owner does not exist")
	}
	pet.Owner = nil
	pet.Adopted = false
	pet.AdoptedDetails = nil
	pet.Photos = append([]string(nil), pet.Photos...)
	r.s.pets[pet.ID] = pet
	return nil
}

func (r inMemoryPets) GetByID(_ context.Context, id string) (domain.Pet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	pet, ok := r.s.pets[id]
	if !ok {
		return domain.Pet{}, pgx.ErrNoRows
	}
	return r.withOwner(pet), nil
}

func (r inMemoryPets) List(_ context.Context) ([]domain.Pet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.collect(func(domain.Pet) bool { return true }), nil
}

func (r inMemoryPets) ListAdoptedByEmail(_ context.Context, email string) ([]domain.Pet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.collect(func(p domain.Pet) bool {
		return p.Adopted && p.AdoptedDetails != nil && strings.EqualFold(p.AdoptedDetails.Email, email)
	}), nil
}

func (r inMemoryPets) MarkAdopted(_ context.Context, id string, details domain.AdoptionDetails, updatedAt time.Time) (domain.Pet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	pet, ok := r.s.pets[id]
	if !ok {
		return domain.Pet{}, pgx.ErrNoRows
	}
	if pet.Adopted {
		return domain.Pet{}, ErrAlreadyAdopted
	}
	pet.Adopted = true
	pet.AdoptedDetails = &details
	pet.Version++
	pet.UpdatedAt = updatedAt
	r.s.pets[id] = pet
	return r.withOwner(pet), nil
}

// collect filtra y ordena por created_at asc, id asc. Requiere el lock tomado.
func (r inMemoryPets) collect(keep func(domain.Pet) bool) []domain.Pet {
	out := make([]domain.Pet, 0)
	for _, p := range r.s.pets {
		if keep(p) {
			out = append(out, r.withOwner(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r inMemoryPets) withOwner(p domain.Pet) domain.Pet {
	p.Photos = append([]string(nil), p.Photos...)
	if p.AdoptedDetails != nil {
		details := *p.AdoptedDetails
		p.AdoptedDetails = &details
	}
	if owner, ok := r.s.users[p.OwnerID]; ok {
		p.Owner = &owner
	}
	return p
}
