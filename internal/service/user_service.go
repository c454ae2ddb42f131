package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/YuviX-514/pawAdopt/internal/domain"
	"github.com/YuviX-514/pawAdopt/internal/repository"
)

const minPasswordLength = 6

// UserService coordina reglas de negocio para usuarios: alta, login y resolución de identidad.
type UserService struct {
	logger       *zap.Logger
	users        repository.UserRepository
	loginLimiter LoginRateLimiter
	now          func() time.Time
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, loginLimiter LoginRateLimiter) *UserService {
	if loginLimiter == nil {
		loginLimiter = NewLoginRateLimiter(10*time.Minute, 5)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		logger:       logger,
		users:        users,
		loginLimiter: loginLimiter,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

// Signup crea una cuenta de credenciales.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	username := strings.TrimSpace(input.Username)
	email, err := parseEmail(input.Email)
	if err != nil {
		return domain.User{}, err
	}
	if username == "" {
		return domain.User{}, validationf("username is required")
	}
	if len(input.Password) < minPasswordLength {
		return domain.User{}, validationf("password must be at least %d characters", minPasswordLength)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return domain.User{}, duplicateAccountError(existing)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashBytes),
		Provider:     domain.ProviderCredentials,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			// Otro alta ganó la carrera; se informa igual que un duplicado.
			if existing, getErr := s.users.GetByEmail(ctx, email); getErr == nil {
				return domain.User{}, duplicateAccountError(existing)
			}
			return domain.User{}, validationf("User already exists!")
		}
		return domain.User{}, err
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	return user, nil
}

// AuthenticateCredentials valida email y contraseña. No distingue entre usuario
// inexistente, cuenta solo OAuth o contraseña incorrecta.
func (s *UserService) AuthenticateCredentials(ctx context.Context, emailAddr, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrAuthFailure
	}
	if s.loginLimiter != nil && !s.loginLimiter.Allow(emailAddr) {
		return domain.User{}, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrAuthFailure
		}
		return domain.User{}, err
	}
	if !user.HasPassword() {
		return domain.User{}, ErrAuthFailure
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrAuthFailure
	}

	if s.loginLimiter != nil {
		s.loginLimiter.Reset(emailAddr)
	}
	return s.touchProvider(ctx, user, domain.ProviderCredentials)
}

// ResolveOrCreateUser vincula un principal autenticado con su User, creándolo
// en el primer ingreso. Si el proveedor cambió, gana el último usado.
func (s *UserService) ResolveOrCreateUser(ctx context.Context, emailAddr, displayName, provider string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	email, err := parseEmail(emailAddr)
	if err != nil {
		return domain.User{}, err
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !domain.IsKnownProvider(provider) {
		return domain.User{}, validationf("unsupported provider %q", provider)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return s.touchProvider(ctx, user, provider)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	now := s.now()
	user = domain.User{
		ID:        uuid.NewString(),
		Username:  defaultUsername(displayName, email),
		Email:     email,
		Provider:  provider,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrEmailTaken) {
			return domain.User{}, err
		}
		// Ingreso concurrente con el mismo email: se converge sobre la fila existente.
		existing, getErr := s.users.GetByEmail(ctx, email)
		if getErr != nil {
			return domain.User{}, getErr
		}
		return s.touchProvider(ctx, existing, provider)
	}

	s.logger.Info("user created from sign-in", zap.String("user_id", user.ID), zap.String("provider", provider))
	return user, nil
}

// GetProfile devuelve el usuario por id.
func (s *UserService) GetProfile(ctx context.Context, userID string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}
	user, err := s.users.GetByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, notFound("User not found")
		}
		return domain.User{}, err
	}
	return user, nil
}

type UpdateProfileInput struct {
	Username string
	// Image vacío conserva la imagen actual.
	Image string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (domain.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		return domain.User{}, validationf("username is required")
	}
	image := user.Image
	if strings.TrimSpace(input.Image) != "" {
		image = strings.TrimSpace(input.Image)
	}

	now := s.now()
	if err := s.users.UpdateProfile(ctx, user.ID, username, image, now); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, notFound("User not found")
		}
		return domain.User{}, err
	}
	user.Username = username
	user.Image = image
	user.UpdatedAt = now
	return user, nil
}

func (s *UserService) touchProvider(ctx context.Context, user domain.User, provider string) (domain.User, error) {
	if user.Provider == provider {
		return user, nil
	}
	now := s.now()
	if err := s.users.UpdateProvider(ctx, user.ID, provider, now); err != nil {
		return domain.User{}, err
	}
	s.logger.Info("user provider changed",
		zap.String("user_id", user.ID),
		zap.String("from", user.Provider),
		zap.String("to", provider),
	)
	user.Provider = provider
	user.UpdatedAt = now
	return user, nil
}

func duplicateAccountError(existing domain.User) error {
	if existing.Provider == domain.ProviderCredentials || existing.Provider == "" {
		return validationf("User already exists!")
	}
	return validationf("Account exists via %s. Please login using %s.", existing.Provider, existing.Provider)
}

func defaultUsername(displayName, email string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

func parseEmail(raw string) (string, error) {
	email := normalizeEmail(raw)
	if email == "" {
		return "", validationf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", validationf("invalid email %q", raw)
	}
	return email, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LoginRateLimiter limita la frecuencia de intentos de login por clave.
// Reset se llama tras un login correcto.
type LoginRateLimiter interface {
	Allow(key string) bool
	Reset(key string)
}

type loginRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

// NewLoginRateLimiter crea un rate limiter en memoria con ventana deslizante.
func NewLoginRateLimiter(window time.Duration, max int) LoginRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &loginRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

func (l *loginRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	cutoff := now.Add(-l.window)
	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	kept = append(kept, now)
	l.hits[key] = kept
	return true
}

func (l *loginRateLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
}
