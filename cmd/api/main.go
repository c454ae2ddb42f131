package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/YuviX-514/pawAdopt/internal/config"
	"github.com/YuviX-514/pawAdopt/internal/db"
	apihttp "github.com/YuviX-514/pawAdopt/internal/http"
	"github.com/YuviX-514/pawAdopt/internal/imagestore"
	"github.com/YuviX-514/pawAdopt/internal/metrics"
	"github.com/YuviX-514/pawAdopt/internal/oauth"
	"github.com/YuviX-514/pawAdopt/internal/repository"
	"github.com/YuviX-514/pawAdopt/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var (
		userRepo repository.UserRepository
		petRepo  repository.PetRepository
		ping     apihttp.PingFunc
	)
	if cfg.UsesPostgres() {
		if cfg.DBAutoMigrate {
			if err := db.Migrate(cfg.DatabaseURL, false); err != nil {
				logger.Fatal("db migrate", zap.Error(err))
			}
			logger.Info("migrations applied")
		}
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		userRepo = repository.NewPgUserRepository(pool)
		petRepo = repository.NewPgPetRepository(pool)
		ping = func(ctx context.Context) error { return db.Ping(ctx, pool) }
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		store := repository.NewInMemoryStore()
		userRepo = store.Users()
		petRepo = store.Pets()
	}

	loginWindow := time.Duration(cfg.LoginWindowMinutes) * time.Minute
	var (
		loginLimiter = service.NewLoginRateLimiter(loginWindow, cfg.LoginMaxAttempts)
		tokenStore   service.RefreshTokenStore
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginRateLimiter(logger, redisClient, loginWindow, cfg.LoginMaxAttempts)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}
	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	images, err := imagestore.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL, cfg.MaxUploadMB<<20)
	if err != nil {
		logger.Fatal("image store", zap.Error(err))
	}

	var providers []oauth.Provider
	if cfg.GoogleClientID != "" {
		providers = append(providers, oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectBaseURL+"/auth/oauth/google/callback"))
	}
	if cfg.GitHubClientID != "" {
		providers = append(providers, oauth.NewGitHub(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.OAuthRedirectBaseURL+"/auth/oauth/github/callback"))
	}
	stateSecret := cfg.OAuthStateSecret
	if stateSecret == "" {
		stateSecret = cfg.JWTSecret
	}

	metrics.MustRegister()

	userSvc := service.NewUserService(logger, userRepo, loginLimiter)
	listingSvc := service.NewListingService(logger, petRepo, userRepo)
	adoptionSvc := service.NewAdoptionService(logger, petRepo)
	querySvc := service.NewQueryService(petRepo)

	userHandler := apihttp.NewUserHandler(logger, userSvc, jwtSvc, images)
	oauthHandler := apihttp.NewOAuthHandler(logger, oauth.NewRegistry(providers...), oauth.NewStateSigner(stateSecret, 0), userSvc, jwtSvc)
	petHandler := apihttp.NewPetHandler(logger, listingSvc, adoptionSvc, querySvc, images)
	router := apihttp.NewRouter(logger, apihttp.RouterOptions{
		JWT:            jwtSvc,
		Ping:           ping,
		UploadDir:      images.Dir(),
		MaxUploadBytes: cfg.MaxUploadMB << 20,
	}, userHandler, oauthHandler, petHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	logger.Info("shutting down", zap.String("signal", s.String()))

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
