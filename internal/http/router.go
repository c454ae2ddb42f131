package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/YuviX-514/pawAdopt/internal/imagestore"
	"github.com/YuviX-514/pawAdopt/internal/metrics"
	"github.com/YuviX-514/pawAdopt/internal/service"
)

// RouterOptions agrupa lo que el router necesita además de los handlers.
type RouterOptions struct {
	JWT            *service.JWTService
	Ping           PingFunc
	UploadDir      string
	MaxUploadBytes int64
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	opts RouterOptions,
	userH *UserHandler,
	oauthH *OAuthHandler,
	petH *PetHandler,
) *gin.Engine {
	r := gin.New()
	if opts.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = opts.MaxUploadBytes
	}

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), metrics.Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.UploadDir != "" {
		r.Static(imagestore.URLPrefix, opts.UploadDir)
	}

	api := r.Group("", jsonContentTypeMiddleware())
	api.GET("/healthz", Health(logger, opts.Ping))

	requireAuth := JWTAuthMiddleware(opts.JWT)

	api.POST("/signup", userH.Signup)
	auth := api.Group("/auth")
	auth.POST("/login", userH.Login)
	auth.POST("/refresh", userH.RefreshToken)
	auth.POST("/logout", userH.Logout)
	if oauthH != nil {
		auth.GET("/oauth/:provider", oauthH.Start)
		auth.GET("/oauth/:provider/callback", oauthH.Callback)
	}

	profile := api.Group("/profile", requireAuth)
	profile.GET("", userH.GetProfile)
	profile.POST("", userH.UpdateProfile)

	pets := api.Group("/pets")
	pets.GET("", petH.ListPets)
	pets.POST("", requireAuth, petH.CreatePet)
	pets.POST("/adopted", petH.AdoptedByEmail)
	pets.GET("/:id", petH.GetPet)
	pets.POST("/:id/adopt", petH.AdoptPet)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses de la API.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
