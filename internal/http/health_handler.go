package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PingFunc comprueba una dependencia; nil significa que no hay nada que comprobar.
type PingFunc func(ctx context.Context) error

// Health maneja GET /healthz.
func Health(logger *zap.Logger, ping PingFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				respondFail(c, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		respondOK(c, http.StatusOK, "", gin.H{"status": "ok"})
	}
}
