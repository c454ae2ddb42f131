package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YuviX-514/pawAdopt/internal/imagestore"
	"github.com/YuviX-514/pawAdopt/internal/service"
)

// envelope es la forma común de todas las respuestas JSON.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondFail(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: false, Message: message})
}

// respondError traduce errores esperados a su status; el resto se loguea y sale como 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondFail(c, http.StatusBadRequest, service.Detail(err, "Invalid request"))
	case errors.Is(err, service.ErrAuthFailure):
		respondFail(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrNotFound):
		respondFail(c, http.StatusNotFound, service.Detail(err, "Not found"))
	case errors.Is(err, service.ErrConflict):
		respondFail(c, http.StatusConflict, service.Detail(err, "Conflict"))
	case errors.Is(err, service.ErrRateLimited):
		respondFail(c, http.StatusTooManyRequests, "Too many attempts, try again later")
	case errors.Is(err, imagestore.ErrEmptyFile),
		errors.Is(err, imagestore.ErrTooLarge),
		errors.Is(err, imagestore.ErrUnsupportedType):
		respondFail(c, http.StatusBadRequest, err.Error())
	default:
		if logger != nil {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
		respondFail(c, http.StatusInternalServerError, "Internal server error")
	}
}
