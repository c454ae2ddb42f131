package http

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YuviX-514/pawAdopt/internal/domain"
	"github.com/YuviX-514/pawAdopt/internal/imagestore"
	"github.com/YuviX-514/pawAdopt/internal/service"
)

// UserHandler mantiene dependencias para endpoints de cuentas y perfil.
type UserHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
	jwtServ  *service.JWTService
	images   imagestore.Store
}

func NewUserHandler(logger *zap.Logger, userServ *service.UserService, jwtServ *service.JWTService, images imagestore.Store) *UserHandler {
	return &UserHandler{
		logger:   logger,
		userServ: userServ,
		jwtServ:  jwtServ,
		images:   images,
	}
}

// Signup maneja POST /signup.
func (h *UserHandler) Signup(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signup request", zap.Error(err))
		respondFail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := h.userServ.Signup(c.Request.Context(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, "User created", gin.H{"user": user})
}

// Login maneja POST /auth/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		respondFail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := h.userServ.AuthenticateCredentials(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	tokens, err := h.issueTokens(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"user": user, "tokens": tokens})
}

// RefreshToken maneja POST /auth/refresh.
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid refresh request", zap.Error(err))
		respondFail(c, http.StatusBadRequest, "Invalid request")
		return
	}
	if h.jwtServ == nil {
		respondError(c, h.logger, errors.New("jwt not configured"))
		return
	}
	user, tokens, err := h.jwtServ.Rotate(c.Request.Context(), req.RefreshToken, h.userServ)
	if err != nil {
		if errors.Is(err, service.ErrJWTInvalid) || errors.Is(err, service.ErrJWTExpired) {
			respondFail(c, http.StatusUnauthorized, "Invalid token")
			return
		}
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"user": user, "tokens": tokens})
}

// Logout maneja POST /auth/logout.
func (h *UserHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid logout request", zap.Error(err))
		respondFail(c, http.StatusBadRequest, "Invalid request")
		return
	}
	if h.jwtServ == nil {
		respondError(c, h.logger, errors.New("jwt not configured"))
		return
	}
	if err := h.jwtServ.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
		h.logger.Debug("logout with unusable refresh token", zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

// GetProfile maneja GET /profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		respondFail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := h.userServ.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"user": user})
}

// UpdateProfile maneja POST /profile (multipart: username, image opcional).
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		respondFail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var image string
	if fh, err := c.FormFile("image"); err == nil {
		urls, err := saveUploads(c.Request.Context(), h.images, []*multipart.FileHeader{fh})
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		image = urls[0]
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		h.logger.Warn("invalid profile form", zap.Error(err))
		respondFail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := h.userServ.UpdateProfile(c.Request.Context(), claims.UserID, service.UpdateProfileInput{
		Username: c.PostForm("username"),
		Image:    image,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "Profile updated", gin.H{"user": user})
}

func (h *UserHandler) issueTokens(ctx context.Context, user domain.User) (service.TokenPair, error) {
	if h.jwtServ == nil {
		return service.TokenPair{}, errors.New("jwt not configured")
	}
	return h.jwtServ.IssuePair(ctx, user)
}

// saveUploads guarda cada archivo en orden y devuelve sus URLs.
func saveUploads(ctx context.Context, images imagestore.Store, files []*multipart.FileHeader) ([]string, error) {
	if images == nil {
		return nil, errors.New("image store not configured")
	}
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		url, err := images.Save(ctx, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
