package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YuviX-514/pawAdopt/internal/oauth"
	"github.com/YuviX-514/pawAdopt/internal/service"
)

// stateCookie guarda en el navegador el state emitido por Start.
const (
	stateCookie     = "pawadopt_oauth_state"
	stateCookiePath = "/auth/oauth"
)

// OAuthHandler implementa el flujo authorization-code contra Google y GitHub.
type OAuthHandler struct {
	logger    *zap.Logger
	providers *oauth.Registry
	states    *oauth.StateSigner
	userServ  *service.UserService
	jwtServ   *service.JWTService
}

func NewOAuthHandler(
	logger *zap.Logger,
	providers *oauth.Registry,
	states *oauth.StateSigner,
	userServ *service.UserService,
	jwtServ *service.JWTService,
) *OAuthHandler {
	return &OAuthHandler{
		logger:    logger,
		providers: providers,
		states:    states,
		userServ:  userServ,
		jwtServ:   jwtServ,
	}
}

// Start maneja GET /auth/oauth/:provider redirigiendo al proveedor.
func (h *OAuthHandler) Start(c *gin.Context) {
	provider, err := h.providers.Get(c.Param("provider"))
	if err != nil {
		respondFail(c, http.StatusNotFound, "Unknown sign-in provider")
		return
	}
	state, err := h.states.MakeState()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, int(h.states.TTL().Seconds()), stateCookiePath, "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, provider.AuthURL(state))
}

// Callback maneja GET /auth/oauth/:provider/callback.
func (h *OAuthHandler) Callback(c *gin.Context) {
	provider, err := h.providers.Get(c.Param("provider"))
	if err != nil {
		respondFail(c, http.StatusNotFound, "Unknown sign-in provider")
		return
	}
	if reason := c.Query("error"); reason != "" {
		h.logger.Info("oauth denied by provider", zap.String("provider", provider.Name()), zap.String("reason", reason))
		respondFail(c, http.StatusUnauthorized, "Sign-in was cancelled")
		return
	}
	stored, _ := c.Cookie(stateCookie)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, "", -1, stateCookiePath, "", c.Request.TLS != nil, true)
	if !h.states.BoundState(c.Query("state"), stored) {
		respondFail(c, http.StatusUnauthorized, "Invalid sign-in state")
		return
	}
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		respondFail(c, http.StatusBadRequest, "Missing authorization code")
		return
	}

	ctx := c.Request.Context()
	identity, err := provider.Exchange(ctx, code)
	if err != nil {
		h.logger.Warn("oauth exchange failed", zap.String("provider", provider.Name()), zap.Error(err))
		msg := "Sign-in failed"
		if errors.Is(err, oauth.ErrNoVerifiedEmail) {
			msg = "A verified email is required to sign in"
		}
		respondFail(c, http.StatusUnauthorized, msg)
		return
	}

	user, err := h.userServ.ResolveOrCreateUser(ctx, identity.Email, identity.Name, identity.Provider)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if h.jwtServ == nil {
		respondError(c, h.logger, errors.New("jwt not configured"))
		return
	}
	tokens, err := h.jwtServ.IssuePair(ctx, user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"user": user, "tokens": tokens})
}
