package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gitKheang/quiz-backend/internal/config"
	"github.com/gitKheang/quiz-backend/internal/middleware"
	"github.com/gitKheang/quiz-backend/internal/model"
	"github.com/gitKheang/quiz-backend/internal/response"
	"github.com/gitKheang/quiz-backend/internal/service"
	"github.com/gitKheang/quiz-backend/internal/validator"
)

// AuthHandler handles signup, signin and the Google OAuth flow. Tokens are
// delivered in an HTTP-only cookie.
type AuthHandler struct {
	cfg          *config.Config
	authService  *service.AuthService
	oauthService *service.GoogleOAuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config, authService *service.AuthService, oauthService *service.GoogleOAuthService) *AuthHandler {
	return &AuthHandler{
		cfg:          cfg,
		authService:  authService,
		oauthService: oauthService,
	}
}

// SignUp godoc
// POST /api/auth/signup
// Registers a local account and signs the caller in.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req model.SignUpRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, token, err := h.authService.SignUp(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.Fail(c, http.StatusBadRequest, response.ErrEmailTaken)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.setAuthCookie(c, token)
	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// SignIn godoc
// POST /api/auth/signin
// Authenticates local credentials.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req model.SignInRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, token, err := h.authService.SignIn(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		case errors.Is(err, service.ErrPasswordNotSet):
			response.Fail(c, http.StatusUnauthorized, response.ErrPasswordNotSet)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	h.setAuthCookie(c, token)
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// SignOut godoc
// POST /api/auth/signout
// Clears the auth cookie. Always succeeds.
func (h *AuthHandler) SignOut(c *gin.Context) {
	h.clearAuthCookie(c)
	response.Success(c, http.StatusOK, gin.H{"signed_out": true})
}

// Me godoc
// GET /api/auth/me
// Returns the authenticated user, or null when the caller is anonymous or
// the cookie no longer resolves to a user.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Success(c, http.StatusOK, nil)
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), claims)
	if err != nil {
		response.Success(c, http.StatusOK, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// GoogleLogin godoc
// GET /api/auth/google
// Redirects to the Google consent screen.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	authURL, err := h.oauthService.BeginLogin(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrGoogleAuthFailed)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// GoogleCallback godoc
// GET /api/auth/google/callback
// Completes the OAuth flow and redirects back to the frontend.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		c.Redirect(http.StatusTemporaryRedirect, h.cfg.FrontendURL+"/signin?error=google_failed")
		return
	}

	user, err := h.oauthService.HandleCallback(c.Request.Context(), state, code)
	if err != nil {
		c.Redirect(http.StatusTemporaryRedirect, h.cfg.FrontendURL+"/signin?error=google_failed")
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		c.Redirect(http.StatusTemporaryRedirect, h.cfg.FrontendURL+"/signin?error=google_failed")
		return
	}

	h.setAuthCookie(c, token)
	c.Redirect(http.StatusTemporaryRedirect, h.cfg.FrontendURL)
}

func (h *AuthHandler) setAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, token, h.authService.CookieMaxAge(), "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
}

func (h *AuthHandler) clearAuthCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, "", -1, "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
}
