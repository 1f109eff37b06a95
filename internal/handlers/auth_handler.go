package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"controlia/internal/middleware"
	"controlia/internal/services"
)

// AuthHandler exposes registration, login, and session endpoints.
type AuthHandler struct {
	authService  *services.AuthService
	sessionHours int
	secureCookie bool
}

// NewAuthHandler creates a new auth handler. secureCookie should be
// true everywhere except local development.
func NewAuthHandler(authService *services.AuthService, sessionHours int, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, sessionHours: sessionHours, secureCookie: secureCookie}
}

// Register creates a tenant and its master profile
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidation(c, "Dados de cadastro inválidos")
		return
	}

	session, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}

	h.setSessionCookie(c, session.Token)
	c.JSON(http.StatusCreated, session)
}

// Login verifies credentials and issues a session
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidation(c, "E-mail e senha são obrigatórios")
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}

	h.setSessionCookie(c, session.Token)
	c.JSON(http.StatusOK, session)
}

// Logout expires the session cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Sessão encerrada"})
}

// Me returns the authenticated caller's profile and tenant
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"perfil":  middleware.CurrentProfile(c),
		"empresa": middleware.CurrentTenant(c),
	})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	maxAge := h.sessionHours * 3600
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", h.secureCookie, true)
}
