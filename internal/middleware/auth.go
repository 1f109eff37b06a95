package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"controlia/internal/models"
	"controlia/internal/services"
)

// SessionCookie is the HTTP-only cookie carrying the session token
const SessionCookie = "controlia_session"

const (
	ctxProfileKey = "profile"
	ctxTenantKey  = "tenant"
)

// SessionValidator resolves a session token into the caller's profile
// and tenant, enforcing the account and tenant guard invariants.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*models.Profile, *models.Tenant, error)
}

// Authenticate resolves the caller's session from the cookie or the
// Authorization header and loads profile and tenant into the request
// context. Every protected route runs behind this.
func Authenticate(validator SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "Não autenticado"})
			return
		}

		profile, tenant, err := validator.ValidateSession(c.Request.Context(), token)
		if err != nil {
			if services.IsAuthError(err) {
				c.AbortWithStatusJSON(401, gin.H{"error": err.Error()})
			} else {
				c.AbortWithStatusJSON(500, gin.H{"error": "Erro interno do servidor"})
			}
			return
		}

		c.Set(ctxProfileKey, profile)
		c.Set(ctxTenantKey, tenant)
		c.Next()
	}
}

// MinRole rejects callers below the given role. Roles are ordered
// user < admin < master, so a master passes every check.
func MinRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := CurrentProfile(c)
		if profile == nil || !models.RoleAtLeast(profile.Role, role) {
			c.AbortWithStatusJSON(403, gin.H{"error": "Permissão insuficiente"})
			return
		}
		c.Next()
	}
}

// CurrentProfile returns the authenticated profile, or nil outside
// the Authenticate chain.
func CurrentProfile(c *gin.Context) *models.Profile {
	if v, ok := c.Get(ctxProfileKey); ok {
		if profile, ok := v.(*models.Profile); ok {
			return profile
		}
	}
	return nil
}

// CurrentTenant returns the authenticated caller's tenant, or nil
// outside the Authenticate chain.
func CurrentTenant(c *gin.Context) *models.Tenant {
	if v, ok := c.Get(ctxTenantKey); ok {
		if tenant, ok := v.(*models.Tenant); ok {
			return tenant
		}
	}
	return nil
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
