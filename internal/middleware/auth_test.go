package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"controlia/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func routerWithRole(role string, minRole string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ctxProfileKey, &models.Profile{Role: role})
	})
	r.GET("/guarded", MinRole(minRole), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestMinRoleGuard(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		minRole string
		status  int
	}{
		{"user on user route", models.RoleUser, models.RoleUser, http.StatusOK},
		{"user on admin route", models.RoleUser, models.RoleAdmin, http.StatusForbidden},
		{"user on master route", models.RoleUser, models.RoleMaster, http.StatusForbidden},
		{"admin on admin route", models.RoleAdmin, models.RoleAdmin, http.StatusOK},
		{"admin on master route", models.RoleAdmin, models.RoleMaster, http.StatusForbidden},
		{"master satisfies admin route", models.RoleMaster, models.RoleAdmin, http.StatusOK},
		{"master satisfies user route", models.RoleMaster, models.RoleUser, http.StatusOK},
		{"unknown role rejected everywhere", "root", models.RoleUser, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			routerWithRole(tt.role, tt.minRole).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"Permissão insuficiente"}`, w.Body.String())
			}
		})
	}
}

func TestMinRoleWithoutProfile(t *testing.T) {
	r := gin.New()
	r.GET("/guarded", MinRole(models.RoleUser), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestExtractTokenPrefersCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: SessionCookie, Value: "cookie-token"})
	c.Request.Header.Set("Authorization", "Bearer header-token")

	assert.Equal(t, "cookie-token", extractToken(c))
}

func TestExtractTokenBearerFallback(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer header-token")

	assert.Equal(t, "header-token", extractToken(c))
}

func TestExtractTokenEmpty(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	assert.Empty(t, extractToken(c))
}
