package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitKheang/quiz-backend/internal/config"
	"github.com/gitKheang/quiz-backend/internal/model"
	"github.com/gitKheang/quiz-backend/internal/service"
)

func newTestAuth(t *testing.T, role model.Role) (*service.AuthService, string) {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		CookieName: "access_token",
	}
	svc := service.NewAuthService(cfg, nil)

	token, err := svc.GenerateToken(&model.User{
		ID:    uuid.New(),
		Name:  "Tester",
		Email: "tester@example.com",
		Role:  role,
	})
	require.NoError(t, err)
	return svc, token
}

func newTestRouter(auth gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", auth, func(c *gin.Context) {
		claims := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"email": claims.Email})
	})
	return r
}

func TestRequireAuth_CookieToken(t *testing.T) {
	svc, token := newTestAuth(t, model.RoleUser)
	r := newTestRouter(RequireAuth(svc))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tester@example.com")
}

func TestRequireAuth_BearerFallback(t *testing.T) {
	svc, token := newTestAuth(t, model.RoleUser)
	r := newTestRouter(RequireAuth(svc))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	svc, _ := newTestAuth(t, model.RoleUser)
	r := newTestRouter(RequireAuth(svc))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	svc, _ := newTestAuth(t, model.RoleUser)
	r := newTestRouter(RequireAuth(svc))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "not-a-jwt"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	svc, userToken := newTestAuth(t, model.RoleUser)
	r := newTestRouter(RequireAdmin(svc))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: userToken})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, adminToken := newTestAuth(t, model.RoleAdmin)
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: adminToken})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	svc, token := newTestAuth(t, model.RoleUser)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/open", OptionalAuth(svc), func(c *gin.Context) {
		if claims := GetClaims(c); claims != nil {
			c.JSON(http.StatusOK, gin.H{"signed_in": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"signed_in": false})
	})

	// Anonymous request passes through.
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "false")

	// A valid cookie attaches claims.
	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), "true")
}
