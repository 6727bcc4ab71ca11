package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-unity/classunity-api/internal/models"
	"github.com/class-unity/classunity-api/pkg/config"
)

const testSecret = "test-secret"

func sessionConfig() config.SessionConfig {
	return config.SessionConfig{Secret: testSecret, Issuer: "classunity", Leeway: 30 * time.Second}
}

func mintToken(t *testing.T, claims *models.SessionClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(role models.Role) *models.SessionClaims {
	return &models.SessionClaims{
		UserID: "user-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "classunity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func sessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(sessionConfig()))
	r.GET("/ping", func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.SessionClaims)
		c.JSON(http.StatusOK, gin.H{"user": claims.UserID, "role": claims.Role})
	})
	return r
}

func TestSessionAcceptsBearerToken(t *testing.T) {
	r := sessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, validClaims(models.RoleTeacher), testSecret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}

func TestSessionAcceptsCookie(t *testing.T) {
	r := sessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.AddCookie(&http.Cookie{Name: "__session", Value: mintToken(t, validClaims(models.RoleStudent), testSecret)})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionRejectsMissingToken(t *testing.T) {
	r := sessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRejectsBadSignature(t *testing.T) {
	r := sessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, validClaims(models.RoleTeacher), "wrong-secret"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRejectsExpiredToken(t *testing.T) {
	r := sessionRouter()

	claims := validClaims(models.RoleTeacher)
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, claims, testSecret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRejectsUnknownRole(t *testing.T) {
	r := sessionRouter()

	claims := validClaims(models.Role("owner"))
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, claims, testSecret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRejectsMissingUserID(t *testing.T) {
	r := sessionRouter()

	claims := validClaims(models.RoleTeacher)
	claims.UserID = ""
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, claims, testSecret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
