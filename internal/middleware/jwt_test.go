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

	"github.com/lumalearn/analytics-api/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims *models.JWTClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateTokenRoundTrip(t *testing.T) {
	issued := &models.JWTClaims{
		UserID:   "parent-1",
		Role:     models.RoleParent,
		ChildIDs: []string{"child-1", "child-2"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	claims, err := ValidateToken(signToken(t, issued, testSecret), testSecret)
	require.NoError(t, err)
	assert.Equal(t, "parent-1", claims.UserID)
	assert.True(t, claims.CanAccessChild("child-2"))
	assert.False(t, claims.CanAccessChild("child-9"))
}

func TestValidateTokenRejectsBadSecret(t *testing.T) {
	issued := &models.JWTClaims{
		UserID: "parent-1",
		Role:   models.RoleParent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	_, err := ValidateToken(signToken(t, issued, "other-secret"), testSecret)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	issued := &models.JWTClaims{
		UserID: "parent-1",
		Role:   models.RoleParent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}

	_, err := ValidateToken(signToken(t, issued, testSecret), testSecret)
	assert.Error(t, err)
}

func TestValidateTokenRejectsMissingSubject(t *testing.T) {
	issued := &models.JWTClaims{
		Role: models.RoleParent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	_, err := ValidateToken(signToken(t, issued, testSecret), testSecret)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWT(testSecret))
	r.GET("/ping", func(c *gin.Context) {
		claims, _ := c.Get(ContextUserKey)
		assert.NotNil(t, claims)
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	issued := &models.JWTClaims{
		UserID: "parent-1",
		Role:   models.RoleParent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, issued, testSecret))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}
