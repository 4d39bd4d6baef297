package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(tm *TokenManager) *gin.Engine {
	router := gin.New()
	router.Use(AuthMiddleware(tm))
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	return router
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager(DefaultConfig("test-secret"))

	token, err := tm.Generate("user-42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	config := DefaultConfig("test-secret")
	config.TokenTTL = -time.Minute
	tm := NewTokenManager(config)

	token, err := tm.Generate("user-42")
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	token, err := NewTokenManager(DefaultConfig("secret-a")).Generate("user-42")
	require.NoError(t, err)

	_, err = NewTokenManager(DefaultConfig("secret-b")).Validate(token)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager(DefaultConfig("test-secret"))
	router := newAuthRouter(tm)

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("not a bearer token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := tm.Generate("user-42")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "user-42")
	})
}

func TestValidateID(t *testing.T) {
	config := DefaultConfig("test-secret")

	assert.NoError(t, ValidateID(config, "b7c2f9d0"))
	assert.Error(t, ValidateID(config, ""))
	assert.Error(t, ValidateID(config, strings.Repeat("a", 65)))
	assert.Error(t, ValidateID(config, "abc\x00def"))
	assert.Error(t, ValidateID(config, string([]byte{0xff, 0xfe})))
}

func TestValidateContentType(t *testing.T) {
	router := gin.New()
	router.Use(ValidateContentType())
	router.POST("/submit", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	t.Run("json accepted", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("form rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader("a=b"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("empty body allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Referrer-Policy"))
}
