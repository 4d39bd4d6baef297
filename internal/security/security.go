// Package security holds the auth boundary and request-hardening
// middleware: JWT bearer tokens, security headers, content-type checks,
// and request timeouts.
package security

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextUserKey is the gin context key carrying the authenticated user ID.
const ContextUserKey = "user_id"

// Config holds security configuration.
type Config struct {
	JWTSecret      string        `json:"-"`
	TokenTTL       time.Duration `json:"token_ttl"`
	MaxIDLength    int           `json:"max_id_length"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// DefaultConfig returns secure defaults.
func DefaultConfig(jwtSecret string) Config {
	return Config{
		JWTSecret:      jwtSecret,
		TokenTTL:       24 * time.Hour,
		MaxIDLength:    64,
		RequestTimeout: 30 * time.Second,
	}
}

// TokenManager issues and validates session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager from the config.
func NewTokenManager(config Config) *TokenManager {
	return &TokenManager{
		secret: []byte(config.JWTSecret),
		ttl:    config.TokenTTL,
	}
}

// Generate issues a signed session token for the user.
func (tm *TokenManager) Generate(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(tm.ttl).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate parses a session token and returns the user ID.
func (tm *TokenManager) Validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// AuthMiddleware enforces a valid bearer token and stores the caller's
// user ID in the request context.
func AuthMiddleware(tm *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must be a bearer token"})
			return
		}

		userID, err := tm.Validate(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ContextUserKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user ID from the gin context.
func UserID(c *gin.Context) string {
	if v, exists := c.Get(ContextUserKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// ValidateID checks a path identifier before it reaches the database.
func ValidateID(config Config, id string) error {
	if id == "" {
		return fmt.Errorf("identifier is empty")
	}
	if len(id) > config.MaxIDLength {
		return fmt.Errorf("identifier exceeds maximum length of %d characters", config.MaxIDLength)
	}
	if strings.Contains(id, "\x00") {
		return fmt.Errorf("identifier contains invalid characters")
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("identifier contains invalid UTF-8 encoding")
	}
	return nil
}

// ValidateContentType rejects mutating requests without a JSON body type.
func ValidateContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut || c.Request.Method == http.MethodPatch {
			if c.Request.ContentLength > 0 {
				contentType := c.GetHeader("Content-Type")
				if !strings.HasPrefix(contentType, "application/json") {
					c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
						"error": "content type must be application/json",
					})
					return
				}
			}
		}
		c.Next()
	}
}

// RequestTimeout bounds how long a single request may run.
func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
