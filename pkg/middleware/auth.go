package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/artpro/wealthtrack/pkg/auth"
	"github.com/artpro/wealthtrack/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Context keys set by AuthMiddleware
const (
	UserIDKey = "user_id"
	EmailKey  = "email"
)

// TokenCookie is the name of the session cookie
const TokenCookie = "token"

// AuthMiddleware validates JWT tokens from the Authorization header or the token cookie
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(TokenCookie)
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := auth.ValidateToken(token, cfg.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// Set user info in context
		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>"
func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequestLogger writes one access log line per request
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		}

		event = event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start))
		if userID := c.GetString(UserIDKey); userID != "" {
			event = event.Str("user_id", userID)
		}
		event.Msg("Request handled")
	}
}
