package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/artpro/wealthtrack/pkg/auth"
	"github.com/artpro/wealthtrack/pkg/config"
	"github.com/artpro/wealthtrack/pkg/database"
	"github.com/artpro/wealthtrack/pkg/middleware"
	"github.com/artpro/wealthtrack/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WelcomeSender greets newly registered users
type WelcomeSender interface {
	SendWelcome(ctx context.Context, user *models.User) error
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	users  *database.UserRepository
	mailer WelcomeSender
	cfg    *config.Config
	logger zerolog.Logger
}

// NewAuthHandler creates a new auth handler; mailer may be nil
func NewAuthHandler(users *database.UserRepository, mailer WelcomeSender, cfg *config.Config, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
	}
}

// RegisterRequest represents register request body
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required."})
		return
	}
	if !auth.ValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address."})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.users.FindByEmail(ctx, req.Email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists."})
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		h.logger.Error().Err(err).Msg("Failed to look up user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
		return
	}

	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match."})
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
		return
	}

	user, err := h.users.Create(ctx, req.Email, hashed)
	if errors.Is(err, database.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists."})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
		return
	}

	h.logger.Info().Str("user_id", user.ID).Msg("User registered")

	if h.mailer != nil {
		go func(u models.User) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := h.mailer.SendWelcome(ctx, &u); err != nil {
				h.logger.Warn().Err(err).Str("user_id", u.ID).Msg("Failed to send welcome email")
			}
		}(*user)
	}

	c.JSON(http.StatusCreated, gin.H{"user": gin.H{"id": user.ID, "email": user.Email}})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required."})
		return
	}

	// Find user
	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, database.ErrNotFound) {
		h.logger.Warn().Str("email", req.Email).Msg("Login attempt with unknown email")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials."})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to look up user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
		return
	}

	// Check password
	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		h.logger.Warn().Str("email", req.Email).Msg("Login attempt with invalid password")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials."})
		return
	}

	// Generate JWT token
	token, err := auth.GenerateToken(user.ID, user.Email, h.cfg.JWTSecret, h.cfg.JWTExpiresIn)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
		return
	}

	h.logger.Info().Str("user_id", user.ID).Msg("User logged in successfully")

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(h.cfg.JWTExpiresIn.Seconds()), "/", "", h.cfg.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	h.logger.Info().Str("user_id", c.GetString(middleware.UserIDKey)).Msg("User logged out")

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.cfg.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
