package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resumehub/internal/api/middleware"
	"resumehub/internal/auth"
	"resumehub/internal/errcode"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	authService           *auth.Service
	redis                 redis.UniversalClient
	logger                *slog.Logger
	loginRateLimitPerHour int
}

// NewAuthHandler constructs the handler. redisClient may be nil, in which
// case login throttling is disabled.
func NewAuthHandler(authService *auth.Service, redisClient redis.UniversalClient, logger *slog.Logger, loginRateLimitPerHour int) *AuthHandler {
	return &AuthHandler{
		authService:           authService,
		redis:                 redisClient,
		logger:                logger,
		loginRateLimitPerHour: loginRateLimitPerHour,
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register creates a new account and returns its first access token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	logger := h.loggerFromContext(c).With(slog.String("email", req.Email))

	token, err := h.authService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			logger.Info("register conflict: email already registered")
			Error(c, http.StatusBadRequest, errcode.EmailTaken, "email already registered")
			return
		}
		logger.Error("register failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("user registered")
	c.JSON(http.StatusCreated, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Login exchanges credentials for an access token. Unknown email and wrong
// password are reported identically.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(slog.String("email", req.Email))

	if h.redis != nil && h.loginRateLimitPerHour > 0 {
		rateKey := "rate:login:" + c.ClientIP() + ":" + strings.ToLower(req.Email) + ":" + time.Now().UTC().Format("2006010215")
		count, err := incrWithTTL(ctx, h.redis, rateKey, time.Hour)
		if err != nil {
			count = 0
		}
		if count > int64(h.loginRateLimitPerHour) {
			logger.Info("login rate limit exceeded")
			Error(c, http.StatusTooManyRequests, errcode.RateLimited, "rate limit exceeded")
			return
		}
	}

	token, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Info("login failed")
			Error(c, http.StatusUnauthorized, errcode.InvalidCredentials, "invalid credentials")
			return
		}
		logger.Error("login failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("login successful")
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *AuthHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
