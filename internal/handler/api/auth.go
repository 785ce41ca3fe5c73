package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"classcribe/internal/handler/dto/request"
	"classcribe/internal/handler/dto/response"
	"classcribe/internal/handler/middleware"
	"classcribe/internal/pkg/config"
	"classcribe/internal/pkg/cookie"
	"classcribe/internal/pkg/errs"
	"classcribe/internal/usecase/commands"
	"classcribe/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authCommands commands.AuthCommands
	userQueries  queries.UserQueries
	cookieCfg    config.CookieConfig
	tokenTTL     time.Duration
}

func NewAuthHandler(
	authCommands commands.AuthCommands,
	userQueries queries.UserQueries,
	cookieCfg config.CookieConfig,
	tokenTTL time.Duration,
) *AuthHandler {
	return &AuthHandler{
		authCommands: authCommands,
		userQueries:  userQueries,
		cookieCfg:    cookieCfg,
		tokenTTL:     tokenTTL,
	}
}

// Login authenticates a user and sets the access token cookie
// @Summary      User login
// @Description  Authenticate with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body request.LoginRequest true "Login credentials"
// @Success      200 {object} response.LoginResponse
// @Failure      400 {object} map[string]string
// @Failure      401 {object} map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.authCommands.Login(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		case errors.Is(err, commands.ErrUserInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
		default:
			slog.Error("login failed", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		}
		return
	}

	user, err := h.userQueries.GetByID(c.Request.Context(), result.UserID)
	if err != nil {
		slog.Error("failed to load user after login", "user_id", result.UserID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		return
	}

	cookie.SetTokenCookie(c, h.cookieCfg, result.Token, h.tokenTTL)

	c.JSON(http.StatusOK, response.LoginResponse{
		AccessToken: result.Token,
		User:        user,
	})
}

// Signup registers a teacher account
// @Summary      User signup
// @Description  Register a new teacher account with the signup credit bonus
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body request.SignupRequest true "Signup credentials"
// @Success      201 {object} response.LoginResponse
// @Failure      400 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req request.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.authCommands.Signup(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrEmailAlreadyUsed):
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		case errors.Is(err, errs.ErrDomainValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
		default:
			slog.Error("signup failed", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Signup failed"})
		}
		return
	}

	user, err := h.userQueries.GetByID(c.Request.Context(), result.UserID)
	if err != nil {
		slog.Error("failed to load user after signup", "user_id", result.UserID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Signup failed"})
		return
	}

	cookie.SetTokenCookie(c, h.cookieCfg, result.Token, h.tokenTTL)

	c.JSON(http.StatusCreated, response.LoginResponse{
		AccessToken: result.Token,
		User:        user,
	})
}

// Logout clears the access token cookie
// @Summary      User logout
// @Tags         auth
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	cookie.ClearTokenCookie(c, h.cookieCfg)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the authenticated user's profile
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200 {object} queries.AuthorizedUserView
// @Failure      401 {object} map[string]string
// @Security     BearerAuth
// @Router       /users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	user, err := h.userQueries.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}
