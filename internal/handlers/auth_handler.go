package handlers

import (
	"net/http"

	"lingotext/internal/middleware"
	"lingotext/internal/observability"
	"lingotext/internal/services"
	contextutils "lingotext/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// LoginRequest is the body of POST /v1/auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler serves session login and logout
type AuthHandler struct {
	users  *services.UserService
	logger *observability.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *services.UserService, logger *observability.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "login")
	defer span.End()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	user, err := h.users.AuthenticateUser(ctx, req.Username, req.Password)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.UserIDKey, user.ID)
	session.Set(middleware.UsernameKey, user.Username)
	if err := session.Save(); err != nil {
		h.logger.Error(ctx, "Failed to save session", err, map[string]interface{}{"user_id": user.ID})
		StandardizeAppError(c, contextutils.ErrInternalError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// Logout handles POST /v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "logout")
	defer span.End()

	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		StandardizeAppError(c, contextutils.ErrInternalError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me handles GET /v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "me")
	defer span.End()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		StandardizeAppError(c, contextutils.ErrUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
