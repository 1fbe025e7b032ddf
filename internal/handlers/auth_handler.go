package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocket-assess/assessment-service/internal/services"
	"github.com/rocket-assess/assessment-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
	}
}

// Login exchanges org code, email, password and role for a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newErrorResponse("bad_request", "Invalid request payload", err.Error()))
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		// Login failures come back as access_denied, which would normally
		// map to 403. Unauthenticated callers get 401 instead.
		if services.IsAccessDenied(err) {
			c.JSON(http.StatusUnauthorized, newErrorResponse("unauthorized", "invalid credentials", nil))
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout revokes the caller's session token.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := sessionToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, newErrorResponse("unauthorized", "not authenticated", nil))
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Logged out"})
}

// Me returns the identity behind the current session.
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, newErrorResponse("unauthorized", "not authenticated", nil))
		return
	}
	c.JSON(http.StatusOK, actor)
}
