package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/disfruleg/disfruleg-pos/internal/application/service"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/dto/request"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/dto/response"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/middleware"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	sessions    *service.SessionRegistry
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, sessions *service.SessionRegistry) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions}
}

// Login handles operator login
// @Summary Login
// @Description Authenticate an operator and open a receipt session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Login credentials"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 423 {object} response.APIResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	output, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Login successful", gin.H{
		"user": gin.H{
			"id":        output.User.ID,
			"username":  output.User.Username,
			"full_name": output.User.FullName,
			"role":      output.User.Role,
		},
		"session_id":   output.Session.SessionID,
		"login_at":     output.Session.LoginAt,
		"expires_at":   output.Session.ExpiresAt,
		"access_token": output.AccessToken,
		"token_type":   "Bearer",
	})
}

// Logout handles operator logout
// @Summary Logout
// @Description Discard the receipt session (client should discard the token)
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if auth, ok := middleware.GetAuthSession(c); ok {
		h.sessions.Drop(auth.SessionID)
	}
	response.OK(c, "Logged out successfully", nil)
}

// GetProfile handles fetching current user profile
// @Summary Get Profile
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	auth, ok := middleware.GetAuthSession(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	user, err := h.authService.GetCurrentUser(c.Request.Context(), auth.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Profile retrieved successfully", gin.H{
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"full_name":  user.FullName,
			"role":       user.Role,
			"active":     user.Active,
			"created_at": user.CreatedAt,
		},
		"session": gin.H{
			"id":         auth.SessionID,
			"login_at":   auth.LoginAt,
			"expires_at": auth.ExpiresAt,
		},
	})
}
