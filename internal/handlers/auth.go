package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/services"
	"github.com/plateful/backend/pkg/logger"
	"github.com/plateful/backend/pkg/response"
)

type AuthHandler struct {
	authService   *services.AuthService
	uploadService *services.UploadService
}

func NewAuthHandler(authService *services.AuthService, uploadService *services.UploadService) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		uploadService: uploadService,
	}
}

// Register creates a new account from a multipart form with an optional
// "picture" avatar upload.
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var profileImage string
	if fh, err := c.FormFile("picture"); err == nil {
		name, err := h.uploadService.SaveImage(fh)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		profileImage = name
	}

	user, err := h.authService.Register(&req, profileImage)
	if err != nil {
		if errors.Is(err, services.ErrEmailExists) {
			response.Conflict(c, "email already exists")
			return
		}
		response.ServerError(c, "failed to register")
		return
	}

	response.Created(c, user)
}

// Login verifies credentials and returns an access/refresh token pair.
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Login(&req)
	if err != nil {
		// A wrong email and a wrong password are deliberately not
		// distinguishable from the outside.
		if errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		response.ServerError(c, "failed to login")
		return
	}

	response.Success(c, gin.H{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"expireAt":     result.AccessExpireAt,
		"user":         result.User,
	})
}

// Refresh rotates the presented refresh token and returns a new pair.
// The refresh token travels as a bearer token.
// GET /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := middleware.BearerToken(c)
	if refreshToken == "" {
		response.Unauthorized(c, "refresh token required")
		return
	}

	result, err := h.authService.Refresh(refreshToken)
	if err != nil {
		// Reused, forged and unresolvable tokens all get the same
		// response body; the distinction stays in the server logs.
		if errors.Is(err, services.ErrInvalidToken) || errors.Is(err, services.ErrTokenReuse) {
			response.Unauthorized(c, "invalid refresh token")
			return
		}
		logger.Error().Err(err).Msg("refresh failed")
		response.ServerError(c, "failed to refresh")
		return
	}

	response.Success(c, gin.H{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"expireAt":     result.AccessExpireAt,
	})
}

// Logout revokes the presented refresh token. Logging out twice with the
// same token succeeds both times.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken := middleware.BearerToken(c)
	if refreshToken == "" {
		response.Unauthorized(c, "refresh token required")
		return
	}

	if err := h.authService.Logout(refreshToken); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			response.Unauthorized(c, "invalid refresh token")
			return
		}
		logger.Error().Err(err).Msg("logout failed")
		response.ServerError(c, "failed to logout")
		return
	}

	response.Success(c, gin.H{"message": "logged out successfully"})
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID := middleware.GetUserID(c)
	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}

	response.Success(c, user)
}

// ChangePassword updates the current user's password and revokes all of
// their refresh tokens.
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.authService.ChangePassword(userID, &req); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			response.Unauthorized(c, "incorrect old password")
			return
		}
		if errors.Is(err, services.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.ServerError(c, "failed to change password")
		return
	}

	response.Success(c, gin.H{"message": "password changed successfully"})
}

// GetAuthConfig returns authentication configuration
// GET /api/auth/config
func (h *AuthHandler) GetAuthConfig(c *gin.Context) {
	response.Success(c, gin.H{
		"ldap_enabled": h.authService.IsLDAPEnabled(),
	})
}
