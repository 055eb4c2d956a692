package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/services"
	"github.com/plateful/backend/pkg/response"
)

type UserHandler struct {
	userService   *services.UserService
	uploadService *services.UploadService
}

func NewUserHandler(userService *services.UserService, uploadService *services.UploadService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		uploadService: uploadService,
	}
}

// List returns paginated users
// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.userService.List(&req)
	if err != nil {
		response.ServerError(c, "failed to list users")
		return
	}

	response.Success(c, resp)
}

// Me returns the current user
// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetByID(middleware.GetUserID(c))
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}

	response.Success(c, user)
}

// GetByID returns a user by ID
// GET /api/users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	user, err := h.userService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}

	response.Success(c, user)
}

// Update updates the current user's own profile, with an optional "picture"
// avatar upload.
// PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	if uint(id) != middleware.GetUserID(c) {
		response.Forbidden(c, "cannot update another user's profile")
		return
	}

	var req services.UpdateProfileRequest
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

	user, err := h.userService.UpdateProfile(uint(id), &req, profileImage)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.ServerError(c, "failed to update profile")
		return
	}

	response.Success(c, user)
}
