package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/services"
	"github.com/plateful/backend/pkg/response"
)

type PostHandler struct {
	postService   *services.PostService
	uploadService *services.UploadService
}

func NewPostHandler(postService *services.PostService, uploadService *services.UploadService) *PostHandler {
	return &PostHandler{
		postService:   postService,
		uploadService: uploadService,
	}
}

// List returns paginated posts
// GET /api/posts
func (h *PostHandler) List(c *gin.Context) {
	var req services.PostListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.postService.List(&req)
	if err != nil {
		response.ServerError(c, "failed to list posts")
		return
	}

	response.Success(c, resp)
}

// GetByID returns a post by ID
// GET /api/posts/:id
func (h *PostHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return
	}

	post, err := h.postService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "post not found")
		return
	}

	response.Success(c, post)
}

// ListByCity returns paginated posts from one city
// GET /api/posts/city/:city
func (h *PostHandler) ListByCity(c *gin.Context) {
	var req services.PostListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req.City = c.Param("city")

	resp, err := h.postService.List(&req)
	if err != nil {
		response.ServerError(c, "failed to list posts")
		return
	}

	response.Success(c, resp)
}

// ListMine returns the current user's posts
// GET /api/posts/user/me
func (h *PostHandler) ListMine(c *gin.Context) {
	var req services.PostListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req.UserID = middleware.GetUserID(c)

	resp, err := h.postService.List(&req)
	if err != nil {
		response.ServerError(c, "failed to list posts")
		return
	}

	response.Success(c, resp)
}

// Create creates a new post from a multipart form with an optional "image"
// upload.
// POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	var req services.CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var image string
	if fh, err := c.FormFile("image"); err == nil {
		name, err := h.uploadService.SaveImage(fh)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		image = name
	}

	userID := middleware.GetUserID(c)
	post, err := h.postService.Create(&req, userID, image)
	if err != nil {
		response.ServerError(c, "failed to create post")
		return
	}

	response.Created(c, post)
}

// Update updates a post owned by the current user
// PUT /api/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return
	}

	var req services.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	post, err := h.postService.Update(uint(id), userID, &req)
	if err != nil {
		h.writePostError(c, err, "failed to update post")
		return
	}

	response.Success(c, post)
}

// Delete deletes a post owned by the current user
// DELETE /api/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.postService.Delete(uint(id), userID); err != nil {
		h.writePostError(c, err, "failed to delete post")
		return
	}

	response.Success(c, gin.H{"message": "post deleted successfully"})
}

// AddComment appends a comment to a post and returns its comment list
// POST /api/posts/:id/comments
func (h *PostHandler) AddComment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return
	}

	var req services.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	comments, err := h.postService.AddComment(uint(id), userID, &req)
	if err != nil {
		h.writePostError(c, err, "failed to add comment")
		return
	}

	response.Success(c, comments)
}

func (h *PostHandler) writePostError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrPostNotFound):
		response.NotFound(c, "post not found")
	case errors.Is(err, services.ErrNotOwner):
		response.Forbidden(c, "not the post owner")
	default:
		response.ServerError(c, fallback)
	}
}
