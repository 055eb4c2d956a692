package services

import (
	"errors"

	"github.com/plateful/backend/internal/models"
	"gorm.io/gorm"
)

type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

type PostListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	City     string `form:"city"`
	UserID   uint   `form:"user_id"`
}

type PostListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.Post `json:"items"`
}

type CreatePostRequest struct {
	Restaurant  string `form:"restaurant" json:"restaurant" binding:"required"`
	Description string `form:"description" json:"description"`
	City        string `form:"city" json:"city" binding:"required"`
}

type UpdatePostRequest struct {
	Restaurant  string `json:"restaurant"`
	Description *string `json:"description"`
	City        string `json:"city"`
}

type AddCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

// List returns paginated posts, newest first, optionally filtered by city
// or owning user.
func (s *PostService) List(req *PostListRequest) (*PostListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var posts []models.Post
	var total int64

	query := s.db.Model(&models.Post{})
	if req.City != "" {
		query = query.Where("city = ?", req.City)
	}
	if req.UserID != 0 {
		query = query.Where("user_id = ?", req.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	err := query.
		Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Order("created_at DESC").
		Offset(offset).Limit(req.PageSize).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	return &PostListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    posts,
	}, nil
}

// GetByID returns one post with its author and ordered comments.
func (s *PostService) GetByID(id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.
		Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Comments.User").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Create stores a new post owned by userID. image is the stored filename of
// an already-saved upload, or empty.
func (s *PostService) Create(req *CreatePostRequest, userID uint, image string) (*models.Post, error) {
	post := models.Post{
		Restaurant:  req.Restaurant,
		Description: req.Description,
		Image:       image,
		City:        req.City,
		UserID:      userID,
		Comments:    []models.Comment{},
	}
	if err := s.db.Create(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// Update modifies a post. Only the owner may update it.
func (s *PostService) Update(id, userID uint, req *UpdatePostRequest) (*models.Post, error) {
	var post models.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if post.UserID != userID {
		return nil, ErrNotOwner
	}

	if req.Restaurant != "" {
		post.Restaurant = req.Restaurant
	}
	if req.Description != nil {
		post.Description = *req.Description
	}
	if req.City != "" {
		post.City = req.City
	}

	if err := s.db.Save(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete removes a post and its comments. Only the owner may delete it.
func (s *PostService) Delete(id, userID uint) error {
	var post models.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	if post.UserID != userID {
		return ErrNotOwner
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
}

// AddComment appends a comment by userID to the post and returns the post's
// full comment list.
func (s *PostService) AddComment(postID, userID uint, req *AddCommentRequest) ([]models.Comment, error) {
	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	comment := models.Comment{
		PostID: postID,
		UserID: userID,
		Body:   req.Body,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}

	var comments []models.Comment
	err := s.db.Where("post_id = ?", postID).
		Preload("User").
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}
