package services

import (
	"errors"
	"time"

	"github.com/plateful/backend/internal/config"
	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/utils"
	"github.com/plateful/backend/pkg/logger"
	"gorm.io/gorm"
)

type AuthService struct {
	db          *gorm.DB
	registry    *TokenRegistry
	ldapService *LDAPService
	jwtConfig   *config.JWTConfig
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:          db,
		registry:    NewTokenRegistry(db, cfg.Auth.MaxRefreshTokens),
		ldapService: NewLDAPService(&cfg.LDAP),
		jwtConfig:   &cfg.JWT,
	}
}

// Registry exposes the refresh-token registry, mainly for maintenance jobs.
func (s *AuthService) Registry() *TokenRegistry {
	return s.registry
}

type RegisterRequest struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required,min=6"`
	FullName string `form:"fullName" json:"fullName" binding:"required"`
	HomeCity string `form:"homeCity" json:"homeCity" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	AuthType string `json:"auth_type"` // local, ldap
}

type LoginResult struct {
	AccessToken    string
	AccessExpireAt time.Time
	RefreshToken   string
	User           *models.User
}

type RefreshResult struct {
	AccessToken    string
	AccessExpireAt time.Time
	RefreshToken   string
}

// Register creates a new local account. profileImage is the stored filename
// of an already-saved avatar upload, or empty.
func (s *AuthService) Register(req *RegisterRequest, profileImage string) (*models.User, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailExists
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:         req.Email,
		Password:      hashed,
		FullName:      req.FullName,
		HomeCity:      req.HomeCity,
		ProfileImage:  profileImage,
		AuthType:      "local",
		RefreshTokens: []string{},
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	logger.Info().Uint("user_id", user.ID).Msg("new user registered")
	return &user, nil
}

// Login verifies credentials and issues a fresh access/refresh pair. The
// refresh token is appended to the user's registry before returning.
func (s *AuthService) Login(req *LoginRequest) (*LoginResult, error) {
	var user *models.User
	var err error

	if req.AuthType == "" {
		req.AuthType = "local"
	}

	switch req.AuthType {
	case "local":
		user, err = s.localAuth(req.Email, req.Password)
	case "ldap":
		user, err = s.ldapAuth(req.Email, req.Password)
	default:
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	accessToken, accessExpireAt, refreshToken, err := s.issueTokenPair(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.registry.Append(user.ID, refreshToken); err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	s.db.Model(user).Update("last_login", now)

	return &LoginResult{
		AccessToken:    accessToken,
		AccessExpireAt: accessExpireAt,
		RefreshToken:   refreshToken,
		User:           user,
	}, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// access/refresh pair is issued. A structurally valid token that is absent
// from the registry means it was already rotated or stolen; every session of
// that user is revoked and ErrTokenReuse is returned.
func (s *AuthService) Refresh(refreshToken string) (*RefreshResult, error) {
	claims, err := utils.ParseRefreshToken(refreshToken)
	if err != nil {
		logger.Warn().Err(err).Msg("refresh token failed signature check")
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := s.db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn().Uint("user_id", claims.UserID).Msg("refresh token for unknown user")
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	accessToken, accessExpireAt, newRefreshToken, err := s.issueTokenPair(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.registry.Rotate(user.ID, refreshToken, newRefreshToken); err != nil {
		if errors.Is(err, ErrTokenReuse) {
			logger.Warn().Uint("user_id", user.ID).Msg("refresh token reuse detected, all sessions revoked")
		}
		return nil, err
	}

	return &RefreshResult{
		AccessToken:    accessToken,
		AccessExpireAt: accessExpireAt,
		RefreshToken:   newRefreshToken,
	}, nil
}

// Logout revokes one refresh token. Logging out with an already-revoked
// token succeeds as a no-op; logout is deliberately never a reuse signal.
func (s *AuthService) Logout(refreshToken string) error {
	claims, err := utils.ParseRefreshToken(refreshToken)
	if err != nil {
		return ErrInvalidToken
	}

	var user models.User
	if err := s.db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	return s.registry.Revoke(user.ID, refreshToken)
}

func (s *AuthService) issueTokenPair(userID uint) (access string, accessExpireAt time.Time, refresh string, err error) {
	minutes := s.jwtConfig.AccessExpireMinutes
	access, err = utils.GenerateAccessToken(userID, minutes)
	if err != nil {
		return "", time.Time{}, "", err
	}

	refresh, err = utils.GenerateRefreshToken(userID)
	if err != nil {
		return "", time.Time{}, "", err
	}

	return access, time.Now().Add(time.Duration(minutes) * time.Minute), refresh, nil
}

func (s *AuthService) localAuth(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND auth_type = ?", email, "local").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

func (s *AuthService) ldapAuth(email, password string) (*models.User, error) {
	ldapUser, err := s.ldapService.Authenticate(email, password)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Find or create the delegated account; it carries no local password hash.
	var user models.User
	err = s.db.Where("email = ? AND auth_type = ?", ldapUser.Email, "ldap").First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Email:         ldapUser.Email,
			FullName:      ldapUser.FullName,
			AuthType:      "ldap",
			RefreshTokens: []string{},
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if ldapUser.FullName != "" && ldapUser.FullName != user.FullName {
		user.FullName = ldapUser.FullName
		s.db.Model(&user).Update("full_name", user.FullName)
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// ChangePassword updates a local account's password and revokes every
// refresh token, forcing other devices to log in again.
func (s *AuthService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return ErrUserNotFound
	}

	if user.AuthType != "local" {
		return ErrInvalidCredentials
	}

	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return ErrInvalidCredentials
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	if err := s.db.Model(&user).Update("password", hashed).Error; err != nil {
		return err
	}

	return s.registry.Clear(userID)
}

func (s *AuthService) IsLDAPEnabled() bool {
	return s.ldapService.IsEnabled()
}
