package main

import (
	"github.com/plateful/backend/internal/config"
	"github.com/plateful/backend/internal/handlers"
	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/services"
	"github.com/plateful/backend/internal/utils"
	"github.com/plateful/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	uploadDir   string
	maintenance *services.SessionMaintenance
	authHandler *handlers.AuthHandler
	userHandler *handlers.UserHandler
	postHandler *handlers.PostHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecrets(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	uploadService, err := services.NewUploadService(&cfg.Upload)
	if err != nil {
		logger.Fatalf("Failed to init upload storage: %v", err)
	}

	db := models.GetDB()
	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db)
	postService := services.NewPostService(db)

	maintenance := services.NewSessionMaintenance(db, authService.Registry(), cfg.Auth.MaxRefreshTokens)
	maintenance.StartScheduler()

	return &appServices{
		uploadDir:   uploadService.Dir(),
		maintenance: maintenance,
		authHandler: handlers.NewAuthHandler(authService, uploadService),
		userHandler: handlers.NewUserHandler(userService, uploadService),
		postHandler: handlers.NewPostHandler(postService, uploadService),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.maintenance.StopScheduler()
	logger.Info().Msg("All schedulers stopped")
}
