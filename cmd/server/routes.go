package main

import (
	"github.com/gin-gonic/gin"
	"github.com/plateful/backend/internal/handlers"
	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for credential-bearing routes
	authLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	r.GET("/health", handlers.Health)

	// Uploaded images (post photos, avatars)
	r.Static("/uploads", svc.uploadDir)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
			auth.GET("/refresh", svc.authHandler.Refresh)
			auth.POST("/logout", svc.authHandler.Logout)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Posts (public reads)
		api.GET("/posts", svc.postHandler.List)
		api.GET("/posts/:id", svc.postHandler.GetByID)
		api.GET("/posts/city/:city", svc.postHandler.ListByCity)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Users
			protected.GET("/users", svc.userHandler.List)
			protected.GET("/users/me", svc.userHandler.Me)
			protected.GET("/users/:id", svc.userHandler.GetByID)
			protected.PUT("/users/:id", svc.userHandler.Update)

			// Posts (writes)
			protected.GET("/posts/user/me", svc.postHandler.ListMine)
			protected.POST("/posts", svc.postHandler.Create)
			protected.PUT("/posts/:id", svc.postHandler.Update)
			protected.DELETE("/posts/:id", svc.postHandler.Delete)
			protected.POST("/posts/:id/comments", svc.postHandler.AddComment)
		}
	}
}
