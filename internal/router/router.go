package router

import (
	"github.com/gin-gonic/gin"

	"pollup/internal/config"
	"pollup/internal/handlers"
	"pollup/internal/middleware"
	"pollup/internal/services"
)

// RegisterRoutes wires every handler onto the engine. Handlers get their
// collaborators here; nothing constructs clients on its own.
func RegisterRoutes(r *gin.Engine, cfg config.Config, content *services.ContentService, identity *services.IdentityService, uploads *services.UploadService) {
	authHandler := handlers.NewAuthHandler(content, identity)
	oauthHandler := handlers.NewOAuthHandler(content, cfg)
	userHandler := handlers.NewUserHandler(content)
	postHandler := handlers.NewPostHandler(content)
	voteHandler := handlers.NewVoteHandler(content)
	notificationHandler := handlers.NewNotificationHandler(content)
	uploadHandler := handlers.NewUploadHandler(uploads)

	// Public routes
	r.POST("/api/auth/signup", authHandler.SignUp)
	r.POST("/api/auth/signin", authHandler.SignIn)
	r.GET("/api/auth/logout", authHandler.Logout)
	r.GET("/auth/google", oauthHandler.Login)
	r.GET("/auth/google/callback", oauthHandler.Callback)

	r.GET("/api/users/:id", userHandler.GetByID)
	r.GET("/api/users/:id/posts", userHandler.Posts)
	r.GET("/api/username/:username", userHandler.GetByUsername)
	r.GET("/api/posts/:id", postHandler.Get)
	r.GET("/api/feed", postHandler.Feed)

	// Protected routes
	authorized := r.Group("/api")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts", postHandler.Create)
		authorized.POST("/posts/:id/like", postHandler.ToggleLike)
		authorized.POST("/posts/:id/comments", postHandler.AddComment)
		authorized.POST("/posts/:id/vote", voteHandler.Cast)

		authorized.POST("/users/:id/follow", userHandler.Follow)
		authorized.DELETE("/users/:id/follow", userHandler.Unfollow)
		authorized.PUT("/users/me", userHandler.UpdateProfile)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.GET("/notifications/unread", notificationHandler.Unread)
		authorized.POST("/notifications/:id/read", notificationHandler.Read)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)

		authorized.POST("/uploads/sign", uploadHandler.Sign)
	}

	// Storage host callback, authenticated by the grant signature itself.
	r.GET("/api/uploads/verify", uploadHandler.Verify)
}
