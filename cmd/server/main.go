package main

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"pollup/internal/config"
	"pollup/internal/middleware"
	"pollup/internal/router"
	"pollup/internal/services"
	"pollup/internal/store"
	"pollup/internal/utils"
)

func main() {
	cfg := config.Load()

	// Persistence: Mongo when configured, in-memory otherwise.
	var (
		st  store.Store
		err error
	)
	ctx := context.Background()
	if cfg.MongoURI != "" {
		st, err = store.NewMongo(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		log.Println("Database connection established")
	} else {
		st = store.NewMemory()
		log.Println("MONGO_URI not set, using in-memory store")
	}
	defer st.Close(ctx)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()

	cache, err := utils.NewCache(500)
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}

	contentService := services.NewContentService(st)
	identityService := services.NewIdentityService(cfg.IdentitySecret)
	uploadService := services.NewUploadService(rdb, cfg.UploadSecret, cfg.UploadBaseURL, cfg.UploadGrantTTL)

	// Initialize Gin
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.SiteURL, "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Setup Sessions
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("pollup_session", sessionStore))

	// Middleware
	r.Use(middleware.LoadUser(contentService, identityService, cache))

	router.RegisterRoutes(r, cfg, contentService, identityService, uploadService)

	log.Printf("PollUp server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
