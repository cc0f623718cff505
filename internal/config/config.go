package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
// Built once in main and passed down; nothing else touches os.Getenv.
type Config struct {
	Port          string
	SiteURL       string
	SessionSecret string

	MongoURI string // empty = in-memory store
	DBName   string

	RedisAddr     string
	RedisPassword string

	// Identity provider
	IdentitySecret     string // HMAC secret for provider-issued tokens
	GoogleClientID     string
	GoogleClientSecret string

	// Object storage
	UploadSecret   string
	UploadBaseURL  string
	UploadGrantTTL time.Duration
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		SiteURL:            getEnv("SITE_URL", "http://localhost:8080"),
		SessionSecret:      getEnv("SESSION_SECRET", "secret_key_change_me"),
		MongoURI:           os.Getenv("MONGO_URI"),
		DBName:             getEnv("DB_NAME", "pollup"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		IdentitySecret:     getEnv("IDENTITY_SECRET", "identity_secret_change_me"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		UploadSecret:       getEnv("UPLOAD_SECRET", "upload_secret_change_me"),
		UploadBaseURL:      getEnv("UPLOAD_BASE_URL", "http://localhost:8080/media"),
		UploadGrantTTL:     15 * time.Minute,
	}
	return cfg
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
