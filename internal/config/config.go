package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port       string
	MongoURI   string
	MongoDB    string
	JWTSecret  string
	CORSOrigin string
}

func Load() *Config {
	if os.Getenv("APP_ENV") == "dev" {
		godotenv.Load()
	}

	return &Config{
		Port:       getenv("PORT", "5002"),
		MongoURI:   getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:    getenv("MONGO_DB", "user_admin"),
		JWTSecret:  getenv("JWT_SECRET", ""),
		CORSOrigin: getenv("CORS_ORIGIN", "http://localhost:3000"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
