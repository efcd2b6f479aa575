package config

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	Port           string
	MongoURI       string
	DBName         string
	JWTSecret      string
	TokenTTL       time.Duration
	Environment    string
	AllowedOrigins []string
	PublicBaseURL  string
	FrontendURL    string
	KafkaBrokers   string
	KafkaTopic     string
	SeedDemoData   bool
	AdminEmail     string
	AdminPassword  string
}

// IsDevelopment reports whether the service runs with development defaults:
// every CORS origin is accepted and the auth cookie is not marked Secure.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	return errors.Join(errs...)
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = FromEnv()
}

// FromEnv builds a Config from the current process environment without
// touching the package-level AppEnv.
func FromEnv() Config {
	return Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		MongoURI:       getEnvOrDefault("MONGO_URI", ""),
		DBName:         getEnvOrDefault("DB_NAME", "storefront"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		TokenTTL:       getDurationEnv("JWT_EXPIRES_IN", 7, 24*time.Hour),
		Environment:    getEnvOrDefault("APP_ENV", "development"),
		AllowedOrigins: getListEnv("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		PublicBaseURL:  getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"),
		FrontendURL:    getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		KafkaBrokers:   getEnvOrDefault("KAFKA_BROKERS", ""),
		KafkaTopic:     getEnvOrDefault("KAFKA_TOPIC", "storefront.orders"),
		SeedDemoData:   getBoolEnv("SEED_DEMO_DATA", false),
		AdminEmail:     getEnvOrDefault("ADMIN_EMAIL", ""),
		AdminPassword:  getEnvOrDefault("ADMIN_PASSWORD", ""),
	}
}
