package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const devJWTSecret = "takopi-dev-secret"

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	MetricsPort             string

	JWTSecret      string
	JWTExpiry      time.Duration
	AuthCookieName string
	CookieSecure   bool

	CORSAllowOrigins []string
	RateLimitRPS     float64
	RateLimitBurst   int

	MeshyAPIKey  string
	MeshyBaseURL string
	MeshyTimeout time.Duration

	ResendAPIKey string
	EmailFrom    string
	AppBaseURL   string
}

// Load reads the configuration from the environment, loading a .env file first when one exists.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, reading configuration from the environment")
	}

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "takopi"),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTExpiry:      getEnvDuration("JWT_EXPIRY", 7*24*time.Hour),
		AuthCookieName: getEnv("AUTH_COOKIE_NAME", "token"),

		CORSAllowOrigins: getEnvList("CORS_ALLOW_ORIGINS", []string{"*"}),
		RateLimitRPS:     getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 20),

		MeshyAPIKey:  getEnv("MESHY_API_KEY", ""),
		MeshyBaseURL: getEnv("MESHY_BASE_URL", "https://api.meshy.ai"),
		MeshyTimeout: getEnvDuration("MESHY_TIMEOUT", 30*time.Second),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "Takopi <noreply@takopi.app>"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:3000"),
	}

	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", cfg.IsProduction())
	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = devJWTSecret
	}
	return cfg
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.PostgresConnStr == "" {
		errs = append(errs, errors.New("POSTGRES_CONN_STR environment variable not set"))
	}
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI environment variable not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable not set"))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction enables secure cookies and a mandatory JWT secret.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
