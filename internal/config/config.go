package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"libraryhub/internal/pkg/logger"
)

const defaultSecret = "default_secret"

// Config holds all configuration for the application
type Config struct {
	AppMode        string
	Port           string
	LogLevel       string
	RequestTimeout time.Duration
	TrustedProxies []string
	Database       DatabaseConfig
	JWT            JWTConfig
	Cookie         CookieConfig
	Mail           MailConfig
	Queue          QueueConfig
	Library        LibraryConfig
	Seed           SeedConfig
}

// DatabaseConfig holds database configuration. Driver is mysql, postgres or memory.
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// MailConfig holds SMTP settings. An empty Host logs mails instead of sending them.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// QueueConfig controls notification delivery. An empty RedisAddr keeps the queue in memory.
type QueueConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Key           string
	Buffer        int
	Workers       int
	MaxAttempts   int
	RetryBackoff  time.Duration
}

// LibraryConfig holds circulation rules and schedules
type LibraryConfig struct {
	LoanDays         int
	OverdueCron      string
	TokenCleanupCron string
}

// SeedConfig holds the bootstrap admin account
type SeedConfig struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	log := logger.GetLogger(context.Background())

	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	cfg := &Config{
		AppMode:        appMode,
		Port:           getEnv("PORT", "3000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RequestTimeout: time.Duration(getInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		TrustedProxies: getList("TRUSTED_PROXIES"),
		Database:       loadDatabaseConfig(appMode),
		JWT:            loadJWTConfig(appMode),
		Cookie:         loadCookieConfig(appMode),
		Mail:           loadMailConfig(),
		Queue:          loadQueueConfig(),
		Library:        loadLibraryConfig(),
		Seed: SeedConfig{
			AdminName:     getEnv("ADMIN_NAME", "Administrator"),
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@library.local"),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Infof("✅ Configuration loaded successfully [MODE: %s, DB: %s]", appMode, cfg.Database.Driver)
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "memory":
	default:
		return fmt.Errorf("invalid DB_DRIVER: '%s' (must be mysql, postgres or memory)", c.Database.Driver)
	}
	if c.IsProd() && (c.JWT.Secret == defaultSecret || c.JWT.RefreshSecret == defaultSecret) {
		return fmt.Errorf("JWT secrets must be set in prod mode")
	}
	if c.Library.LoanDays < 1 {
		return fmt.Errorf("LOAN_DAYS must be positive, got %d", c.Library.LoanDays)
	}
	if c.Queue.Workers < 1 {
		return fmt.Errorf("NOTIFY_WORKERS must be positive, got %d", c.Queue.Workers)
	}
	return nil
}

func prefixFor(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := prefixFor(mode)
	driver := strings.ToLower(getEnv("DB_DRIVER", "mysql"))

	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", defaultPort),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "libraryhub"),
		SSLMode:  getEnv(prefix+"DB_SSLMODE", "disable"),
	}
}

func loadJWTConfig(mode string) JWTConfig {
	prefix := prefixFor(mode)

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", defaultSecret),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", defaultSecret),
		AccessTokenMins:  getInt("ACCESS_TOKEN_MINUTES", 15),
		RefreshTokenDays: getInt("REFRESH_TOKEN_DAYS", 7),
	}
}

func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(prefixFor(mode)+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadMailConfig() MailConfig {
	return MailConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     getInt("SMTP_PORT", 587),
		User:     getEnv("SMTP_USER", ""),
		Password: getEnv("SMTP_PASS", ""),
		From:     getEnv("MAIL_FROM", "no-reply@library.local"),
	}
}

func loadQueueConfig() QueueConfig {
	return QueueConfig{
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		Key:           getEnv("NOTIFY_QUEUE_KEY", "libraryhub:notifications"),
		Buffer:        getInt("NOTIFY_BUFFER", 256),
		Workers:       getInt("NOTIFY_WORKERS", 2),
		MaxAttempts:   getInt("NOTIFY_MAX_ATTEMPTS", 3),
		RetryBackoff:  time.Duration(getInt("NOTIFY_RETRY_BACKOFF_MS", 2000)) * time.Millisecond,
	}
}

func loadLibraryConfig() LibraryConfig {
	return LibraryConfig{
		LoanDays:         getInt("LOAN_DAYS", 14),
		OverdueCron:      getEnv("OVERDUE_CRON", "@hourly"),
		TokenCleanupCron: getEnv("TOKEN_CLEANUP_CRON", "@daily"),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return n
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://library.example.com"
	}
	return origins
}

// getList splits a comma separated variable, dropping blanks
func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
