package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
	Face       FaceConfig
	Storage    StorageConfig
	Telemetry  TelemetryConfig
	SuperAdmin SuperAdminConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	// AutoMigrate applies the embedded schema on startup.
	AutoMigrate bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
	// RevocationPurgeInterval is how often expired revocations are dropped.
	RevocationPurgeInterval time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	Timezone    string
	FrontendURL string
}

// AttendanceConfig tunes the check-in decision.
type AttendanceConfig struct {
	LateGraceMinutes     int
	EarlyGraceMinutes    int
	FenceAccuracyBuffer  bool
	RequireFace          bool
	FaceMatchThreshold   float64
	RequestTimeout       time.Duration
	MaxImageBytes        int64
	RotatingQRPeriodSecs uint
}

type FaceConfig struct {
	APIURL  string
	Timeout time.Duration
}

type StorageConfig struct {
	Type     string
	BasePath string
	BaseURL  string
}

type TelemetryConfig struct {
	ServiceName string
}

// SuperAdminConfig seeds the platform super admin on startup.
type SuperAdminConfig struct {
	Email    string
	Password string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "checkin"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),

		AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Timezone:    getEnv("APP_TIMEZONE", "Asia/Ho_Chi_Minh"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	purgeInterval, err := time.ParseDuration(getEnv("JWT_REVOCATION_PURGE_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REVOCATION_PURGE_INTERVAL: %w", err)
	}

	config.JWT = JWTConfig{
		Secret:                  getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration:        getEnv("JWT_ACCESS_EXPIRATION_TIME", "12h"),
		RevocationPurgeInterval: purgeInterval,
	}

	// Attendance configuration
	lateGrace, err := strconv.Atoi(getEnv("ATTENDANCE_LATE_GRACE_MINUTES", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_LATE_GRACE_MINUTES: %w", err)
	}
	earlyGrace, err := strconv.Atoi(getEnv("ATTENDANCE_EARLY_GRACE_MINUTES", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_EARLY_GRACE_MINUTES: %w", err)
	}
	threshold, err := strconv.ParseFloat(getEnv("FACE_MATCH_THRESHOLD", "0.45"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FACE_MATCH_THRESHOLD: %w", err)
	}
	requestTimeout, err := time.ParseDuration(getEnv("ATTENDANCE_REQUEST_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_REQUEST_TIMEOUT: %w", err)
	}
	maxImageBytes, err := strconv.ParseInt(getEnv("ATTENDANCE_MAX_IMAGE_BYTES", "10485760"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_MAX_IMAGE_BYTES: %w", err)
	}
	qrPeriod, err := strconv.ParseUint(getEnv("ATTENDANCE_ROTATING_QR_PERIOD", "30"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_ROTATING_QR_PERIOD: %w", err)
	}

	config.Attendance = AttendanceConfig{
		LateGraceMinutes:     lateGrace,
		EarlyGraceMinutes:    earlyGrace,
		FenceAccuracyBuffer:  getEnvBool("ATTENDANCE_FENCE_ACCURACY_BUFFER", false),
		RequireFace:          getEnvBool("ATTENDANCE_REQUIRE_FACE", false),
		FaceMatchThreshold:   threshold,
		RequestTimeout:       requestTimeout,
		MaxImageBytes:        maxImageBytes,
		RotatingQRPeriodSecs: uint(qrPeriod),
	}

	faceTimeout, err := time.ParseDuration(getEnv("FACE_API_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid FACE_API_TIMEOUT: %w", err)
	}
	config.Face = FaceConfig{
		APIURL:  getEnv("FACE_API_URL", ""),
		Timeout: faceTimeout,
	}

	config.Storage = StorageConfig{
		Type:     getEnv("STORAGE_TYPE", "local"),
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/uploads"),
	}

	config.Telemetry = TelemetryConfig{
		ServiceName: getEnv("OTEL_SERVICE_NAME", "checkin-backend"),
	}

	config.SuperAdmin = SuperAdminConfig{
		Email:    getEnv("SUPERADMIN_EMAIL", ""),
		Password: getEnv("SUPERADMIN_PASSWORD", ""),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME is invalid: %w", err)
	}
	if c.JWT.RevocationPurgeInterval <= 0 {
		return fmt.Errorf("JWT_REVOCATION_PURGE_INTERVAL must be positive")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
	}
	if c.Attendance.LateGraceMinutes < 0 || c.Attendance.EarlyGraceMinutes < 0 {
		return fmt.Errorf("attendance grace minutes must not be negative")
	}
	if c.Attendance.FaceMatchThreshold <= 0 {
		return fmt.Errorf("FACE_MATCH_THRESHOLD must be positive")
	}
	if c.Attendance.RotatingQRPeriodSecs == 0 {
		return fmt.Errorf("ATTENDANCE_ROTATING_QR_PERIOD must be positive")
	}
	if (c.SuperAdmin.Email == "") != (c.SuperAdmin.Password == "") {
		return fmt.Errorf("SUPERADMIN_EMAIL and SUPERADMIN_PASSWORD must be set together")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location returns the deployment timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps LOG_LEVEL onto slog levels.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
