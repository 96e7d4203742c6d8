package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName  string
	AppEnv   string
	AppPort  string
	LogLevel string

	DatabaseDriver      string
	DatabaseURL         string
	DatabaseAutoMigrate bool
	RedisURL            string
	NATSURL             string

	NotificationChannel   string
	NotificationKeepAlive time.Duration

	JWTSecret string
	JWTExpiry time.Duration

	StorageDriver          string
	StorageLocalDir        string
	StoragePublicBaseURL   string
	UploadMaxSizeMB        int
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	CourseCacheTTL    time.Duration
	DashboardCacheTTL time.Duration

	LoginRateLimitMax    int
	LoginRateLimitWindow time.Duration

	AdminEmail    string
	AdminPassword string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// UploadMaxBytes converts the configured upload limit to bytes.
func (c Config) UploadMaxBytes() int64 {
	return int64(c.UploadMaxSizeMB) * 1024 * 1024
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "LMS API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("notifications.channel", "lms:notifications")
	v.SetDefault("notifications.keepalive", "25s")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "./uploads")
	v.SetDefault("storage.public_base_url", "/uploads")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("cloudinary.folder", "lms/submissions")
	v.SetDefault("cache.course_ttl", "2m")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("ratelimit.login_max", 10)
	v.SetDefault("ratelimit.login_window", "1m")

	durations := map[string]time.Duration{}
	for _, key := range []string{"notifications.keepalive", "jwt.expiry", "cache.course_ttl", "dashboard.cache_ttl", "ratelimit.login_window"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		DatabaseDriver:         strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:            v.GetString("database.url"),
		DatabaseAutoMigrate:    v.GetBool("database.auto_migrate"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		NotificationChannel:    v.GetString("notifications.channel"),
		NotificationKeepAlive:  durations["notifications.keepalive"],
		JWTSecret:              v.GetString("jwt.secret"),
		JWTExpiry:              durations["jwt.expiry"],
		StorageDriver:          strings.ToLower(v.GetString("storage.driver")),
		StorageLocalDir:        v.GetString("storage.local_dir"),
		StoragePublicBaseURL:   v.GetString("storage.public_base_url"),
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		CourseCacheTTL:         durations["cache.course_ttl"],
		DashboardCacheTTL:      durations["dashboard.cache_ttl"],
		LoginRateLimitMax:      v.GetInt("ratelimit.login_max"),
		LoginRateLimitWindow:   durations["ratelimit.login_window"],
		AdminEmail:             v.GetString("admin.email"),
		AdminPassword:          v.GetString("admin.password"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	switch cfg.StorageDriver {
	case "local", "cloudinary":
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 10
	}

	if cfg.LoginRateLimitMax <= 0 {
		cfg.LoginRateLimitMax = 10
	}

	return cfg, nil
}
