package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-super-secret-jwt-key"

// Config holds all configuration for the application
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Migrations   MigrationsConfig   `mapstructure:"migrations"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Security     SecurityConfig     `mapstructure:"security"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Notification NotificationConfig `mapstructure:"notification"`
	Email        EmailConfig        `mapstructure:"email"`
	Push         PushConfig         `mapstructure:"push"`
	Webhook      WebhookConfig      `mapstructure:"webhook"`
	Reminder     ReminderConfig     `mapstructure:"reminder"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	BaseURL     string `mapstructure:"base_url"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type MigrationsConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig holds Redis configuration. Redis backs the push relay and the
// reminder sweep lock; everything else works without it.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// NotificationConfig controls the in-process delivery dispatcher.
type NotificationConfig struct {
	Workers         int           `mapstructure:"workers"`
	QueueSize       int           `mapstructure:"queue_size"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
	PreviewLength   int           `mapstructure:"preview_length"`
}

// EmailConfig holds SMTP settings. When disabled, emails are only logged.
type EmailConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PushConfig selects the real-time push backend: "memory" delivers to sockets
// held by this process, "redis" publishes so every instance can deliver.
type PushConfig struct {
	Backend string `mapstructure:"backend"`
}

type WebhookConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Username  string        `mapstructure:"username"`
	AvatarURL string        `mapstructure:"avatar_url"`
}

// ReminderConfig holds settings for the reminder sweep job.
type ReminderConfig struct {
	Timezone string        `mapstructure:"timezone"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	register()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setting ties a config key to its environment variable and default.
type setting struct {
	key   string
	env   string
	value interface{}
}

var settings = []setting{
	{"app.name", "APP_NAME", "Kanban"},
	{"app.version", "APP_VERSION", "1.0.0"},
	{"app.environment", "APP_ENVIRONMENT", "development"},
	{"app.debug", "APP_DEBUG", false},
	{"app.base_url", "APP_BASE_URL", "http://localhost:8080"},

	{"server.port", "SERVER_PORT", 8080},
	{"server.host", "SERVER_HOST", "0.0.0.0"},
	{"server.read_timeout", "SERVER_READ_TIMEOUT", "30s"},
	{"server.write_timeout", "SERVER_WRITE_TIMEOUT", "30s"},
	{"server.idle_timeout", "SERVER_IDLE_TIMEOUT", "120s"},

	{"database.host", "DB_HOST", "localhost"},
	{"database.port", "DB_PORT", 5432},
	{"database.name", "DB_NAME", "kanban"},
	{"database.user", "DB_USER", "postgres"},
	{"database.password", "DB_PASSWORD", ""},
	{"database.ssl_mode", "DB_SSL_MODE", "disable"},
	{"database.max_open_conns", "DB_MAX_OPEN_CONNS", 25},
	{"database.max_idle_conns", "DB_MAX_IDLE_CONNS", 10},
	{"database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME", "5m"},
	{"database.conn_max_idle_time", "DB_CONN_MAX_IDLE_TIME", "30s"},

	{"migrations.path", "MIGRATIONS_PATH", "file://migrations"},

	{"redis.enabled", "REDIS_ENABLED", false},
	{"redis.host", "REDIS_HOST", "localhost"},
	{"redis.port", "REDIS_PORT", 6379},
	{"redis.password", "REDIS_PASSWORD", ""},
	{"redis.db", "REDIS_DB", 0},

	{"jwt.secret", "JWT_SECRET", defaultJWTSecret},
	{"jwt.expires_in", "JWT_EXPIRES_IN", "24h"},
	{"jwt.issuer", "JWT_ISSUER", "kanban-api"},

	{"logger.level", "LOG_LEVEL", "info"},
	{"logger.format", "LOG_FORMAT", "json"},
	{"logger.output", "LOG_OUTPUT", "stdout"},
	{"logger.filename", "LOG_FILENAME", ""},

	{"security.cors_allowed_origins", "CORS_ALLOWED_ORIGINS", "*"},
	{"security.rate_limit_requests", "RATE_LIMIT_REQUESTS", 100},
	{"security.rate_limit_window", "RATE_LIMIT_WINDOW", "1m"},

	{"metrics.enabled", "ENABLE_METRICS", true},

	{"notification.workers", "NOTIFY_WORKERS", 1},
	{"notification.queue_size", "NOTIFY_QUEUE_SIZE", 256},
	{"notification.delivery_timeout", "NOTIFY_DELIVERY_TIMEOUT", "5s"},
	{"notification.preview_length", "NOTIFY_PREVIEW_LENGTH", 50},

	{"email.enabled", "EMAIL_ENABLED", false},
	{"email.host", "SMTP_HOST", "localhost"},
	{"email.port", "SMTP_PORT", 587},
	{"email.username", "SMTP_USERNAME", ""},
	{"email.password", "SMTP_PASSWORD", ""},
	{"email.from", "EMAIL_FROM", "no-reply@kanban.local"},
	{"email.timeout", "EMAIL_TIMEOUT", "5s"},

	{"push.backend", "PUSH_BACKEND", "memory"},

	{"webhook.timeout", "WEBHOOK_TIMEOUT", "5s"},
	{"webhook.username", "WEBHOOK_USERNAME", "Kanban Bot"},
	{"webhook.avatar_url", "WEBHOOK_AVATAR_URL", ""},

	{"reminder.timezone", "REMINDER_TIMEZONE", "UTC"},
	{"reminder.lock_ttl", "REMINDER_LOCK_TTL", "10m"},
}

func register() {
	for _, s := range settings {
		viper.SetDefault(s.key, s.value)
		_ = viper.BindEnv(s.key, s.env)
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if cfg.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}

	if cfg.JWT.Secret == "" || cfg.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("JWT secret must be set and should not use default value")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	switch cfg.Push.Backend {
	case "memory":
	case "redis":
		if !cfg.Redis.Enabled {
			return fmt.Errorf("push backend redis requires redis.enabled")
		}
	default:
		return fmt.Errorf("unknown push backend %q", cfg.Push.Backend)
	}

	if cfg.Notification.Workers < 1 {
		return fmt.Errorf("notification workers must be at least 1")
	}

	if cfg.Notification.QueueSize < 1 {
		return fmt.Errorf("notification queue size must be at least 1")
	}

	if _, err := time.LoadLocation(cfg.Reminder.Timezone); err != nil {
		return fmt.Errorf("invalid reminder timezone: %w", err)
	}

	return nil
}

// GetDSN returns the database connection string
func (cfg *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// GetAddr returns the Redis address
func (cfg *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// Location returns the zone used to decide which calendar day "today" is.
func (cfg *ReminderConfig) Location() *time.Location {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}
