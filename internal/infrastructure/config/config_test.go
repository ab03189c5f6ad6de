package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 1, cfg.Notification.Workers)
	assert.Equal(t, 5*time.Second, cfg.Notification.DeliveryTimeout)
	assert.Equal(t, 50, cfg.Notification.PreviewLength)
	assert.Equal(t, "memory", cfg.Push.Backend)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "file://migrations", cfg.Migrations.Path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("NOTIFY_WORKERS", "4")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("PUSH_BACKEND", "redis")
	t.Setenv("REMINDER_TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Notification.Workers)
	assert.Equal(t, "redis", cfg.Push.Backend)
	assert.Equal(t, "Europe/Berlin", cfg.Reminder.Location().String())
}

func TestLoad_RejectsDefaultSecret(t *testing.T) {
	viper.Reset()
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret")
}

func TestValidateConfig_PushBackend(t *testing.T) {
	base := func() Config {
		return Config{
			Server:       ServerConfig{Port: 8080},
			Database:     DatabaseConfig{Host: "db", Name: "kanban"},
			JWT:          JWTConfig{Secret: "s"},
			Push:         PushConfig{Backend: "memory"},
			Notification: NotificationConfig{Workers: 1, QueueSize: 1},
			Reminder:     ReminderConfig{Timezone: "UTC"},
		}
	}

	cfg := base()
	assert.NoError(t, validateConfig(&cfg))

	cfg = base()
	cfg.Push.Backend = "redis"
	assert.ErrorContains(t, validateConfig(&cfg), "redis.enabled")

	cfg.Redis.Enabled = true
	assert.NoError(t, validateConfig(&cfg))

	cfg = base()
	cfg.Push.Backend = "kafka"
	assert.ErrorContains(t, validateConfig(&cfg), "unknown push backend")

	cfg = base()
	cfg.Reminder.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, validateConfig(&cfg), "timezone")
}
