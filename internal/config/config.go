package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" default:"development"`
	Port     string `env:"PORT" default:"8080"`
	RedisURL string `env:"REDIS_URL"`

	// SuperAdminIDs is the comma-separated allow-list of privileged identity
	// ids with cross-tenant visibility.
	SuperAdminIDs string `env:"SUPER_ADMIN_IDS"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	ToastAutoDismiss time.Duration `env:"TOAST_AUTO_DISMISS" default:"5s"`
	OrdersRoute      string        `env:"ORDERS_ROUTE" default:"/orders"`
	NotifyIcon       string        `env:"NOTIFY_ICON" default:""`

	MaxWebSocketConnections int `env:"MAX_WEBSOCKET_CONNECTIONS" default:"50"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"REDIS_URL":       cfg.RedisURL,
		"SUPER_ADMIN_IDS": cfg.SuperAdminIDs,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if cfg.ToastAutoDismiss <= 0 {
		return fmt.Errorf("TOAST_AUTO_DISMISS must be positive, got %s", cfg.ToastAutoDismiss)
	}
	if cfg.MaxWebSocketConnections <= 0 {
		return fmt.Errorf("MAX_WEBSOCKET_CONNECTIONS must be positive, got %d", cfg.MaxWebSocketConnections)
	}

	return nil
}

// SuperAdmins returns the parsed allow-list, trimmed and with empties dropped.
func (c *Config) SuperAdmins() []string {
	parts := strings.Split(c.SuperAdminIDs, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
