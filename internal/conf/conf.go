package conf

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/widget"
)

// EnvPrefix prefixes every environment override, eg: PORTAL_WIDGET_BOT_NAME.
const EnvPrefix = "PORTAL_"

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config is the config structure.
type Config struct {
	Server    Server    `yaml:"server" envPrefix:"SERVER_"`
	Log       Log       `yaml:"log" envPrefix:"LOG_"`
	Widget    Widget    `yaml:"widget" envPrefix:"WIDGET_"`
	Backend   Backend   `yaml:"backend" envPrefix:"BACKEND_"`
	Storage   Storage   `yaml:"storage" envPrefix:"STORAGE_"`
	Demo      Demo      `yaml:"demo" envPrefix:"DEMO_"`
	RateLimit RateLimit `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
}

// Server is the server config.
type Server struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	BaseURL         string        `yaml:"base_url" env:"BASE_URL"`
	SecureCookies   bool          `yaml:"secure_cookies" env:"SECURE_COOKIES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// Log is the logging config.
type Log struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// Widget is the Telegram login widget config.
type Widget struct {
	BotName       string `yaml:"bot_name" env:"BOT_NAME"`
	Size          string `yaml:"size" env:"SIZE"`
	CornerRadius  int    `yaml:"corner_radius" env:"CORNER_RADIUS"`
	RequestAccess bool   `yaml:"request_access" env:"REQUEST_ACCESS"`
	UserPic       bool   `yaml:"userpic" env:"USERPIC"`
	AuthURL       string `yaml:"auth_url" env:"AUTH_URL"` // Optional: switches the widget to redirect mode
	MaxMounts     int    `yaml:"max_mounts" env:"MAX_MOUNTS"`
}

// Backend is the verification backend config.
type Backend struct {
	ExchangeURL string        `yaml:"exchange_url" env:"EXCHANGE_URL"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// Storage selects where browser-scoped session entries live.
type Storage struct {
	Driver        string `yaml:"driver" env:"DRIVER"`
	SQLitePath    string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`
}

// Demo is the demo fallback config.
type Demo struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED"`
	Delay   time.Duration `yaml:"delay" env:"DELAY"`
}

// RateLimit throttles the handshake endpoints per client IP. Zero disables it.
type RateLimit struct {
	RequestsPerMinute int `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE"`
}

// WidgetConfig returns the loader configuration for the login page.
func (w Widget) WidgetConfig() widget.Config {
	return widget.Config{
		BotName:       w.BotName,
		Size:          widget.Size(w.Size),
		CornerRadius:  w.CornerRadius,
		RequestAccess: w.RequestAccess,
		UserPic:       w.UserPic,
		AuthURL:       w.AuthURL,
	}
}

// Default returns the config used when no file is present.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":52538",
			BaseURL:         "http://localhost:52538",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{Level: "info"},
		Widget: Widget{
			BotName:       widget.PlaceholderBotName,
			Size:          string(widget.SizeLarge),
			CornerRadius:  20,
			RequestAccess: true,
			UserPic:       true,
			MaxMounts:     10000,
		},
		Backend: Backend{Timeout: 10 * time.Second},
		Storage: Storage{
			Driver:     DriverSQLite,
			SQLitePath: "data/portal.db",
			RedisAddr:  "127.0.0.1:6379",
		},
		Demo:      Demo{Enabled: true, Delay: 1500 * time.Millisecond},
		RateLimit: RateLimit{RequestsPerMinute: 120},
	}
}

// Load loads config from file, then applies .env and environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	_ = godotenv.Load()

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the values that would otherwise fail at first use.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	wc := c.Widget.WidgetConfig()
	if err := wc.Validate(); err != nil {
		return err
	}
	if wc.Configured() && c.Backend.ExchangeURL == "" {
		return errors.New("backend.exchange_url is required when widget.bot_name is set")
	}
	if c.Widget.MaxMounts <= 0 {
		return errors.New("widget.max_mounts must be positive")
	}

	return nil
}
