package config

import (
	"errors"
	"fmt"
	"net/url"
	"statusboard/internal/board"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	SourceURL         string        `mapstructure:"SOURCE_URL"`
	RefreshInterval   time.Duration `mapstructure:"REFRESH_INTERVAL"`
	FetchTimeout      time.Duration `mapstructure:"FETCH_TIMEOUT"`
	SourceProxies     []string      `mapstructure:"SOURCE_PROXIES"`
	ServerPort        string        `mapstructure:"SERVER_PORT"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	TimeZone          string        `mapstructure:"TIME_ZONE"`
	BoardTitle        string        `mapstructure:"BOARD_TITLE"`
	BoardHeaders      []string      `mapstructure:"BOARD_HEADERS"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	SnapshotTTL       time.Duration `mapstructure:"SNAPSHOT_TTL"`
	PostgresURL       string        `mapstructure:"POSTGRES_URL"`
	ScreenshotEnabled bool          `mapstructure:"SCREENSHOT_ENABLED"`
	ScreenshotTimeout time.Duration `mapstructure:"SCREENSHOT_TIMEOUT"`
	PublicURL         string        `mapstructure:"PUBLIC_URL"`

	Location *time.Location `mapstructure:"-"`
}

// Load reads configuration from .env or environment variables.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile reads configuration from the given env file, if present, with
// environment variables taking precedence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing file is fine: production configures through the environment.
	_ = v.ReadInConfig()

	v.SetDefault("SOURCE_URL", "")
	v.SetDefault("REFRESH_INTERVAL", "2m")
	v.SetDefault("FETCH_TIMEOUT", "30s")
	v.SetDefault("SOURCE_PROXIES", "")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TIME_ZONE", "America/Sao_Paulo")
	v.SetDefault("BOARD_TITLE", "Status de Entregas")
	v.SetDefault("BOARD_HEADERS", strings.Join(board.DefaultHeaders, ","))
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("SNAPSHOT_TTL", "24h")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("SCREENSHOT_ENABLED", false)
	v.SetDefault("SCREENSHOT_TIMEOUT", "30s")
	v.SetDefault("PUBLIC_URL", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SourceProxies = trimAll(cfg.SourceProxies)
	cfg.BoardHeaders = trimAll(cfg.BoardHeaders)
	if cfg.PublicURL == "" {
		cfg.PublicURL = fmt.Sprintf("http://localhost:%s/", cfg.ServerPort)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SourceURL == "" {
		return errors.New("config: SOURCE_URL is required")
	}
	u, err := url.Parse(c.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: SOURCE_URL must be an absolute http(s) url, got %q", c.SourceURL)
	}
	if c.RefreshInterval <= 0 {
		return errors.New("config: REFRESH_INTERVAL must be > 0")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("config: FETCH_TIMEOUT must be > 0")
	}
	if c.SnapshotTTL < 0 {
		return errors.New("config: SNAPSHOT_TTL must be >= 0")
	}
	if c.ScreenshotEnabled && c.ScreenshotTimeout <= 0 {
		return errors.New("config: SCREENSHOT_TIMEOUT must be > 0")
	}

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("config: unknown TIME_ZONE %q: %w", c.TimeZone, err)
	}
	c.Location = loc
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
