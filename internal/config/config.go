package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the web frontend reads from the environment.
type Config struct {
	Port string `mapstructure:"PORT"`

	APIURL     string        `mapstructure:"FAVO_API_URL"`
	APITimeout time.Duration `mapstructure:"FAVO_API_TIMEOUT"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`

	SessionTTL           time.Duration `mapstructure:"SESSION_TTL"`
	SessionCookieSecure  bool          `mapstructure:"SESSION_COOKIE_SECURE"`
	SessionSweepInterval time.Duration `mapstructure:"SESSION_SWEEP_INTERVAL"`

	NotifyPollInterval time.Duration `mapstructure:"NOTIFY_POLL_INTERVAL"`
	AuthRateLimit      float64       `mapstructure:"AUTH_RATE_LIMIT"`

	AcceptMode             string `mapstructure:"ACCEPT_MODE"`
	CounteroffersEnabled   bool   `mapstructure:"COUNTEROFFERS_ENABLED"`
	LegacyServiceEndpoints bool   `mapstructure:"LEGACY_SERVICE_ENDPOINTS"`
}

var defaults = map[string]any{
	"PORT":                     "8080",
	"FAVO_API_URL":             "https://favo-iy6h.onrender.com",
	"FAVO_API_TIMEOUT":         "10s",
	"DATABASE_URL":             "",
	"DB_HOST":                  "",
	"DB_PORT":                  "5432",
	"DB_USER":                  "",
	"DB_PASSWORD":              "",
	"DB_NAME":                  "",
	"SESSION_TTL":              "72h",
	"SESSION_COOKIE_SECURE":    false,
	"SESSION_SWEEP_INTERVAL":   "1m",
	"NOTIFY_POLL_INTERVAL":     "30s",
	"AUTH_RATE_LIMIT":          20,
	"ACCEPT_MODE":              "transition",
	"COUNTEROFFERS_ENABLED":    true,
	"LEGACY_SERVICE_ENDPOINTS": false,
}

// Load reads an optional .env file from path, then the process environment.
func Load(path string) (Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			log.Printf("[config] no env file at %s, using process environment", path)
		}
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	switch cfg.AcceptMode {
	case "transition", "delete":
	default:
		return Config{}, fmt.Errorf("config: ACCEPT_MODE must be transition or delete, got %q", cfg.AcceptMode)
	}
	if cfg.APITimeout <= 0 {
		return Config{}, fmt.Errorf("config: FAVO_API_TIMEOUT must be positive")
	}
	if cfg.SessionSweepInterval <= 0 {
		return Config{}, fmt.Errorf("config: SESSION_SWEEP_INTERVAL must be positive")
	}
	return cfg, nil
}

// DSN returns the Postgres connection string, or "" when persistent
// sessions are not configured.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.DBHost == "" || c.DBName == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}
