// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DevSessionSecret is the signing secret used when SESSION_SECRET is unset. Refused outside dev mode.
const DevSessionSecret = "devsessionsecret"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Tracking TrackingConfig
	Admin    AdminConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds connection settings. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver         string        `envconfig:"DB_DRIVER" default:"postgres"`
	Host           string        `envconfig:"DB_HOST" default:"localhost"`
	Port           int           `envconfig:"DB_PORT" default:"5432"`
	User           string        `envconfig:"DB_USER" default:"repairs"`
	Password       string        `envconfig:"DB_PASSWORD" default:"repairs123" masked:"true"`
	DBName         string        `envconfig:"DB_NAME" default:"repairs"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"disable"`
	SQLitePath     string        `envconfig:"DB_SQLITE_PATH" default:"repairs.db"`
	MigrationsPath string        `envconfig:"MIGRATIONS_PATH" default:"migrations"`
	ConnectRetries int           `envconfig:"DB_CONNECT_RETRIES" default:"5"`
	RetryDelay     time.Duration `envconfig:"DB_RETRY_DELAY" default:"2s"`
	StoreTimeout   time.Duration `envconfig:"DB_STORE_TIMEOUT" default:"5s"`
	Debug          bool          `envconfig:"DB_DEBUG"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool   `envconfig:"DEV"`
	Migrations bool   `envconfig:"MIGRATIONS"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	BaseURL    string `envconfig:"BASE_URL" default:"http://localhost:8080"`
	TrialDays  int    `envconfig:"TRIAL_DAYS" default:"14"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	Secret       string        `envconfig:"SESSION_SECRET" default:"devsessionsecret" masked:"true"`
	TokenTTL     time.Duration `envconfig:"SESSION_TTL" default:"336h"`
	CookieSecure bool          `envconfig:"COOKIE_SECURE"`
}

// RedisConfig enables Redis-backed token revocation when Addr is set.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD" masked:"true"`
	DB       int    `envconfig:"REDIS_DB"`
}

// StorageConfig enables MinIO logo uploads when Endpoint is set.
type StorageConfig struct {
	Endpoint  string `envconfig:"MINIO_ENDPOINT"`
	AccessKey string `envconfig:"MINIO_ACCESS_KEY" masked:"true"`
	SecretKey string `envconfig:"MINIO_SECRET_KEY" masked:"true"`
	Bucket    string `envconfig:"MINIO_BUCKET" default:"logos"`
	UseSSL    bool   `envconfig:"MINIO_USE_SSL"`
	PublicURL string `envconfig:"MINIO_PUBLIC_URL"`
}

// TrackingConfig throttles the public tracking endpoint per client IP.
type TrackingConfig struct {
	RatePerSecond float64       `envconfig:"TRACK_RATE_PER_SECOND" default:"1"`
	Burst         int           `envconfig:"TRACK_BURST" default:"10"`
	LimiterTTL    time.Duration `envconfig:"TRACK_LIMITER_TTL" default:"10m"`
	// TrustedProxies lists the CIDRs (or bare IPs) whose X-Forwarded-For is
	// believed. Empty means every caller is keyed on its socket address.
	TrustedProxies []string `envconfig:"TRACK_TRUSTED_PROXIES"`
}

// TrustedProxyNets parses TrustedProxies.
func (t TrackingConfig) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(t.TrustedProxies))
	for _, raw := range t.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("invalid TRACK_TRUSTED_PROXIES entry %q", raw)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TRACK_TRUSTED_PROXIES entry %q: %w", raw, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// AdminConfig lists the accounts allowed to override establishments.
type AdminConfig struct {
	Emails []string `envconfig:"ADMIN_EMAILS"`
}

// MetricsConfig exposes Prometheus metrics on a separate listener.
type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads an optional .env file then the environment.
func Load(envFiles ...string) (*Config, error) {
	// a missing .env is fine; real deployments use the environment
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations that cannot work.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Auth.Secret == "" {
		return errors.New("SESSION_SECRET must not be empty")
	}
	if !c.App.Dev && c.Auth.Secret == DevSessionSecret {
		return errors.New("SESSION_SECRET must be set outside dev mode")
	}
	if c.Tracking.RatePerSecond <= 0 || c.Tracking.Burst <= 0 {
		return errors.New("TRACK_RATE_PER_SECOND and TRACK_BURST must be positive")
	}
	if _, err := c.Tracking.TrustedProxyNets(); err != nil {
		return err
	}
	return nil
}
