package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

const defaultAddr = "127.0.0.1:8080"

// Config holds the complete application configuration, loadable from
// environment variables (VENDAS_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"127.0.0.1:8080" usage:"Storefront listen address"`
	Catalog   CatalogConfig
	Storage   StorageConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// CatalogConfig points at the catalog and order service.
type CatalogConfig struct {
	URL     string        `default:"http://localhost:8000" usage:"Catalog service base URL" flag:"catalog-url"`
	Timeout time.Duration `default:"10s" usage:"Timeout of each catalog request" flag:"catalog-timeout"`
}

// StorageConfig selects where cart and preference snapshots are kept.
type StorageConfig struct {
	Driver      string        `default:"file" usage:"Snapshot storage: file, memory, redis or postgres"`
	Dir         string        `default:"data" usage:"Directory of the file storage"`
	RedisAddr   string        `default:"localhost:6379" usage:"Redis address" flag:"redis-addr"`
	RedisTTL    time.Duration `default:"720h" usage:"Expiry of idle Redis snapshots, 0 to keep forever" flag:"redis-ttl"`
	DatabaseURL string        `usage:"PostgreSQL connection URL (VENDAS_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
}

// SessionConfig controls browser sessions.
type SessionConfig struct {
	PageSize      int           `default:"12" usage:"Products per catalog page, 0 for a single page" flag:"page-size"`
	IdleTimeout   time.Duration `default:"30m" usage:"Drop in-memory sessions idle for this long, 0 to keep" flag:"session-idle"`
	SweepInterval time.Duration `default:"1m" usage:"How often idle sessions are swept" flag:"session-sweep"`
	SecureCookie  bool          `default:"false" usage:"Mark the session cookie Secure" flag:"secure-cookie"`
	CookieMaxAge  time.Duration `default:"720h" usage:"Session cookie lifetime, 0 for a browser-session cookie" flag:"cookie-max-age"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"120" usage:"Max requests per client and window, 0 to disable" flag:"rate-limit"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration" flag:"rate-limit-window"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files and flags, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		Files: []string{"config.yaml", "/etc/vendas/config.yaml"},
	})
}

func loadConfig(base aconfig.Config) (*Config, error) {
	var cfg Config
	base.EnvPrefix = "VENDAS"
	base.FileDecoders = map[string]aconfig.FileDecoder{
		".yaml": aconfigyaml.New(),
	}
	if err := aconfig.LoaderFor(&cfg, base).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.Dir == "" {
			return errors.New("storage dir is required for the file driver")
		}
	case DriverMemory, DriverRedis:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required: set VENDAS_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Catalog.URL == "" {
		return errors.New("catalog URL is required")
	}
	if c.RateLimit.Max < 0 {
		return errors.Errorf("rate limit must not be negative, got %d", c.RateLimit.Max)
	}
	if c.RateLimit.Max > 0 && c.RateLimit.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	if c.Session.PageSize < 0 {
		return errors.Errorf("page size must not be negative, got %d", c.Session.PageSize)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like DATABASE_URL and PORT to the VENDAS_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Storage.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
