package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Server   ServerConfig
	Atlas    AtlasConfig
	Audit    AuditConfig
	Log      LogConfig
}

// DatabaseConfig holds audit store settings. Only Driver and SQLitePath
// apply to the sqlite driver.
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string //nolint:gosec // G117: DB connection config
	DBName     string
	SSLMode    string
	MaxConns   int
	SQLitePath string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds session token validation settings.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	CORSOrigins    []string
	WebDir         string // built dashboard assets; empty disables static serving
	RateLimitRPS   float64
	RateLimitBurst int
}

// AtlasConfig holds the upstream Atlas API settings.
type AtlasConfig struct {
	BaseURL  string
	APIToken string //nolint:gosec // G117: Atlas API token config
	Timeout  time.Duration
	RPS      float64
	Burst    int
}

// AuditConfig holds audit engine settings.
type AuditConfig struct {
	LogReads     bool
	PageLimitMax int
}

// LogConfig holds zerolog settings.
type LogConfig struct {
	Level  string
	Format string // "text" for the console writer, anything else for JSON
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("ATLASDASH_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("ATLASDASH_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisEnabled, err := getEnvBool("ATLASDASH_REDIS_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("ATLASDASH_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("ATLASDASH_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("ATLASDASH_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	serverRPS, err := getEnvFloat("ATLASDASH_RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	serverBurst, err := getEnvInt("ATLASDASH_RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	atlasTimeout, err := getEnvDuration("ATLASDASH_ATLAS_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	atlasRPS, err := getEnvFloat("ATLASDASH_ATLAS_RPS", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	atlasBurst, err := getEnvInt("ATLASDASH_ATLAS_BURST", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	logReads, err := getEnvBool("ATLASDASH_AUDIT_LOG_READS", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pageLimitMax, err := getEnvInt("ATLASDASH_AUDIT_PAGE_LIMIT_MAX", 100)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("ATLASDASH_DB_DRIVER", DriverPostgres)),
			Host:       getEnv("ATLASDASH_DB_HOST", "localhost"),
			Port:       dbPort,
			User:       getEnv("ATLASDASH_DB_USER", "atlasdash"),
			Password:   getEnv("ATLASDASH_DB_PASSWORD", ""),
			DBName:     getEnv("ATLASDASH_DB_NAME", "atlasdash"),
			SSLMode:    getEnv("ATLASDASH_DB_SSLMODE", "disable"),
			MaxConns:   dbMaxConns,
			SQLitePath: getEnv("ATLASDASH_DB_SQLITE_PATH", "data/atlasdash.db"),
		},
		Redis: RedisConfig{
			Enabled:  redisEnabled,
			Addr:     getEnv("ATLASDASH_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("ATLASDASH_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("ATLASDASH_JWT_SECRET", ""),
		},
		Server: ServerConfig{
			Addr:           getEnv("ATLASDASH_SERVER_ADDR", ":8080"),
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			CORSOrigins:    getEnvList("ATLASDASH_CORS_ORIGINS", []string{"http://localhost:5173"}),
			WebDir:         getEnv("ATLASDASH_WEB_DIR", ""),
			RateLimitRPS:   serverRPS,
			RateLimitBurst: serverBurst,
		},
		Atlas: AtlasConfig{
			BaseURL:  getEnv("ATLASDASH_ATLAS_URL", ""),
			APIToken: getEnv("ATLASDASH_ATLAS_TOKEN", ""),
			Timeout:  atlasTimeout,
			RPS:      atlasRPS,
			Burst:    atlasBurst,
		},
		Audit: AuditConfig{
			LogReads:     logReads,
			PageLimitMax: pageLimitMax,
		},
		Log: LogConfig{
			Level:  getEnv("ATLASDASH_LOG_LEVEL", "info"),
			Format: getEnv("ATLASDASH_LOG_FORMAT", "json"),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("ATLASDASH_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("ATLASDASH_JWT_SECRET must be at least 32 characters")
	}

	if c.Atlas.BaseURL == "" {
		return errors.New("ATLASDASH_ATLAS_URL is required")
	}
	u, err := url.Parse(c.Atlas.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("ATLASDASH_ATLAS_URL must be an http(s) URL, got %q", c.Atlas.BaseURL)
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.SSLMode == "disable" {
			log.Warn().Msg("ATLASDASH_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("ATLASDASH_DB_PORT must be 1-65535, got %d", c.Database.Port)
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("ATLASDASH_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
		}
	case DriverSQLite:
		if strings.TrimSpace(c.Database.SQLitePath) == "" {
			return errors.New("ATLASDASH_DB_SQLITE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("ATLASDASH_DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}

	// Bounds checks.
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("ATLASDASH_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("ATLASDASH_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("ATLASDASH_RATE_LIMIT_RPS must be positive, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("ATLASDASH_RATE_LIMIT_BURST must be >= 1, got %d", c.Server.RateLimitBurst)
	}
	if c.Atlas.Timeout <= 0 {
		return fmt.Errorf("ATLASDASH_ATLAS_TIMEOUT must be positive, got %s", c.Atlas.Timeout)
	}
	if c.Atlas.RPS < 0 {
		return fmt.Errorf("ATLASDASH_ATLAS_RPS must be >= 0, got %g", c.Atlas.RPS)
	}
	if c.Atlas.Burst < 1 {
		return fmt.Errorf("ATLASDASH_ATLAS_BURST must be >= 1, got %d", c.Atlas.Burst)
	}
	if c.Audit.PageLimitMax < 1 {
		return fmt.Errorf("ATLASDASH_AUDIT_PAGE_LIMIT_MAX must be >= 1, got %d", c.Audit.PageLimitMax)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
