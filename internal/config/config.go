package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	customerrors "github.com/teenyweeny/urlshortener/internal/errors"
)

// Supported store drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config represents the main structure mapping the entire application configuration.
// This struct uses mapstructure tags to map YAML/JSON keys to Go struct fields.
type Config struct {
	// Server configuration section containing HTTP server settings
	Server struct {
		Port           int      `mapstructure:"port"`            // HTTP server port (default: 8080)
		BaseURL        string   `mapstructure:"base_url"`        // Base URL for generating short links
		AllowedOrigins []string `mapstructure:"allowed_origins"` // CORS origins allowed to call the API
	} `mapstructure:"server"`

	// Store selects which link repository backs the service
	Store struct {
		Driver    string        `mapstructure:"driver"`     // memory, file, sqlite, postgres or redis
		Path      string        `mapstructure:"path"`       // JSON document used by the file driver
		CacheSize int           `mapstructure:"cache_size"` // LRU entries in front of the store, 0 disables
		CacheTTL  time.Duration `mapstructure:"cache_ttl"`  // how long another process' writes may stay hidden, 0 = forever
	} `mapstructure:"store"`

	// Database configuration section for the SQL drivers
	Database struct {
		Name string `mapstructure:"name"` // SQLite database file name
		DSN  string `mapstructure:"dsn"`  // PostgreSQL connection string
	} `mapstructure:"database"`

	// Redis connection settings for the redis driver
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
		Prefix   string `mapstructure:"prefix"`
	} `mapstructure:"redis"`

	// Purge configuration for the expired link sweeper
	Purge struct {
		Schedule string `mapstructure:"schedule"` // cron spec, e.g. "@every 1m"
	} `mapstructure:"purge"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// SetDefaults registers the default value of every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.path", "teenyweeny_urls.json")
	v.SetDefault("store.cache_size", 1024)
	v.SetDefault("store.cache_ttl", "30s")
	v.SetDefault("database.name", "url_shortener.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "teenyweeny")
	v.SetDefault("purge.schedule", "@every 1m")
	v.SetDefault("log.level", "info")
}

// LoadConfig loads the application configuration from ./configs/config.yaml,
// a .env file and the environment.
func LoadConfig() (*Config, error) {
	return Load("./configs", ".env")
}

// Load reads config.yaml from configDir. Variables in the dotenv files are exported
// first so they take part in the environment overrides, e.g. STORE_DRIVER=redis.
func Load(configDir string, dotenvFiles ...string) (*Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, customerrors.ErrConfigLoad{Path: f, Reason: err.Error()}
		}
	}

	v := viper.New()

	// Replace dots with underscores in environment variable names
	// e.g., "server.port" becomes "SERVER_PORT"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is not fatal, defaults and environment still apply
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, customerrors.ErrConfigLoad{Path: configDir, Reason: err.Error()}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that can't be defaulted sensibly.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverSQLite, DriverRedis:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the %s driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.CacheSize < 0 {
		return fmt.Errorf("store.cache_size must not be negative, got %d", c.Store.CacheSize)
	}
	if c.Store.CacheTTL < 0 {
		return fmt.Errorf("store.cache_ttl must not be negative, got %s", c.Store.CacheTTL)
	}
	c.Server.BaseURL = strings.TrimSuffix(c.Server.BaseURL, "/")
	return nil
}
