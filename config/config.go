// Package config loads the registry configuration from an optional YAML file and the
// environment. Environment variables override the file; the file overrides defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"myregistry/adapters/mybadger"
	"myregistry/adapters/mymongo"
	"myregistry/adapters/mypostgres"
	"myregistry/adapters/myredis"

	"gopkg.in/yaml.v3"
)

// Env variable names.
const (
	envConfigPath    = "CONFIG_PATH"
	envHTTPPort      = "SERVICE_PORT_HTTP"
	envMetricsPort   = "SERVICE_PORT_METRICS"
	envLogLevel      = "LOG_LEVEL"
	envStoreBackend  = "STORE_BACKEND"
	envStoreTimeout  = "STORE_TIMEOUT"
	envRedisAddr     = "REDIS_ADDR"
	envRedisPrefix   = "REDIS_KEY_PREFIX"
	envMongoURI      = "MONGO_URI"
	envMongoDatabase = "MONGO_DATABASE"
	envMongoColl     = "MONGO_COLLECTION"
	envPostgresDSN   = "POSTGRES_DSN"
	envPostgresTable = "POSTGRES_TABLE"
	envBadgerPath    = "BADGER_PATH"
	envExpiration    = "EXPIRATION_TIME_IN_MINUTES"
	envSweepInterval = "SWEEP_INTERVAL"
	envSweepTimeout  = "SWEEP_TIMEOUT"
)

// Store backends.
const (
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Config is the full registry configuration.
type Config struct {
	HTTPPort int `yaml:"httpPort"`
	// MetricsPort serves /metrics and /healthz. 0 disables it.
	MetricsPort int    `yaml:"metricsPort"`
	LogLevel    string `yaml:"logLevel"`

	Store StoreConfig `yaml:"store"`

	// ExpirationMinutes is how long an instance may stay silent before a sweep removes it.
	ExpirationMinutes int `yaml:"expirationMinutes"`
	// SweepInterval is how often the in-process sweeper runs. 0 disables it, leaving
	// sweeps to an external driver such as `registryctl sweep`.
	SweepInterval time.Duration `yaml:"sweepInterval"`
	// SweepTimeout bounds one sweep. 0 leaves it unbounded; Store.Timeout never applies.
	SweepTimeout time.Duration `yaml:"sweepTimeout"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend  string            `yaml:"backend"`
	Timeout  time.Duration     `yaml:"timeout"`
	Redis    myredis.Config    `yaml:"redis"`
	Mongo    mymongo.Config    `yaml:"mongo"`
	Postgres mypostgres.Config `yaml:"postgres"`
	Badger   mybadger.Config   `yaml:"badger"`
}

// Expiration returns the expiration window as a duration.
func (c *Config) Expiration() time.Duration {
	return time.Duration(c.ExpirationMinutes) * time.Minute
}

func defaults() Config {
	return Config{
		LogLevel: "info",
		Store: StoreConfig{
			Backend:  BackendRedis,
			Timeout:  5 * time.Second,
			Redis:    myredis.Config{KeyPrefix: "registry"},
			Mongo:    mymongo.Config{Database: "discovery", Collection: "clients"},
			Postgres: mypostgres.Config{Table: "clients"},
		},
		ExpirationMinutes: 60,
		SweepInterval:     time.Minute,
	}
}

// LoadConfig builds the configuration from defaults, the YAML file at CONFIG_PATH (optional)
// and environment variables, then validates it. SERVICE_PORT_HTTP is required, and so is
// the address of the selected backend (REDIS_ADDR, MONGO_URI or POSTGRES_DSN).
func LoadConfig() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStoreConfig loads the configuration for tools that open the store without serving
// HTTP: SERVICE_PORT_HTTP and the other server settings are not required.
func LoadStoreConfig() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.ExpirationMinutes <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %d", envExpiration, cfg.ExpirationMinutes)
	}
	if cfg.SweepTimeout < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %s", envSweepTimeout, cfg.SweepTimeout)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() (*Config, error) {
	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv(envConfigPath)); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		path = abs
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if err := envInt(envHTTPPort, &cfg.HTTPPort); err != nil {
		return err
	}
	if err := envInt(envMetricsPort, &cfg.MetricsPort); err != nil {
		return err
	}
	envString(envLogLevel, &cfg.LogLevel)
	envString(envStoreBackend, &cfg.Store.Backend)
	if err := envDuration(envStoreTimeout, &cfg.Store.Timeout); err != nil {
		return err
	}
	envString(envRedisAddr, &cfg.Store.Redis.Addr)
	envString(envRedisPrefix, &cfg.Store.Redis.KeyPrefix)
	envString(envMongoURI, &cfg.Store.Mongo.URI)
	envString(envMongoDatabase, &cfg.Store.Mongo.Database)
	envString(envMongoColl, &cfg.Store.Mongo.Collection)
	envString(envPostgresDSN, &cfg.Store.Postgres.DSN)
	envString(envPostgresTable, &cfg.Store.Postgres.Table)
	envString(envBadgerPath, &cfg.Store.Badger.Path)
	if err := envInt(envExpiration, &cfg.ExpirationMinutes); err != nil {
		return err
	}
	if err := envDuration(envSweepInterval, &cfg.SweepInterval); err != nil {
		return err
	}
	return envDuration(envSweepTimeout, &cfg.SweepTimeout)
}

func (c *Config) validate() error {
	if c.HTTPPort == 0 {
		return fmt.Errorf("%s is required", envHTTPPort)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("%s must be 1-65535, got %d", envHTTPPort, c.HTTPPort)
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("%s must be 0-65535, got %d", envMetricsPort, c.MetricsPort)
	}
	if c.MetricsPort != 0 && c.MetricsPort == c.HTTPPort {
		return fmt.Errorf("%s and %s must differ", envMetricsPort, envHTTPPort)
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if !logLevels[c.LogLevel] {
		return fmt.Errorf("%s must be one of debug|info|warn|error, got %q", envLogLevel, c.LogLevel)
	}
	if c.ExpirationMinutes <= 0 {
		return fmt.Errorf("%s must be positive, got %d", envExpiration, c.ExpirationMinutes)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("%s must not be negative, got %s", envSweepInterval, c.SweepInterval)
	}
	if c.SweepTimeout < 0 {
		return fmt.Errorf("%s must not be negative, got %s", envSweepTimeout, c.SweepTimeout)
	}
	if c.Store.Timeout < 0 {
		return fmt.Errorf("%s must not be negative, got %s", envStoreTimeout, c.Store.Timeout)
	}
	return c.Store.validate()
}

func (s *StoreConfig) validate() error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case BackendRedis:
		if s.Redis.Addr == "" {
			return fmt.Errorf("%s is required", envRedisAddr)
		}
	case BackendMongo:
		if s.Mongo.URI == "" {
			return fmt.Errorf("%s is required", envMongoURI)
		}
		if s.Mongo.Database == "" {
			return fmt.Errorf("%s is required", envMongoDatabase)
		}
	case BackendPostgres:
		if s.Postgres.DSN == "" {
			return fmt.Errorf("%s is required", envPostgresDSN)
		}
	case BackendBadger:
	default:
		return fmt.Errorf("%s must be one of redis|mongo|postgres|badger, got %q", envStoreBackend, s.Backend)
	}
	return nil
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) error {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = n
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = d
	return nil
}
