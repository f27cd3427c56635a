package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/d2avids/rso-sub000/app/shared/observability"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Redis         RedisConfig         `yaml:"redis"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Observability ObservabilityConfig `yaml:"observability"`
	Ranking       RankingConfig       `yaml:"ranking"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL selects the in-process bus.
type NATSConfig struct {
	URL      string `yaml:"url"`
	NKeySeed string `yaml:"nkey_seed"`
	Stream   string `yaml:"stream"`
}

// RedisConfig holds the place cache connection. An empty URL disables caching.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string  `yaml:"metrics_address"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint"`
	OTLPInsecure   bool    `yaml:"otlp_insecure"`
	SampleRate     float64 `yaml:"sample_rate"`
	Environment    string  `yaml:"environment"`
	LogLevel       string  `yaml:"log_level"`
}

// RankingConfig tunes recompute scheduling and place lookups.
type RankingConfig struct {
	SweepInterval    time.Duration `yaml:"sweep_interval"`
	RecomputeTimeout time.Duration `yaml:"recompute_timeout"`
	Timezone         string        `yaml:"timezone"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	QueueWorkers     int           `yaml:"queue_workers"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_NKEY_SEED"); v != "" {
		cfg.NATS.NKeySeed = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		cfg.Observability.OTLPEndpoint = v
	}
	if v := os.Getenv("OTLP_INSECURE"); v != "" {
		cfg.Observability.OTLPInsecure = v == "true"
	}
	if v := os.Getenv("OTLP_SAMPLE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid OTLP_SAMPLE_RATE value: %w", err)
		}
		cfg.Observability.SampleRate = f
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("RANKING_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RANKING_SWEEP_INTERVAL value: %w", err)
		}
		cfg.Ranking.SweepInterval = d
	}
	if v := os.Getenv("RANKING_TIMEZONE"); v != "" {
		cfg.Ranking.Timezone = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = 10
	}
	if c.HTTP.RateBurst == 0 {
		c.HTTP.RateBurst = 20
	}
	if c.Observability.SampleRate == 0 {
		c.Observability.SampleRate = 0.1
	}
	if c.Ranking.SweepInterval == 0 {
		c.Ranking.SweepInterval = 15 * time.Minute
	}
	if c.Ranking.RecomputeTimeout == 0 {
		c.Ranking.RecomputeTimeout = 2 * time.Minute
	}
	if c.Ranking.Timezone == "" {
		c.Ranking.Timezone = "Europe/Moscow"
	}
	if c.Ranking.CacheTTL == 0 {
		c.Ranking.CacheTTL = 10 * time.Minute
	}
	if c.Ranking.QueueWorkers == 0 {
		c.Ranking.QueueWorkers = 10
	}
}

// Location resolves the ranking timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Ranking.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ranking timezone %q: %w", c.Ranking.Timezone, err)
	}
	return loc, nil
}

func ToObsConfig(appCfg *Config) observability.Config {
	return observability.Config{
		ServiceName:  "rso-competitions",
		Version:      "1.0.0",
		Environment:  appCfg.Observability.Environment,
		LogLevel:     appCfg.Observability.LogLevel,
		OTLPEndpoint: appCfg.Observability.OTLPEndpoint,
		OTLPInsecure: appCfg.Observability.OTLPInsecure,
		SampleRate:   appCfg.Observability.SampleRate,
	}
}
