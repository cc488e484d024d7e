package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/neurobridge-companion/internal/data/credstore"
	"github.com/yungbote/neurobridge-companion/internal/observability"
	"github.com/yungbote/neurobridge-companion/internal/platform/envutil"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

const (
	ServiceName = "study-companion"
	// ConfigEnv names the variable pointing at an optional YAML config file.
	ConfigEnv = "COMPANION_CONFIG"
)

// Version is set at build time.
var Version = "dev"

type APIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

type StoreConfig struct {
	Driver string        `yaml:"driver"`
	DSN    string        `yaml:"dsn"`
	Key    string        `yaml:"key"`
	TTL    time.Duration `yaml:"ttl"`
}

type HTTPConfig struct {
	Addr    string   `yaml:"addr"`
	Origins []string `yaml:"origins"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
	Insecure    bool    `yaml:"insecure"`
}

type Config struct {
	Environment string      `yaml:"environment"`
	LogMode     string      `yaml:"log_mode"`
	API         APIConfig   `yaml:"api"`
	Store       StoreConfig `yaml:"store"`
	HTTP        HTTPConfig  `yaml:"http"`
	Otel        OtelConfig  `yaml:"otel"`
}

func DefaultConfig() Config {
	return Config{
		Environment: "development",
		LogMode:     "development",
		API: APIConfig{
			BaseURL:    "http://localhost:8001/api",
			Timeout:    60 * time.Second,
			MaxRetries: 2,
		},
		Store: StoreConfig{
			Driver: credstore.DriverSQLite,
			DSN:    defaultStorePath(),
		},
		HTTP: HTTPConfig{Addr: "127.0.0.1:8080"},
		Otel: OtelConfig{SampleRatio: 0.1},
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "study-companion", "companion.db")
}

// LoadConfig layers defaults, the YAML file named by COMPANION_CONFIG (when set) and
// environment variables, in that order.
func LoadConfig(log *logger.Logger) (Config, error) {
	if log == nil {
		log = logger.Nop()
	}
	cfg := DefaultConfig()
	if path := envutil.String(ConfigEnv, ""); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
		log.Info("loaded config file", "path", path)
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Environment = envutil.String("ENVIRONMENT", cfg.Environment)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)

	cfg.API.BaseURL = envutil.String("COMPANION_API_URL", cfg.API.BaseURL)
	cfg.API.Timeout = envutil.Seconds("COMPANION_API_TIMEOUT_SECONDS", cfg.API.Timeout)
	cfg.API.MaxRetries = envutil.Int("COMPANION_API_MAX_RETRIES", cfg.API.MaxRetries)
	cfg.API.RequestsPerSecond = envutil.Float("COMPANION_API_RPS", cfg.API.RequestsPerSecond)
	cfg.API.Burst = envutil.Int("COMPANION_API_BURST", cfg.API.Burst)

	cfg.Store.Driver = envutil.String("COMPANION_STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.DSN = envutil.String("COMPANION_STORE_DSN", cfg.Store.DSN)
	cfg.Store.Key = envutil.String("COMPANION_STORE_KEY", cfg.Store.Key)
	cfg.Store.TTL = envutil.Seconds("COMPANION_STORE_TTL_SECONDS", cfg.Store.TTL)

	cfg.HTTP.Addr = envutil.String("COMPANION_HTTP_ADDR", cfg.HTTP.Addr)
	if raw := envutil.String("COMPANION_CORS_ORIGINS", ""); raw != "" {
		cfg.HTTP.Origins = splitList(raw)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("config: api.base_url is required")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("config: api.max_retries must not be negative")
	}
	switch strings.ToLower(strings.TrimSpace(c.Store.Driver)) {
	case credstore.DriverSQLite, credstore.DriverPostgres, credstore.DriverRedis, credstore.DriverMemory, "":
	default:
		return fmt.Errorf("config: unsupported store.driver %q", c.Store.Driver)
	}
	return nil
}

// Tracing returns the tracing settings with OTEL_* variables applied.
func (c Config) Tracing() observability.OtelConfig {
	return observability.OtelConfigFromEnv(observability.OtelConfig{
		ServiceName: ServiceName,
		Environment: c.Environment,
		Version:     Version,
		Enabled:     c.Otel.Enabled,
		SampleRatio: c.Otel.SampleRatio,
		Endpoint:    c.Otel.Endpoint,
		Insecure:    c.Otel.Insecure,
	})
}

func (c Config) storeConfig() credstore.Config {
	return credstore.Config{Driver: c.Store.Driver, DSN: c.Store.DSN, Key: c.Store.Key, TTL: c.Store.TTL}
}
