package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pcdogyu/tradesession/internal/market"
)

// Source kinds.
const (
	SourceFile     = "file"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
	SourceRedis    = "redis"
)

type Config struct {
	DBPath string `yaml:"db_path"`
	Listen string `yaml:"listen"`

	Log LogConfig `yaml:"log"`

	Source SourceConfig `yaml:"source"`

	Reload struct {
		IntervalSeconds int   `yaml:"interval_seconds"`
		Merge           *bool `yaml:"merge"`
		RetentionDays   int   `yaml:"retention_days"`
	} `yaml:"reload"`

	// Presets registers products from built-in schedules, e.g. {"IF": "stock_index"}.
	// They are merged after every load from Source.
	Presets map[string]string `yaml:"presets"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type SourceConfig struct {
	Kind string `yaml:"kind"`

	// file: .csv or .xlsx
	Path     string `yaml:"path"`
	Encoding string `yaml:"encoding"`
	Sheet    string `yaml:"sheet"`

	// postgres (sqlite reads db_path)
	DSN   string `yaml:"dsn"`
	Query string `yaml:"query"`

	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Key is a hash of product -> session column.
	Key string `yaml:"key"`
}

// Load reads path, applies an optional .env next to it and the TSESS_* environment.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	envPath := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envPath, err)
		}
	}
	applyEnv(&cfg)

	if err := NormalizeAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TSESS_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TSESS_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("TSESS_SOURCE_DSN"); v != "" {
		cfg.Source.DSN = v
	}
	if v := os.Getenv("TSESS_REDIS_ADDR"); v != "" {
		cfg.Source.Redis.Addr = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.DBPath == "" {
		cfg.DBPath = "data/tradesession.db"
	}
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:8090"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.File != "" {
		if cfg.Log.MaxSizeMB == 0 {
			cfg.Log.MaxSizeMB = 100
		}
		if cfg.Log.MaxBackups == 0 {
			cfg.Log.MaxBackups = 7
		}
	}
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = SourceFile
	}
	// import -to redis uses these even when the source is not redis.
	if cfg.Source.Redis.Addr == "" {
		cfg.Source.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.Source.Redis.Key == "" {
		cfg.Source.Redis.Key = "tradesession:sessions"
	}
	if cfg.Reload.Merge == nil {
		// A full replace drops products that vanished from the source.
		v := false
		cfg.Reload.Merge = &v
	}
	if cfg.Reload.RetentionDays == 0 {
		cfg.Reload.RetentionDays = 30
	}
}

// NormalizeAndValidate applies defaults and checks invariants.
func NormalizeAndValidate(cfg *Config) error {
	applyDefaults(cfg)
	if cfg.Reload.IntervalSeconds < 0 {
		return fmt.Errorf("reload.interval_seconds must be >= 0")
	}
	if cfg.Reload.RetentionDays < 1 {
		return fmt.Errorf("reload.retention_days must be >= 1")
	}

	src := &cfg.Source
	src.Kind = strings.ToLower(src.Kind)
	switch src.Kind {
	case SourceFile:
		if src.Path == "" {
			return fmt.Errorf("source.path is required for kind %q", src.Kind)
		}
	case SourceSQLite:
	case SourcePostgres:
		if src.DSN == "" {
			return fmt.Errorf("source.dsn is required for kind %q", src.Kind)
		}
	case SourceRedis:
	default:
		return fmt.Errorf("unknown source.kind %q", src.Kind)
	}

	for product, name := range cfg.Presets {
		if _, err := market.Preset(name); err != nil {
			return fmt.Errorf("presets.%s: %w", product, err)
		}
	}
	return nil
}

// MergeOnReload reports the configured reload mode.
func (c Config) MergeOnReload() bool {
	return c.Reload.Merge != nil && *c.Reload.Merge
}
