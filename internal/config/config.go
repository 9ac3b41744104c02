package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the import service.
// Values come from config.yaml when present; environment variables override them.
// Secrets (passwords, signing keys) are only read from the environment.
type Config struct {
	Env      string `yaml:"env" env:"APP_ENV" env-default:"development"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:""`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Source   SourceConfig   `yaml:"source"`
	Import   ImportConfig   `yaml:"import"`
	Auth     AuthConfig     `yaml:"auth"`
}

// DatabaseConfig selects the catalog store. Type is "postgres" or "sqlite".
type DatabaseConfig struct {
	Type       string `yaml:"type" env:"DB_TYPE" env-default:"postgres"`
	Host       string `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port       string `yaml:"port" env:"PG_PORT" env-default:"5432"`
	User       string `yaml:"user" env:"PG_USER" env-default:"joconde"`
	Password   string `yaml:"-" env:"PG_PASSWORD"`
	Name       string `yaml:"name" env:"PG_DB" env-default:"joconde"`
	SSLMode    string `yaml:"ssl_mode" env:"PG_SSLMODE" env-default:"disable"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"joconde.db"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// RedisConfig is optional; an empty Addr keeps cache and run lock in-process.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:""`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Enabled reports whether a Redis server is configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// SourceConfig describes where the collection export is fetched from.
type SourceConfig struct {
	URL          string        `yaml:"url" env:"SOURCE_URL" env-default:""`
	TempDir      string        `yaml:"temp_dir" env:"SOURCE_TEMP_DIR" env-default:""`
	PollInterval time.Duration `yaml:"poll_interval" env:"SOURCE_POLL_INTERVAL" env-default:"24h"`
	HTTPTimeout  time.Duration `yaml:"http_timeout" env:"SOURCE_HTTP_TIMEOUT" env-default:"30m"`
}

// ImportConfig tunes the parse and import pipeline.
type ImportConfig struct {
	ParseBatchSize          int  `yaml:"parse_batch_size" env:"IMPORT_PARSE_BATCH_SIZE" env-default:"1000"`
	ReferenceBatchSize      int  `yaml:"reference_batch_size" env:"IMPORT_REFERENCE_BATCH_SIZE" env-default:"100"`
	ArtworkBatchSize        int  `yaml:"artwork_batch_size" env:"IMPORT_ARTWORK_BATCH_SIZE" env-default:"50"`
	ProgressEvery           int  `yaml:"progress_every" env:"IMPORT_PROGRESS_EVERY" env-default:"100"`
	ParallelReferenceStages bool `yaml:"parallel_reference_stages" env:"IMPORT_PARALLEL_REFERENCE_STAGES" env-default:"false"`
}

// AuthConfig holds the admin token signing key.
type AuthConfig struct {
	AdminSecret string `yaml:"-" env:"ADMIN_JWT_SECRET"`
}

// Load reads configuration from the given YAML file if it exists, then from the environment.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			return &cfg, cfg.validate()
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, cfg.validate()
}

// maxProgressEvery keeps progress reports at least every thousand records.
const maxProgressEvery = 1000

func (c *Config) validate() error {
	switch c.Database.Type {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Import.ReferenceBatchSize <= 0 || c.Import.ArtworkBatchSize <= 0 || c.Import.ParseBatchSize <= 0 {
		return errors.New("import batch sizes must be positive")
	}
	if c.Import.ProgressEvery <= 0 || c.Import.ProgressEvery > maxProgressEvery {
		return fmt.Errorf("import progress_every must be between 1 and %d", maxProgressEvery)
	}
	return nil
}
