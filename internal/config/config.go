package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendFile   = "file"
	BackendLibSQL = "libsql"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":3000"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"file"`
	DataFile     string `env:"DATA_FILE" envDefault:"data/data.json"`
	DBPath       string `env:"DB_PATH" envDefault:"data/missions.db"`
	RedisURL     string `env:"REDIS_URL"`

	PublicDir  string `env:"PUBLIC_DIR" envDefault:"public"`
	UploadsDir string `env:"UPLOADS_DIR" envDefault:"public/uploads"`

	AdminUsername       string `env:"ADMIN_USERNAME" envDefault:"Admin18"`
	AdminPassword       string `env:"ADMIN_PASSWORD" envDefault:"Admin@1805"`
	OperativePassphrase string `env:"OPERATIVE_PASSPHRASE" envDefault:"Tech2k26"`

	MaxWrongAttempts  int  `env:"MAX_WRONG_ATTEMPTS" envDefault:"5"`
	ExtractionSeconds int  `env:"EXTRACTION_SECONDS" envDefault:"60"`
	SeedDemo          bool `env:"SEED_DEMO" envDefault:"false"`
}

// ExtractionDuration is ExtractionSeconds as a duration.
func (c *Config) ExtractionDuration() time.Duration {
	return time.Duration(c.ExtractionSeconds) * time.Second
}

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendFile, BackendLibSQL:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendFile, BackendLibSQL, c.StoreBackend)
	}
	if c.MaxWrongAttempts < 1 {
		return fmt.Errorf("MAX_WRONG_ATTEMPTS must be at least 1, got %d", c.MaxWrongAttempts)
	}
	if c.ExtractionSeconds < 1 {
		return fmt.Errorf("EXTRACTION_SECONDS must be at least 1, got %d", c.ExtractionSeconds)
	}
	if c.AdminPassword == "" || c.OperativePassphrase == "" {
		return errors.New("ADMIN_PASSWORD and OPERATIVE_PASSPHRASE must not be empty")
	}
	return nil
}
