package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/pflag"
)

type Config struct {
	Addr            string        `env:"RUN_ADDRESS" env-default:":8080"`
	DatabaseDriver  string        `env:"DATABASE_DRIVER" env-default:"sqlite"`
	DatabaseURL     string        `env:"DATABASE_URI"`
	SQLitePath      string        `env:"SQLITE_PATH" env-default:"billing.db"`
	PrivateKey      string        `env:"PRIVATE_KEY" env-default:"privatekey"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" env-default:"1h"`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
	FixturesPath    string        `env:"FIXTURES_PATH"`
}

// BindFlags registers the command-line overrides. Flags win over the
// environment only when set explicitly.
func BindFlags(fs *pflag.FlagSet) {
	fs.StringP("address", "a", "", "HTTP server address")
	fs.StringP("database", "d", "", "Postgres connection URI")
	fs.String("driver", "", "database driver: postgres or sqlite")
	fs.String("sqlite-path", "", "SQLite database file")
	fs.String("log-level", "", "log level")
	fs.String("fixtures", "", "fixtures YAML file")
}

func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("couldn't read environment variables: %w", err)
	}

	if fs != nil {
		overrides := map[string]*string{
			"address":     &cfg.Addr,
			"database":    &cfg.DatabaseURL,
			"driver":      &cfg.DatabaseDriver,
			"sqlite-path": &cfg.SQLitePath,
			"log-level":   &cfg.LogLevel,
			"fixtures":    &cfg.FixturesPath,
		}
		for name, dst := range overrides {
			f := fs.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			*dst = f.Value.String()
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URI is required for the postgres driver")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}

	if c.PrivateKey == "" {
		return errors.New("PRIVATE_KEY must not be empty")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}

	return nil
}
