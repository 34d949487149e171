package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Prefs  PrefsConfig
	Auth   AuthConfig
}

type ServerConfig struct {
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type DBConfig struct {
	// DSN is a stoolap connection string, file://<path>.
	DSN  string `env:"DB_DSN" envDefault:"file:///var/lib/shop/shop.db"`
	Seed bool   `env:"DB_SEED" envDefault:"true"`
}

type PrefsConfig struct {
	Path string `env:"PREFS_PATH" envDefault:"/var/lib/shop/user_prefs.json"`
}

type AuthConfig struct {
	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"10"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
