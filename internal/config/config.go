// Package config загружает настройки сервера из окружения.
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageInMemory = "in-memory"
)

// Config читается из переменных окружения, при наличии дополняется файлом .env.
type Config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	Storage     string        `env:"BLOG_STORAGE" envDefault:"sqlite"`
	SQLitePath  string        `env:"BLOG_SQLITE_PATH" envDefault:"blog.db"`
	DatabaseURL string        `env:"DATABASE_URL"`
	SignKey     string        `env:"SIGN_KEY"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	Env         string        `env:"GO_ENV" envDefault:"production"`
	TemplateDir string        `env:"TEMPLATE_DIR" envDefault:"internal/web/templates"`
}

// IsDev сообщает, запущен ли сервер в режиме разработки.
func (c Config) IsDev() bool {
	return c.Env == "development"
}

// Load читает .env (если он есть) и окружение.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found")
	}
	return Parse()
}

// Parse читает только окружение.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate проверяет настройки, у которых нет безопасного значения по умолчанию.
func (c Config) Validate() error {
	if c.SignKey == "" {
		return errors.New("SIGN_KEY must be set")
	}
	switch c.Storage {
	case StorageSQLite:
		if c.SQLitePath == "" {
			return errors.New("BLOG_SQLITE_PATH must be set for sqlite storage")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set for postgres storage")
		}
	case StorageInMemory:
	default:
		return fmt.Errorf("unknown storage %q (want sqlite, postgres or in-memory)", c.Storage)
	}
	return nil
}
