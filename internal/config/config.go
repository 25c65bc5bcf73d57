package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"sprint-tracker/internal/logger"
	"sprint-tracker/internal/notify"
	"sprint-tracker/internal/repository/postgres"
	"sprint-tracker/internal/scheduler"
	"sprint-tracker/internal/server"
	"sprint-tracker/internal/service"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Storage   string `env:"STORAGE_DRIVER" env-default:"postgres"`
	Logger    logger.Config
	HTTP      server.Config
	Scheduler scheduler.Config
	Notify    notify.Config
	Service   service.Config
}

// New reads the service configuration from the .env file at path. The file's
// variables are exported to the process environment first, so unset keys fall
// back to whatever the environment already holds.
func New(path string) (*Config, error) {
	var cfg Config

	err := cleanenv.ReadConfig(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if cfg.Storage != StoragePostgres && cfg.Storage != StorageMemory {
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage)
	}

	return &cfg, nil
}

// NewPostgres reads the database settings. It is separate from New so the
// memory driver starts without any POSTGRES_* variables.
func NewPostgres(path string) (*postgres.Config, error) {
	var cfg postgres.Config

	err := cleanenv.ReadConfig(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read postgres config: %w", err)
	}

	return &cfg, nil
}
