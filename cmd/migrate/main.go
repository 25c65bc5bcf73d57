package main

import (
	"errors"
	"flag"
	"fmt"
	stdlog "log"

	"github.com/golang-migrate/migrate"
	_ "github.com/golang-migrate/migrate/database/postgres"
	_ "github.com/golang-migrate/migrate/source/file"
	"go.uber.org/zap"

	"sprint-tracker/internal/config"
	"sprint-tracker/internal/logger"
)

func main() {
	var (
		configPath, migrationPath string
		down                      bool
	)

	flag.StringVar(&configPath, "config_path", "", "Path to the config file")
	flag.StringVar(&migrationPath, "migration_path", "migrations", "Path to the migrations directory")
	flag.BoolVar(&down, "down", false, "Roll every migration back instead of applying them")
	flag.Parse()

	cfg, err := config.New(configPath)
	if err != nil {
		stdlog.Fatal(err)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		stdlog.Fatal(err)
	}
	defer log.Sync()

	pgCfg, err := config.NewPostgres(configPath)
	if err != nil {
		log.Fatal("failed to read postgres config", zap.Error(err))
	}

	url := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		pgCfg.User,
		pgCfg.Password,
		pgCfg.Host,
		pgCfg.Port,
		pgCfg.Database,
	)

	migration, err := migrate.New("file://"+migrationPath, url)
	if err != nil {
		log.Fatal("failed to create migration", zap.Error(err))
	}
	defer migration.Close()

	if down {
		err = migration.Down()
	} else {
		err = migration.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal("failed to run migration", zap.Bool("down", down), zap.Error(err))
	}

	version, dirty, err := migration.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatal("failed to read migration version", zap.Error(err))
	}

	log.Info("successfully migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
