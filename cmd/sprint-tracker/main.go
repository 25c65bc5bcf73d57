package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"sprint-tracker/internal/config"
	"sprint-tracker/internal/logger"
	"sprint-tracker/internal/notify"
	"sprint-tracker/internal/repository"
	"sprint-tracker/internal/repository/memory"
	"sprint-tracker/internal/repository/postgres"
	"sprint-tracker/internal/scheduler"
	"sprint-tracker/internal/server"
	"sprint-tracker/internal/service"
)

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancel()

	configPath := fetchConfigPath()
	if configPath == "" {
		stdlog.Fatal("config path must specify")
	}

	cfg, err := config.New(configPath)
	if err != nil {
		stdlog.Fatalf("cannot initialize config: %v", err)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		stdlog.Fatalf("cannot initialize logger: %v", err)
	}
	defer log.Sync()

	repo, err := newRepository(ctx, cfg.Storage, configPath, log)
	if err != nil {
		log.Fatal("cannot initialize storage", zap.String("driver", cfg.Storage), zap.Error(err))
	}

	notifier, err := notify.New(&cfg.Notify, log)
	if err != nil {
		log.Fatal("cannot initialize notifier", zap.Error(err))
	}

	svc, err := service.New(&cfg.Service, repo, notifier, log)
	if err != nil {
		log.Fatal("cannot initialize service", zap.Error(err))
	}

	sched, err := scheduler.New(&cfg.Scheduler, svc, log)
	if err != nil {
		log.Fatal("cannot initialize scheduler", zap.Error(err))
	}
	sched.Start(ctx)

	router := server.NewRouter(svc, log, &cfg.Logger, cfg.HTTP.Timeout)
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("starting http server", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	log.Info("received shutdown signal")

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		log.Error("failed to shutdown server", zap.Error(err))
	}
	sched.Stop(shutdownCtx)
	repo.Close()

	log.Info("application shutdown completed successfully")
}

func newRepository(ctx context.Context, driver, configPath string, log *zap.Logger) (repository.Repository, error) {
	if driver == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.New(log), nil
	}

	pgCfg, err := config.NewPostgres(configPath)
	if err != nil {
		return nil, err
	}

	return postgres.New(ctx, pgCfg, log)
}

func fetchConfigPath() string {
	var path string

	flag.StringVar(&path, "config_path", "", "Path to the config file")
	flag.Parse()

	return path
}
